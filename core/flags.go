package core

// updateFlags derives Z and N from a 64-bit two's-complement result and
// writes them into next. C and V are not modeled (spec.md §9): callers
// needing a condition that depends on them get an answer computed as if
// V were always 0.
func updateFlags(next *State, result uint64) {
	next.FlagZ = result == 0
	next.FlagN = result>>63 == 1
}
