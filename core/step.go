package core

import "github.com/go-armsim/armsim/insts"

// Engine drives the fetch-decode-execute cycle. It owns the current/next
// state pair and the memory it was constructed with; callers must not
// retain a reference to either state across calls to Step.
type Engine struct {
	current State
	mem     Memory
	decoder *insts.Decoder
}

// NewEngine creates an Engine over the given memory. The initial state
// has PC, registers and flags all zero and Run true.
func NewEngine(mem Memory) *Engine {
	return &Engine{
		current: State{Run: true},
		mem:     mem,
		decoder: insts.NewDecoder(),
	}
}

// State returns the current architectural state.
func (e *Engine) State() *State {
	return &e.current
}

// SetState overwrites the current architectural state, e.g. to set up a
// test fixture's initial registers and PC before running.
func (e *Engine) SetState(s State) {
	e.current = s
}

// Step performs one fetch-decode-execute cycle (spec.md §4.1):
//
//  1. Fetch the word at the current PC.
//  2. Stage next = current, then advance next.PC by 4.
//  3. If the word is HLT, set next.Run = false and return (PC has
//     already been advanced; this is intentional and observable).
//  4. Otherwise classify and execute into next.
//  5. Force next.Regs[31] = 0 and commit next as the new current.
func (e *Engine) Step() {
	word := e.mem.Read32(e.current.PC)

	next := e.current
	next.PC = e.current.PC + 4

	if word&0xFFFFFFE0 == 0xD4400000 {
		next.Run = false
		e.current = next
		return
	}

	inst := e.decoder.Decode(word)
	e.execute(&e.current, &next, inst)

	next.Regs[31] = 0
	e.current = next
}

// execute dispatches a decoded instruction to its family executor.
// Unrecognized encodings inside a family are silent no-ops on the
// general registers (spec.md §4.2, §7).
func (e *Engine) execute(cur, next *State, inst *insts.Instruction) {
	switch inst.Format {
	case insts.FormatR:
		execR(cur, next, inst)
	case insts.FormatI:
		execI(cur, next, inst)
	case insts.FormatD:
		execD(cur, next, inst, e.mem)
	case insts.FormatB:
		execB(cur, next, inst)
	case insts.FormatCB:
		execCB(cur, next, inst)
	case insts.FormatBCond:
		execBCond(cur, next, inst)
	case insts.FormatBR:
		execBR(cur, next, inst)
	}
}

// execR executes R-form register arithmetic/logical/shift instructions
// (spec.md §4.3). Flag updates occur on flag-setting forms even when
// rd == 31; the zero-register discipline only suppresses the register
// write, handled uniformly at end-of-step.
func execR(cur, next *State, inst *insts.Instruction) {
	a := cur.ReadReg(inst.Rn)
	b := cur.ReadReg(inst.Rm)

	switch inst.Op {
	case insts.OpADDS:
		result := a + b
		next.WriteReg(inst.Rd, result)
		updateFlags(next, result)
	case insts.OpSUBS:
		result := a - b
		next.WriteReg(inst.Rd, result)
		updateFlags(next, result)
	case insts.OpANDS:
		result := a & b
		next.WriteReg(inst.Rd, result)
		updateFlags(next, result)
	case insts.OpEOR:
		next.WriteReg(inst.Rd, a^b)
	case insts.OpORR:
		next.WriteReg(inst.Rd, a|b)
	case insts.OpMUL:
		next.WriteReg(inst.Rd, a*b)
	case insts.OpLSL:
		next.WriteReg(inst.Rd, a<<(b&0x3F))
	case insts.OpLSR:
		next.WriteReg(inst.Rd, a>>(b&0x3F))
	}
}

// execI executes I-form immediate arithmetic/move instructions (spec.md
// §4.4). OpMOVK is recognized but intentionally not executed — a
// documented gap (spec.md §7, §9).
func execI(cur, next *State, inst *insts.Instruction) {
	a := cur.ReadReg(inst.Rn)

	switch inst.Op {
	case insts.OpADDSImm:
		result := a + inst.Imm
		next.WriteReg(inst.Rd, result)
		updateFlags(next, result)
	case insts.OpSUBSImm:
		// Also implements CMP-imm: CMP is SUBS with Rd == XZR, and the
		// zero-register write-suppression makes the compare-only form
		// fall out for free.
		result := a - inst.Imm
		next.WriteReg(inst.Rd, result)
		updateFlags(next, result)
	case insts.OpADDImm:
		next.WriteReg(inst.Rd, a+inst.Imm)
	case insts.OpMOVZ:
		next.WriteReg(inst.Rd, inst.Imm)
	}
}

// execD executes D-form load/store instructions (spec.md §4.5). All
// sub-word accesses are emulated as a read-modify-write of the 32-bit
// word at addr, since Memory only exposes 32-bit-aligned access; the
// core performs no realignment of addr itself.
func execD(cur, next *State, inst *insts.Instruction, mem Memory) {
	addr := cur.ReadReg(inst.Rn) + inst.Imm

	switch inst.Op {
	case insts.OpLDUR:
		word := mem.Read32(addr)
		next.WriteReg(inst.Rt, uint64(int64(int32(word))))
	case insts.OpLDURB:
		next.WriteReg(inst.Rt, uint64(mem.Read32(addr)&0xFF))
	case insts.OpLDURH:
		next.WriteReg(inst.Rt, uint64(mem.Read32(addr)&0xFFFF))
	case insts.OpSTUR:
		mem.Write32(addr, uint32(cur.ReadReg(inst.Rt)))
	case insts.OpSTURB:
		word := mem.Read32(addr)
		word = (word &^ 0xFF) | (uint32(cur.ReadReg(inst.Rt)) & 0xFF)
		mem.Write32(addr, word)
	case insts.OpSTURH:
		word := mem.Read32(addr)
		word = (word &^ 0xFFFF) | (uint32(cur.ReadReg(inst.Rt)) & 0xFFFF)
		mem.Write32(addr, word)
	}
}

// execB executes the unconditional branch (spec.md §4.6).
func execB(cur, next *State, inst *insts.Instruction) {
	next.PC = uint64(int64(cur.PC) + inst.BranchOffset)
}

// execCB executes CBZ/CBNZ (spec.md §4.6). next.PC was already staged to
// PC+4 by Step; branching overwrites it, not taking the branch leaves it.
func execCB(cur, next *State, inst *insts.Instruction) {
	rt := cur.ReadReg(inst.Rt)
	take := rt == 0
	if inst.Op == insts.OpCBNZ {
		take = rt != 0
	}
	if take {
		next.PC = uint64(int64(cur.PC) + inst.BranchOffset)
	}
}

// execBCond executes B.cond (spec.md §4.6, §4.7).
func execBCond(cur, next *State, inst *insts.Instruction) {
	if checkCondition(cur, Cond(inst.Cond)) {
		next.PC = uint64(int64(cur.PC) + inst.BranchOffset)
	}
}

// execBR executes BR: an unconditional jump to the address in Rn
// (spec.md §4.6).
func execBR(cur, next *State, inst *insts.Instruction) {
	next.PC = cur.ReadReg(inst.Rn)
}
