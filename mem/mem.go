// Package mem provides a minimal flat-address-space Memory fixture
// implementing core.Memory, for tests and the armsim CLI. The core
// itself does not own memory (spec.md §3) — this is a host collaborator,
// not part of the engine.
package mem

import "encoding/binary"

// Flat is a byte-addressable memory backed by a map of 4KiB pages, so
// programs can be loaded at arbitrary addresses without pre-sizing a
// flat array. Reads of unmapped pages return zero.
type Flat struct {
	pages map[uint64][]byte
}

const pageSize = 4096

// New creates an empty Flat memory.
func New() *Flat {
	return &Flat{pages: make(map[uint64][]byte)}
}

func (f *Flat) page(addr uint64) []byte {
	base := addr &^ (pageSize - 1)
	p, ok := f.pages[base]
	if !ok {
		p = make([]byte, pageSize)
		f.pages[base] = p
	}
	return p
}

// Read32 reads a little-endian 32-bit word at addr. The core does not
// enforce alignment, so addr need not be a multiple of 4; a read that
// crosses a page boundary is handled byte-by-byte.
func (f *Flat) Read32(addr uint64) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = f.ReadByte(addr + uint64(i))
	}
	return binary.LittleEndian.Uint32(b[:])
}

// Write32 writes a little-endian 32-bit word at addr.
func (f *Flat) Write32(addr uint64, value uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	for i, c := range b {
		f.WriteByte(addr+uint64(i), c)
	}
}

// ReadByte reads a single byte, for test assertions and for Read32; the
// core itself never calls this directly.
func (f *Flat) ReadByte(addr uint64) byte {
	base := addr &^ (pageSize - 1)
	p, ok := f.pages[base]
	if !ok {
		return 0
	}
	return p[addr-base]
}

// WriteByte writes a single byte.
func (f *Flat) WriteByte(addr uint64, v byte) {
	p := f.page(addr)
	base := addr &^ (pageSize - 1)
	p[addr-base] = v
}

// LoadWords installs a program of little-endian 32-bit words starting at
// entry, four bytes apart, as a test/CLI convenience.
func (f *Flat) LoadWords(entry uint64, words []uint32) {
	for i, w := range words {
		f.Write32(entry+uint64(i)*4, w)
	}
}
