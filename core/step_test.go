package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-armsim/armsim/core"
	"github.com/go-armsim/armsim/mem"
)

var _ = Describe("Engine", func() {
	var (
		m *mem.Flat
		e *core.Engine
	)

	BeforeEach(func() {
		m = mem.New()
		e = core.NewEngine(m)
	})

	Describe("invariants", func() {
		It("never leaves a nonzero value in the zero register", func() {
			s := e.State()
			s.Regs[1] = 5
			s.Regs[2] = 3
			m.LoadWords(0, []uint32{0x2A02003F}) // ORR XZR, X1, X2
			e.Step()
			Expect(e.State().Regs[31]).To(Equal(uint64(0)))
		})

		It("advances PC by 4 on a non-branching step", func() {
			m.LoadWords(0, []uint32{0xD2800020}) // MOVZ X0, #1
			e.Step()
			Expect(e.State().PC).To(Equal(uint64(4)))
		})
	})

	Describe("round-trip properties", func() {
		It("ADDS then SUBS with the same operand restores the original value", func() {
			m.LoadWords(0, []uint32{
				0xB1000420, // ADDS X0, X1, #1 ; X1 == 0
				0xF100040C, // SUBS X12, X0, #1
			})
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(1)))
			e.Step()
			Expect(e.State().Regs[12]).To(Equal(uint64(0)))
			Expect(e.State().FlagZ).To(BeTrue())
			Expect(e.State().FlagN).To(BeFalse())
			Expect(e.State().PC).To(Equal(uint64(8)))
		})

		It("EOR of a register with itself yields 0", func() {
			s := e.State()
			s.Regs[1] = 0xDEADBEEF
			m.LoadWords(0, []uint32{0x4A010020}) // EOR X0, X1, X1
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0)))
		})

		It("ORR of a register with 0 is identity", func() {
			s := e.State()
			s.Regs[1] = 0x1234
			m.LoadWords(0, []uint32{0x2A1F0020}) // ORR X0, X1, XZR
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0x1234)))
		})

		It("LSL by k then LSR by k is identity when the top k bits are zero", func() {
			s := e.State()
			s.Regs[1] = 0x1
			s.Regs[2] = 4 // shift amount
			m.LoadWords(0, []uint32{
				0x1AC22020, // LSL X0, X1, X2
				0x1AC22401, // LSR X1, X0, X2
			})
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0x10)))
			e.Step()
			Expect(e.State().Regs[1]).To(Equal(uint64(0x1)))
		})
	})

	Describe("boundary cases", func() {
		It("never alters another register when writing to XZR", func() {
			s := e.State()
			s.Regs[1] = 7
			s.Regs[2] = 7
			m.LoadWords(0, []uint32{0x6B22003F}) // SUBS XZR, X1, X2
			e.Step()
			Expect(e.State().Regs[1]).To(Equal(uint64(7)))
			Expect(e.State().Regs[2]).To(Equal(uint64(7)))
			Expect(e.State().FlagZ).To(BeTrue())
		})

		It("sets Z=1,N=0 when SUBS produces exactly 0", func() {
			s := e.State()
			s.Regs[1] = 5
			s.Regs[2] = 5
			m.LoadWords(0, []uint32{0x6B220020}) // SUBS X0, X1, X2
			e.Step()
			Expect(e.State().FlagZ).To(BeTrue())
			Expect(e.State().FlagN).To(BeFalse())
		})

		It("sets Z=0,N=1 when SUBS produces -1", func() {
			s := e.State()
			s.Regs[1] = 0
			s.Regs[2] = 1
			m.LoadWords(0, []uint32{0x6B220020}) // SUBS X0, X1, X2
			e.Step()
			Expect(e.State().FlagZ).To(BeFalse())
			Expect(e.State().FlagN).To(BeTrue())
		})

		It("jumps backward by 0x8000000 for the smallest negative imm26", func() {
			s := e.State()
			s.PC = 0x8000000
			m.LoadWords(0x8000000, []uint32{0x16000000}) // B, imm26 = 0x2000000
			e.Step()
			Expect(e.State().PC).To(Equal(uint64(0)))
		})

		It("honors only the low 6 bits of the LSL shift amount", func() {
			s := e.State()
			s.Regs[1] = 0x42
			s.Regs[2] = 64 // low 6 bits are 0
			m.LoadWords(0, []uint32{0x1AC22020}) // LSL X0, X1, X2
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0x42)))
		})
	})

	Describe("end-to-end scenarios", func() {
		It("scenario 1: ADDS immediate then SUBS immediate", func() {
			m.LoadWords(0x400000, []uint32{0xB1000420, 0xF100040C})
			e.SetState(core.State{PC: 0x400000, Run: true})
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(1)))
			e.Step()
			Expect(e.State().Regs[12]).To(Equal(uint64(0)))
			Expect(e.State().FlagZ).To(BeTrue())
			Expect(e.State().FlagN).To(BeFalse())
			Expect(e.State().PC).To(Equal(uint64(0x400008)))
		})

		It("scenario 2: MOVZ then CMP-imm not equal", func() {
			m.LoadWords(0x400000, []uint32{0xD2800020, 0xF100043F})
			e.SetState(core.State{PC: 0x400000, Run: true})
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(1)))
			e.Step()
			Expect(e.State().FlagZ).To(BeFalse())
			Expect(e.State().FlagN).To(BeTrue())
		})

		It("scenario 3: CBZ taken, first with a zero offset then with +8", func() {
			m.LoadWords(0x400000, []uint32{0xB4000005})
			e.SetState(core.State{PC: 0x400000, Run: true})
			e.Step()
			Expect(e.State().PC).To(Equal(uint64(0x400000)))

			m.LoadWords(0x400000, []uint32{0xB4000005 | (2 << 5)})
			e.SetState(core.State{PC: 0x400000, Run: true})
			e.Step()
			Expect(e.State().PC).To(Equal(uint64(0x400008)))
		})

		It("scenario 4: B backward", func() {
			m.LoadWords(0x400010, []uint32{0x17FFFFFC})
			e.SetState(core.State{PC: 0x400010, Run: true})
			e.Step()
			Expect(e.State().PC).To(Equal(uint64(0x400000)))
		})

		It("scenario 5: STURB preserves the upper three bytes", func() {
			m.Write32(0x1000, 0xAABBCCDD)
			e.SetState(core.State{PC: 0x400000, Run: true})
			s := e.State()
			s.Regs[2] = 0x11
			s.Regs[3] = 0x1000
			m.LoadWords(0x400000, []uint32{0x38000000 | (3 << 5) | 2}) // STURB X2, [X3, #0]
			e.Step()
			Expect(m.Read32(0x1000)).To(Equal(uint32(0xAABBCC11)))
		})

		It("scenario 6: HLT advances PC once and stops the run flag", func() {
			m.LoadWords(0x400000, []uint32{0xD4400000})
			e.SetState(core.State{PC: 0x400000, Run: true})
			e.Step()
			Expect(e.State().Run).To(BeFalse())
			Expect(e.State().PC).To(Equal(uint64(0x400004)))
			for _, r := range e.State().Regs {
				Expect(r).To(Equal(uint64(0)))
			}
		})
	})

	Describe("documented gaps", func() {
		It("treats MOVK as a no-op that still advances PC", func() {
			s := e.State()
			s.Regs[0] = 0xFFFFFFFFFFFFFFFF
			m.LoadWords(0, []uint32{0x72800020}) // MOVK X0, #1
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
			Expect(e.State().PC).To(Equal(uint64(4)))
		})

		It("treats imm9 as an unsigned byte offset rather than signed", func() {
			m.Write32(0x1000+511, 0x000000AB)
			s := e.State()
			s.Regs[1] = 0x1000
			m.LoadWords(0, []uint32{0xF85FF020}) // LDUR X0, [X1, #511]
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0xAB)))
		})

		It("sign-extends LDUR from 32 bits rather than loading a full doubleword", func() {
			m.Write32(0x2000, 0xFFFFFFFF)
			s := e.State()
			s.Regs[1] = 0x2000
			m.LoadWords(0, []uint32{0xF8400020}) // LDUR X0, [X1]
			e.Step()
			Expect(e.State().Regs[0]).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
		})
	})
})
