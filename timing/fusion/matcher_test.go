package fusion_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/fusion"
)

// addImm builds a valid immediate-add record with the given register chain.
func addImm(pc uint64, rd, rs1 uint8, imm int64) insts.Record {
	return insts.Record{
		PC: pc, Class: insts.ClassADD,
		Rd: rd, Rs1: rs1,
		UseImm: true, Result: imm,
		Valid: true,
	}
}

// addReg builds a valid register-add record.
func addReg(pc uint64, rd, rs1, rs2 uint8) insts.Record {
	return insts.Record{
		PC: pc, Class: insts.ClassADD,
		Rd: rd, Rs1: rs1, Rs2: rs2,
		Valid: true,
	}
}

// load builds a valid load record of the given class.
func load(pc uint64, class insts.OpClass, rd, rs1 uint8, imm int64) insts.Record {
	return insts.Record{
		PC: pc, Class: class,
		Rd: rd, Rs1: rs1,
		UseImm: true, Result: imm,
		Valid: true,
	}
}

// other builds a valid record outside the fusable classes.
func other(pc uint64) insts.Record {
	return insts.Record{PC: pc, Class: insts.ClassOther, Valid: true}
}

var _ = Describe("Matcher", func() {
	var matcher *fusion.Matcher

	BeforeEach(func() {
		matcher = fusion.NewMatcher()
	})

	Describe("MatchPair", func() {
		It("should match add followed by load", func() {
			p := addImm(0x10, 5, 1, 8)
			c := load(0x14, insts.ClassLD, 5, 5, 16)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.AddLoad))
		})

		It("should match every load width as consumer", func() {
			classes := []insts.OpClass{
				insts.ClassLB, insts.ClassLBU,
				insts.ClassLH, insts.ClassLHU,
				insts.ClassLW, insts.ClassLWU,
				insts.ClassLD,
			}
			for _, class := range classes {
				p := addImm(0x10, 5, 1, 8)
				c := load(0x14, class, 5, 5, 0)
				Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.AddLoad),
					"consumer class %v", class)
			}
		})

		It("should match a word-width add producer", func() {
			p := addImm(0x10, 5, 1, 8)
			p.Class = insts.ClassADDW
			c := load(0x14, insts.ClassLW, 5, 5, 0)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.AddLoad))
		})

		It("should match a register add before a load", func() {
			p := addReg(0x10, 5, 1, 2)
			c := load(0x14, insts.ClassLD, 5, 5, 16)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.AddLoad))
		})

		It("should match two immediate adds", func() {
			p := addImm(0x10, 5, 1, 0x1000)
			c := addImm(0x14, 5, 5, 8)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.AddAdd))
		})

		It("should reject add pairs when the producer has no immediate", func() {
			p := addReg(0x10, 5, 1, 2)
			c := addImm(0x14, 5, 5, 8)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should reject add pairs when the consumer has no immediate", func() {
			p := addImm(0x10, 5, 1, 8)
			c := addReg(0x14, 5, 5, 2)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should reject add pairs with a PC-relative consumer", func() {
			p := addImm(0x10, 5, 1, 8)
			c := addImm(0x14, 5, 5, 4)
			c.UsePC = true

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should require the consumer rs1 to restate the producer rd", func() {
			p := addImm(0x10, 5, 1, 8)
			c := load(0x14, insts.ClassLD, 5, 6, 16)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should require the consumer rd to restate the producer rd", func() {
			p := addImm(0x10, 5, 1, 8)
			c := load(0x14, insts.ClassLD, 7, 5, 16)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should reject a non-add producer", func() {
			p := load(0x10, insts.ClassLD, 5, 1, 0)
			c := load(0x14, insts.ClassLD, 5, 5, 16)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should reject pairs outside the fusable classes", func() {
			p := other(0x10)
			c := other(0x14)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should reject invalid records", func() {
			p := addImm(0x10, 5, 1, 8)
			p.Valid = false
			c := load(0x14, insts.ClassLD, 5, 5, 16)

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})

		It("should fail open on a pending exception", func() {
			p := addImm(0x10, 5, 1, 8)
			c := load(0x14, insts.ClassLD, 5, 5, 16)
			c.ExceptionPending = true

			Expect(matcher.MatchPair(&p, &c)).To(Equal(fusion.NoFusion))
		})
	})

	Describe("MatchWindow2", func() {
		It("should match a fusable window with both slots valid", func() {
			w0 := addImm(0x10, 5, 1, 8)
			w1 := load(0x14, insts.ClassLD, 5, 5, 16)

			d := matcher.MatchWindow2(&w0, &w1, true, true)

			Expect(d.Kind).To(Equal(fusion.AddLoad))
			Expect(d.Producer).To(Equal(0))
			Expect(d.Consumer).To(Equal(1))
		})

		It("should gate on each validity bit", func() {
			w0 := addImm(0x10, 5, 1, 8)
			w1 := load(0x14, insts.ClassLD, 5, 5, 16)

			Expect(matcher.MatchWindow2(&w0, &w1, false, true).Kind).
				To(Equal(fusion.NoFusion))
			Expect(matcher.MatchWindow2(&w0, &w1, true, false).Kind).
				To(Equal(fusion.NoFusion))
		})
	})

	Describe("MatchWindow3", func() {
		It("should give the leading pair priority when both pairs match", func() {
			w0 := addImm(0x10, 5, 1, 8)
			w1 := addImm(0x14, 5, 5, 4)
			w2 := addImm(0x18, 5, 5, 2)

			d := matcher.MatchWindow3(&w0, &w1, &w2, true, true, true)

			Expect(d.Kind).To(Equal(fusion.AddAdd))
			Expect(d.Producer).To(Equal(0))
			Expect(d.Consumer).To(Equal(1))
		})

		It("should fall back to the trailing pair", func() {
			w0 := other(0x10)
			w1 := addImm(0x14, 5, 1, 8)
			w2 := load(0x18, insts.ClassLD, 5, 5, 16)

			d := matcher.MatchWindow3(&w0, &w1, &w2, true, true, true)

			Expect(d.Kind).To(Equal(fusion.AddLoad))
			Expect(d.Producer).To(Equal(1))
			Expect(d.Consumer).To(Equal(2))
		})

		It("should require slot 2 validity for the trailing pair", func() {
			w0 := other(0x10)
			w1 := addImm(0x14, 5, 1, 8)
			w2 := load(0x18, insts.ClassLD, 5, 5, 16)

			d := matcher.MatchWindow3(&w0, &w1, &w2, true, true, false)

			Expect(d.Kind).To(Equal(fusion.NoFusion))
		})

		It("should require slot 0 validity for the trailing pair", func() {
			w0 := other(0x10)
			w1 := addImm(0x14, 5, 1, 8)
			w2 := load(0x18, insts.ClassLD, 5, 5, 16)

			d := matcher.MatchWindow3(&w0, &w1, &w2, false, true, true)

			Expect(d.Kind).To(Equal(fusion.NoFusion))
		})

		It("should not gate the leading pair on slot 2 validity", func() {
			w0 := addImm(0x10, 5, 1, 8)
			w1 := load(0x14, insts.ClassLD, 5, 5, 16)
			w2 := other(0x18)

			d := matcher.MatchWindow3(&w0, &w1, &w2, true, true, false)

			Expect(d.Kind).To(Equal(fusion.AddLoad))
			Expect(d.Producer).To(Equal(0))
		})
	})
})
