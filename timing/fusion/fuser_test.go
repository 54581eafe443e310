package fusion_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/fusion"
)

var _ = Describe("Fuser", func() {
	var fuser *fusion.Fuser

	BeforeEach(func() {
		fuser = fusion.NewFuser()
	})

	It("should base the merged record on the consumer", func() {
		p := addImm(0x10, 5, 1, 8)
		c := load(0x14, insts.ClassLD, 5, 5, 16)

		fused := fuser.Fuse(&p, &c)

		Expect(fused.Class).To(Equal(insts.ClassLD))
		Expect(fused.Rd).To(Equal(uint8(5)))
		Expect(fused.PC).To(Equal(uint64(0x14)))
		Expect(fused.UseImm).To(BeTrue())
	})

	It("should route the producer's source operands", func() {
		p := addReg(0x10, 5, 1, 2)
		c := load(0x14, insts.ClassLD, 5, 5, 16)

		fused := fuser.Fuse(&p, &c)

		Expect(fused.Rs1).To(Equal(uint8(1)))
		Expect(fused.Rs2).To(Equal(uint8(2)))
	})

	It("should sum immediates for an immediate producer", func() {
		p := addImm(0x10, 5, 1, 0x1000)
		c := addImm(0x14, 5, 5, 8)

		fused := fuser.Fuse(&p, &c)

		Expect(fused.Result).To(Equal(int64(0x1008)))
		Expect(fused.UsePC).To(BeFalse())
	})

	It("should sum negative immediates", func() {
		p := addImm(0x10, 5, 1, -0x800)
		c := load(0x14, insts.ClassLW, 5, 5, -8)

		fused := fuser.Fuse(&p, &c)

		Expect(fused.Result).To(Equal(int64(-0x808)))
	})

	It("should keep the consumer's value for a register producer", func() {
		p := addReg(0x10, 5, 1, 2)
		c := load(0x14, insts.ClassLD, 5, 5, 16)

		fused := fuser.Fuse(&p, &c)

		Expect(fused.Result).To(Equal(int64(16)))
	})

	Describe("PC-offset compensation", func() {
		It("should subtract the full encoding length of a PC-relative producer", func() {
			p := addImm(0x10, 5, 1, 100)
			p.UsePC = true
			c := addImm(0x14, 5, 5, 8)

			fused := fuser.Fuse(&p, &c)

			Expect(fused.Result).To(Equal(int64(104)))
			Expect(fused.UsePC).To(BeTrue())
		})

		It("should subtract the short encoding length of a compressed producer", func() {
			p := addImm(0x10, 5, 1, 100)
			p.UsePC = true
			p.Compressed = true
			c := addImm(0x12, 5, 5, 8)

			fused := fuser.Fuse(&p, &c)

			Expect(fused.Result).To(Equal(int64(106)))
			Expect(fused.UsePC).To(BeTrue())
		})

		It("should apply no correction without a PC-relative producer", func() {
			p := addImm(0x10, 5, 1, 100)
			c := addImm(0x14, 5, 5, 8)

			fused := fuser.Fuse(&p, &c)

			Expect(fused.Result).To(Equal(int64(108)))
			Expect(fused.UsePC).To(BeFalse())
		})
	})

	Describe("compression tag", func() {
		It("should encode every provenance combination", func() {
			cases := []struct {
				producerCompressed bool
				consumerCompressed bool
				want               insts.FusionTag
			}{
				{true, true, insts.FusionBoth},
				{true, false, insts.FusionMixed},
				{false, true, insts.FusionMixed},
				{false, false, insts.FusionNeither},
			}

			for _, tc := range cases {
				p := addImm(0x10, 5, 1, 8)
				p.Compressed = tc.producerCompressed
				c := load(0x14, insts.ClassLD, 5, 5, 16)
				c.Compressed = tc.consumerCompressed

				fused := fuser.Fuse(&p, &c)

				Expect(fused.Fusion).To(Equal(tc.want),
					"producer=%v consumer=%v",
					tc.producerCompressed, tc.consumerCompressed)
			}
		})
	})

	It("should never mutate its inputs", func() {
		p := addImm(0x10, 5, 1, 100)
		p.UsePC = true
		c := load(0x14, insts.ClassLD, 5, 5, 8)

		pBefore := p
		cBefore := c

		fuser.Fuse(&p, &c)

		Expect(p).To(Equal(pBefore))
		Expect(c).To(Equal(cBefore))
	})

	It("should be deterministic across repeated calls", func() {
		p := addImm(0x10, 5, 1, 100)
		p.UsePC = true
		p.Compressed = true
		c := load(0x12, insts.ClassLW, 5, 5, 8)

		first := fuser.Fuse(&p, &c)
		second := fuser.Fuse(&p, &c)

		Expect(second).To(Equal(first))
	})
})
