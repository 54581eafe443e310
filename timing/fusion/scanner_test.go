package fusion_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/fusion"
)

var _ = Describe("TwoWideScanner", func() {
	var scanner *fusion.TwoWideScanner

	BeforeEach(func() {
		scanner = fusion.NewTwoWideScanner()
	})

	It("should pass an unmatched window through untouched", func() {
		w0 := other(0x10)
		w1 := other(0x14)

		r := scanner.Scan(&w0, &w1, true, true)

		Expect(r.Out0).To(Equal(w0))
		Expect(r.Out1).To(Equal(w1))
		Expect(r.FirstValid).To(BeTrue())
	})

	It("should pass a fusable window through when validity is missing", func() {
		w0 := addImm(0x10, 5, 1, 8)
		w1 := load(0x14, insts.ClassLD, 5, 5, 16)

		r := scanner.Scan(&w0, &w1, true, false)

		Expect(r.Out0).To(Equal(w0))
		Expect(r.Out1).To(Equal(w1))
		Expect(r.FirstValid).To(BeTrue())
	})

	It("should pass a window through when the register chain breaks", func() {
		w0 := addImm(0x10, 5, 1, 8)
		w1 := load(0x14, insts.ClassLD, 6, 5, 16)

		r := scanner.Scan(&w0, &w1, true, true)

		Expect(r.Out0).To(Equal(w0))
		Expect(r.Out1).To(Equal(w1))
		Expect(r.FirstValid).To(BeTrue())
	})

	It("should pass a window through on a pending exception", func() {
		w0 := addImm(0x10, 5, 1, 8)
		w0.ExceptionPending = true
		w1 := load(0x14, insts.ClassLD, 5, 5, 16)

		r := scanner.Scan(&w0, &w1, true, true)

		Expect(r.Out0).To(Equal(w0))
		Expect(r.Out1).To(Equal(w1))
		Expect(r.FirstValid).To(BeTrue())
	})

	It("should place the fused record on slot 0 under the consumer's PC", func() {
		w0 := addImm(0x10, 5, 1, 0x1000)
		w1 := load(0x14, insts.ClassLD, 5, 5, 8)

		r := scanner.Scan(&w0, &w1, true, true)

		Expect(r.FirstValid).To(BeFalse())
		Expect(r.Out0.Fusion).ToNot(Equal(insts.FusionNone))
		Expect(r.Out0.PC).To(Equal(uint64(0x14)))
		Expect(r.Out0.Class).To(Equal(insts.ClassLD))
		Expect(r.Out0.Rd).To(Equal(uint8(5)))
		Expect(r.Out0.Rs1).To(Equal(uint8(1)))
		Expect(r.Out0.Result).To(Equal(int64(0x1008)))
		Expect(r.Out1).To(Equal(w1))
	})

	It("should not mutate the window records", func() {
		w0 := addImm(0x10, 5, 1, 0x1000)
		w1 := load(0x14, insts.ClassLD, 5, 5, 8)
		w0Before := w0
		w1Before := w1

		scanner.Scan(&w0, &w1, true, true)

		Expect(w0).To(Equal(w0Before))
		Expect(w1).To(Equal(w1Before))
	})

	It("should count fusions by pattern", func() {
		w0 := addImm(0x10, 5, 1, 0x1000)
		w1 := load(0x14, insts.ClassLD, 5, 5, 8)
		scanner.Scan(&w0, &w1, true, true)

		w2 := addImm(0x18, 6, 2, 0x2000)
		w3 := addImm(0x1C, 6, 6, 4)
		scanner.Scan(&w2, &w3, true, true)

		stats := scanner.Stats()
		Expect(stats.Steps).To(Equal(uint64(2)))
		Expect(stats.AddLoadFusions).To(Equal(uint64(1)))
		Expect(stats.AddAddFusions).To(Equal(uint64(1)))
		Expect(stats.Fusions()).To(Equal(uint64(2)))
	})
})
