package frontend_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/frontend"
)

var _ = Describe("UnitFor", func() {
	It("should route kinds to their issue ports", func() {
		Expect(frontend.UnitFor(insts.KindALU)).To(Equal(frontend.UnitALU))
		Expect(frontend.UnitFor(insts.KindJump)).To(Equal(frontend.UnitALU))
		Expect(frontend.UnitFor(insts.KindSystem)).To(Equal(frontend.UnitALU))
		Expect(frontend.UnitFor(insts.KindBranch)).To(Equal(frontend.UnitBranch))
		Expect(frontend.UnitFor(insts.KindRegJump)).To(Equal(frontend.UnitBranch))
		Expect(frontend.UnitFor(insts.KindMul)).To(Equal(frontend.UnitMul))
		Expect(frontend.UnitFor(insts.KindDiv)).To(Equal(frontend.UnitMul))
		Expect(frontend.UnitFor(insts.KindLoad)).To(Equal(frontend.UnitLoad))
		Expect(frontend.UnitFor(insts.KindStore)).To(Equal(frontend.UnitStore))
	})
})

var _ = Describe("UnitTracker", func() {
	Context("with a single ALU", func() {
		var t *frontend.UnitTracker

		BeforeEach(func() {
			t = frontend.NewUnitTracker(false)
		})

		It("should block the FLU after an ALU issue", func() {
			Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())

			t.Issue(insts.KindALU)

			Expect(t.IsReady(frontend.UnitALU)).To(BeFalse())
			Expect(t.IsReady(frontend.UnitBranch)).To(BeFalse())
			Expect(t.IsReady(frontend.UnitLoad)).To(BeTrue())
		})

		It("should free the FLU on the next cycle", func() {
			t.Issue(insts.KindALU)
			t.Cycle()

			Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())
			Expect(t.IsReady(frontend.UnitBranch)).To(BeTrue())
		})

		It("should hold the FLU one extra cycle after a multiply", func() {
			t.Issue(insts.KindMul)
			Expect(t.IsReady(frontend.UnitMul)).To(BeFalse())

			// the multiplier result claims the FLU write-back port
			t.Cycle()
			Expect(t.IsReady(frontend.UnitMul)).To(BeTrue())
			Expect(t.IsReady(frontend.UnitALU)).To(BeFalse())
			Expect(t.IsReady(frontend.UnitBranch)).To(BeFalse())

			t.Cycle()
			Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())
		})
	})

	Context("with a second ALU", func() {
		var t *frontend.UnitTracker

		BeforeEach(func() {
			t = frontend.NewUnitTracker(true)
		})

		It("should issue the first ALU operation without claiming the FLU", func() {
			t.Issue(insts.KindALU)

			Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())
			Expect(t.IsReady(frontend.UnitBranch)).To(BeTrue())
		})

		It("should accept two ALU operations per cycle but not three", func() {
			t.Issue(insts.KindALU)
			t.Issue(insts.KindALU)

			Expect(t.IsReady(frontend.UnitALU)).To(BeFalse())

			t.Cycle()
			Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())
		})

		It("should pair a branch with an ALU operation", func() {
			t.Issue(insts.KindBranch)

			Expect(t.IsReady(frontend.UnitBranch)).To(BeFalse())
			Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())
		})
	})

	It("should block stores behind a branch", func() {
		t := frontend.NewUnitTracker(true)
		t.Issue(insts.KindBranch)

		Expect(t.IsReadyFor(insts.KindStore)).To(BeFalse())
		Expect(t.IsReadyFor(insts.KindLoad)).To(BeTrue())
	})

	It("should serialize loads and stores on the LSU", func() {
		t := frontend.NewUnitTracker(true)
		t.Issue(insts.KindLoad)

		Expect(t.IsReadyFor(insts.KindLoad)).To(BeFalse())
		Expect(t.IsReadyFor(insts.KindStore)).To(BeFalse())
		Expect(t.IsReadyFor(insts.KindALU)).To(BeTrue())

		t.Cycle()
		t.Issue(insts.KindStore)

		Expect(t.IsReadyFor(insts.KindLoad)).To(BeFalse())
	})

	It("should share the multiplier between multiplies and divides", func() {
		t := frontend.NewUnitTracker(true)
		t.Issue(insts.KindDiv)

		Expect(t.IsReadyFor(insts.KindMul)).To(BeFalse())
	})

	It("should clear everything on reset", func() {
		t := frontend.NewUnitTracker(false)
		t.Issue(insts.KindMul)
		t.Cycle()

		t.Reset()

		Expect(t.IsReady(frontend.UnitALU)).To(BeTrue())
		Expect(t.IsReady(frontend.UnitMul)).To(BeTrue())
	})

	It("should name the units", func() {
		Expect(frontend.UnitALU.String()).To(Equal("alu"))
		Expect(frontend.UnitMul.String()).To(Equal("mul"))
		Expect(frontend.UnitBranch.String()).To(Equal("branch"))
		Expect(frontend.UnitLoad.String()).To(Equal("load"))
		Expect(frontend.UnitStore.String()).To(Equal("store"))
	})
})
