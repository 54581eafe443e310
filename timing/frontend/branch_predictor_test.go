package frontend_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/timing/frontend"
)

var _ = Describe("BranchPredictor", func() {
	var bp *frontend.BranchPredictor

	BeforeEach(func() {
		bp = frontend.NewBranchPredictor(frontend.DefaultBranchPredictorConfig())
	})

	Context("direction prediction", func() {
		It("should not know untrained branches", func() {
			p := bp.Predict(0x1000)
			Expect(p.Known).To(BeFalse())
			Expect(p.Taken).To(BeFalse())
		})

		It("should fall back to static not-taken for untrained branches", func() {
			Expect(bp.Resolve(0x1000, false)).To(BeTrue())
			Expect(bp.Resolve(0x1004, true)).To(BeFalse())

			stats := bp.Stats()
			Expect(stats.Predictions).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
		})

		It("should take two taken outcomes to predict taken", func() {
			bp.Resolve(0x1000, true)
			Expect(bp.Predict(0x1000).Taken).To(BeFalse())

			bp.Resolve(0x1000, true)
			p := bp.Predict(0x1000)
			Expect(p.Known).To(BeTrue())
			Expect(p.Taken).To(BeTrue())
		})

		It("should keep predicting taken across a single not-taken outcome", func() {
			for i := 0; i < 4; i++ {
				bp.Resolve(0x1000, true)
			}

			// the counter saturates at 3, one miss only drops it to 2
			Expect(bp.Resolve(0x1000, false)).To(BeFalse())
			Expect(bp.Predict(0x1000).Taken).To(BeTrue())
		})

		It("should track compressed branch addresses separately", func() {
			bp.Resolve(0x1000, true)
			bp.Resolve(0x1000, true)

			Expect(bp.Predict(0x1002).Known).To(BeFalse())
		})
	})

	Context("target prediction", func() {
		It("should miss before the first resolution", func() {
			_, known := bp.PredictTarget(0x1000)
			Expect(known).To(BeFalse())
			Expect(bp.Stats().BTBMisses).To(Equal(uint64(1)))
		})

		It("should return the recorded target", func() {
			bp.ResolveTarget(0x1000, 0x4000)

			target, known := bp.PredictTarget(0x1000)
			Expect(known).To(BeTrue())
			Expect(target).To(Equal(uint64(0x4000)))
			Expect(bp.Stats().BTBHits).To(Equal(uint64(1)))
		})

		It("should miss when another jump claimed the slot", func() {
			// 0x1000 and 0x1010 share an index in an 8-entry buffer
			bp.ResolveTarget(0x1000, 0x4000)
			bp.ResolveTarget(0x1010, 0x5000)

			_, known := bp.PredictTarget(0x1000)
			Expect(known).To(BeFalse())
		})
	})

	Context("return address stack", func() {
		It("should pop the most recent call first", func() {
			bp.PushCall(0x1004)
			bp.PushCall(0x2004)

			Expect(bp.VerifyReturn(0x2004)).To(BeTrue())
			Expect(bp.VerifyReturn(0x1004)).To(BeTrue())
			Expect(bp.Stats().RASHits).To(Equal(uint64(2)))
		})

		It("should miss on an empty stack", func() {
			Expect(bp.VerifyReturn(0x1004)).To(BeFalse())
			Expect(bp.Stats().RASMisses).To(Equal(uint64(1)))
		})

		It("should miss when the popped address differs", func() {
			bp.PushCall(0x1004)
			Expect(bp.VerifyReturn(0x2004)).To(BeFalse())
			Expect(bp.RASLen()).To(BeZero())
		})

		It("should forget the oldest call when full", func() {
			bp.PushCall(0x1004)
			bp.PushCall(0x2004)
			bp.PushCall(0x3004)

			Expect(bp.RASLen()).To(Equal(2))
			Expect(bp.VerifyReturn(0x3004)).To(BeTrue())
			Expect(bp.VerifyReturn(0x2004)).To(BeTrue())
			Expect(bp.VerifyReturn(0x1004)).To(BeFalse())
		})
	})

	Context("statistics", func() {
		It("should report rates as percentages", func() {
			stats := frontend.BranchPredictorStats{
				Predictions:    10,
				Correct:        9,
				Mispredictions: 1,
				BTBHits:        3,
				BTBMisses:      1,
				RASHits:        1,
				RASMisses:      1,
			}

			Expect(stats.Accuracy()).To(BeNumerically("~", 90.0, 0.01))
			Expect(stats.MispredictionRate()).To(BeNumerically("~", 10.0, 0.01))
			Expect(stats.BTBHitRate()).To(BeNumerically("~", 75.0, 0.01))
			Expect(stats.RASHitRate()).To(BeNumerically("~", 50.0, 0.01))
		})

		It("should report zero rates before any prediction", func() {
			var stats frontend.BranchPredictorStats
			Expect(stats.Accuracy()).To(BeZero())
			Expect(stats.BTBHitRate()).To(BeZero())
			Expect(stats.RASHitRate()).To(BeZero())
		})
	})

	It("should clear state and statistics on reset", func() {
		bp.Resolve(0x1000, true)
		bp.Resolve(0x1000, true)
		bp.ResolveTarget(0x1000, 0x4000)
		bp.PushCall(0x1004)

		bp.Reset()

		Expect(bp.Predict(0x1000).Known).To(BeFalse())
		_, known := bp.PredictTarget(0x1000)
		Expect(known).To(BeFalse())
		Expect(bp.RASLen()).To(BeZero())
		Expect(bp.Stats().Predictions).To(BeZero())
	})
})
