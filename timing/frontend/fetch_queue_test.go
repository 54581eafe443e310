package frontend_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/timing/frontend"
)

var _ = Describe("FetchQueue", func() {
	It("should round the block size up to a power of two", func() {
		Expect(frontend.NewFetchQueue(6).BlockSize()).To(Equal(uint64(8)))
		Expect(frontend.NewFetchQueue(8).BlockSize()).To(Equal(uint64(8)))
		Expect(frontend.NewFetchQueue(2).BlockSize()).To(Equal(uint64(4)))
		Expect(frontend.NewFetchQueue(0).BlockSize()).To(Equal(uint64(4)))
	})

	It("should start with one block delivered", func() {
		q := frontend.NewFetchQueue(8)
		Expect(q.Len()).To(Equal(int64(8)))
	})

	It("should add one block per fetch", func() {
		q := frontend.NewFetchQueue(8)
		q.Fetch()
		q.Fetch()
		Expect(q.Len()).To(Equal(int64(24)))
	})

	It("should hold a full instruction before offering it", func() {
		q := frontend.NewFetchQueue(8)
		Expect(q.Has(0x1000, 4)).To(BeTrue())
		Expect(q.Has(0x1000, 2)).To(BeTrue())

		q.Flush()
		Expect(q.Has(0x1000, 4)).To(BeFalse())
		Expect(q.Has(0x1000, 2)).To(BeFalse())
	})

	It("should need the next block for a word on the last parcel", func() {
		q := frontend.NewFetchQueue(8)

		// one block held, a 4-byte encoding at block offset 6 spills over
		Expect(q.Has(0x1006, 4)).To(BeFalse())
		// a compressed parcel at the same offset does not
		Expect(q.Has(0x1006, 2)).To(BeTrue())

		q.Fetch()
		Expect(q.Has(0x1006, 4)).To(BeTrue())
	})

	It("should keep occupancy aligned while removing in sequence", func() {
		q := frontend.NewFetchQueue(8)
		q.Fetch()

		q.Remove(0x1000, 4, false)
		Expect(q.Len()).To(Equal(int64(12)))
		q.Remove(0x1004, 2, false)
		Expect(q.Len()).To(Equal(int64(10)))
		q.Remove(0x1006, 2, false)
		Expect(q.Len()).To(Equal(int64(8)))
	})

	It("should charge a redirect with the rest of its block", func() {
		q := frontend.NewFetchQueue(8)

		// removing a jump at the block start wastes the remaining bytes
		// of the block and the freshly fetched one
		q.Remove(0x1000, 4, true)
		Expect(q.Has(0x2000, 4)).To(BeFalse())

		q.Fetch()
		Expect(q.Has(0x2000, 4)).To(BeFalse())
		q.Fetch()
		Expect(q.Has(0x2000, 4)).To(BeTrue())
	})

	It("should charge a taken branch via Jump", func() {
		q := frontend.NewFetchQueue(8)
		q.Fetch()

		q.Remove(0x1000, 4, false)
		Expect(q.Len()).To(Equal(int64(12)))

		q.Jump()
		Expect(q.Len()).To(BeZero())
	})

	It("should empty on flush and recover by fetching", func() {
		q := frontend.NewFetchQueue(8)
		q.Flush()
		Expect(q.Len()).To(BeZero())

		q.Fetch()
		Expect(q.Has(0x2000, 4)).To(BeTrue())
	})

	It("should reset to the post-reset state", func() {
		q := frontend.NewFetchQueue(8)
		q.Fetch()
		q.Remove(0x1000, 4, true)

		q.Reset()
		Expect(q.Len()).To(Equal(int64(8)))
	})
})
