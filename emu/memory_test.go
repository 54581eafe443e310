package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/emu"
)

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory()
	})

	It("should read zero from untouched locations", func() {
		Expect(mem.Read8(0)).To(Equal(uint8(0)))
		Expect(mem.Read64(0x7FFF_FFFF_0000)).To(Equal(uint64(0)))
	})

	It("should round-trip each access width", func() {
		mem.Write8(0x100, 0xAB)
		Expect(mem.Read8(0x100)).To(Equal(uint8(0xAB)))

		mem.Write16(0x200, 0xBEEF)
		Expect(mem.Read16(0x200)).To(Equal(uint16(0xBEEF)))

		mem.Write32(0x300, 0xCAFEBABE)
		Expect(mem.Read32(0x300)).To(Equal(uint32(0xCAFEBABE)))

		mem.Write64(0x400, 0x1122334455667788)
		Expect(mem.Read64(0x400)).To(Equal(uint64(0x1122334455667788)))
	})

	It("should store multi-byte values little-endian", func() {
		mem.Write32(0x500, 0x11223344)

		Expect(mem.Read8(0x500)).To(Equal(uint8(0x44)))
		Expect(mem.Read8(0x501)).To(Equal(uint8(0x33)))
		Expect(mem.Read8(0x502)).To(Equal(uint8(0x22)))
		Expect(mem.Read8(0x503)).To(Equal(uint8(0x11)))
	})

	It("should handle accesses spanning a page boundary", func() {
		addr := uint64(0xFFE) // last bytes of the first page
		mem.Write64(addr, 0x8877665544332211)

		Expect(mem.Read64(addr)).To(Equal(uint64(0x8877665544332211)))
		Expect(mem.Read8(0x1000)).To(Equal(uint8(0x33)))
	})

	It("should copy byte slices in and out", func() {
		data := []byte{1, 2, 3, 4, 5}
		mem.WriteBytes(0x600, data)

		buf := make([]byte, 5)
		mem.ReadBytes(0x600, buf)
		Expect(buf).To(Equal(data))
	})

	It("should keep distant regions independent", func() {
		mem.Write64(0x1000, 1)
		mem.Write64(0x8000_0000, 2)

		Expect(mem.Read64(0x1000)).To(Equal(uint64(1)))
		Expect(mem.Read64(0x8000_0000)).To(Equal(uint64(2)))
	})
})
