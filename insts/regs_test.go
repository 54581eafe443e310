package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/insts"
)

func expectRegs(parcel uint32, rd, rs1, rs2 uint8) {
	gotRd, gotRs1, gotRs2 := insts.Regs(parcel)
	Expect(gotRd).To(Equal(rd), "rd")
	Expect(gotRs1).To(Equal(rs1), "rs1")
	Expect(gotRs2).To(Equal(rs2), "rs2")
}

var _ = Describe("Regs", func() {
	Context("with 32-bit encodings", func() {
		It("should extract I-type operands", func() {
			// addi a1, a0, 8
			expectRegs(0x00850593, 11, 10, 0)
		})

		It("should extract R-type operands", func() {
			// add t2, s0, s1
			expectRegs(0x009403B3, 7, 8, 9)
		})

		It("should report no destination for stores", func() {
			// sd s0, 0(sp)
			expectRegs(0x00813023, 0, 2, 8)
		})

		It("should report no destination for branches", func() {
			// beq ra, sp, 8
			expectRegs(0x00208463, 0, 1, 2)
		})

		It("should report only the link register for JAL", func() {
			// jal ra, 8
			expectRegs(0x008000EF, 1, 0, 0)
		})

		It("should extract JALR operands", func() {
			// jalr ra, 0(a0)
			expectRegs(0x000500E7, 1, 10, 0)
		})

		It("should report only the destination for LUI", func() {
			// lui t0, 0x12345
			expectRegs(0x123452B7, 5, 0, 0)
		})

		It("should extract CSR register-form operands", func() {
			// csrw 0x329, a0
			expectRegs(0x32951073, 0, 10, 0)
		})

		It("should report no operands for ECALL", func() {
			expectRegs(0x00000073, 0, 0, 0)
		})

		It("should keep only the address base of an FP load", func() {
			// flw fa0, 0(a0)
			expectRegs(0x00052507, 0, 10, 0)
		})

		It("should keep only the address base of an FP store", func() {
			// fsd fa0, 0(a0)
			expectRegs(0x00A53027, 0, 10, 0)
		})

		It("should extract atomic operands", func() {
			// amoadd.w a0, a1, (a2)
			expectRegs(0x00B6252F, 10, 12, 11)
		})
	})

	Context("with compressed encodings", func() {
		It("should treat C.ADDI as read-modify-write", func() {
			// c.addi a0, 4
			expectRegs(0x0511, 10, 10, 0)
		})

		It("should extract C.LW operands", func() {
			// c.lw a2, 8(a0)
			expectRegs(0x4510, 12, 10, 0)
		})

		It("should extract C.SW operands", func() {
			// c.sw a2, 8(a0)
			expectRegs(0xC510, 0, 10, 12)
		})

		It("should report no source for C.MV", func() {
			// c.mv a0, a1
			expectRegs(0x852E, 10, 0, 11)
		})

		It("should treat C.ADD as read-modify-write", func() {
			// c.add a0, a1
			expectRegs(0x952E, 10, 10, 11)
		})

		It("should extract C.SUB operands", func() {
			// c.sub a5, a4
			expectRegs(0x8F99, 15, 15, 14)
		})

		It("should extract C.SRLI operands", func() {
			// c.srli a5, 2
			expectRegs(0x8389, 15, 15, 0)
		})

		It("should report only a source for C.JR", func() {
			// c.jr a0
			expectRegs(0x8502, 0, 10, 0)
		})

		It("should link C.JALR through ra", func() {
			// c.jalr a0
			expectRegs(0x9502, 1, 10, 0)
		})

		It("should use sp as the C.LDSP base", func() {
			// c.ldsp ra, 8(sp)
			expectRegs(0x60A2, 1, 2, 0)
		})

		It("should use sp as the C.SDSP base", func() {
			// c.sdsp s0, 0(sp)
			expectRegs(0xE022, 0, 2, 8)
		})

		It("should extract the C.BEQZ source", func() {
			// c.beqz a0, 0x40
			expectRegs(0xC501, 0, 10, 0)
		})

		It("should pin C.ADDI16SP to the stack pointer", func() {
			// c.addi16sp sp, 32
			expectRegs(0x6105, 2, 2, 0)
		})
	})
})
