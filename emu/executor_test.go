package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cva6sim/emu"
	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/fusion"
)

var _ = Describe("Executor", func() {
	var (
		regs *emu.RegFile
		mem  *emu.Memory
		exec *emu.Executor
	)

	BeforeEach(func() {
		regs = &emu.RegFile{}
		mem = emu.NewMemory()
		exec = emu.NewExecutor(regs, mem)
	})

	It("should execute an immediate add", func() {
		regs.WriteReg(1, 100)
		rec := insts.Record{
			Class: insts.ClassADD, Rd: 5, Rs1: 1,
			UseImm: true, Result: 8, Valid: true,
		}

		exec.Execute(&rec)

		Expect(regs.ReadReg(5)).To(Equal(uint64(108)))
	})

	It("should execute a register add", func() {
		regs.WriteReg(1, 100)
		regs.WriteReg(2, 23)
		rec := insts.Record{
			Class: insts.ClassADD, Rd: 5, Rs1: 1, Rs2: 2, Valid: true,
		}

		exec.Execute(&rec)

		Expect(regs.ReadReg(5)).To(Equal(uint64(123)))
	})

	It("should sign-extend word-width adds", func() {
		regs.WriteReg(1, 0x7FFFFFFF)
		rec := insts.Record{
			Class: insts.ClassADDW, Rd: 5, Rs1: 1,
			UseImm: true, Result: 1, Valid: true,
		}

		exec.Execute(&rec)

		Expect(regs.ReadReg(5)).To(Equal(uint64(0xFFFFFFFF80000000)))
	})

	It("should execute a PC-relative add at the record's own PC", func() {
		rec := insts.Record{
			PC: 0x100, Class: insts.ClassADD, Rd: 6,
			UseImm: true, UsePC: true, Result: 0x1000, Valid: true,
		}

		exec.Execute(&rec)

		Expect(regs.ReadReg(6)).To(Equal(uint64(0x1100)))
	})

	It("should execute loads of every width", func() {
		mem.Write64(0x2000, 0xFFFFFFFF_FFFFFF80)
		regs.WriteReg(1, 0x2000)

		byClass := map[insts.OpClass]uint64{
			insts.ClassLB:  0xFFFFFFFFFFFFFF80,
			insts.ClassLBU: 0x80,
			insts.ClassLH:  0xFFFFFFFFFFFFFF80,
			insts.ClassLHU: 0xFF80,
			insts.ClassLW:  0xFFFFFFFFFFFFFF80,
			insts.ClassLWU: 0xFFFFFF80,
			insts.ClassLD:  0xFFFFFFFFFFFFFF80,
		}

		for class, want := range byClass {
			rec := insts.Record{
				Class: class, Rd: 5, Rs1: 1,
				UseImm: true, Result: 0, Valid: true,
			}
			exec.Execute(&rec)
			Expect(regs.ReadReg(5)).To(Equal(want), "class %v", class)
		}
	})

	It("should apply the load offset", func() {
		mem.Write64(0x2010, 42)
		regs.WriteReg(1, 0x2000)
		rec := insts.Record{
			Class: insts.ClassLD, Rd: 5, Rs1: 1,
			UseImm: true, Result: 16, Valid: true,
		}

		exec.Execute(&rec)

		Expect(regs.ReadReg(5)).To(Equal(uint64(42)))
	})

	It("should ignore records outside the subset", func() {
		rec := insts.Record{Class: insts.ClassOther, Rd: 5, Valid: true}
		exec.Execute(&rec)
		Expect(regs.ReadReg(5)).To(Equal(uint64(0)))
	})

	It("should ignore records with a pending exception", func() {
		rec := insts.Record{
			Class: insts.ClassADD, Rd: 5, Rs1: 1,
			UseImm: true, Result: 8,
			ExceptionPending: true, Valid: true,
		}
		exec.Execute(&rec)
		Expect(regs.ReadReg(5)).To(Equal(uint64(0)))
	})

	Describe("fused record equivalence", func() {
		var (
			fuser     *fusion.Fuser
			regsFused *emu.RegFile
			execFused *emu.Executor
		)

		BeforeEach(func() {
			fuser = fusion.NewFuser()
			regsFused = &emu.RegFile{}
			execFused = emu.NewExecutor(regsFused, mem)
		})

		It("should match the unfused pair for a register add before a load", func() {
			regs.WriteReg(1, 0x2000)
			regs.WriteReg(2, 0x100)
			regsFused.WriteReg(1, 0x2000)
			regsFused.WriteReg(2, 0x100)
			mem.Write64(0x2110, 777)

			p := insts.Record{
				PC: 0x10, Class: insts.ClassADD,
				Rd: 5, Rs1: 1, Rs2: 2, Valid: true,
			}
			c := insts.Record{
				PC: 0x14, Class: insts.ClassLD,
				Rd: 5, Rs1: 5, UseImm: true, Result: 16, Valid: true,
			}

			exec.Execute(&p)
			exec.Execute(&c)

			fused := fuser.Fuse(&p, &c)
			execFused.Execute(&fused)

			Expect(regsFused.ReadReg(5)).To(Equal(uint64(777)))
			Expect(regsFused.ReadReg(5)).To(Equal(regs.ReadReg(5)))
		})

		It("should match the unfused pair for a split immediate", func() {
			p := insts.Record{
				PC: 0x200, Class: insts.ClassADD, Rd: 5,
				UseImm: true, Result: 0x1000, Valid: true,
			}
			c := insts.Record{
				PC: 0x204, Class: insts.ClassADD, Rd: 5, Rs1: 5,
				UseImm: true, Result: 8, Valid: true,
			}

			exec.Execute(&p)
			exec.Execute(&c)

			fused := fuser.Fuse(&p, &c)
			execFused.Execute(&fused)

			Expect(regsFused.ReadReg(5)).To(Equal(uint64(0x1008)))
			Expect(regsFused.ReadReg(5)).To(Equal(regs.ReadReg(5)))
		})

		It("should match the unfused pair for a PC-relative chain", func() {
			mem.Write64(0x1108, 0xDEADBEEF)

			p := insts.Record{
				PC: 0x100, Class: insts.ClassADD, Rd: 5,
				UseImm: true, UsePC: true, Result: 0x1000, Valid: true,
			}
			c := insts.Record{
				PC: 0x104, Class: insts.ClassLD, Rd: 5, Rs1: 5,
				UseImm: true, Result: 8, Valid: true,
			}

			exec.Execute(&p)
			exec.Execute(&c)

			// The fused record executes under the consumer's PC; the
			// length correction keeps the effective address identical.
			fused := fuser.Fuse(&p, &c)
			execFused.Execute(&fused)

			Expect(regsFused.ReadReg(5)).To(Equal(uint64(0xDEADBEEF)))
			Expect(regsFused.ReadReg(5)).To(Equal(regs.ReadReg(5)))
		})

		It("should match the unfused pair when the consumer is compressed", func() {
			mem.Write64(0x100, 0xABCD)

			p := insts.Record{
				PC: 0x100, Class: insts.ClassADD, Rd: 8,
				UseImm: true, UsePC: true, Result: 0, Valid: true,
			}
			c := insts.Record{
				PC: 0x104, Class: insts.ClassLD, Rd: 8, Rs1: 8,
				UseImm: true, Result: 0, Compressed: true, Valid: true,
			}

			exec.Execute(&p)
			exec.Execute(&c)

			fused := fuser.Fuse(&p, &c)
			execFused.Execute(&fused)

			Expect(regsFused.ReadReg(8)).To(Equal(uint64(0xABCD)))
			Expect(regsFused.ReadReg(8)).To(Equal(regs.ReadReg(8)))
		})
	})
})
