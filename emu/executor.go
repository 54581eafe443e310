package emu

import "github.com/sarchlab/cva6sim/insts"

// Executor applies the architectural effect of fusion-view records: the
// add family, the load family, and the merged records the fusion unit
// produces. It exists to check that a fused record computes the same
// result as the two-instruction sequence it replaced; records outside the
// subset have no architectural effect here.
type Executor struct {
	regs *RegFile
	mem  *Memory
}

// NewExecutor creates an executor over the given register file and memory.
func NewExecutor(regs *RegFile, mem *Memory) *Executor {
	return &Executor{
		regs: regs,
		mem:  mem,
	}
}

// Execute applies one record. PC-relative operands use the record's own
// attributed PC, so fused records evaluate exactly as the downstream
// pipeline would evaluate them.
func (e *Executor) Execute(rec *insts.Record) {
	if rec.ExceptionPending || rec.Class == insts.ClassOther {
		return
	}

	// Unset operand fields read register 0, so one operand sum serves
	// plain adds, upper-immediate forms, and fused records alike.
	value := e.regs.ReadReg(rec.Rs1) + e.regs.ReadReg(rec.Rs2)
	if rec.UsePC {
		value += rec.PC
	}
	if rec.UseImm {
		value += uint64(rec.Result)
	}

	switch {
	case rec.Class == insts.ClassADD:
		e.regs.WriteReg(rec.Rd, value)
	case rec.Class == insts.ClassADDW:
		e.regs.WriteReg32(rec.Rd, uint32(value))
	case rec.Class.IsLoad():
		e.regs.WriteReg(rec.Rd, e.load(rec.Class, value))
	}
}

// load reads memory at addr with the width and extension of the class.
func (e *Executor) load(class insts.OpClass, addr uint64) uint64 {
	switch class {
	case insts.ClassLB:
		return uint64(int64(int8(e.mem.Read8(addr))))
	case insts.ClassLBU:
		return uint64(e.mem.Read8(addr))
	case insts.ClassLH:
		return uint64(int64(int16(e.mem.Read16(addr))))
	case insts.ClassLHU:
		return uint64(e.mem.Read16(addr))
	case insts.ClassLW:
		return uint64(int64(int32(e.mem.Read32(addr))))
	case insts.ClassLWU:
		return uint64(e.mem.Read32(addr))
	default:
		return e.mem.Read64(addr)
	}
}
