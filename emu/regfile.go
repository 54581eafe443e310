// Package emu provides functional RV64 emulation for the instruction
// subset the fusion unit operates on.
package emu

// RegFile represents the RV64 integer register file: 32 general-purpose
// registers plus the program counter. The stack pointer is x2 by the
// standard calling convention and needs no special handling.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// X[0] is the zero register and always reads as 0.
	X [32]uint64

	// PC is the program counter.
	PC uint64
}

// ReadReg reads a register value. Register 0 always returns 0; registers
// beyond 31 (sentinel operands) also read as 0.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 and to
// out-of-range registers are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}

// ReadReg32 reads the lower 32 bits of a register.
func (r *RegFile) ReadReg32(reg uint8) uint32 {
	return uint32(r.ReadReg(reg))
}

// WriteReg32 writes a 32-bit value sign-extended to 64 bits, the RV64
// convention for word-width results.
func (r *RegFile) WriteReg32(reg uint8, value uint32) {
	r.WriteReg(reg, uint64(int64(int32(value))))
}
