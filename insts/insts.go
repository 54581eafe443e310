// Package insts provides RV64 instruction definitions and decoding for the
// fusion-view used by the decode stage.
//
// This package implements decoding of RV64IC machine code into the flat
// record form the fusion unit pattern-matches on. It supports:
//   - Integer computational: LUI, AUIPC, ADDI, ADDIW, ADD, ADDW
//   - Loads: LB, LH, LW, LD, LBU, LHU, LWU
//   - The compressed (C extension) forms of the above
//
// Everything else decodes to the open ClassOther bucket, which the fusion
// unit passes through untouched.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	rec := decoder.Decode(0x00850593, 0x1000) // ADDI a1, a0, 8
//	fmt.Printf("Class: %v, Rd: %d, Rs1: %d, Result: %d\n", rec.Class, rec.Rd, rec.Rs1, rec.Result)
package insts
