// Package benchmarks provides the microbenchmark harness used to measure
// the cycle impact of decode-stage instruction fusion.
package benchmarks

import "github.com/sarchlab/cva6sim/emu"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark isolates one fusion idiom or one deliberate near-miss, so a
// mode comparison shows where each arrangement wins.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		addiLoadPairs(),
		luiAddiPairs(),
		auipcLoadPairs(),
		compressedPairs(),
		serialIncrements(),
		independentALU(),
		pointerChase(),
		unfusableControl(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: the two fusable idioms plus the near-miss control.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		addiLoadPairs(),
		luiAddiPairs(),
		unfusableControl(),
	}
}

// 1. Address computation followed by a load - the canonical add+load idiom
func addiLoadPairs() Benchmark {
	return Benchmark{
		Name:        "addi_load_pairs",
		Description: "5 addi+ld pairs sharing one register - the canonical add+load fusion idiom",
		Setup: func(regs *emu.RegFile, memory *emu.Memory) {
			regs.WriteReg(11, 0x8000)  // a1 = array base
			memory.Write64(0x8018, 42) // element the pairs keep reading
		},
		Program: BuildProgram(
			// a0 = a1 + 16; a0 = mem64[a0 + 8]
			EncodeADDI(10, 11, 16), EncodeLD(10, 10, 8),
			EncodeADDI(10, 11, 16), EncodeLD(10, 10, 8),
			EncodeADDI(10, 11, 16), EncodeLD(10, 10, 8),
			EncodeADDI(10, 11, 16), EncodeLD(10, 10, 8),
			EncodeADDI(10, 11, 16), EncodeLD(10, 10, 8),
		),
		ResultReg:      10,
		ExpectedResult: 42,
	}
}

// 2. Split 32-bit constant materialization - the lui+addi idiom
func luiAddiPairs() Benchmark {
	return Benchmark{
		Name:        "lui_addi_pairs",
		Description: "4 lui+addi pairs materializing 32-bit constants - the split-immediate fusion idiom",
		Program: BuildProgram(
			EncodeLUI(10, 0x12345), EncodeADDI(10, 10, 0x678),
			EncodeLUI(10, 0x0BEEF), EncodeADDI(10, 10, 0x0F5),
			EncodeLUI(10, 0x54321), EncodeADDI(10, 10, 0x111),
			EncodeLUI(10, 0x7FFFF), EncodeADDI(10, 10, 0x7FF),
		),
		ResultReg:      10,
		ExpectedResult: 0x7FFFF7FF,
	}
}

// 3. PC-relative loads from a constant pool - the auipc+load idiom
//
// The program sits at 0x1000 and the pool at 0x1400, so every auipc
// obtains the pool through a positive 12-bit offset. The fused form must
// reproduce the producer's PC even though the merged record carries the
// consumer's, which is what the offset correction exists for.
func auipcLoadPairs() Benchmark {
	return Benchmark{
		Name:        "auipc_load_pairs",
		Description: "3 auipc+ld pairs reading a nearby constant pool - pc-relative fusion with offset correction",
		Setup: func(regs *emu.RegFile, memory *emu.Memory) {
			memory.Write64(0x1400, 777) // constant pool entry
		},
		Program: BuildProgram(
			// pair at 0x1000: a0 = pc; a0 = mem64[a0 + 0x400]
			EncodeAUIPC(10, 0), EncodeLD(10, 10, 0x400),
			// pair at 0x1008
			EncodeAUIPC(10, 0), EncodeLD(10, 10, 0x3F8),
			// pair at 0x1010
			EncodeAUIPC(10, 0), EncodeLD(10, 10, 0x3F0),
		),
		ResultReg:      10,
		ExpectedResult: 777,
	}
}

// 4. Compressed and mixed-width pairs - fusion across 16-bit parcels
func compressedPairs() Benchmark {
	return Benchmark{
		Name:        "compressed_pairs",
		Description: "fusable pairs built from 16-bit parcels and mixed widths - exercises the compression tags",
		Setup: func(regs *emu.RegFile, memory *emu.Memory) {
			regs.WriteReg(10, 0x8000)      // a0 = walk base
			memory.Write32(0x800C, 0x8010) // word the compressed pair loads
			memory.Write64(0x8018, 55)     // final value
		},
		Program: BuildProgram(
			// both compressed: a0 += 4; a0 = sext32(mem32[a0 + 8])
			EncodeCADDI(10, 4), EncodeCLW(10, 10, 8),
			// compressed producer, word consumer: a0 += 8; a0 = mem64[a0]
			EncodeCADDI(10, 8), EncodeLD(10, 10, 0),
			// word producer, compressed consumer: a0 = 0x8000 + 16
			EncodeLUI(10, 0x8), EncodeCADDI(10, 16),
			// both compressed again: a0 += 8; a0 = mem64[a0]
			EncodeCADDI(10, 8), EncodeCLD(10, 10, 0),
		),
		ResultReg:      10,
		ExpectedResult: 55,
	}
}

// 5. Serial Increments - a fully dependent add chain
func serialIncrements() Benchmark {
	return Benchmark{
		Name:        "serial_increments",
		Description: "20 dependent addi (a0 = a0 + 1) - fusion halves the critical chain",
		Program:     buildSerialIncrements(20),
		ResultReg:   10,
		// a0 = 0 + 20*1 = 20
		ExpectedResult: 20,
	}
}

func buildSerialIncrements(n int) []byte {
	parcels := make([]Parcel, 0, n)
	for i := 0; i < n; i++ {
		parcels = append(parcels, EncodeADDI(10, 10, 1))
	}
	return BuildProgram(parcels...)
}

// 6. Independent ALU operations - throughput with nothing to fuse
func independentALU() Benchmark {
	return Benchmark{
		Name:        "independent_alu",
		Description: "20 independent addi rotating five registers - issue throughput, no fusable pairs",
		Program: BuildProgram(
			EncodeADDI(10, 10, 1),
			EncodeADDI(11, 11, 1),
			EncodeADDI(12, 12, 1),
			EncodeADDI(13, 13, 1),
			EncodeADDI(14, 14, 1),
			EncodeADDI(10, 10, 1),
			EncodeADDI(11, 11, 1),
			EncodeADDI(12, 12, 1),
			EncodeADDI(13, 13, 1),
			EncodeADDI(14, 14, 1),
			EncodeADDI(10, 10, 1),
			EncodeADDI(11, 11, 1),
			EncodeADDI(12, 12, 1),
			EncodeADDI(13, 13, 1),
			EncodeADDI(14, 14, 1),
			EncodeADDI(10, 10, 1),
			EncodeADDI(11, 11, 1),
			EncodeADDI(12, 12, 1),
			EncodeADDI(13, 13, 1),
			EncodeADDI(14, 14, 1),
		),
		ResultReg: 10,
		// a0 = 0 + 4*1 = 4
		ExpectedResult: 4,
	}
}

// 7. Pointer Chase - serial loads with nothing to fuse
func pointerChase() Benchmark {
	return Benchmark{
		Name:        "pointer_chase",
		Description: "4 dependent ld through a pointer chain - load-use latency, no fusable pairs",
		Setup: func(regs *emu.RegFile, memory *emu.Memory) {
			regs.WriteReg(10, 0x8000) // a0 = chain head
			memory.Write64(0x8000, 0x8010)
			memory.Write64(0x8010, 0x8020)
			memory.Write64(0x8020, 0x8030)
			memory.Write64(0x8030, 0x8040)
		},
		Program: BuildProgram(
			EncodeLD(10, 10, 0),
			EncodeLD(10, 10, 0),
			EncodeLD(10, 10, 0),
			EncodeLD(10, 10, 0),
		),
		ResultReg:      10,
		ExpectedResult: 0x8040,
	}
}

// 8. Unfusable Control - near-miss pairs that each violate one rule
func unfusableControl() Benchmark {
	return Benchmark{
		Name:        "unfusable_control",
		Description: "pairs one rule away from fusing - every mode must leave them alone",
		Setup: func(regs *emu.RegFile, memory *emu.Memory) {
			regs.WriteReg(11, 0x8000) // a1 = data base
			regs.WriteReg(14, 0x8000) // a4 = alias of the base
			memory.Write64(0x8008, 11)
			memory.Write64(0x8000, 22)
		},
		Program: BuildProgram(
			// destination differs: a2 breaks the rd chain
			EncodeADDI(10, 11, 8), EncodeLD(12, 10, 0),
			// source differs: the load reads a4, not the produced a3
			EncodeADDI(13, 11, 16), EncodeLD(13, 14, 0),
			// producer outside the add family
			EncodeXOR(15, 15, 16), EncodeADDI(15, 15, 1),
			// consumer without an immediate operand
			EncodeADDI(12, 12, 1), EncodeADD(12, 12, 13),
		),
		ResultReg: 12,
		// a2 = mem64[0x8008] + 1 + mem64[0x8000] = 11 + 1 + 22
		ExpectedResult: 34,
	}
}

// EncodeXOR encodes register XOR: rd = rs1 ^ rs2
func EncodeXOR(rd, rs1, rs2 uint8) Parcel {
	var inst uint32 = 0
	inst |= 0b0000000 << 25 // funct7
	inst |= uint32(rs2&0x1F) << 20
	inst |= uint32(rs1&0x1F) << 15
	inst |= 0b100 << 12 // funct3 = XOR
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0110011 // OP
	return Parcel{Bits: inst}
}
