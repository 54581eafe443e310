package insts

// RV64 base opcodes (bits [6:0] of a 32-bit encoding).
const (
	opcodeLoad    = 0b0000011 // LB, LH, LW, LD, LBU, LHU, LWU
	opcodeOpImm   = 0b0010011 // ADDI and friends
	opcodeAuipc   = 0b0010111 // AUIPC
	opcodeOpImm32 = 0b0011011 // ADDIW and friends
	opcodeOp      = 0b0110011 // ADD and friends
	opcodeLui     = 0b0110111 // LUI
	opcodeOp32    = 0b0111011 // ADDW and friends
)

// Decoder decodes RV64IC machine code into fusion-view records.
type Decoder struct{}

// NewDecoder creates a new RV64IC instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Len returns the byte length of the instruction starting with the given
// parcel: 2 for a compressed encoding, 4 otherwise. Only the low 16 bits
// of the parcel are inspected.
func (d *Decoder) Len(parcel uint32) uint64 {
	if parcel&0x3 == 0x3 {
		return 4
	}
	return 2
}

// Decode decodes one instruction. For a 32-bit encoding the full word must
// be in the low 32 bits of parcel; for a compressed encoding only the low
// 16 bits are used. The returned record is marked Valid; the caller owns
// the validity of the surrounding window.
func (d *Decoder) Decode(parcel uint32, pc uint64) Record {
	var rec Record
	d.DecodeInto(parcel, pc, &rec)
	return rec
}

// DecodeInto decodes one instruction into an existing record, overwriting
// every field.
func (d *Decoder) DecodeInto(parcel uint32, pc uint64, rec *Record) {
	rec.Clear()
	rec.PC = pc
	rec.Class = ClassOther
	rec.Valid = true

	if parcel&0x3 != 0x3 {
		d.decodeCompressed(uint16(parcel), rec)
		return
	}
	d.decodeWord(parcel, rec)
}

// decodeWord decodes a 32-bit encoding.
func (d *Decoder) decodeWord(word uint32, rec *Record) {
	if word&0xFFFF == 0xFFFF {
		// All-ones parcel is defined illegal.
		rec.ExceptionPending = true
		return
	}

	opcode := word & 0x7F         // bits [6:0]
	rd := uint8(word >> 7 & 0x1F) // bits [11:7]
	funct3 := word >> 12 & 0x7    // bits [14:12]
	rs1 := uint8(word >> 15 & 0x1F)
	rs2 := uint8(word >> 20 & 0x1F)

	switch opcode {
	case opcodeLui:
		// U-type: imm[31:12] | rd | opcode
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = 0
		rec.UseImm = true
		rec.Result = int64(int32(word & 0xFFFFF000))

	case opcodeAuipc:
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = 0
		rec.UseImm = true
		rec.UsePC = true
		rec.Result = int64(int32(word & 0xFFFFF000))

	case opcodeOpImm:
		if funct3 != 0b000 {
			return // SLTI, XORI, shifts: not matched by the fusion unit
		}
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = rs1
		rec.UseImm = true
		rec.Result = immIType(word)

	case opcodeOpImm32:
		if funct3 != 0b000 {
			return
		}
		rec.Class = ClassADDW
		rec.Rd = rd
		rec.Rs1 = rs1
		rec.UseImm = true
		rec.Result = immIType(word)

	case opcodeOp:
		funct7 := word >> 25 // bits [31:25]
		if funct3 != 0b000 || funct7 != 0 {
			return // SUB, MUL, logic ops
		}
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = rs1
		rec.Rs2 = rs2

	case opcodeOp32:
		funct7 := word >> 25
		if funct3 != 0b000 || funct7 != 0 {
			return
		}
		rec.Class = ClassADDW
		rec.Rd = rd
		rec.Rs1 = rs1
		rec.Rs2 = rs2

	case opcodeLoad:
		cls, ok := loadClass(funct3)
		if !ok {
			// funct3 0b111 is reserved under the load opcode.
			rec.ExceptionPending = true
			return
		}
		rec.Class = cls
		rec.Rd = rd
		rec.Rs1 = rs1
		rec.UseImm = true
		rec.Result = immIType(word)
	}
}

// immIType extracts the sign-extended 12-bit I-type immediate.
func immIType(word uint32) int64 {
	return int64(int32(word) >> 20)
}

// loadClass maps a load funct3 field to its operation class.
func loadClass(funct3 uint32) (OpClass, bool) {
	switch funct3 {
	case 0b000:
		return ClassLB, true
	case 0b001:
		return ClassLH, true
	case 0b010:
		return ClassLW, true
	case 0b011:
		return ClassLD, true
	case 0b100:
		return ClassLBU, true
	case 0b101:
		return ClassLHU, true
	case 0b110:
		return ClassLWU, true
	}
	return ClassOther, false
}
