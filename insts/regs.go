package insts

// Regs extracts the integer register operands of a parcel for hazard
// tracking. Operands a format does not encode come back as zero, which
// readers treat as "no register" since x0 never carries a dependency.
// Floating-point data registers live in a separate file and are excluded;
// the integer address base of a floating-point access is still reported.
func Regs(parcel uint32) (rd, rs1, rs2 uint8) {
	if parcel&0x3 == 0x3 {
		return regsWord(parcel)
	}
	return regsCompressed(parcel)
}

func regsWord(word uint32) (rd, rs1, rs2 uint8) {
	rd = uint8(word >> 7 & 0x1F)
	rs1 = uint8(word >> 15 & 0x1F)
	rs2 = uint8(word >> 20 & 0x1F)

	switch word & 0x7F {
	case opcodeLui, opcodeAuipc, opcodeJal:
		return rd, 0, 0
	case opcodeJalr, opcodeLoad, opcodeOpImm, opcodeOpImm32:
		return rd, rs1, 0
	case opcodeLoadFP:
		// destination is a floating-point register
		return 0, rs1, 0
	case opcodeStore:
		return 0, rs1, rs2
	case opcodeStoreFP:
		// data comes from a floating-point register
		return 0, rs1, 0
	case opcodeBranch:
		return 0, rs1, rs2
	case opcodeMiscMem:
		return 0, 0, 0
	case opcodeAmo:
		return rd, rs1, rs2
	case opcodeSystem:
		funct3 := word >> 12 & 0x7
		switch {
		case funct3 == 0:
			// ECALL, EBREAK, xRET
			return 0, 0, 0
		case funct3 >= 5:
			// CSR immediate forms only write rd
			return rd, 0, 0
		default:
			return rd, rs1, 0
		}
	default:
		return rd, rs1, rs2
	}
}

func regsCompressed(parcel uint32) (rd, rs1, rs2 uint8) {
	funct3 := parcel >> 13 & 0x7
	full := uint8(parcel >> 7 & 0x1F)
	low := uint8(parcel >> 2 & 0x1F)
	prime1 := uint8(parcel>>7&0x7) + 8
	prime2 := uint8(parcel>>2&0x7) + 8

	switch parcel & 0x3 {
	case 0b00:
		switch funct3 {
		case 0b000: // C.ADDI4SPN
			return prime2, 2, 0
		case 0b001: // C.FLD
			return 0, prime1, 0
		case 0b010, 0b011: // C.LW, C.LD
			return prime2, prime1, 0
		case 0b101: // C.FSD
			return 0, prime1, 0
		case 0b110, 0b111: // C.SW, C.SD
			return 0, prime1, prime2
		}
		return 0, 0, 0

	case 0b01:
		switch funct3 {
		case 0b000, 0b001: // C.ADDI, C.ADDIW
			return full, full, 0
		case 0b010: // C.LI
			return full, 0, 0
		case 0b011: // C.ADDI16SP when rd is sp, else C.LUI
			if full == 2 {
				return 2, 2, 0
			}
			return full, 0, 0
		case 0b100:
			if parcel>>10&0x3 == 0b11 {
				// C.SUB, C.XOR, C.OR, C.AND, C.SUBW, C.ADDW
				return prime1, prime1, prime2
			}
			// C.SRLI, C.SRAI, C.ANDI
			return prime1, prime1, 0
		case 0b101: // C.J
			return 0, 0, 0
		case 0b110, 0b111: // C.BEQZ, C.BNEZ
			return 0, prime1, 0
		}
		return 0, 0, 0

	default:
		switch funct3 {
		case 0b000: // C.SLLI
			return full, full, 0
		case 0b001: // C.FLDSP
			return 0, 2, 0
		case 0b010, 0b011: // C.LWSP, C.LDSP
			return full, 2, 0
		case 0b100:
			switch {
			case low == 0 && full == 0:
				// C.EBREAK
				return 0, 0, 0
			case low == 0 && parcel>>12&0x1 == 0:
				// C.JR
				return 0, full, 0
			case low == 0:
				// C.JALR links through ra
				return 1, full, 0
			case parcel>>12&0x1 == 0:
				// C.MV
				return full, 0, low
			default:
				// C.ADD
				return full, full, low
			}
		case 0b101: // C.FSDSP
			return 0, 2, 0
		case 0b110, 0b111: // C.SWSP, C.SDSP
			return 0, 2, low
		}
		return 0, 0, 0
	}
}
