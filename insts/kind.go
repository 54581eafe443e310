package insts

// Remaining RV64 base opcodes, used only for coarse classification.
const (
	opcodeLoadFP  = 0b0000111 // FLW, FLD
	opcodeMiscMem = 0b0001111 // FENCE, FENCE.I
	opcodeStore   = 0b0100011 // SB, SH, SW, SD
	opcodeStoreFP = 0b0100111 // FSW, FSD
	opcodeAmo     = 0b0101111 // LR, SC, AMO*
	opcodeBranch  = 0b1100011 // BEQ and friends
	opcodeJalr    = 0b1100111 // JALR
	opcodeJal     = 0b1101111 // JAL
	opcodeSystem  = 0b1110011 // ECALL, EBREAK, CSR*
)

// Kind is a coarse functional classification of an instruction parcel.
// Where OpClass captures only the operations the fusion unit matches,
// Kind covers the whole stream so that issue logic can route every
// operation to a functional unit.
type Kind int

// Kind values.
const (
	KindALU Kind = iota
	KindBranch
	KindJump
	KindRegJump
	KindLoad
	KindStore
	KindMul
	KindDiv
	KindSystem
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindALU:
		return "alu"
	case KindBranch:
		return "branch"
	case KindJump:
		return "jump"
	case KindRegJump:
		return "regjump"
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindMul:
		return "mul"
	case KindDiv:
		return "div"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// IsControlFlow returns true for branches and jumps of either form.
func (k Kind) IsControlFlow() bool {
	return k == KindBranch || k == KindJump || k == KindRegJump
}

// KindOf classifies a raw parcel. The low two bits select between the
// compressed quadrants and full-width encodings.
func KindOf(parcel uint32) Kind {
	if parcel&0x3 == 0x3 {
		return kindOfWord(parcel)
	}
	return kindOfCompressed(uint16(parcel))
}

func kindOfWord(word uint32) Kind {
	switch word & 0x7F {
	case opcodeLoad, opcodeLoadFP:
		return KindLoad
	case opcodeStore, opcodeStoreFP, opcodeAmo:
		return KindStore
	case opcodeBranch:
		return KindBranch
	case opcodeJal:
		return KindJump
	case opcodeJalr:
		return KindRegJump
	case opcodeOp, opcodeOp32:
		if word>>25&0x7F == 0b0000001 {
			// funct3 bit 2 splits the M extension: multiplies below,
			// divides and remainders above.
			if word>>14&0x1 != 0 {
				return KindDiv
			}
			return KindMul
		}
		return KindALU
	case opcodeSystem, opcodeMiscMem:
		return KindSystem
	default:
		return KindALU
	}
}

func kindOfCompressed(parcel uint16) Kind {
	funct3 := parcel >> 13
	switch parcel & 0x3 {
	case 0b00:
		switch funct3 {
		case 0b001, 0b010, 0b011: // C.FLD, C.LW, C.LD
			return KindLoad
		case 0b101, 0b110, 0b111: // C.FSD, C.SW, C.SD
			return KindStore
		}
		return KindALU

	case 0b01:
		switch funct3 {
		case 0b101: // C.J
			return KindJump
		case 0b110, 0b111: // C.BEQZ, C.BNEZ
			return KindBranch
		}
		return KindALU

	case 0b10:
		switch funct3 {
		case 0b001, 0b010, 0b011: // C.FLDSP, C.LWSP, C.LDSP
			return KindLoad
		case 0b101, 0b110, 0b111: // C.FSDSP, C.SWSP, C.SDSP
			return KindStore
		case 0b100:
			rs1 := parcel >> 7 & 0x1F
			rs2 := parcel >> 2 & 0x1F
			if rs2 == 0 {
				if rs1 == 0 {
					// C.EBREAK, or reserved when bit 12 is clear.
					return KindSystem
				}
				return KindRegJump // C.JR, C.JALR
			}
		}
		return KindALU
	}
	return KindALU
}

// isLinkReg reports whether r is one of the link registers the
// return-address stack tracks (ra and t0).
func isLinkReg(r uint8) bool {
	return r == 1 || r == 5
}

// IsCall reports whether the parcel is a call in the return-address-stack
// sense: a jump that writes a link register.
func IsCall(parcel uint32) bool {
	if parcel&0x3 == 0x3 {
		switch parcel & 0x7F {
		case opcodeJal, opcodeJalr:
			return isLinkReg(uint8(parcel >> 7 & 0x1F))
		}
		return false
	}

	// C.JALR links ra implicitly: quadrant 2, funct3 100, bit 12 set,
	// rs2 == 0, rs1 != 0.
	p := uint16(parcel)
	if p&0x3 != 0b10 || p>>13 != 0b100 || p&0x1000 == 0 {
		return false
	}
	rs1 := uint8(p >> 7 & 0x1F)
	rs2 := uint8(p >> 2 & 0x1F)
	return rs2 == 0 && rs1 != 0
}

// IsRet reports whether the parcel is a return in the return-address-stack
// sense: a register jump through a link register. The uncompressed form
// additionally requires the link source to differ from the destination.
func IsRet(parcel uint32) bool {
	if parcel&0x3 == 0x3 {
		if parcel&0x7F != opcodeJalr {
			return false
		}
		rd := uint8(parcel >> 7 & 0x1F)
		rs1 := uint8(parcel >> 15 & 0x1F)
		return isLinkReg(rs1) && rs1 != rd
	}

	p := uint16(parcel)
	if p&0x3 != 0b10 || p>>13 != 0b100 {
		return false
	}
	rs1 := uint8(p >> 7 & 0x1F)
	rs2 := uint8(p >> 2 & 0x1F)
	if rs2 != 0 || rs1 == 0 {
		return false
	}
	return isLinkReg(rs1)
}
