package insts

// decodeCompressed decodes a 16-bit C-extension parcel. The quadrant lives
// in bits [1:0] and the major function code in bits [15:13]; compressed
// register fields (rd', rs1', rs2') address x8-x15 only.
func (d *Decoder) decodeCompressed(parcel uint16, rec *Record) {
	rec.Compressed = true

	if parcel == 0 {
		// All-zero parcel is defined illegal.
		rec.ExceptionPending = true
		return
	}

	p := uint32(parcel)
	funct3 := p >> 13 & 0x7 // bits [15:13]

	switch p & 0x3 { // quadrant
	case 0b00:
		d.decodeQuadrant0(p, funct3, rec)
	case 0b01:
		d.decodeQuadrant1(p, funct3, rec)
	case 0b10:
		d.decodeQuadrant2(p, funct3, rec)
	}
}

// decodeQuadrant0 decodes stack-pointer-based allocation and the
// register-relative load/store forms.
func (d *Decoder) decodeQuadrant0(p, funct3 uint32, rec *Record) {
	rdP := uint8(p>>2&0x7) + 8  // bits [4:2], rd'
	rs1P := uint8(p>>7&0x7) + 8 // bits [9:7], rs1'

	switch funct3 {
	case 0b000: // C.ADDI4SPN: addi rd', x2, nzuimm
		// nzuimm[5:4|9:6|2|3] <- bits [12:5]
		nzuimm := p>>7&0x30 | p>>1&0x3C0 | p>>4&0x4 | p>>2&0x8
		if nzuimm == 0 {
			rec.ExceptionPending = true
			return
		}
		rec.Class = ClassADD
		rec.Rd = rdP
		rec.Rs1 = 2
		rec.UseImm = true
		rec.Result = int64(nzuimm)

	case 0b010: // C.LW: lw rd', uimm(rs1')
		// uimm[5:3] <- bits [12:10], uimm[2|6] <- bits [6:5]
		uimm := p>>7&0x38 | p>>4&0x4 | p<<1&0x40
		rec.Class = ClassLW
		rec.Rd = rdP
		rec.Rs1 = rs1P
		rec.UseImm = true
		rec.Result = int64(uimm)

	case 0b011: // C.LD: ld rd', uimm(rs1')
		// uimm[5:3] <- bits [12:10], uimm[7:6] <- bits [6:5]
		uimm := p>>7&0x38 | p<<1&0xC0
		rec.Class = ClassLD
		rec.Rd = rdP
		rec.Rs1 = rs1P
		rec.UseImm = true
		rec.Result = int64(uimm)

	case 0b100: // reserved
		rec.ExceptionPending = true
	}
	// C.FLD, C.SW, C.SD, C.FSD fall through as ClassOther.
}

// decodeQuadrant1 decodes the immediate arithmetic forms.
func (d *Decoder) decodeQuadrant1(p, funct3 uint32, rec *Record) {
	rd := uint8(p >> 7 & 0x1F) // bits [11:7]

	// imm[5] <- bit 12, imm[4:0] <- bits [6:2], sign-extended
	imm6 := signExtend(int64(p>>7&0x20|p>>2&0x1F), 5)

	switch funct3 {
	case 0b000: // C.ADDI: addi rd, rd, nzimm (rd == 0 encodes C.NOP)
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = rd
		rec.UseImm = true
		rec.Result = imm6

	case 0b001: // C.ADDIW: addiw rd, rd, imm
		if rd == 0 {
			rec.ExceptionPending = true
			return
		}
		rec.Class = ClassADDW
		rec.Rd = rd
		rec.Rs1 = rd
		rec.UseImm = true
		rec.Result = imm6

	case 0b010: // C.LI: addi rd, x0, imm
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = 0
		rec.UseImm = true
		rec.Result = imm6

	case 0b011:
		if rd == 2 {
			// C.ADDI16SP: addi x2, x2, nzimm
			// nzimm[9] <- bit 12, nzimm[4|6|8:7|5] <- bits [6:2]
			nzimm := signExtend(int64(p>>3&0x200|p>>2&0x10|p<<1&0x40|p<<4&0x180|p<<3&0x20), 9)
			if nzimm == 0 {
				rec.ExceptionPending = true
				return
			}
			rec.Class = ClassADD
			rec.Rd = 2
			rec.Rs1 = 2
			rec.UseImm = true
			rec.Result = nzimm
			return
		}
		// C.LUI: lui rd, nzimm
		if imm6 == 0 {
			rec.ExceptionPending = true
			return
		}
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = 0
		rec.UseImm = true
		rec.Result = imm6 << 12

	case 0b100:
		d.decodeQuadrant1ALU(p, rec)
	}
	// C.J, C.BEQZ, C.BNEZ fall through as ClassOther.
}

// decodeQuadrant1ALU decodes the register ALU group under quadrant 1.
// Only C.ADDW lands in a fusable class; shifts, logic ops, and subtracts
// stay ClassOther.
func (d *Decoder) decodeQuadrant1ALU(p uint32, rec *Record) {
	rdP := uint8(p>>7&0x7) + 8  // bits [9:7], rd'
	rs2P := uint8(p>>2&0x7) + 8 // bits [4:2], rs2'

	// bits [11:10] == 11 selects the register-register group; bit 12 and
	// bits [6:5] then pick the operation.
	if p>>10&0x3 != 0b11 {
		return
	}
	if p>>12&0x1 == 1 && p>>5&0x3 == 0b01 {
		// C.ADDW: addw rd', rd', rs2'
		rec.Class = ClassADDW
		rec.Rd = rdP
		rec.Rs1 = rdP
		rec.Rs2 = rs2P
	}
}

// decodeQuadrant2 decodes the stack-pointer loads and the full-register
// move/add forms.
func (d *Decoder) decodeQuadrant2(p, funct3 uint32, rec *Record) {
	rd := uint8(p >> 7 & 0x1F)  // bits [11:7]
	rs2 := uint8(p >> 2 & 0x1F) // bits [6:2]

	switch funct3 {
	case 0b010: // C.LWSP: lw rd, uimm(x2)
		if rd == 0 {
			rec.ExceptionPending = true
			return
		}
		// uimm[5] <- bit 12, uimm[4:2] <- bits [6:4], uimm[7:6] <- bits [3:2]
		uimm := p>>7&0x20 | p>>2&0x1C | p<<4&0xC0
		rec.Class = ClassLW
		rec.Rd = rd
		rec.Rs1 = 2
		rec.UseImm = true
		rec.Result = int64(uimm)

	case 0b011: // C.LDSP: ld rd, uimm(x2)
		if rd == 0 {
			rec.ExceptionPending = true
			return
		}
		// uimm[5] <- bit 12, uimm[4:3] <- bits [6:5], uimm[8:6] <- bits [4:2]
		uimm := p>>7&0x20 | p>>2&0x18 | p<<4&0x1C0
		rec.Class = ClassLD
		rec.Rd = rd
		rec.Rs1 = 2
		rec.UseImm = true
		rec.Result = int64(uimm)

	case 0b100:
		if p>>12&0x1 == 0 {
			if rs2 == 0 {
				return // C.JR
			}
			// C.MV: add rd, x0, rs2
			rec.Class = ClassADD
			rec.Rd = rd
			rec.Rs1 = 0
			rec.Rs2 = rs2
			return
		}
		if rs2 == 0 {
			return // C.JALR or C.EBREAK
		}
		// C.ADD: add rd, rd, rs2
		rec.Class = ClassADD
		rec.Rd = rd
		rec.Rs1 = rd
		rec.Rs2 = rs2
	}
	// C.SLLI, C.FLDSP, C.SWSP, C.SDSP fall through as ClassOther.
}

// signExtend sign-extends value from the given bit position.
func signExtend(value int64, signBit uint) int64 {
	if value&(1<<signBit) != 0 {
		value |= ^int64(1<<(signBit+1) - 1)
	}
	return value
}
