package insts

// OpClass identifies the operation family of a decoded instruction as seen
// by the fusion unit. Instructions outside the fusable families all fall
// into ClassOther.
type OpClass uint8

// Operation classes.
const (
	ClassOther OpClass = iota // anything the fusion unit does not match on
	ClassADD                  // ADD, ADDI, LUI, AUIPC and their C forms
	ClassADDW                 // ADDW, ADDIW and their C forms
	ClassLB
	ClassLBU
	ClassLH
	ClassLHU
	ClassLW
	ClassLWU
	ClassLD
)

// String returns the class mnemonic.
func (c OpClass) String() string {
	switch c {
	case ClassADD:
		return "ADD"
	case ClassADDW:
		return "ADDW"
	case ClassLB:
		return "LB"
	case ClassLBU:
		return "LBU"
	case ClassLH:
		return "LH"
	case ClassLHU:
		return "LHU"
	case ClassLW:
		return "LW"
	case ClassLWU:
		return "LWU"
	case ClassLD:
		return "LD"
	default:
		return "OTHER"
	}
}

// IsAdd reports whether the class belongs to the add family (64-bit or
// word-width).
func (c OpClass) IsAdd() bool {
	return c == ClassADD || c == ClassADDW
}

// IsLoad reports whether the class is one of the load classes.
func (c OpClass) IsLoad() bool {
	switch c {
	case ClassLB, ClassLBU, ClassLH, ClassLHU, ClassLW, ClassLWU, ClassLD:
		return true
	}
	return false
}

// FusionTag records how a fused instruction was assembled from its source
// encodings. Non-fused records carry FusionNone.
type FusionTag uint8

// Fusion provenance tags.
const (
	FusionNone    FusionTag = 0 // not produced by fusion
	FusionBoth    FusionTag = 1 // both source instructions were compressed
	FusionMixed   FusionTag = 2 // exactly one source instruction was compressed
	FusionNeither FusionTag = 3 // neither source instruction was compressed
)

// Record is the flat, decoded view of one instruction that flows through
// the fusion unit. Fields default to the pass-through values: a freshly
// decoded record always has Fusion == FusionNone, and Valid reflects
// whether the fetch stage actually delivered the instruction rather than
// any property of the encoding itself.
type Record struct {
	PC    uint64  // address the instruction was fetched from
	Class OpClass // operation family

	Rd  uint8 // destination register
	Rs1 uint8 // first source register
	Rs2 uint8 // second source register

	UseImm     bool // second operand is the immediate in Result
	UsePC      bool // operand is PC-relative (AUIPC family)
	Compressed bool // decoded from a 16-bit parcel

	Fusion FusionTag // provenance of a fused record

	// Result carries the literal immediate, or the PC-relative base for
	// UsePC records, before any fusion arithmetic is applied.
	Result int64

	ExceptionPending bool // encoding was illegal; excluded from fusion
	Valid            bool // fetch delivered this slot
}

// Clear resets the record to the empty, invalid state.
func (r *Record) Clear() {
	*r = Record{}
}

// Fusable reports whether the record may participate in fusion at all.
// Invalid records and records carrying a pending exception pass through
// the fusion unit unmodified.
func (r *Record) Fusable() bool {
	return r.Valid && !r.ExceptionPending
}
