package frontend

import "github.com/sarchlab/cva6sim/insts"

// Unit identifies an issue port on the execution stage. The FLU gathers
// the main ALU, the branch unit and CSR handling; loads and stores share
// the LSU; the multiplier shares its write-back port with the FLU; the
// second ALU, when present, has a port of its own.
type Unit int

// Functional units.
const (
	UnitALU Unit = iota
	UnitMul
	UnitBranch
	UnitLoad
	UnitStore
)

// String returns a readable unit name.
func (u Unit) String() string {
	switch u {
	case UnitALU:
		return "alu"
	case UnitMul:
		return "mul"
	case UnitBranch:
		return "branch"
	case UnitLoad:
		return "load"
	case UnitStore:
		return "store"
	default:
		return "unknown"
	}
}

// UnitFor routes an instruction kind to its issue port. Direct jumps
// resolve in the frontend and only need the ALU to write their link
// register; system instructions retire through the CSR path on the FLU.
func UnitFor(kind insts.Kind) Unit {
	switch kind {
	case insts.KindBranch, insts.KindRegJump:
		return UnitBranch
	case insts.KindMul, insts.KindDiv:
		return UnitMul
	case insts.KindLoad:
		return UnitLoad
	case insts.KindStore:
		return UnitStore
	default:
		return UnitALU
	}
}

// UnitTracker models per-cycle issue-port occupancy, including the ports
// that block each other because they share write-back or memory-ordering
// resources. All occupancy clears at the start of the next cycle except
// the multiplier's FLU write-back slot, which blocks one cycle longer.
type UnitTracker struct {
	hasALU2 bool

	alu    bool
	mul    bool
	branch bool
	ldu    bool
	stu    bool
	alu2   bool

	issuedMul bool
}

// NewUnitTracker creates a tracker. hasALU2 enables the second ALU port
// present in dual-issue configurations.
func NewUnitTracker(hasALU2 bool) *UnitTracker {
	return &UnitTracker{hasALU2: hasALU2}
}

func (t *UnitTracker) alu2Ready() bool {
	return t.hasALU2 && !t.alu2
}

// IsReady reports whether the unit can accept an issue this cycle.
func (t *UnitTracker) IsReady(u Unit) bool {
	switch u {
	case UnitALU:
		return t.alu2Ready() || !t.alu
	case UnitMul:
		return !t.mul
	case UnitBranch:
		return !t.branch
	case UnitLoad:
		return !t.ldu
	case UnitStore:
		return !t.stu
	default:
		return false
	}
}

// IsReadyFor reports whether the unit serving the kind can accept an
// issue this cycle.
func (t *UnitTracker) IsReadyFor(kind insts.Kind) bool {
	return t.IsReady(UnitFor(kind))
}

// Issue marks the unit serving the kind busy, along with every port it
// blocks.
func (t *UnitTracker) Issue(kind insts.Kind) {
	switch UnitFor(kind) {
	case UnitALU:
		if t.alu2Ready() {
			t.alu2 = true
		} else {
			t.alu = true
			t.branch = true
		}
	case UnitMul:
		t.mul = true
		t.issuedMul = true
	case UnitBranch:
		t.alu = true
		t.branch = true
		// Stores may not issue behind an open branch.
		t.stu = true
	case UnitLoad:
		t.ldu = true
		t.stu = true
	case UnitStore:
		t.stu = true
		t.ldu = true
	}
}

// Cycle advances to the next cycle. A multiply issued in the previous
// cycle keeps the FLU write-back busy for one more.
func (t *UnitTracker) Cycle() {
	t.alu = t.issuedMul
	t.branch = t.issuedMul
	t.mul = false
	t.ldu = false
	t.stu = false
	t.alu2 = false
	t.issuedMul = false
}

// Reset clears all occupancy.
func (t *UnitTracker) Reset() {
	*t = UnitTracker{hasALU2: t.hasALU2}
}
