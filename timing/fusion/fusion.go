// Package fusion implements the decode-stage macro-op fusion unit: pattern
// matching over a short window of decoded instructions, merging of adjacent
// dependent pairs into single operations, and the stall-carry state needed
// when the downstream consumer cannot accept a fused result in the step it
// was produced.
//
// The package is organized the way the surrounding pipeline consumes it:
//
//   - Matcher decides whether and where a window fuses.
//   - Fuser merges one matched pair into a single record.
//   - TwoWideScanner and ThreeWideScanner compose the two over fixed-width
//     windows, always emitting exactly two output slots.
//   - StallAwareScanner adds the single persistent pending register that
//     survives downstream backpressure.
//
// All decisions are pure per-step functions of their inputs; the pending
// register inside StallAwareScanner is the only cross-step state anywhere
// in the package.
package fusion

import "github.com/sarchlab/cva6sim/insts"

// DecisionKind identifies the fusion pattern a pair of instructions
// matched, if any.
type DecisionKind uint8

// Fusion decision kinds.
const (
	NoFusion DecisionKind = iota // pair does not fuse
	AddLoad                      // address-compute add followed by a load
	AddAdd                       // two immediate adds forming a split immediate
)

// String returns the decision mnemonic.
func (k DecisionKind) String() string {
	switch k {
	case AddLoad:
		return "AddLoad"
	case AddAdd:
		return "AddAdd"
	default:
		return "NoFusion"
	}
}

// Decision describes the outcome of matching a window: the pattern kind and
// the window slots of the participating pair. Producer and Consumer are
// meaningful only when Kind is not NoFusion.
type Decision struct {
	Kind     DecisionKind
	Producer int // window slot of the value-producing instruction
	Consumer int // window slot of the dependent instruction
}

// PendingFusion is the single stall-carry register owned by a
// StallAwareScanner: a fused record that was produced but not accepted
// downstream, keyed by the PC of the window slot that produced it.
type PendingFusion struct {
	Valid  bool // holding a record when true
	Record insts.Record
	PC     uint64
}

// Clear empties the register.
func (p *PendingFusion) Clear() {
	p.Valid = false
	p.Record.Clear()
	p.PC = 0
}

// Statistics tracks fusion activity for one scanner instance. The
// stateless scanners count per evaluation, so a window re-presented
// across a downstream stall matches on every scan; consumers that need
// once-per-pair accounting take it at the point the outputs are
// consumed. StallAwareScanner counts each pair once, in the step its
// fused record is accepted or parked.
type Statistics struct {
	Steps            uint64 // evaluation steps performed
	AddLoadFusions   uint64 // pairs merged by the add+load pattern
	AddAddFusions    uint64 // pairs merged by the split-immediate pattern
	PendingStores    uint64 // fused results parked in the pending register
	PendingReplays   uint64 // steps that re-presented a parked record
	PendingClears    uint64 // pending register retirements
	PendingConflicts uint64 // fused results that collided with a held record
}

// Fusions returns the total number of merged pairs.
func (s *Statistics) Fusions() uint64 {
	return s.AddLoadFusions + s.AddAddFusions
}

// FusionRate returns merged pairs per evaluation step.
func (s *Statistics) FusionRate() float64 {
	if s.Steps == 0 {
		return 0
	}
	return float64(s.Fusions()) / float64(s.Steps)
}

// Clear resets all counters.
func (s *Statistics) Clear() {
	*s = Statistics{}
}
