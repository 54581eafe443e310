package fusion

import "github.com/sarchlab/cva6sim/insts"

// ThreeWideResult holds the outputs of one three-wide scan: two fixed
// output slots, a readiness flag, and the slot the fused record landed on.
// Ready is false only when the leading pair fused but no third instruction
// was available to fill the freed slot this step.
type ThreeWideResult struct {
	Out0       insts.Record
	Out1       insts.Record
	Ready      bool
	FusedSlot1 bool // fused record sits on slot 1 (pair 1-2) rather than slot 0
}

// ThreeWideScanner composes Matcher and Fuser over a three-instruction
// window, arbitrating between the overlapping candidate pairs (0,1) and
// (1,2). The earlier pair always wins; the instruction left out of the
// winning pair is routed unchanged to the other output slot.
type ThreeWideScanner struct {
	matcher *Matcher
	fuser   *Fuser
	stats   Statistics
}

// NewThreeWideScanner creates a stateless three-wide scanner.
func NewThreeWideScanner() *ThreeWideScanner {
	return &ThreeWideScanner{
		matcher: NewMatcher(),
		fuser:   NewFuser(),
	}
}

// Scan evaluates one window. Outputs default to the pass-through of slots
// 0 and 1 with Ready true. A match on pair (0,1) places the fused record
// on slot 0 and routes slot 2 onward, with Ready tracking slot 2's
// validity; a match on pair (1,2) places the fused record on slot 1 and
// passes slot 0 through untouched. Either way the fused record carries
// the consumer's PC, which the fuser's offset correction accounts for.
func (s *ThreeWideScanner) Scan(w0, w1, w2 *insts.Record, v0, v1, v2 bool) ThreeWideResult {
	s.stats.Steps++

	result := ThreeWideResult{
		Out0:  *w0,
		Out1:  *w1,
		Ready: true,
	}

	decision := s.matcher.MatchWindow3(w0, w1, w2, v0, v1, v2)
	if decision.Kind == NoFusion {
		return result
	}

	if decision.Producer == 0 {
		result.Out0 = s.fuser.Fuse(w0, w1)
		result.Out1 = *w2
		// The freed slot can only be consumed alongside a third
		// instruction, so readiness follows slot 2's validity.
		result.Ready = v2
	} else {
		result.Out1 = s.fuser.Fuse(w1, w2)
		result.FusedSlot1 = true
	}

	s.countFusion(decision.Kind)
	return result
}

// Stats returns a snapshot of the scanner's counters.
func (s *ThreeWideScanner) Stats() Statistics {
	return s.stats
}

func (s *ThreeWideScanner) countFusion(kind DecisionKind) {
	switch kind {
	case AddLoad:
		s.stats.AddLoadFusions++
	case AddAdd:
		s.stats.AddAddFusions++
	}
}
