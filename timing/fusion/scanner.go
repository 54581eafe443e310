package fusion

import "github.com/sarchlab/cva6sim/insts"

// ScanResult holds the two fixed output slots of one scan step. By
// interface convention the second slot is always treated as presentable;
// FirstValid reports whether slot 0 carries an independently valid,
// un-fused instruction. Whenever a pair fused this step the flag is false
// and the record whose Fusion tag is set marks the slot holding the
// merged operation.
type ScanResult struct {
	Out0       insts.Record
	Out1       insts.Record
	FirstValid bool
}

// TwoWideScanner composes Matcher and Fuser over a two-instruction window.
// It is stateless; every step is recomputed from the current window. On a
// match the fused record takes slot 0 while keeping the consumer's PC,
// which the fuser's offset correction assumes; the consumer's original
// slot 1 content is left in place but is not an independent instruction.
type TwoWideScanner struct {
	matcher *Matcher
	fuser   *Fuser
	stats   Statistics
}

// NewTwoWideScanner creates a stateless two-wide scanner.
func NewTwoWideScanner() *TwoWideScanner {
	return &TwoWideScanner{
		matcher: NewMatcher(),
		fuser:   NewFuser(),
	}
}

// Scan evaluates one window. Every output field defaults to plain
// pass-through before any fusion override is applied, so invalid or
// unmatched windows emerge untouched with FirstValid true.
func (s *TwoWideScanner) Scan(w0, w1 *insts.Record, v0, v1 bool) ScanResult {
	s.stats.Steps++

	result := ScanResult{
		Out0:       *w0,
		Out1:       *w1,
		FirstValid: true,
	}

	decision := s.matcher.MatchWindow2(w0, w1, v0, v1)
	if decision.Kind == NoFusion {
		return result
	}

	result.Out0 = s.fuser.Fuse(w0, w1)
	result.FirstValid = false

	s.countFusion(decision.Kind)
	return result
}

// Stats returns a snapshot of the scanner's counters.
func (s *TwoWideScanner) Stats() Statistics {
	return s.stats
}

func (s *TwoWideScanner) countFusion(kind DecisionKind) {
	switch kind {
	case AddLoad:
		s.stats.AddLoadFusions++
	case AddAdd:
		s.stats.AddAddFusions++
	}
}
