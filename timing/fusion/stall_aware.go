package fusion

import "github.com/sarchlab/cva6sim/insts"

// StallAwareScanner is a two-wide scanner that survives downstream
// backpressure. It holds the only cross-step state in the package: a
// single pending register carrying a fused record that was produced in a
// step the downstream could not accept it, keyed by the PC of the window
// slot that produced it. In this variant the fused record is placed on
// output slot 1 under the consumer's identity, and the per-slot booleans
// supplied each step are downstream acceptance signals rather than
// upstream validity bits; validity comes from the records themselves.
type StallAwareScanner struct {
	matcher *Matcher
	fuser   *Fuser
	pending PendingFusion
	stats   Statistics
}

// NewStallAwareScanner creates a scanner with an empty pending register.
func NewStallAwareScanner() *StallAwareScanner {
	return &StallAwareScanner{
		matcher: NewMatcher(),
		fuser:   NewFuser(),
	}
}

// Step evaluates one window against the downstream acceptance pattern.
// The sequence within a step is fixed: the combinational two-wide decision
// first, then re-presentation of a held record whose producing slot is
// back at the head of the window, then the pending-register update. The
// register update never influences the same step's outputs.
//
// A reset empties the pending register before anything else runs, so a
// reset step behaves exactly like a cold start.
func (s *StallAwareScanner) Step(w0, w1 *insts.Record, accept0, accept1, reset bool) ScanResult {
	if reset {
		s.pending.Clear()
	}

	s.stats.Steps++

	result := ScanResult{
		Out0:       *w0,
		Out1:       *w1,
		FirstValid: true,
	}

	kind := s.matcher.MatchPair(w0, w1)
	if kind != NoFusion {
		result.Out1 = s.fuser.Fuse(w0, w1)
		result.FirstValid = false
	}

	// A held record re-presents itself once the slot that produced it is
	// back at the head of the window, displacing whatever the
	// combinational pass computed.
	replayed := false
	if s.pending.Valid && s.pending.PC == w0.PC {
		result.Out0 = s.pending.Record
		result.Out1 = *w1
		result.FirstValid = true
		replayed = true
		s.stats.PendingReplays++
	}

	parked := s.update(&result, w0, accept0, accept1)

	// A pair counts as merged in the step its fused record leaves the
	// combinational domain: accepted downstream or parked. A window
	// re-presented across a stall matches again every step but carries
	// the same pair, and a replayed record was counted when it parked.
	if kind != NoFusion && !replayed && (accept1 || parked) {
		s.countFusion(kind)
	}

	return result
}

// update applies the pending-register transition for the step just
// evaluated. A fused record on slot 1 that the downstream accepted slot 0
// around is parked; otherwise the register retires as soon as the head of
// the window has moved past the PC it is keyed on. Holding the register
// across repeated stalls at the same PC is what keeps a fused instruction
// from being lost. It reports whether a record was parked this step.
func (s *StallAwareScanner) update(result *ScanResult, w0 *insts.Record, accept0, accept1 bool) bool {
	switch {
	case result.Out1.Fusion != insts.FusionNone && accept0 && !accept1:
		if s.pending.Valid && s.pending.PC != w0.PC {
			// The register is single-entry: a second stalled fusion
			// while one is held cannot be parked. The held record
			// wins and the collision is surfaced in the counters.
			s.stats.PendingConflicts++
			return false
		}
		s.pending.Valid = true
		s.pending.Record = result.Out1
		s.pending.PC = w0.PC
		s.stats.PendingStores++
		return true

	case s.pending.Valid && w0.PC != s.pending.PC:
		s.pending.Clear()
		s.stats.PendingClears++
	}
	return false
}

// Preview computes the outputs the next step would produce for the given
// window without touching the pending register or the counters. The
// acceptance inputs to Step feed back from whatever consumes the outputs,
// so a caller previews first, decides acceptance, then commits with Step.
func (s *StallAwareScanner) Preview(w0, w1 *insts.Record) ScanResult {
	result := ScanResult{
		Out0:       *w0,
		Out1:       *w1,
		FirstValid: true,
	}

	if s.matcher.MatchPair(w0, w1) != NoFusion {
		result.Out1 = s.fuser.Fuse(w0, w1)
		result.FirstValid = false
	}

	if s.pending.Valid && s.pending.PC == w0.PC {
		result.Out0 = s.pending.Record
		result.Out1 = *w1
		result.FirstValid = true
	}

	return result
}

// Reset empties the pending register immediately, equivalent to asserting
// the reset input on the next step.
func (s *StallAwareScanner) Reset() {
	s.pending.Clear()
}

// Pending returns a snapshot of the pending register.
func (s *StallAwareScanner) Pending() PendingFusion {
	return s.pending
}

// Stats returns a snapshot of the scanner's counters.
func (s *StallAwareScanner) Stats() Statistics {
	return s.stats
}

func (s *StallAwareScanner) countFusion(kind DecisionKind) {
	switch kind {
	case AddLoad:
		s.stats.AddLoadFusions++
	case AddAdd:
		s.stats.AddAddFusions++
	}
}
