package frontend

// BranchPredictorConfig holds configuration for the branch predictor.
type BranchPredictorConfig struct {
	// BHTSize is the number of entries in the Branch History Table.
	// Must be a power of 2. Default is 128.
	BHTSize uint32
	// BTBSize is the number of entries in the Branch Target Buffer.
	// Must be a power of 2. Default is 8.
	BTBSize uint32
	// RASDepth is the capacity of the return address stack. Default is 2.
	RASDepth uint32
}

// DefaultBranchPredictorConfig returns the predictor sizing of the
// default core configuration.
func DefaultBranchPredictorConfig() BranchPredictorConfig {
	return BranchPredictorConfig{
		BHTSize:  128,
		BTBSize:  8,
		RASDepth: 2,
	}
}

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of branch directions resolved.
	Predictions uint64
	// Correct is the number of correct direction predictions.
	Correct uint64
	// Mispredictions is the number of incorrect direction predictions.
	Mispredictions uint64
	// BTBHits is the number of BTB hits.
	BTBHits uint64
	// BTBMisses is the number of BTB misses.
	BTBMisses uint64
	// RASHits is the number of returns predicted by the return stack.
	RASHits uint64
	// RASMisses is the number of returns the stack got wrong.
	RASMisses uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// BTBHitRate returns the BTB hit rate as a percentage.
func (s BranchPredictorStats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// RASHitRate returns the return stack hit rate as a percentage.
func (s BranchPredictorStats) RASHitRate() float64 {
	total := s.RASHits + s.RASMisses
	if total == 0 {
		return 0
	}
	return float64(s.RASHits) / float64(total) * 100
}

// Prediction represents a branch direction prediction.
type Prediction struct {
	// Taken indicates whether the branch is predicted to be taken.
	Taken bool
	// Known indicates whether the entry has been trained at all. The
	// issue logic falls back to static not-taken while it is false.
	Known bool
}

// bhtEntry is a 2-bit saturating counter with a valid bit. An entry
// predicts nothing until its branch has been resolved once.
type bhtEntry struct {
	valid   bool
	counter uint8
}

// btbEntry maps a jump's PC to its last observed target.
type btbEntry struct {
	pc     uint64
	target uint64
}

// BranchPredictor models the frontend predictors: a bimodal branch
// history table for conditional directions, a small branch target buffer
// for register-indirect targets, and a return address stack maintained
// from the call and return hints the decoder extracts.
type BranchPredictor struct {
	bht []bhtEntry

	btb      []btbEntry
	btbValid []bool

	ras []uint64

	bhtSize  uint32
	btbSize  uint32
	rasDepth uint32

	stats BranchPredictorStats
}

// NewBranchPredictor creates a new branch predictor with the given
// configuration.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	bhtSize := config.BHTSize
	btbSize := config.BTBSize
	rasDepth := config.RASDepth

	if bhtSize == 0 {
		bhtSize = 128
	}
	if btbSize == 0 {
		btbSize = 8
	}
	if rasDepth == 0 {
		rasDepth = 2
	}

	return &BranchPredictor{
		bht:      make([]bhtEntry, bhtSize),
		btb:      make([]btbEntry, btbSize),
		btbValid: make([]bool, btbSize),
		ras:      make([]uint64, 0, rasDepth),
		bhtSize:  bhtSize,
		btbSize:  btbSize,
		rasDepth: rasDepth,
	}
}

// bhtIndex computes the BHT index for a given PC. Compressed encodings
// align to 2 bytes, so only bit 0 is dropped.
func (bp *BranchPredictor) bhtIndex(pc uint64) uint32 {
	return uint32((pc >> 1) & uint64(bp.bhtSize-1))
}

// btbIndex computes the BTB index for a given PC.
func (bp *BranchPredictor) btbIndex(pc uint64) uint32 {
	return uint32((pc >> 1) & uint64(bp.btbSize-1))
}

// Predict looks up the direction for a conditional branch without
// touching any state.
func (bp *BranchPredictor) Predict(pc uint64) Prediction {
	entry := bp.bht[bp.bhtIndex(pc)]
	if !entry.valid {
		return Prediction{}
	}
	return Prediction{Taken: entry.counter >= 2, Known: true}
}

// Resolve updates the direction state with the actual outcome and reports
// whether the prediction, static not-taken for untrained entries, was
// correct.
func (bp *BranchPredictor) Resolve(pc uint64, taken bool) bool {
	entry := &bp.bht[bp.bhtIndex(pc)]

	predicted := false
	if entry.valid {
		predicted = entry.counter >= 2
	}

	correct := predicted == taken
	bp.stats.Predictions++
	if correct {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}

	entry.valid = true
	if taken {
		if entry.counter < 3 {
			entry.counter++
		}
	} else if entry.counter > 0 {
		entry.counter--
	}

	return correct
}

// PredictTarget looks up the target buffer for an indirect jump.
func (bp *BranchPredictor) PredictTarget(pc uint64) (uint64, bool) {
	idx := bp.btbIndex(pc)
	if bp.btbValid[idx] && bp.btb[idx].pc == pc {
		bp.stats.BTBHits++
		return bp.btb[idx].target, true
	}
	bp.stats.BTBMisses++
	return 0, false
}

// ResolveTarget records the observed target of an indirect jump.
func (bp *BranchPredictor) ResolveTarget(pc, target uint64) {
	idx := bp.btbIndex(pc)
	bp.btb[idx] = btbEntry{pc: pc, target: target}
	bp.btbValid[idx] = true
}

// PushCall records a call's return address. The stack forgets its oldest
// entry when full.
func (bp *BranchPredictor) PushCall(returnAddr uint64) {
	if uint32(len(bp.ras)) == bp.rasDepth {
		copy(bp.ras, bp.ras[1:])
		bp.ras = bp.ras[:len(bp.ras)-1]
	}
	bp.ras = append(bp.ras, returnAddr)
}

// PopReturn pops the predicted return address. ok is false when the
// stack has underflowed.
func (bp *BranchPredictor) PopReturn() (uint64, bool) {
	if len(bp.ras) == 0 {
		return 0, false
	}
	addr := bp.ras[len(bp.ras)-1]
	bp.ras = bp.ras[:len(bp.ras)-1]
	return addr, true
}

// VerifyReturn pops the stack and compares against the actual return
// target, updating the hit counters. It reports whether the return was
// predicted correctly.
func (bp *BranchPredictor) VerifyReturn(actual uint64) bool {
	predicted, ok := bp.PopReturn()
	if ok && predicted == actual {
		bp.stats.RASHits++
		return true
	}
	bp.stats.RASMisses++
	return false
}

// RASLen returns the current return stack occupancy.
func (bp *BranchPredictor) RASLen() int {
	return len(bp.ras)
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	for i := range bp.bht {
		bp.bht[i] = bhtEntry{}
	}
	for i := range bp.btbValid {
		bp.btbValid[i] = false
	}
	bp.ras = bp.ras[:0]
	bp.stats = BranchPredictorStats{}
}
