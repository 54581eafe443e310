// Package frontend models the in-order fetch, decode and issue pipeline
// of the core, with the decode-stage fusion unit between the fetch queue
// and the issue window. The model is trace-driven: it replays a committed
// instruction stream and counts the cycles the pipeline would spend on
// it.
package frontend

import (
	"fmt"

	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/fusion"
	"github.com/sarchlab/cva6sim/timing/latency"
)

// FusionMode selects the decode-stage fusion arrangement.
type FusionMode int

// Fusion modes.
const (
	// FusionOff disables fusion; every instruction issues on its own.
	FusionOff FusionMode = iota
	// FusionPairs scans adjacent pairs in a two-wide window.
	FusionPairs
	// FusionTriples scans the overlapping pairs of a three-wide window.
	FusionTriples
	// FusionStallAware scans pairs and parks a fused result across
	// backpressure instead of losing it.
	FusionStallAware
)

// String returns the mode name as accepted on the command line.
func (m FusionMode) String() string {
	switch m {
	case FusionOff:
		return "off"
	case FusionPairs:
		return "pairs"
	case FusionTriples:
		return "triples"
	case FusionStallAware:
		return "stall-aware"
	default:
		return "unknown"
	}
}

// ParseFusionMode parses a mode name.
func ParseFusionMode(name string) (FusionMode, error) {
	switch name {
	case "off":
		return FusionOff, nil
	case "pairs":
		return FusionPairs, nil
	case "triples":
		return FusionTriples, nil
	case "stall-aware":
		return FusionStallAware, nil
	default:
		return FusionOff, fmt.Errorf("unknown fusion mode %q", name)
	}
}

// Config holds the frontend pipeline parameters.
type Config struct {
	// IssueWidth is the number of operations issued per cycle.
	IssueWidth int
	// CommitWidth is the number of operations committed per cycle.
	CommitWidth int
	// ScoreboardLen is the number of in-flight operations tracked.
	ScoreboardLen int
	// FetchBytes is the fetch block size in bytes. Zero selects four
	// bytes per issue slot.
	FetchBytes uint64
	// FusionMode selects the decode-stage fusion arrangement.
	FusionMode FusionMode
	// HasForwarding enables result forwarding from completing
	// producers.
	HasForwarding bool
	// HasRenaming enables register renaming, which removes
	// write-after-write stalls.
	HasRenaming bool
	// Predictor configures the branch predictor.
	Predictor BranchPredictorConfig
}

// DefaultConfig returns the dual-issue arrangement the latency values
// were calibrated against.
func DefaultConfig() Config {
	return Config{
		IssueWidth:    2,
		CommitWidth:   2,
		ScoreboardLen: 8,
		FusionMode:    FusionOff,
		HasForwarding: true,
		HasRenaming:   true,
		Predictor:     DefaultBranchPredictorConfig(),
	}
}

// Statistics aggregates the frontend counters for one run.
type Statistics struct {
	// Cycles is the total cycle count.
	Cycles uint64
	// Instructions is the number of architectural instructions retired.
	Instructions uint64
	// Ops is the number of issue slots retired; a fused pair counts
	// once.
	Ops uint64
	// FusedRetired is the number of fused pairs retired.
	FusedRetired uint64
	// AddLoadRetired is the number of retired pairs merged by the
	// add+load pattern.
	AddLoadRetired uint64
	// AddAddRetired is the number of retired pairs merged by the
	// split-immediate pattern.
	AddAddRetired uint64

	// ScoreboardStalls counts issue rejections with no free entry.
	ScoreboardStalls uint64
	// RAWStalls counts issue rejections on a pending source register.
	RAWStalls uint64
	// WAWStalls counts issue rejections on a pending destination.
	WAWStalls uint64
	// UnitStalls counts issue rejections on a busy functional unit.
	UnitStalls uint64
	// FetchStalls counts cycles lost to instruction fetch.
	FetchStalls uint64
	// RefillCycles counts cycles lost refilling after a flush.
	RefillCycles uint64
	// Flushes counts pipeline flushes from mispredicted control flow.
	Flushes uint64
}

// CPI returns cycles per architectural instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// IPC returns architectural instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// FusionRate returns the share of retired instructions that came from a
// fused pair, as a percentage.
func (s Statistics) FusionRate() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(2*s.FusedRetired) / float64(s.Instructions) * 100
}

// Frontend drives a decoded instruction source through fetch, the fusion
// window, in-order issue and commit, counting cycles the way the
// pipeline spends them.
type Frontend struct {
	config Config
	source Source

	queue *FetchQueue
	sb    *Scoreboard
	units *UnitTracker
	bp    *BranchPredictor
	table *latency.Table

	twoWide   *fusion.TwoWideScanner
	threeWide *fusion.ThreeWideScanner
	stall     *fusion.StallAwareScanner

	refill      uint64
	fetchFreeze uint64

	onRetire func(Slot)

	stats Statistics
}

// Option configures a Frontend.
type Option func(*Frontend)

// WithLatencyTable overrides the default latency table.
func WithLatencyTable(t *latency.Table) Option {
	return func(f *Frontend) {
		f.table = t
	}
}

// WithRetireHook calls fn for every slot the scoreboard commits, in
// commit order. Fused slots arrive once, carrying the merged record.
func WithRetireHook(fn func(Slot)) Option {
	return func(f *Frontend) {
		f.onRetire = fn
	}
}

// New creates a frontend over the source.
func New(config Config, source Source, opts ...Option) *Frontend {
	if config.IssueWidth <= 0 {
		config.IssueWidth = 1
	}
	if config.CommitWidth <= 0 {
		config.CommitWidth = 1
	}
	if config.ScoreboardLen <= 0 {
		config.ScoreboardLen = 8
	}
	if config.FetchBytes == 0 {
		config.FetchBytes = uint64(4 * config.IssueWidth)
	}

	f := &Frontend{
		config: config,
		source: source,
		queue:  NewFetchQueue(config.FetchBytes),
		sb:     NewScoreboard(config.ScoreboardLen, config.CommitWidth),
		units:  NewUnitTracker(config.IssueWidth > 1),
		bp:     NewBranchPredictor(config.Predictor),
		table:  latency.NewTable(),

		twoWide:   fusion.NewTwoWideScanner(),
		threeWide: fusion.NewThreeWideScanner(),
		stall:     fusion.NewStallAwareScanner(),
	}
	f.sb.SetForwarding(config.HasForwarding)
	f.sb.SetRenaming(config.HasRenaming)

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Tick advances the model by one cycle.
func (f *Frontend) Tick() {
	f.stats.Cycles++

	f.retire(f.sb.Tick())
	f.units.Cycle()

	if f.fetchFreeze > 0 {
		f.fetchFreeze--
		f.stats.FetchStalls++
		return
	}

	f.queue.Fetch()

	if f.refill > 0 {
		f.refill--
		f.stats.RefillCycles++
		return
	}

	window, valid := f.window()

	if stall := f.source.TakeStallCycles(); stall > 0 {
		f.fetchFreeze = stall - 1
		f.stats.FetchStalls++
		return
	}

	if f.config.FusionMode == FusionStallAware {
		f.issueStallAware(window, valid)
		return
	}
	f.issue(window, valid)
}

// Run ticks until the source drains and the pipeline empties, or
// maxCycles elapses; zero means no limit. It returns the final
// statistics.
func (f *Frontend) Run(maxCycles uint64) Statistics {
	for !f.done() {
		if maxCycles > 0 && f.stats.Cycles >= maxCycles {
			break
		}
		f.Tick()
	}
	return f.stats
}

// Stats returns a snapshot of the run statistics.
func (f *Frontend) Stats() Statistics {
	return f.stats
}

// FusionStats returns the counters of the active fusion scanner. The
// stateless modes re-scan a window the issue stage could not drain, so
// their pattern counters run per evaluation; Stats carries the
// once-per-pair retirement counts.
func (f *Frontend) FusionStats() fusion.Statistics {
	switch f.config.FusionMode {
	case FusionPairs:
		return f.twoWide.Stats()
	case FusionTriples:
		return f.threeWide.Stats()
	case FusionStallAware:
		return f.stall.Stats()
	default:
		return fusion.Statistics{}
	}
}

// PredictorStats returns the branch predictor counters.
func (f *Frontend) PredictorStats() BranchPredictorStats {
	return f.bp.Stats()
}

// Config returns the frontend configuration after defaulting.
func (f *Frontend) Config() Config {
	return f.config
}

// Reset clears pipeline and predictor state. The source stays where it
// is.
func (f *Frontend) Reset() {
	f.queue.Reset()
	f.sb.Reset()
	f.units.Reset()
	f.bp.Reset()
	f.stall.Reset()
	f.refill = 0
	f.fetchFreeze = 0
	f.stats = Statistics{}
}

// done reports whether the stream is exhausted and the pipeline drained.
func (f *Frontend) done() bool {
	if _, ok := f.source.Peek(0); ok {
		return false
	}
	return f.sb.InFlight() == 0
}

// retire accounts the slots the scoreboard committed this cycle.
func (f *Frontend) retire(slots []Slot) {
	for i := range slots {
		f.stats.Ops++
		if slots[i].Rec.Fusion != insts.FusionNone {
			f.stats.Instructions += 2
			f.stats.FusedRetired++
			if slots[i].Rec.Class.IsLoad() {
				f.stats.AddLoadRetired++
			} else {
				f.stats.AddAddRetired++
			}
		} else {
			f.stats.Instructions++
		}
		if f.onRetire != nil {
			f.onRetire(slots[i])
		}
	}
}

// window assembles up to three decode slots whose bytes the fetch queue
// has delivered. The queue is probed on a copy so that only the slots
// actually issued consume occupancy.
func (f *Frontend) window() ([3]Slot, [3]bool) {
	var slots [3]Slot
	var valid [3]bool

	probe := *f.queue
	for i := 0; i < 3; i++ {
		slot, ok := f.source.Peek(i)
		if !ok {
			break
		}
		if !probe.Has(slot.Rec.PC, slot.Size) {
			break
		}
		probe.Remove(slot.Rec.PC, slot.Size, isJumpKind(slot.Kind))
		slots[i] = slot
		valid[i] = true
	}
	return slots, valid
}

func isJumpKind(kind insts.Kind) bool {
	return kind == insts.KindJump || kind == insts.KindRegJump
}

// candidate is one operation offered to issue, together with the source
// slots it consumes.
type candidate struct {
	slot  Slot
	parts []Slot
}

func plainCandidate(slot Slot) candidate {
	return candidate{slot: slot, parts: []Slot{slot}}
}

// fusedCandidate wraps a fused record covering two source slots. The
// merged operation routes to the load port when it carries a memory
// access and to the ALU otherwise.
func fusedCandidate(rec insts.Record, a, b Slot) candidate {
	kind := insts.KindALU
	if rec.Class.IsLoad() {
		kind = insts.KindLoad
	}
	return candidate{
		slot: Slot{
			Rec:  rec,
			Kind: kind,
			Size: a.Size + b.Size,
			Rd:   rec.Rd,
			Rs1:  rec.Rs1,
			Rs2:  rec.Rs2,
		},
		parts: []Slot{a, b},
	}
}

// issue runs one issue cycle for the stateless fusion modes.
func (f *Frontend) issue(window [3]Slot, valid [3]bool) {
	cands := f.gather(window, valid)

	issued := 0
	consumed := 0
	for i := range cands {
		if issued >= f.config.IssueWidth {
			break
		}
		if !f.tryIssue(&cands[i]) {
			// in-order issue: a blocked operation blocks everything
			// behind it
			break
		}
		issued++
		consumed += len(cands[i].parts)
		if f.resolveControlFlow(&cands[i].slot) {
			break
		}
	}
	f.source.Consume(consumed)
}

// gather builds the cycle's issue candidates according to the fusion
// mode.
func (f *Frontend) gather(window [3]Slot, valid [3]bool) []candidate {
	switch f.config.FusionMode {
	case FusionPairs:
		return f.gatherPairs(window, valid)
	case FusionTriples:
		return f.gatherTriples(window, valid)
	default:
		return passThrough(window, valid)
	}
}

func passThrough(window [3]Slot, valid [3]bool) []candidate {
	cands := make([]candidate, 0, 2)
	for i := 0; i < 2; i++ {
		if valid[i] {
			cands = append(cands, plainCandidate(window[i]))
		}
	}
	return cands
}

func (f *Frontend) gatherPairs(window [3]Slot, valid [3]bool) []candidate {
	r0, r1 := window[0].Rec, window[1].Rec
	result := f.twoWide.Scan(&r0, &r1, valid[0], valid[1])

	if !result.FirstValid {
		return []candidate{fusedCandidate(result.Out0, window[0], window[1])}
	}
	return passThrough(window, valid)
}

func (f *Frontend) gatherTriples(window [3]Slot, valid [3]bool) []candidate {
	r0, r1, r2 := window[0].Rec, window[1].Rec, window[2].Rec
	result := f.threeWide.Scan(&r0, &r1, &r2, valid[0], valid[1], valid[2])

	switch {
	case result.FusedSlot1:
		cands := make([]candidate, 0, 2)
		if valid[0] {
			cands = append(cands, plainCandidate(window[0]))
		}
		cands = append(cands, fusedCandidate(result.Out1, window[1], window[2]))
		return cands

	case result.Out0.Fusion != insts.FusionNone:
		cands := []candidate{fusedCandidate(result.Out0, window[0], window[1])}
		if result.Ready && valid[2] {
			cands = append(cands, plainCandidate(window[2]))
		}
		return cands

	default:
		return passThrough(window, valid)
	}
}

// issueStallAware runs one issue cycle through the stall-aware scanner.
// The scanner's outputs are previewed first, the issue attempt determines
// the acceptance pattern, and the step is then committed so the pending
// register tracks exactly what the downstream refused.
func (f *Frontend) issueStallAware(window [3]Slot, valid [3]bool) {
	r0, r1 := window[0].Rec, window[1].Rec
	result := f.stall.Preview(&r0, &r1)

	accept0 := true
	accept1 := false
	consumed := 0

	switch {
	case result.FirstValid && result.Out0.Fusion != insts.FusionNone:
		// a parked fused record re-presented on slot 0; it covers both
		// window slots
		cand := fusedCandidate(result.Out0, window[0], window[1])
		if f.tryIssue(&cand) {
			consumed = 2
		} else {
			accept0 = false
		}

	case !result.FirstValid:
		// pair fused combinationally onto slot 1
		cand := fusedCandidate(result.Out1, window[0], window[1])
		if f.tryIssue(&cand) {
			accept1 = true
			consumed = 2
		}

	default:
		cands := passThrough(window, valid)
		issued := 0
		for i := range cands {
			if issued >= f.config.IssueWidth {
				break
			}
			if !f.tryIssue(&cands[i]) {
				break
			}
			issued++
			consumed += len(cands[i].parts)
			if f.resolveControlFlow(&cands[i].slot) {
				break
			}
		}
		accept0 = issued >= 1 || !valid[0]
		accept1 = issued >= 2
	}

	f.stall.Step(&r0, &r1, accept0, accept1, false)
	f.source.Consume(consumed)
}

// tryIssue places the candidate into the scoreboard and its functional
// unit, consuming its fetch bytes. It reports false, counting the stall,
// when any resource refuses.
func (f *Frontend) tryIssue(c *candidate) bool {
	ok, reason := f.sb.CanAccept(&c.slot)
	if !ok {
		f.countStall(reason)
		return false
	}
	if !f.units.IsReadyFor(c.slot.Kind) {
		f.stats.UnitStalls++
		return false
	}

	f.sb.Issue(c.slot, f.latencyFor(&c.slot))
	f.units.Issue(c.slot.Kind)
	for i := range c.parts {
		part := &c.parts[i]
		f.queue.Remove(part.Rec.PC, part.Size, isJumpKind(part.Kind))
	}
	return true
}

func (f *Frontend) countStall(reason StallReason) {
	switch reason {
	case StallFull:
		f.stats.ScoreboardStalls++
	case StallRAW:
		f.stats.RAWStalls++
	case StallWAW:
		f.stats.WAWStalls++
	}
}

// latencyFor returns the execution latency charged for the slot. Loads
// and fused operations defer to the latency table; a divide is charged
// its worst case since operand values are not modeled.
func (f *Frontend) latencyFor(slot *Slot) uint64 {
	cfg := f.table.Config()
	switch slot.Kind {
	case insts.KindLoad:
		return cfg.LoadLatency
	case insts.KindStore:
		return cfg.StoreLatency
	case insts.KindBranch, insts.KindJump, insts.KindRegJump:
		return cfg.BranchLatency
	case insts.KindMul:
		return cfg.MultiplyLatency
	case insts.KindDiv:
		return cfg.DivideLatencyMax
	case insts.KindSystem:
		return cfg.ALULatency
	default:
		return f.table.GetLatency(&slot.Rec)
	}
}

// resolveControlFlow retires the prediction work for an issued control
// transfer. It reports whether the transfer redirected fetch, which ends
// the issue group for this cycle.
func (f *Frontend) resolveControlFlow(slot *Slot) bool {
	switch slot.Kind {
	case insts.KindBranch:
		correct := f.bp.Resolve(slot.Rec.PC, slot.Branch.Taken)
		if !correct {
			f.flush()
			return true
		}
		if slot.Branch.Taken {
			// correctly predicted taken still redirects fetch
			f.queue.Jump()
			return true
		}
		return false

	case insts.KindJump:
		if slot.Branch.Call {
			f.bp.PushCall(slot.Rec.PC + slot.Size)
		}
		// direct target, resolved in the frontend
		return true

	case insts.KindRegJump:
		var mispredicted bool
		if slot.Branch.Ret {
			mispredicted = !f.bp.VerifyReturn(slot.Branch.Target)
		} else {
			target, known := f.bp.PredictTarget(slot.Rec.PC)
			mispredicted = !known || target != slot.Branch.Target
			f.bp.ResolveTarget(slot.Rec.PC, slot.Branch.Target)
		}
		if slot.Branch.Call {
			f.bp.PushCall(slot.Rec.PC + slot.Size)
		}
		if mispredicted {
			f.flush()
		}
		return true
	}
	return false
}

// flush restarts fetch after mispredicted control flow.
func (f *Frontend) flush() {
	f.queue.Flush()
	f.stall.Reset()
	f.refill = f.table.Config().BranchMispredictPenalty
	f.stats.Flushes++
}
