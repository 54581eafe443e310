package frontend

// StallReason classifies why issue rejected an operation this cycle.
type StallReason int

// Stall reasons.
const (
	StallNone StallReason = iota
	StallFull             // no free scoreboard entry
	StallRAW              // a source register is still being produced
	StallWAW              // the destination register is still being produced
)

// String returns a readable reason name.
func (r StallReason) String() string {
	switch r {
	case StallNone:
		return "none"
	case StallFull:
		return "full"
	case StallRAW:
		return "raw"
	case StallWAW:
		return "waw"
	default:
		return "unknown"
	}
}

// Entry is one in-flight operation in the scoreboard.
type Entry struct {
	Slot      Slot
	Remaining uint64
	Done      bool
}

// Scoreboard models the in-order issue and commit window. Operations
// issue into the tail, execute for a fixed latency and commit from the
// head, at most commitWidth per cycle. Forwarding makes a result usable
// the cycle its producer finishes; without it readers wait one more
// cycle for the register file write. Renaming removes write-after-write
// stalls.
type Scoreboard struct {
	entries []Entry

	// justWritten holds the destinations of operations that finished in
	// the current cycle. Only consulted when forwarding is off.
	justWritten []uint8

	capacity      int
	commitWidth   int
	hasForwarding bool
	hasRenaming   bool
}

// NewScoreboard creates a scoreboard with the given capacity and commit
// width. Forwarding and renaming default on, matching the core
// configuration the latency values were calibrated against.
func NewScoreboard(capacity, commitWidth int) *Scoreboard {
	return &Scoreboard{
		entries:       make([]Entry, 0, capacity),
		capacity:      capacity,
		commitWidth:   commitWidth,
		hasForwarding: true,
		hasRenaming:   true,
	}
}

// SetForwarding toggles result forwarding from completing producers.
func (sb *Scoreboard) SetForwarding(enabled bool) {
	sb.hasForwarding = enabled
}

// SetRenaming toggles register renaming.
func (sb *Scoreboard) SetRenaming(enabled bool) {
	sb.hasRenaming = enabled
}

// CanAccept reports whether the slot can issue this cycle, with the
// stall reason when it cannot.
func (sb *Scoreboard) CanAccept(slot *Slot) (bool, StallReason) {
	if len(sb.entries) >= sb.capacity {
		return false, StallFull
	}

	for i := range sb.entries {
		e := &sb.entries[i]
		if e.Done {
			continue
		}
		rd := e.Slot.Rd
		if rd != 0 && (rd == slot.Rs1 || rd == slot.Rs2) {
			return false, StallRAW
		}
		if !sb.hasRenaming && slot.Rd != 0 && rd == slot.Rd {
			return false, StallWAW
		}
	}

	if !sb.hasForwarding {
		for _, rd := range sb.justWritten {
			if rd == slot.Rs1 || rd == slot.Rs2 {
				return false, StallRAW
			}
		}
	}

	return true, StallNone
}

// Issue appends the slot with its execution latency. The caller must have
// checked CanAccept in the same cycle.
func (sb *Scoreboard) Issue(slot Slot, latency uint64) {
	sb.entries = append(sb.entries, Entry{Slot: slot, Remaining: latency})
}

// Tick advances execution by one cycle and commits finished operations in
// order, at most commitWidth per call. It returns the committed slots.
func (sb *Scoreboard) Tick() []Slot {
	sb.justWritten = sb.justWritten[:0]

	for i := range sb.entries {
		e := &sb.entries[i]
		if e.Done {
			continue
		}
		if e.Remaining > 0 {
			e.Remaining--
		}
		if e.Remaining == 0 {
			e.Done = true
			if e.Slot.Rd != 0 {
				sb.justWritten = append(sb.justWritten, e.Slot.Rd)
			}
		}
	}

	var committed []Slot
	n := 0
	for n < len(sb.entries) && n < sb.commitWidth && sb.entries[n].Done {
		committed = append(committed, sb.entries[n].Slot)
		n++
	}
	if n > 0 {
		sb.entries = append(sb.entries[:0], sb.entries[n:]...)
	}
	return committed
}

// InFlight returns the number of occupied entries.
func (sb *Scoreboard) InFlight() int {
	return len(sb.entries)
}

// Capacity returns the total number of entries.
func (sb *Scoreboard) Capacity() int {
	return sb.capacity
}

// Reset empties the scoreboard.
func (sb *Scoreboard) Reset() {
	sb.entries = sb.entries[:0]
	sb.justWritten = sb.justWritten[:0]
}
