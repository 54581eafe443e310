package frontend

import (
	"github.com/sarchlab/cva6sim/emu"
	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/cache"
	"github.com/sarchlab/cva6sim/trace"
)

// BranchInfo carries the resolved control-flow outcome of an instruction.
// The outcome is known ahead of issue because the stream replays either a
// committed trace or straight-line memory.
type BranchInfo struct {
	// Taken reports whether the transfer left the fall-through path.
	Taken bool
	// Target is the address control went to when Taken.
	Target uint64
	// Call marks instructions the return stack pushes for.
	Call bool
	// Ret marks instructions the return stack predicts.
	Ret bool
}

// Slot is one decoded instruction as presented to the issue window.
type Slot struct {
	Rec  insts.Record
	Kind insts.Kind
	Size uint64

	// Register operands for hazard tracking; zero means none.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	Branch BranchInfo
}

// Source supplies decoded instructions to the frontend in program order.
type Source interface {
	// Peek returns the slot at the given depth from the head without
	// consuming it. ok is false past the end of the stream.
	Peek(depth int) (Slot, bool)
	// Consume drops n slots from the head.
	Consume(n int)
	// TakeStallCycles returns and clears the fetch stall cycles accrued
	// while producing the slots peeked since the last call.
	TakeStallCycles() uint64
}

// MemorySource decodes a straight-line instruction stream from memory.
// Control flow is not followed; the stream ends at the instruction limit
// or at the first all-zero parcel. An optional instruction cache charges
// fetch stalls for every missed line.
type MemorySource struct {
	mem     *emu.Memory
	decoder *insts.Decoder
	icache  *cache.Cache

	pc    uint64
	limit int
	count int
	done  bool

	buf    []Slot
	stalls uint64
}

// MemorySourceOption configures a MemorySource.
type MemorySourceOption func(*MemorySource)

// WithInstructionLimit stops the stream after n instructions.
func WithInstructionLimit(n int) MemorySourceOption {
	return func(s *MemorySource) {
		s.limit = n
	}
}

// WithICache routes fetches through an instruction cache, surfacing miss
// latency as fetch stall cycles.
func WithICache(c *cache.Cache) MemorySourceOption {
	return func(s *MemorySource) {
		s.icache = c
	}
}

// NewMemorySource creates a source decoding from pc.
func NewMemorySource(mem *emu.Memory, pc uint64, opts ...MemorySourceOption) *MemorySource {
	s := &MemorySource{
		mem:     mem,
		decoder: insts.NewDecoder(),
		pc:      pc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Peek returns the slot at depth without consuming it.
func (s *MemorySource) Peek(depth int) (Slot, bool) {
	s.fill(depth)
	if depth >= len(s.buf) {
		return Slot{}, false
	}
	return s.buf[depth], true
}

// Consume drops n slots from the head.
func (s *MemorySource) Consume(n int) {
	if n > len(s.buf) {
		n = len(s.buf)
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
}

// TakeStallCycles returns and clears the accrued fetch stall cycles.
func (s *MemorySource) TakeStallCycles() uint64 {
	stalls := s.stalls
	s.stalls = 0
	return stalls
}

// fill decodes ahead until the buffer covers depth+1 slots or the stream
// ends.
func (s *MemorySource) fill(depth int) {
	for !s.done && len(s.buf) <= depth {
		if s.limit > 0 && s.count >= s.limit {
			s.done = true
			return
		}

		parcel, size := s.fetchParcel(s.pc)
		if parcel == 0 {
			s.done = true
			return
		}

		rec := s.decoder.Decode(parcel, s.pc)
		rd, rs1, rs2 := insts.Regs(parcel)
		s.buf = append(s.buf, Slot{
			Rec:  rec,
			Kind: insts.KindOf(parcel),
			Size: size,
			Rd:   rd,
			Rs1:  rs1,
			Rs2:  rs2,
		})

		s.pc += size
		s.count++
	}
}

// fetchParcel reads one instruction's bytes and charges the instruction
// cache when one is attached. Cache hits are folded into the base
// pipeline depth; only misses surface as stalls.
func (s *MemorySource) fetchParcel(pc uint64) (uint32, uint64) {
	low := s.mem.Read16(pc)
	parcel := uint32(low)
	size := uint64(2)
	if low&0x3 == 0x3 {
		parcel |= uint32(s.mem.Read16(pc+2)) << 16
		size = 4
	}

	if s.icache != nil {
		result := s.icache.Read(pc, int(size))
		if !result.Hit {
			s.stalls += result.Latency
		}
	}

	return parcel, size
}

// TraceSource replays a committed instruction trace. Branch outcomes are
// reconstructed by comparing each instruction's fall-through address with
// its successor's address, so every control transfer carries its actual
// direction and target.
type TraceSource struct {
	entries []trace.Entry
	decoder *insts.Decoder
	head    int
}

// NewTraceSource creates a source over parsed trace entries.
func NewTraceSource(entries []trace.Entry) *TraceSource {
	return &TraceSource{
		entries: entries,
		decoder: insts.NewDecoder(),
	}
}

// Peek returns the slot at depth without consuming it.
func (s *TraceSource) Peek(depth int) (Slot, bool) {
	idx := s.head + depth
	if idx >= len(s.entries) {
		return Slot{}, false
	}
	return s.slotAt(idx), true
}

// Consume drops n slots from the head.
func (s *TraceSource) Consume(n int) {
	s.head += n
	if s.head > len(s.entries) {
		s.head = len(s.entries)
	}
}

// TakeStallCycles always reports zero; trace replay models a warm
// instruction cache.
func (s *TraceSource) TakeStallCycles() uint64 {
	return 0
}

// Remaining returns the number of entries not yet consumed.
func (s *TraceSource) Remaining() int {
	return len(s.entries) - s.head
}

func (s *TraceSource) slotAt(idx int) Slot {
	entry := &s.entries[idx]

	rd, rs1, rs2 := insts.Regs(entry.Code)
	slot := Slot{
		Rec:  s.decoder.Decode(entry.Code, entry.Addr),
		Kind: entry.Kind(),
		Size: entry.Size(),
		Rd:   rd,
		Rs1:  rs1,
		Rs2:  rs2,
	}
	slot.Branch = s.branchInfo(entry, slot.Kind, idx)
	return slot
}

// branchInfo derives the control-flow outcome from the successor entry. A
// transfer whose successor is not the fall-through address was taken; the
// last entry of a trace defaults to not-taken.
func (s *TraceSource) branchInfo(entry *trace.Entry, kind insts.Kind, idx int) BranchInfo {
	info := BranchInfo{
		Call: entry.IsCall(),
		Ret:  entry.IsRet(),
	}
	if !kind.IsControlFlow() {
		return info
	}

	if idx+1 < len(s.entries) {
		next := s.entries[idx+1].Addr
		if next != entry.NextAddr() || kind != insts.KindBranch {
			info.Taken = true
			info.Target = next
		}
	}
	return info
}
