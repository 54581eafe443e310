// Package trace parses the commit logs the core's verification harness
// writes, one committed instruction per line with its address, encoding
// and commit timestamp.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/sarchlab/cva6sim/insts"
)

// Entry is one committed instruction from a trace.
type Entry struct {
	// Line is the 1-based line number the entry was parsed from.
	Line int
	// Addr is the address the instruction committed at.
	Addr uint64
	// Code is the raw encoding; compressed parcels sit in the low half.
	Code uint32
	// Cycle is the commit timestamp reported by the harness.
	Cycle uint64
	// Mnemonic is the disassembly text after the timestamp.
	Mnemonic string
}

// Commit lines carry a 64-bit address whose upper half is always zero in
// the traces the harness emits, followed by the encoding in parentheses
// and the timestamp after an @ sign.
var lineRE = regexp.MustCompile(
	`([a-z]+)\s+0:\s*0x00000000([0-9a-f]+)\s*\(([0-9a-fx]+)\)\s*@\s*([0-9]+)\s*(.*)`)

// ParseLine extracts an entry from one log line. ok is false for lines
// that are not commit records.
func ParseLine(line string, lineNo int) (Entry, bool) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}

	addr, err := strconv.ParseUint(m[2], 16, 64)
	if err != nil {
		return Entry{}, false
	}
	code, err := strconv.ParseUint(strings.TrimPrefix(m[3], "0x"), 16, 32)
	if err != nil {
		return Entry{}, false
	}
	cycle, err := strconv.ParseUint(m[4], 10, 64)
	if err != nil {
		return Entry{}, false
	}

	return Entry{
		Line:     lineNo,
		Addr:     addr,
		Code:     uint32(code),
		Cycle:    cycle,
		Mnemonic: strings.TrimSpace(m[5]),
	}, true
}

// ParseFile reads a commit log, skipping lines that are not commit
// records.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = file.Close() }()

	entries, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads a commit log from a reader.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if entry, ok := ParseLine(scanner.Text(), lineNo); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return entries, nil
}

// Size returns the instruction's size in bytes from its encoding.
func (e *Entry) Size() uint64 {
	if e.Code&0x3 == 0x3 {
		return 4
	}
	return 2
}

// NextAddr returns the fall-through address.
func (e *Entry) NextAddr() uint64 {
	return e.Addr + e.Size()
}

// Kind returns the coarse functional classification of the encoding.
func (e *Entry) Kind() insts.Kind {
	return insts.KindOf(e.Code)
}

// IsCall reports whether the core treats the instruction as a call.
func (e *Entry) IsCall() bool {
	return insts.IsCall(e.Code)
}

// IsRet reports whether the core treats the instruction as a return.
func (e *Entry) IsRet() bool {
	return insts.IsRet(e.Code)
}

// timedMarker is the CSR write the benchmark harness brackets its timed
// section with. The markers themselves are not part of the measured
// stream.
const timedMarker = 0x32951073

// FilterTimed keeps only the entries between the marker instructions.
// Traces without markers filter to nothing; callers that want the whole
// stream skip the filter.
func FilterTimed(entries []Entry) []Entry {
	var filtered []Entry
	accepting := false
	for _, entry := range entries {
		if entry.Code == timedMarker {
			accepting = !accepting
			continue
		}
		if accepting {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// CountCycles returns the commit-timestamp span of the entries.
func CountCycles(entries []Entry) uint64 {
	if len(entries) < 2 {
		return 0
	}
	return entries[len(entries)-1].Cycle - entries[0].Cycle
}

// CountBytes returns the total encoded size of the entries.
func CountBytes(entries []Entry) uint64 {
	var total uint64
	for i := range entries {
		total += entries[i].Size()
	}
	return total
}
