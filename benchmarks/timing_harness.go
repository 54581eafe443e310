// Package benchmarks provides the microbenchmark harness used to measure
// the cycle impact of decode-stage instruction fusion.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/cva6sim/emu"
	"github.com/sarchlab/cva6sim/timing/frontend"
)

// BenchmarkResult holds the timing results for one benchmark under one
// fusion mode.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Mode is the fusion arrangement this run used
	Mode string `json:"mode"`

	// SimulatedCycles is the total cycle count from the timing model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of architectural instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// OpsRetired is the number of issue slots retired; a fused pair
	// counts once
	OpsRetired uint64 `json:"ops_retired"`

	// CPI is cycles per architectural instruction
	CPI float64 `json:"cpi"`

	// IPC is architectural instructions per cycle
	IPC float64 `json:"ipc"`

	// FusedPairs is the number of fused pairs retired
	FusedPairs uint64 `json:"fused_pairs"`

	// FusionRatePercent is the share of instructions retired fused
	FusionRatePercent float64 `json:"fusion_rate_percent"`

	// ScoreboardStalls counts issue rejections with no free entry
	ScoreboardStalls uint64 `json:"scoreboard_stalls"`

	// RAWStalls counts issue rejections on a pending source register
	RAWStalls uint64 `json:"raw_stalls"`

	// FetchStalls counts cycles lost to instruction fetch
	FetchStalls uint64 `json:"fetch_stalls"`

	// Flushes counts pipeline flushes from mispredicted control flow
	Flushes uint64 `json:"flushes"`

	// ResultValue is the final value of the benchmark's result register
	// after the retired stream is replayed through the executor
	ResultValue uint64 `json:"result_value"`

	// ResultOK reports whether ResultValue matched the expectation
	ResultOK bool `json:"result_ok"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the machine state (e.g., initialize registers,
	// memory)
	Setup func(regs *emu.RegFile, memory *emu.Memory)

	// Program is the RV64 machine code to run
	Program []byte

	// ResultReg names the register whose final value validates the run
	ResultReg uint8

	// ExpectedResult is the value ResultReg must hold after the retired
	// stream is replayed through the executor. Fusion must not change
	// it, so the same expectation holds under every mode.
	ExpectedResult uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Modes lists the fusion arrangements every benchmark runs under.
	Modes []frontend.FusionMode

	// Frontend is the base pipeline arrangement. The fusion mode field
	// is overridden per run.
	Frontend frontend.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a configuration that runs every benchmark with
// fusion off and under each fusion arrangement.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Modes: []frontend.FusionMode{
			frontend.FusionOff,
			frontend.FusionPairs,
			frontend.FusionTriples,
			frontend.FusionStallAware,
		},
		Frontend: frontend.DefaultConfig(),
		Output:   os.Stdout,
		Verbose:  false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if len(config.Modes) == 0 {
		config.Modes = DefaultConfig().Modes
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark under every configured fusion mode and
// returns one result per combination, grouped by benchmark.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Modes))

	for _, bench := range h.benchmarks {
		for _, mode := range h.config.Modes {
			result := h.runBenchmark(bench, mode)
			results = append(results, result)
		}
	}

	return results
}

// runBenchmark executes a single benchmark under one fusion mode.
func (h *Harness) runBenchmark(bench Benchmark, mode frontend.FusionMode) BenchmarkResult {
	// Create fresh state
	regs := &emu.RegFile{}
	memory := emu.NewMemory()

	// Run setup if provided
	if bench.Setup != nil {
		bench.Setup(regs, memory)
	}

	// Load program at 0x1000
	programAddr := uint64(0x1000)
	for i, b := range bench.Program {
		memory.Write8(programAddr+uint64(i), b)
	}

	config := h.config.Frontend
	config.FusionMode = mode

	// The retired stream replays through the executor, so a fused pair
	// that computes a different value than its source sequence shows up
	// as a failed result check.
	executor := emu.NewExecutor(regs, memory)
	source := frontend.NewMemorySource(memory, programAddr)
	front := frontend.New(config, source,
		frontend.WithRetireHook(func(slot frontend.Slot) {
			executor.Execute(&slot.Rec)
		}))

	// Run simulation and measure time
	start := time.Now()
	stats := front.Run(0)
	wallTime := time.Since(start)

	value := regs.ReadReg(bench.ResultReg)
	return BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		Mode:                mode.String(),
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		OpsRetired:          stats.Ops,
		CPI:                 stats.CPI(),
		IPC:                 stats.IPC(),
		FusedPairs:          stats.FusedRetired,
		FusionRatePercent:   stats.FusionRate(),
		ScoreboardStalls:    stats.ScoreboardStalls,
		RAWStalls:           stats.RAWStalls,
		FetchStalls:         stats.FetchStalls,
		Flushes:             stats.Flushes,
		ResultValue:         value,
		ResultOK:            value == bench.ExpectedResult,
		WallTime:            wallTime,
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== CVA6Sim Fusion Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s [%s]\n", r.Name, r.Mode)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  Ops Retired:          %d\n", r.OpsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  IPC:                  %.3f\n", r.IPC)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Fusion ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Fused Pairs:          %d\n", r.FusedPairs)
		_, _ = fmt.Fprintf(h.config.Output, "  Fusion Rate:          %.1f%%\n", r.FusionRatePercent)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Stalls ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Scoreboard Stalls:    %d\n", r.ScoreboardStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  RAW Stalls:           %d\n", r.RAWStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Fetch Stalls:         %d\n", r.FetchStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Flushes:              %d\n", r.Flushes)

		check := "ok"
		if !r.ResultOK {
			check = fmt.Sprintf("MISMATCH (got %d)", r.ResultValue)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Result Check: %s\n", check)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintComparison pivots the results into one line per benchmark, with
// the cycle count under each mode and the speedup of the last configured
// mode over the unfused baseline. Results must come from RunAll so the
// mode runs of one benchmark are adjacent.
func (h *Harness) PrintComparison(results []BenchmarkResult) {
	modes := h.config.Modes
	if len(modes) == 0 || len(results) == 0 {
		return
	}

	_, _ = fmt.Fprintf(h.config.Output, "%-22s", "benchmark")
	for _, mode := range modes {
		_, _ = fmt.Fprintf(h.config.Output, " %12s", mode.String())
	}
	_, _ = fmt.Fprintf(h.config.Output, " %9s\n", "speedup")

	for i := 0; i+len(modes) <= len(results); i += len(modes) {
		group := results[i : i+len(modes)]
		_, _ = fmt.Fprintf(h.config.Output, "%-22s", group[0].Name)
		for _, r := range group {
			_, _ = fmt.Fprintf(h.config.Output, " %12d", r.SimulatedCycles)
		}

		baseline := group[0].SimulatedCycles
		last := group[len(group)-1].SimulatedCycles
		speedup := float64(0)
		if last > 0 {
			speedup = float64(baseline) / float64(last)
		}
		_, _ = fmt.Fprintf(h.config.Output, " %8.2fx\n", speedup)
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,mode,cycles,instructions,ops,cpi,ipc,fused_pairs,fusion_rate,scoreboard_stalls,raw_stalls,fetch_stalls,flushes,result_ok")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%.3f,%.3f,%d,%.1f,%d,%d,%d,%d,%t\n",
			r.Name,
			r.Mode,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.OpsRetired,
			r.CPI,
			r.IPC,
			r.FusedPairs,
			r.FusionRatePercent,
			r.ScoreboardStalls,
			r.RAWStalls,
			r.FetchStalls,
			r.Flushes,
			r.ResultOK,
		)
	}
}

// Helper functions for building RV64 programs

// Parcel is one assembled instruction: a 32-bit word or a 16-bit
// compressed form.
type Parcel struct {
	Bits       uint32
	Compressed bool
}

// BuildProgram assembles parcels into little-endian machine code.
func BuildProgram(parcels ...Parcel) []byte {
	program := make([]byte, 0, len(parcels)*4)
	for _, p := range parcels {
		if p.Compressed {
			buf := make([]byte, 2)
			binary.LittleEndian.PutUint16(buf, uint16(p.Bits))
			program = append(program, buf...)
			continue
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, p.Bits)
		program = append(program, buf...)
	}
	return program
}

// Instruction encoding helpers (RV64IC subset the fusion unit matches)

// EncodeADDI encodes ADDI: rd = rs1 + imm12
func EncodeADDI(rd, rs1 uint8, imm int16) Parcel {
	var inst uint32 = 0
	inst |= uint32(imm&0xFFF) << 20
	inst |= uint32(rs1&0x1F) << 15
	inst |= 0b000 << 12 // funct3 = ADDI
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0010011 // OP-IMM
	return Parcel{Bits: inst}
}

// EncodeADDIW encodes ADDIW: rd = sext32(rs1 + imm12)
func EncodeADDIW(rd, rs1 uint8, imm int16) Parcel {
	var inst uint32 = 0
	inst |= uint32(imm&0xFFF) << 20
	inst |= uint32(rs1&0x1F) << 15
	inst |= 0b000 << 12 // funct3 = ADDIW
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0011011 // OP-IMM-32
	return Parcel{Bits: inst}
}

// EncodeADD encodes register ADD: rd = rs1 + rs2
func EncodeADD(rd, rs1, rs2 uint8) Parcel {
	var inst uint32 = 0
	inst |= 0b0000000 << 25 // funct7 = ADD
	inst |= uint32(rs2&0x1F) << 20
	inst |= uint32(rs1&0x1F) << 15
	inst |= 0b000 << 12 // funct3 = ADD
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0110011 // OP
	return Parcel{Bits: inst}
}

// EncodeLUI encodes LUI: rd = imm20 << 12
func EncodeLUI(rd uint8, imm20 uint32) Parcel {
	var inst uint32 = 0
	inst |= (imm20 & 0xFFFFF) << 12
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0110111 // LUI
	return Parcel{Bits: inst}
}

// EncodeAUIPC encodes AUIPC: rd = pc + (imm20 << 12)
func EncodeAUIPC(rd uint8, imm20 uint32) Parcel {
	var inst uint32 = 0
	inst |= (imm20 & 0xFFFFF) << 12
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0010111 // AUIPC
	return Parcel{Bits: inst}
}

// EncodeLD encodes LD: rd = mem64[rs1 + imm12]
func EncodeLD(rd, rs1 uint8, imm int16) Parcel {
	var inst uint32 = 0
	inst |= uint32(imm&0xFFF) << 20
	inst |= uint32(rs1&0x1F) << 15
	inst |= 0b011 << 12 // funct3 = LD
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0000011 // LOAD
	return Parcel{Bits: inst}
}

// EncodeLW encodes LW: rd = sext32(mem32[rs1 + imm12])
func EncodeLW(rd, rs1 uint8, imm int16) Parcel {
	var inst uint32 = 0
	inst |= uint32(imm&0xFFF) << 20
	inst |= uint32(rs1&0x1F) << 15
	inst |= 0b010 << 12 // funct3 = LW
	inst |= uint32(rd&0x1F) << 7
	inst |= 0b0000011 // LOAD
	return Parcel{Bits: inst}
}

// EncodeCADDI encodes C.ADDI: rd = rd + imm6
func EncodeCADDI(rd uint8, imm int8) Parcel {
	var inst uint32 = 0
	inst |= 0b000 << 13 // funct3 = C.ADDI
	inst |= uint32(imm>>5&0x1) << 12
	inst |= uint32(rd&0x1F) << 7
	inst |= uint32(imm&0x1F) << 2
	inst |= 0b01 // quadrant 1
	return Parcel{Bits: inst, Compressed: true}
}

// EncodeCLW encodes C.LW: rd = sext32(mem32[rs1 + uimm]). Both registers
// must name x8-x15; the offset must be a multiple of 4 below 128.
func EncodeCLW(rd, rs1 uint8, uimm uint8) Parcel {
	var inst uint32 = 0
	inst |= 0b010 << 13 // funct3 = C.LW
	inst |= uint32(uimm>>3&0x7) << 10
	inst |= uint32((rs1-8)&0x7) << 7
	inst |= uint32(uimm>>2&0x1) << 6
	inst |= uint32(uimm>>6&0x1) << 5
	inst |= uint32((rd-8)&0x7) << 2
	inst |= 0b00 // quadrant 0
	return Parcel{Bits: inst, Compressed: true}
}

// EncodeCLD encodes C.LD: rd = mem64[rs1 + uimm]. Both registers must
// name x8-x15; the offset must be a multiple of 8 below 256.
func EncodeCLD(rd, rs1 uint8, uimm uint8) Parcel {
	var inst uint32 = 0
	inst |= 0b011 << 13 // funct3 = C.LD
	inst |= uint32(uimm>>3&0x7) << 10
	inst |= uint32((rs1-8)&0x7) << 7
	inst |= uint32(uimm>>6&0x3) << 5
	inst |= uint32((rd-8)&0x7) << 2
	inst |= 0b00 // quadrant 0
	return Parcel{Bits: inst, Compressed: true}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	Modes      []string `json:"modes"`
	IssueWidth int      `json:"issue_width"`
}

// ReportSummary contains aggregate statistics across all benchmark runs.
type ReportSummary struct {
	// TotalRuns is the number of benchmark runs
	TotalRuns int `json:"total_runs"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// TotalFusedPairs is the sum of all fused pairs retired
	TotalFusedPairs uint64 `json:"total_fused_pairs"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all runs
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated
// comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	// Calculate summary statistics
	var totalCycles, totalInstructions, totalFused uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalFused += r.FusedPairs
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	modes := make([]string, 0, len(h.config.Modes))
	for _, mode := range h.config.Modes {
		modes = append(modes, mode.String())
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "0.3.0",
			Config: BenchmarkConfig{
				Modes:      modes,
				IssueWidth: h.config.Frontend.IssueWidth,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalRuns:         len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			TotalFusedPairs:   totalFused,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
