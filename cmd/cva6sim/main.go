// Package main provides the entry point for cva6sim.
// cva6sim models the CVA6 decode-stage instruction fusion unit over
// RV64 programs and commit traces.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/cva6sim/emu"
	"github.com/sarchlab/cva6sim/loader"
	"github.com/sarchlab/cva6sim/timing/cache"
	"github.com/sarchlab/cva6sim/timing/frontend"
	"github.com/sarchlab/cva6sim/timing/latency"
	"github.com/sarchlab/cva6sim/trace"
)

var (
	tracePath  = flag.String("trace", "", "Replay a commit trace instead of an ELF binary")
	fusionName = flag.String("fusion", "pairs", "Fusion mode: off, pairs, triples, stall-aware")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	useICache  = flag.Bool("icache", false, "Model instruction cache misses as fetch stalls")
	verify     = flag.Bool("verify", false, "Cross-check fused architectural state against an unfused run")
	instLimit  = flag.Int("limit", 0, "Stop the instruction stream after N instructions (0 = whole stream)")
	maxCycles  = flag.Uint64("max-cycles", 0, "Abort the simulation after N cycles (0 = no limit)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *tracePath == "" && flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cva6sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "       cva6sim -trace <commit.log> [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	mode, err := frontend.ParseFusionMode(*fusionName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	config := frontend.DefaultConfig()
	config.FusionMode = mode

	table, err := loadLatencyTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
		os.Exit(1)
	}

	if *tracePath != "" {
		runTrace(config, table)
	} else {
		runELF(config, table, flag.Arg(0))
	}
}

// loadLatencyTable builds the latency table from the config flag or the
// calibrated defaults.
func loadLatencyTable() (*latency.Table, error) {
	if *configPath == "" {
		return latency.NewTable(), nil
	}
	timingConfig, err := latency.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	return latency.NewTableWithConfig(timingConfig), nil
}

// runELF loads an ELF binary and models its straight-line decode stream.
func runELF(config frontend.Config, table *latency.Table, path string) {
	prog, err := loader.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", path)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	memory := loadSegments(prog)

	// The record executor only writes registers, so the fused and
	// unfused runs can share one program image.
	var fusedRegs *emu.RegFile
	opts := []frontend.Option{frontend.WithLatencyTable(table)}
	if *verify {
		fusedRegs = newRegState(prog)
		opts = append(opts, replayHook(fusedRegs, memory))
	}

	source, icache := newMemorySource(memory, prog.EntryPoint)
	front := frontend.New(config, source, opts...)
	stats := front.Run(*maxCycles)

	printReport(front, stats, config.FusionMode, path)
	if icache != nil {
		printCacheReport(icache)
	}

	if *verify {
		offConfig := config
		offConfig.FusionMode = frontend.FusionOff
		plainRegs := newRegState(prog)
		offSource, _ := newMemorySource(memory, prog.EntryPoint)
		offFront := frontend.New(offConfig, offSource,
			frontend.WithLatencyTable(table), replayHook(plainRegs, memory))
		offFront.Run(*maxCycles)

		reportVerify(fusedRegs, plainRegs)
	}
}

// runTrace replays a committed instruction trace through the frontend.
func runTrace(config frontend.Config, table *latency.Table) {
	entries, err := trace.ParseFile(*tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading trace: %v\n", err)
		os.Exit(1)
	}
	if *instLimit > 0 && *instLimit < len(entries) {
		entries = entries[:*instLimit]
	}

	if *verbose {
		fmt.Printf("Trace: %s\n", *tracePath)
		fmt.Printf("Entries: %d\n", len(entries))
	}

	// Traces carry no data image; loads in the replay read zeroed
	// memory, which both runs observe identically.
	memory := emu.NewMemory()
	var fusedRegs *emu.RegFile
	opts := []frontend.Option{frontend.WithLatencyTable(table)}
	if *verify {
		fusedRegs = &emu.RegFile{}
		opts = append(opts, replayHook(fusedRegs, memory))
	}

	front := frontend.New(config, frontend.NewTraceSource(entries), opts...)
	stats := front.Run(*maxCycles)

	printReport(front, stats, config.FusionMode, *tracePath)

	if *verify {
		offConfig := config
		offConfig.FusionMode = frontend.FusionOff
		plainRegs := &emu.RegFile{}
		offFront := frontend.New(offConfig, frontend.NewTraceSource(entries),
			frontend.WithLatencyTable(table), replayHook(plainRegs, memory))
		offFront.Run(*maxCycles)

		reportVerify(fusedRegs, plainRegs)
	}
}

// loadSegments copies the program segments into a fresh memory image.
func loadSegments(prog *loader.Program) *emu.Memory {
	memory := emu.NewMemory()
	for _, seg := range prog.Segments {
		for i, b := range seg.Data {
			memory.Write8(seg.VirtAddr+uint64(i), b)
		}
		// Zero-fill BSS (memsize > filesize)
		for i := uint64(len(seg.Data)); i < seg.MemSize; i++ {
			memory.Write8(seg.VirtAddr+i, 0)
		}
	}
	return memory
}

// newRegState returns a register file in the program's starting state.
func newRegState(prog *loader.Program) *emu.RegFile {
	regs := &emu.RegFile{}
	regs.WriteReg(2, prog.InitialSP)
	regs.PC = prog.EntryPoint
	return regs
}

// newMemorySource builds the decode stream, honoring the limit and
// icache flags. The cache is returned for reporting, nil when disabled.
func newMemorySource(memory *emu.Memory, pc uint64) (*frontend.MemorySource, *cache.Cache) {
	var opts []frontend.MemorySourceOption
	var icache *cache.Cache
	if *instLimit > 0 {
		opts = append(opts, frontend.WithInstructionLimit(*instLimit))
	}
	if *useICache {
		icache = cache.New(cache.DefaultL1IConfig(), cache.NewMemoryBacking(memory))
		opts = append(opts, frontend.WithICache(icache))
	}
	return frontend.NewMemorySource(memory, pc, opts...), icache
}

// replayHook applies every retired record to the given architectural
// state as the frontend commits it.
func replayHook(regs *emu.RegFile, memory *emu.Memory) frontend.Option {
	executor := emu.NewExecutor(regs, memory)
	return frontend.WithRetireHook(func(slot frontend.Slot) {
		executor.Execute(&slot.Rec)
	})
}

// printReport prints the timing report for one run.
func printReport(front *frontend.Frontend, stats frontend.Statistics, mode frontend.FusionMode, name string) {
	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1 // Avoid division by zero
	}

	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", name)
	fmt.Printf("Fusion mode: %s\n", mode)
	fmt.Printf("Total Instructions: %d\n", stats.Instructions)
	fmt.Printf("Issued Ops: %d\n", stats.Ops)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("CPI: %.2f\n", stats.CPI())
	fmt.Printf("IPC: %.2f\n", stats.IPC())
	fmt.Printf("\n")
	fmt.Printf("Fusion:\n")
	fmt.Printf("  Fused pairs retired: %4d (%5.1f%% of instructions)\n",
		stats.FusedRetired, stats.FusionRate())
	fmt.Printf("  AddLoad fusions:     %4d\n", stats.AddLoadRetired)
	fmt.Printf("  AddAdd fusions:      %4d\n", stats.AddAddRetired)
	if mode == frontend.FusionStallAware {
		fusionStats := front.FusionStats()
		fmt.Printf("  Pending stores:      %4d\n", fusionStats.PendingStores)
		fmt.Printf("  Pending replays:     %4d\n", fusionStats.PendingReplays)
		fmt.Printf("  Pending conflicts:   %4d\n", fusionStats.PendingConflicts)
	}
	fmt.Printf("\n")
	fmt.Printf("Stall Breakdown:\n")
	fmt.Printf("  Scoreboard full:     %4d cycles (%5.1f%%)\n",
		stats.ScoreboardStalls, 100.0*float64(stats.ScoreboardStalls)/float64(totalCycles))
	fmt.Printf("  RAW hazards:         %4d cycles (%5.1f%%)\n",
		stats.RAWStalls, 100.0*float64(stats.RAWStalls)/float64(totalCycles))
	fmt.Printf("  WAW hazards:         %4d cycles (%5.1f%%)\n",
		stats.WAWStalls, 100.0*float64(stats.WAWStalls)/float64(totalCycles))
	fmt.Printf("  Unit conflicts:      %4d cycles (%5.1f%%)\n",
		stats.UnitStalls, 100.0*float64(stats.UnitStalls)/float64(totalCycles))
	fmt.Printf("  Fetch stalls:        %4d cycles (%5.1f%%)\n",
		stats.FetchStalls, 100.0*float64(stats.FetchStalls)/float64(totalCycles))
	fmt.Printf("  Refill cycles:       %4d cycles (%5.1f%%)\n",
		stats.RefillCycles, 100.0*float64(stats.RefillCycles)/float64(totalCycles))
	fmt.Printf("\n")
	fmt.Printf("Pipeline Events:\n")
	fmt.Printf("  Flushes: %d\n", stats.Flushes)
	if *verbose {
		predStats := front.PredictorStats()
		fmt.Printf("  Branch predictions: %d (%d mispredicted)\n",
			predStats.Predictions, predStats.Mispredictions)
		fmt.Printf("  BTB hits: %d / %d\n",
			predStats.BTBHits, predStats.BTBHits+predStats.BTBMisses)
	}
}

// printCacheReport prints instruction cache statistics.
func printCacheReport(c *cache.Cache) {
	stats := c.Stats()
	fmt.Printf("\n")
	fmt.Printf("Instruction Cache:\n")
	fmt.Printf("  Reads:  %d\n", stats.Reads)
	fmt.Printf("  Hits:   %d (%5.1f%%)\n", stats.Hits, 100.0*stats.HitRate())
	fmt.Printf("  Misses: %d\n", stats.Misses)
}

// reportVerify compares the fused-run registers against the unfused run
// and exits nonzero on divergence.
func reportVerify(fused, plain *emu.RegFile) {
	match := true
	for reg := uint8(1); reg < 32; reg++ {
		if fused.ReadReg(reg) != plain.ReadReg(reg) {
			fmt.Fprintf(os.Stderr, "  x%-2d fused=0x%016X unfused=0x%016X\n",
				reg, fused.ReadReg(reg), plain.ReadReg(reg))
			match = false
		}
	}
	if match {
		fmt.Printf("\nVerify: ok (fused registers match the unfused run)\n")
	} else {
		fmt.Fprintf(os.Stderr, "\nVerify: register MISMATCH against the unfused run\n")
		os.Exit(1)
	}
}
