// Package main provides a profiling wrapper for cva6sim to identify
// performance bottlenecks in the fusion model.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/profile"

	"github.com/sarchlab/cva6sim/benchmarks"
	"github.com/sarchlab/cva6sim/emu"
	"github.com/sarchlab/cva6sim/loader"
	"github.com/sarchlab/cva6sim/timing/frontend"
	"github.com/sarchlab/cva6sim/timing/latency"
)

var (
	mode       = flag.String("mode", "cpu", "Profile mode: cpu or mem")
	fusionName = flag.String("fusion", "pairs", "Fusion mode: off, pairs, triples, stall-aware")
	iterations = flag.Int("iterations", 100, "Number of simulation passes to profile")
	maxInstr   = flag.Int("max-instr", 1000000, "Max instructions per pass (0 = unlimited)")
)

func main() {
	flag.Parse()

	fusionMode, err := frontend.ParseFusionMode(*fusionName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// With an ELF argument the program's decode stream is the workload;
	// without one the built-in microbenchmarks are.
	var workload func() uint64
	if flag.NArg() > 0 {
		workload, err = elfWorkload(flag.Arg(0), fusionMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
			os.Exit(1)
		}
	} else {
		workload = harnessWorkload(fusionMode)
	}

	// os.Exit would skip the deferred Stop, so all validation happens
	// before the profiler starts.
	switch *mode {
	case "cpu":
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.MemProfile).Stop()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown profile mode %q\n", *mode)
		os.Exit(1)
	}

	start := time.Now()
	var instructions uint64
	for i := 0; i < *iterations; i++ {
		instructions += workload()
	}
	elapsed := time.Since(start)

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Iterations: %d\n", *iterations)
	fmt.Printf("Instructions simulated: %d\n", instructions)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instructions > 0 && elapsed > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instructions)/elapsed.Seconds())
	}
}

// elfWorkload models one straight-line pass over an ELF program per call.
func elfWorkload(path string, fusionMode frontend.FusionMode) (func() uint64, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Loaded: %s\n", path)
	fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)

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

	table := latency.NewTable()
	config := frontend.DefaultConfig()
	config.FusionMode = fusionMode

	return func() uint64 {
		var opts []frontend.MemorySourceOption
		if *maxInstr > 0 {
			opts = append(opts, frontend.WithInstructionLimit(*maxInstr))
		}
		source := frontend.NewMemorySource(memory, prog.EntryPoint, opts...)
		front := frontend.New(config, source, frontend.WithLatencyTable(table))
		stats := front.Run(0)
		return stats.Instructions
	}, nil
}

// harnessWorkload models every built-in microbenchmark per call.
func harnessWorkload(fusionMode frontend.FusionMode) func() uint64 {
	config := benchmarks.DefaultConfig()
	config.Modes = []frontend.FusionMode{fusionMode}
	config.Output = io.Discard

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())

	return func() uint64 {
		var instructions uint64
		for _, result := range harness.RunAll() {
			instructions += result.InstructionsRetired
		}
		return instructions
	}
}
