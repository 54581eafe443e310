// Package main provides the entry point for CVA6Sim.
// CVA6Sim is a cycle-stepped model of the CVA6 decode-stage instruction
// fusion unit, built on Akita.
//
// For the full CLI, use: go run ./cmd/cva6sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("CVA6Sim - CVA6 Instruction Fusion Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: cva6sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -fusion    Fusion mode: off, pairs, triples, stall-aware")
	fmt.Println("  -trace     Replay a commit trace instead of an ELF binary")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -icache    Model instruction cache misses as fetch stalls")
	fmt.Println("  -verify    Cross-check fused state against an unfused run")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cva6sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cva6sim' instead.")
	}
}
