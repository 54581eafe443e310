// Validate decoder optimization - measures allocation improvements in decoder
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/cva6sim/insts"
)

func main() {
	decoder := insts.NewDecoder()

	var rec insts.Record

	// Warm up
	for i := 0; i < 1000; i++ {
		decoder.DecodeInto(0x00850593, 0x1000, &rec)
	}

	// Measure allocations before optimization test
	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	// Test decode performance - simulate dual-issue decode over the hot
	// encodings of the fusion benchmarks, compressed parcels included
	for i := 0; i < iterations; i++ {
		decoder.DecodeInto(0x00850593, 0x1000, &rec) // addi a1, a0, 8
		decoder.DecodeInto(0x00853503, 0x1004, &rec) // ld a0, 8(a0)
		decoder.DecodeInto(0x12345537, 0x1008, &rec) // lui a0, 0x12345
		decoder.DecodeInto(0x00000511, 0x100C, &rec) // c.addi a0, 4
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * 4
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Optimization Validation Results:\n")
	fmt.Printf("========================================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	if allocations == 0 {
		fmt.Printf("\n✅ SUCCESS: Zero allocations detected! Optimization effective.\n")
	} else if float64(allocations)/float64(totalDecodes) < 0.1 {
		fmt.Printf("\n✅ GOOD: Low allocation rate (< 0.1 per decode)\n")
	} else {
		fmt.Printf("\n⚠️  WARNING: High allocation rate detected\n")
	}
}
