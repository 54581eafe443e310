// Package main provides accuracy validation for performance optimizations.
// Ensures that optimizations preserve simulation correctness.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/cva6sim/emu"
	"github.com/sarchlab/cva6sim/insts"
	"github.com/sarchlab/cva6sim/timing/frontend"
	"github.com/sarchlab/cva6sim/timing/fusion"
)

// testRecordDecoding validates that the allocating and in-place decode
// paths produce identical records.
func testRecordDecoding() bool {
	decoder := insts.NewDecoder()

	// Test various instruction encodings
	testCases := []uint32{
		0x00850593, // addi a1, a0, 8
		0xFFF50513, // addi a0, a0, -1
		0x0015051B, // addiw a0, a0, 1
		0x00C58533, // add a0, a1, a2
		0x12345537, // lui a0, 0x12345
		0x00001517, // auipc a0, 0x1
		0x00853503, // ld a0, 8(a0)
		0x00C5A503, // lw a0, 12(a1)
		0x0107C7B3, // xor a5, a5, a6
		0x00000511, // c.addi a0, 4
		0x00004508, // c.lw a0, 8(a0)
		0x00006508, // c.ld a0, 8(a0)
	}

	fmt.Println("Testing record decoder accuracy...")

	for i, parcel := range testCases {
		// Test the allocating Decode method
		rec1 := decoder.Decode(parcel, 0x1000)

		// Test the in-place DecodeInto method
		var rec2 insts.Record
		decoder.DecodeInto(parcel, 0x1000, &rec2)

		if rec1 != rec2 {
			fmt.Printf("❌ Test case %d failed: Decode mismatch\n", i)
			fmt.Printf("  Decode():     %+v\n", rec1)
			fmt.Printf("  DecodeInto(): %+v\n", rec2)
			return false
		}

		fmt.Printf("✅ Test case %d: Parcel 0x%08X decoded consistently (%s)\n",
			i, parcel, rec1.Class)
	}

	return true
}

// testFusedExecution validates that a fused record computes exactly what
// its two-instruction source sequence computes.
func testFusedExecution() bool {
	fmt.Println("\nTesting fused record execution accuracy...")

	decoder := insts.NewDecoder()
	matcher := fusion.NewMatcher()
	fuser := fusion.NewFuser()

	// addi a1, a0, 8; ld a1, 16(a1) - the address-compute idiom
	addProducer := decoder.Decode(0x00850593, 0x1000)
	loadConsumer := decoder.Decode(0x0105B583, 0x1004)
	if kind := matcher.MatchPair(&addProducer, &loadConsumer); kind != fusion.AddLoad {
		fmt.Printf("❌ AddLoad pair did not match (got %s)\n", kind)
		return false
	}
	fusedLoad := fuser.Fuse(&addProducer, &loadConsumer)

	// lui a0, 0x12345; addi a0, a0, 0x678 - the split-constant idiom
	luiProducer := decoder.Decode(0x12345537, 0x1008)
	addiConsumer := decoder.Decode(0x67850513, 0x100C)
	if kind := matcher.MatchPair(&luiProducer, &addiConsumer); kind != fusion.AddAdd {
		fmt.Printf("❌ AddAdd pair did not match (got %s)\n", kind)
		return false
	}
	fusedAdd := fuser.Fuse(&luiProducer, &addiConsumer)

	// Test with different initial values
	testValues := []uint64{0, 1, 42, 0x2000}

	for i, initial := range testValues {
		memory := emu.NewMemory()
		memory.Write64(initial+8+16, 0x1122334455667788)

		// Execute the pair one record at a time
		sequential := &emu.RegFile{}
		sequential.WriteReg(10, initial)
		seqExec := emu.NewExecutor(sequential, memory)
		seqExec.Execute(&addProducer)
		seqExec.Execute(&loadConsumer)
		seqExec.Execute(&luiProducer)
		seqExec.Execute(&addiConsumer)

		// Execute the merged records
		merged := &emu.RegFile{}
		merged.WriteReg(10, initial)
		mergedExec := emu.NewExecutor(merged, memory)
		mergedExec.Execute(&fusedLoad)
		mergedExec.Execute(&fusedAdd)

		if sequential.ReadReg(11) != merged.ReadReg(11) {
			fmt.Printf("❌ Test case %d failed:\n", i)
			fmt.Printf("  Initial a0: %d\n", initial)
			fmt.Printf("  Sequential a1: 0x%X, Fused a1: 0x%X\n",
				sequential.ReadReg(11), merged.ReadReg(11))
			return false
		}
		if sequential.ReadReg(10) != merged.ReadReg(10) {
			fmt.Printf("❌ Test case %d failed:\n", i)
			fmt.Printf("  Initial a0: %d\n", initial)
			fmt.Printf("  Sequential a0: 0x%X, Fused a0: 0x%X\n",
				sequential.ReadReg(10), merged.ReadReg(10))
			return false
		}

		fmt.Printf("✅ Test case %d: a0=%d → fused results match sequential (a1=0x%X, a0=0x%X)\n",
			i, initial, merged.ReadReg(11), merged.ReadReg(10))
	}

	return true
}

// testPredictorConsistency validates that branch predictor behavior is
// deterministic across instances given the same update stream.
func testPredictorConsistency() bool {
	fmt.Println("\nTesting branch predictor consistency...")

	config := frontend.DefaultBranchPredictorConfig()
	bp1 := frontend.NewBranchPredictor(config)
	bp2 := frontend.NewBranchPredictor(config)

	testPCs := []uint64{0x1000, 0x1004, 0x1008, 0x100C}

	// Test prediction consistency
	for i, pc := range testPCs {
		// Make prediction with both predictors
		pred1 := bp1.Predict(pc)
		pred2 := bp2.Predict(pc)

		// Predictions should be identical for fresh predictors
		if pred1.Taken != pred2.Taken || pred1.Known != pred2.Known {
			fmt.Printf("❌ Prediction mismatch at PC 0x%X\n", pc)
			return false
		}

		// Update both predictors identically
		bp1.Resolve(pc, i%2 == 0)
		bp2.Resolve(pc, i%2 == 0)

		fmt.Printf("✅ PC 0x%X: Prediction consistent (taken=%v, known=%v)\n",
			pc, pred1.Taken, pred1.Known)
	}

	// Test reset functionality
	bp1.Reset()
	bp2.Reset()

	// After reset, predictions should be identical again
	for _, pc := range testPCs {
		pred1 := bp1.Predict(pc)
		pred2 := bp2.Predict(pc)

		if pred1.Taken != pred2.Taken || pred1.Known != pred2.Known {
			fmt.Printf("❌ Post-reset prediction mismatch at PC 0x%X\n", pc)
			return false
		}
	}

	fmt.Println("✅ Branch predictor reset behavior validated")
	return true
}

func main() {
	fmt.Println("CVA6Sim Accuracy Validation - Performance Optimization")
	fmt.Println("=======================================================")

	allPassed := true

	// Test record decoding accuracy
	if !testRecordDecoding() {
		allPassed = false
	}

	// Test fused record execution accuracy
	if !testFusedExecution() {
		allPassed = false
	}

	// Test branch predictor consistency
	if !testPredictorConsistency() {
		allPassed = false
	}

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		fmt.Println("✅ Performance optimizations preserve simulation correctness")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		fmt.Println("🚨 Performance optimizations may have introduced errors")
		os.Exit(1)
	}
}
