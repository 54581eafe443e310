package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values for different instruction types.
// Values approximate the CVA6 in-order pipeline.
type TimingConfig struct {
	// ALULatency is the execution latency for basic ALU operations
	// (ADD, ADDI, LUI, AUIPC and friends). Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// FusedLatency is the execution latency for a fused arithmetic pair.
	// The merged operation runs as a single ALU pass. Default: 1 cycle.
	FusedLatency uint64 `json:"fused_latency"`

	// BranchLatency is the base execution latency for branch instructions.
	// This does not include misprediction penalty. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchMispredictPenalty is the additional cycles lost on branch
	// misprediction while the frontend refills. Default: 5 cycles.
	BranchMispredictPenalty uint64 `json:"branch_mispredict_penalty"`

	// LoadLatency is the load-to-use latency assuming L1 cache hit.
	// Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency for store operations (fire-and-forget
	// once the store unit accepts them). Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// MultiplyLatency is the latency for integer multiply operations.
	// Default: 2 cycles (pipelined multiplier).
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatencyMin is the minimum latency for integer divide operations.
	// Default: 2 cycles (serial divider, early-out).
	DivideLatencyMin uint64 `json:"divide_latency_min"`

	// DivideLatencyMax is the maximum latency for integer divide operations.
	// Default: 64 cycles (serial divider, full width).
	DivideLatencyMax uint64 `json:"divide_latency_max"`

	// ICacheHitLatency is the instruction cache hit latency.
	// Default: 1 cycle.
	ICacheHitLatency uint64 `json:"icache_hit_latency"`

	// MemoryLatency is the main memory access latency charged on an
	// instruction cache miss. Default: 20 cycles.
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultTimingConfig returns a TimingConfig with CVA6-based default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:              1,
		FusedLatency:            1,
		BranchLatency:           1,
		BranchMispredictPenalty: 5,
		LoadLatency:             2,
		StoreLatency:            1,
		MultiplyLatency:         2,
		DivideLatencyMin:        2,
		DivideLatencyMax:        64,
		ICacheHitLatency:        1,
		MemoryLatency:           20,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.FusedLatency == 0 {
		return fmt.Errorf("fused_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.ICacheHitLatency == 0 {
		return fmt.Errorf("icache_hit_latency must be > 0")
	}
	if c.DivideLatencyMin > c.DivideLatencyMax {
		return fmt.Errorf("divide_latency_min must be <= divide_latency_max")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	return &TimingConfig{
		ALULatency:              c.ALULatency,
		FusedLatency:            c.FusedLatency,
		BranchLatency:           c.BranchLatency,
		BranchMispredictPenalty: c.BranchMispredictPenalty,
		LoadLatency:             c.LoadLatency,
		StoreLatency:            c.StoreLatency,
		MultiplyLatency:         c.MultiplyLatency,
		DivideLatencyMin:        c.DivideLatencyMin,
		DivideLatencyMax:        c.DivideLatencyMax,
		ICacheHitLatency:        c.ICacheHitLatency,
		MemoryLatency:           c.MemoryLatency,
	}
}
