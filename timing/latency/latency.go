// Package latency provides instruction timing models for cycle counting.
//
// The latency values approximate the CVA6 in-order pipeline and can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/cva6sim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default CVA6 timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given record.
// Records outside the fusion view (branches, stores, system instructions)
// return 1; the frontend charges their timing from the trace classification.
func (t *Table) GetLatency(rec *insts.Record) uint64 {
	if rec == nil {
		return 1
	}

	switch {
	case rec.Class.IsLoad():
		// A fused add+load still pays the memory access.
		return t.config.LoadLatency

	case rec.Class.IsAdd():
		if rec.Fusion != insts.FusionNone {
			return t.config.FusedLatency
		}
		return t.config.ALULatency

	default:
		return 1
	}
}

// IsLoadOp returns true if the record is a load operation.
func (t *Table) IsLoadOp(rec *insts.Record) bool {
	if rec == nil {
		return false
	}
	return rec.Class.IsLoad()
}

// IsALUOp returns true if the record is a plain or fused ALU operation.
func (t *Table) IsALUOp(rec *insts.Record) bool {
	if rec == nil {
		return false
	}
	return rec.Class.IsAdd()
}

// IsFusedOp returns true if the record carries a fused instruction pair.
func (t *Table) IsFusedOp(rec *insts.Record) bool {
	if rec == nil {
		return false
	}
	return rec.Fusion != insts.FusionNone
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
