package fusion

import "github.com/sarchlab/cva6sim/insts"

// Fuser merges one matched producer/consumer pair into a single record.
// It is pure and total over its precondition: callers must only invoke it
// for pairs the Matcher accepted. Inputs are never mutated.
type Fuser struct{}

// NewFuser creates a fuser.
func NewFuser() *Fuser {
	return &Fuser{}
}

// Fuse builds the merged record. The consumer serves as the base, so the
// destination register, opcode class, and attributed PC come from it; the
// source operands come from the producer, whose placeholder chain the
// consumer restated. When the producer supplied a PC-relative immediate,
// the summed immediate is corrected by the producer's own encoding length,
// since the merged operation executes under the consumer's PC.
func (f *Fuser) Fuse(producer, consumer *insts.Record) insts.Record {
	fused := *consumer

	fused.Rs1 = producer.Rs1
	fused.Rs2 = producer.Rs2

	var offset int64
	if producer.UseImm && producer.UsePC {
		fused.UsePC = true
		offset = 4
		if producer.Compressed {
			offset = 2
		}
	}

	if producer.UseImm {
		fused.Result = producer.Result + consumer.Result - offset
	}

	fused.Fusion = fusionTag(producer.Compressed, consumer.Compressed)

	return fused
}

// fusionTag encodes the compression provenance of a fused pair.
func fusionTag(producerCompressed, consumerCompressed bool) insts.FusionTag {
	switch {
	case producerCompressed && consumerCompressed:
		return insts.FusionBoth
	case producerCompressed || consumerCompressed:
		return insts.FusionMixed
	default:
		return insts.FusionNeither
	}
}
