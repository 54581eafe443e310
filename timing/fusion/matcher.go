package fusion

import "github.com/sarchlab/cva6sim/insts"

// Matcher decides whether adjacent decoded instructions form a fusable
// pair. It is pure: every call is a function of its arguments only.
type Matcher struct{}

// NewMatcher creates a fusion matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// MatchPair classifies one producer/consumer pair. The pair fuses only
// when both records are valid and exception-free, the consumer's rd and
// rs1 both equal the producer's rd (the placeholder convention the
// upstream decoder uses to mark fusable chains), and the opcode classes
// line up with one of the patterns.
func (m *Matcher) MatchPair(producer, consumer *insts.Record) DecisionKind {
	if !producer.Fusable() || !consumer.Fusable() {
		return NoFusion
	}

	// The consumer's destination must restate the producer's destination
	// in both rd and rs1.
	if producer.Rd != consumer.Rs1 || producer.Rd != consumer.Rd {
		return NoFusion
	}

	if !producer.Class.IsAdd() {
		return NoFusion
	}

	if consumer.Class.IsLoad() {
		return AddLoad
	}

	if consumer.Class.IsAdd() && producer.UseImm && consumer.UseImm && !consumer.UsePC {
		return AddAdd
	}

	return NoFusion
}

// MatchWindow2 evaluates the single candidate pair of a two-instruction
// window, gated on both upstream validity bits.
func (m *Matcher) MatchWindow2(w0, w1 *insts.Record, v0, v1 bool) Decision {
	if !v0 || !v1 {
		return Decision{Kind: NoFusion}
	}

	kind := m.MatchPair(w0, w1)
	if kind == NoFusion {
		return Decision{Kind: NoFusion}
	}
	return Decision{Kind: kind, Producer: 0, Consumer: 1}
}

// MatchWindow3 arbitrates between the two overlapping candidate pairs of a
// three-instruction window. Pair (0,1) is evaluated first and always wins
// when it matches; slot 2's validity does not gate the pair itself. Pair
// (1,2) is considered only when (0,1) does not match, and requires all
// three validity bits so that slot 0 can be routed out unfused.
func (m *Matcher) MatchWindow3(w0, w1, w2 *insts.Record, v0, v1, v2 bool) Decision {
	if v0 && v1 {
		if kind := m.MatchPair(w0, w1); kind != NoFusion {
			return Decision{Kind: kind, Producer: 0, Consumer: 1}
		}
	}

	if v0 && v1 && v2 {
		if kind := m.MatchPair(w1, w2); kind != NoFusion {
			return Decision{Kind: kind, Producer: 1, Consumer: 2}
		}
	}

	return Decision{Kind: NoFusion}
}
