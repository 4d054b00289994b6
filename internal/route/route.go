// Package route decides, per turn, whether retrieved context alone should
// answer the query or the generative model may add its own knowledge.
package route

// DefaultThreshold is the L2 distance below which the best match is
// considered a confident hit.
const DefaultThreshold = 0.35

// Decision selects the response strategy for a turn.
type Decision int

const (
	// KBOnly answers strictly from retrieved context.
	KBOnly Decision = iota
	// Augmented lets the model combine context with general knowledge.
	Augmented
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case KBOnly:
		return "kb_only"
	case Augmented:
		return "augmented"
	default:
		return "unknown"
	}
}

// Policy holds the routing threshold.
type Policy struct {
	Threshold float64
}

// NewPolicy creates a Policy. A negative threshold falls back to
// DefaultThreshold; zero is kept and routes every turn to Augmented.
func NewPolicy(threshold float64) Policy {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return Policy{Threshold: threshold}
}

// Decide routes a turn. best is the smallest retrieval distance and found
// whether any match exists; augment is the caller's augmentation switch.
//
// The comparison is strict: best == Threshold is not a confident hit. With
// augmentation off the decision is always KBOnly, whatever was retrieved.
func (p Policy) Decide(best float64, found, augment bool) Decision {
	if !augment {
		return KBOnly
	}
	if found && best < p.Threshold {
		return KBOnly
	}
	return Augmented
}
