package settlement

import "math"

// Path is how an inbound transfer settles.
type Path uint8

const (
	// MintPath issues the canonical asset and counts it as minted.
	MintPath Path = iota + 1
	// ForwardPath hands the wrapped asset over untouched.
	ForwardPath
)

func (p Path) String() string {
	switch p {
	case MintPath:
		return "mint"
	case ForwardPath:
		return "forward"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Select. Minted is the counter value to store
// when Path is MintPath, and the unchanged counter otherwise.
type Decision struct {
	Path   Path
	Minted uint64
}

func saturatingAdd(a, b uint64) uint64 {
	if b > math.MaxUint64-a {
		return math.MaxUint64
	}
	return a + b
}

// Select mints when minted+amount stays within limit and forwards
// otherwise. The sum saturates, so Select never fails.
func Select(minted, limit, amount uint64) Decision {
	candidate := saturatingAdd(minted, amount)
	if candidate > limit {
		return Decision{Path: ForwardPath, Minted: minted}
	}
	return Decision{Path: MintPath, Minted: candidate}
}
