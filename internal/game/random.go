package game

import (
	"math"
	"math/rand/v2"
	"time"
)

// Source is the one randomness entry point for map generation, spawn
// indices, display names and room codes. *rand.Rand satisfies it.
// A Source is not safe for concurrent use; each room owns its own.
type Source interface {
	IntN(n int) int
}

// NewSource returns a time-seeded Source.
func NewSource() Source {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}

// NewSeededSource returns a reproducible Source.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// intInRange draws uniformly from [lo, hi], both inclusive. Spans too wide
// for IntN are narrowed to [lo, lo+MaxInt-1].
func intInRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	span := uint64(hi) - uint64(lo)
	if span >= math.MaxInt {
		return lo + src.IntN(math.MaxInt)
	}
	return lo + src.IntN(int(span)+1)
}
