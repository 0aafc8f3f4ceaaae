package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates the deterministic RNG stream owned by one unit of work
	// (a repetition, a permutation chunk). Streams with different names or
	// indexes are statistically independent, and the stream for a given
	// (name, seed, index) never depends on scheduling.
	Stream(ctx context.Context, name string, seed uint64, index uint64) (*rand.Rand, error)

	// FreshSeed returns a seed for callers that did not supply one
	FreshSeed() uint64
}
