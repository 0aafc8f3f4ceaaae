package rng

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// PCGAdapter implements ports.RNGPort on top of PCG generators. Every stream
// is a fresh generator whose state is a pure function of its key, so any
// number of goroutines can hold streams without sharing state.
type PCGAdapter struct{}

// NewPCGAdapter creates the adapter
func NewPCGAdapter() *PCGAdapter {
	return &PCGAdapter{}
}

// Stream creates the RNG owned by one unit of work
func (a *PCGAdapter) Stream(ctx context.Context, name string, seed uint64, index uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stream %q[%d]: %w", name, index, err)
	}
	hi := mix(seed ^ hashString(name))
	lo := mix(hi ^ mix(index+0x9e3779b97f4a7c15))
	return New(hi, lo), nil
}

// FreshSeed draws a seed from the runtime's randomly seeded global source
func (a *PCGAdapter) FreshSeed() uint64 {
	return rand.Uint64()
}

// New wraps a PCG generator with the given state
func New(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// hashString creates a simple hash for deterministic seeding (64-bit djb2)
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c)
	}
	return hash
}

// mix is the splitmix64 finalizer; it spreads nearby keys across the state space
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
