// Package rng provides the single seeded random stream a playthrough draws from.
package rng

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw so traces can show how much of the
// stream a step consumed.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a new deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a uniform value in [0,1).
func (r *RNG) Float64() float64 {
	r.pos++
	return r.src.Float64()
}

// Chance draws once and reports whether the draw fell below p.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// IntRange returns a uniform integer in [lo, hi].
func (r *RNG) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	r.pos++
	return lo + r.src.Intn(hi-lo+1)
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r.pos++
	roll := r.src.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Seed returns the seed the stream was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}
