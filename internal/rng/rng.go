// Package rng provides the seeded uniform random source shared by dataset
// generation and noise functions.
package rng

import "math/rand"

// DefaultSeed is used when no seed is configured so that runs are
// reproducible by default.
const DefaultSeed int64 = 0

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// New returns a deterministic source for seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Counter wraps a Source and counts the values drawn from it.
type Counter struct {
	Source
	n int
}

// NewCounter wraps src.
func NewCounter(src Source) *Counter { return &Counter{Source: src} }

// Float64 draws from the wrapped source.
func (c *Counter) Float64() float64 {
	c.n++
	return c.Source.Float64()
}

// Draws reports how many values have been drawn.
func (c *Counter) Draws() int { return c.n }
