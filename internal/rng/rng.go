// Package rng provides the injected random source. Every consumer gets its
// own named sub-stream so adding a roll in one system never shifts the
// sequence another system sees.
package rng

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Source is the randomness a gameplay system may use.
type Source interface {
	IntN(n int) int
	Float64() float64
	// Chance is true with probability p, clamped to [0, 1].
	Chance(p float64) bool
	// Derive returns an independent deterministic stream for name.
	Derive(name string) Source
}

type pcgSource struct {
	seed uint64
	r    *rand.Rand
}

// New returns a PCG-backed Source. Equal seeds replay equal sequences.
func New(seed uint64) Source {
	return &pcgSource{seed: seed, r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) IntN(n int) int   { return s.r.IntN(n) }
func (s *pcgSource) Float64() float64 { return s.r.Float64() }

func (s *pcgSource) Chance(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return s.r.Float64() < p
}

func (s *pcgSource) Derive(name string) Source {
	h := xxhash.Sum64String(name)
	return &pcgSource{seed: s.seed ^ h, r: rand.New(rand.NewPCG(s.seed, h))}
}

// Fixed is a Source whose Chance and Float64 always return the configured
// value. Useful for exercising probabilistic rules deterministically.
type Fixed float64

func (f Fixed) IntN(n int) int {
	v := int(float64(f) * float64(n))
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (f Fixed) Float64() float64      { return float64(f) }
func (f Fixed) Chance(p float64) bool { return float64(f) < p }
func (f Fixed) Derive(string) Source  { return f }
