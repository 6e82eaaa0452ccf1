package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func draw(s Source, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = s.IntN(1000)
	}
	return out
}

func TestSameSeedReplays(t *testing.T) {
	assert.Equal(t, draw(New(9), 50), draw(New(9), 50))
	assert.NotEqual(t, draw(New(9), 50), draw(New(10), 50))
}

func TestDeriveIsIndependentOfParentUse(t *testing.T) {
	a := New(3)
	b := New(3)
	draw(b, 17) // consuming the parent must not shift derived streams

	assert.Equal(t, draw(a.Derive("effects"), 20), draw(b.Derive("effects"), 20))
	assert.NotEqual(t, draw(a.Derive("effects"), 20), draw(a.Derive("ai"), 20))
}

func TestChanceBounds(t *testing.T) {
	s := New(1)
	for i := 0; i < 100; i++ {
		assert.False(t, s.Chance(0))
		assert.True(t, s.Chance(1))
	}
	assert.True(t, Fixed(0.2).Chance(0.5))
	assert.False(t, Fixed(0.7).Chance(0.5))
	assert.Equal(t, 9, Fixed(0.999).IntN(10))
}
