package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deepdelve/roguecore/internal/core/ecs"
)

func TestGridPlaceMoveRemove(t *testing.T) {
	g := NewGrid()
	a, b := ecs.EntityID(1), ecs.EntityID(2)
	g.Place(a, 3, 3)
	g.Place(b, 3, 3)
	assert.Equal(t, []ecs.EntityID{a, b}, g.At(3, 3))

	g.Place(a, 40, -5) // crosses cells
	assert.Equal(t, []ecs.EntityID{b}, g.At(3, 3))
	assert.Equal(t, []ecs.EntityID{a}, g.At(40, -5))

	g.Place(b, 4, 3) // same cell
	assert.Empty(t, g.At(3, 3))
	assert.Equal(t, []ecs.EntityID{b}, g.At(4, 3))

	assert.True(t, g.Remove(a))
	assert.False(t, g.Remove(a))
	assert.Empty(t, g.At(40, -5))
	assert.Equal(t, 1, g.Len())
}

func TestToCellCoordFloorsNegatives(t *testing.T) {
	assert.Equal(t, 0, toCellCoord(0))
	assert.Equal(t, 0, toCellCoord(cellSize-1))
	assert.Equal(t, -1, toCellCoord(-1))
	assert.Equal(t, -1, toCellCoord(-cellSize))
	assert.Equal(t, -2, toCellCoord(-cellSize-1))
}
