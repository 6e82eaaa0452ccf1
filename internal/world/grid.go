package world

import (
	"slices"

	"github.com/deepdelve/roguecore/internal/core/ecs"
)

// Grid indexes entity positions by cell so tile and neighbourhood queries
// do not scan every physics component.
// Accessed only from the game loop goroutine; no locks.

const cellSize = 16

type cellKey struct {
	cx, cy int
}

type point struct {
	x, y int
}

func toCellCoord(v int) int {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// Grid tracks which entities are in which cells.
type Grid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
	pos   map[ecs.EntityID]point
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		pos:   make(map[ecs.EntityID]point),
	}
}

func key(x, y int) cellKey {
	return cellKey{cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Place puts id at (x, y), moving it if it is already indexed.
func (g *Grid) Place(id ecs.EntityID, x, y int) {
	if old, ok := g.pos[id]; ok {
		if key(old.x, old.y) != key(x, y) {
			g.unlink(id, old)
			g.link(id, x, y)
		}
	} else {
		g.link(id, x, y)
	}
	g.pos[id] = point{x, y}
}

// Remove takes id out of the grid. It reports whether id was indexed.
func (g *Grid) Remove(id ecs.EntityID) bool {
	p, ok := g.pos[id]
	if !ok {
		return false
	}
	g.unlink(id, p)
	delete(g.pos, id)
	return true
}

func (g *Grid) link(id ecs.EntityID, x, y int) {
	k := key(x, y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *Grid) unlink(id ecs.EntityID, p point) {
	k := key(p.x, p.y)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

func (g *Grid) Len() int { return len(g.pos) }

// At returns the entities standing exactly on (x, y), in id order.
func (g *Grid) At(x, y int) []ecs.EntityID {
	var out []ecs.EntityID
	for id := range g.cells[key(x, y)] {
		if p := g.pos[id]; p.x == x && p.y == y {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
