package component

import (
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/turn"
)

// Identity names an entity and the blueprint it was spawned from.
type Identity struct {
	ecs.Meta
	Name      string
	Blueprint string
}

// Render is what a renderer needs to draw the entity.
type Render struct {
	ecs.Meta
	Glyph rune
	Color string
	Layer int
}

// Physics places the entity on the map.
type Physics struct {
	ecs.Meta
	X, Y     int
	Blocking bool
}

// Controller decides where an actor's intents come from.
type Controller uint8

const (
	ControlAI Controller = iota
	ControlPlayer
)

// Actor makes an entity take turns. Speed is the time cost of a plain
// action; SpeedPercent scales it (200 acts twice as often).
type Actor struct {
	ecs.Meta
	Speed        int
	SpeedPercent int
	Controller   Controller
	Brain        string        // AI routine name, used when Intents is empty
	Intents      []turn.Action // queued commands, oldest first
}

// Cost is the time an action of base cost c takes for this actor.
func (a *Actor) Cost(c int) int {
	if a.SpeedPercent <= 0 {
		return c
	}
	return c * 100 / a.SpeedPercent
}

// Item is something that can be picked up.
type Item struct {
	ecs.Meta
	Name   string
	Weight int
}

type Health struct {
	ecs.Meta
	HP    int
	MaxHP int
}
