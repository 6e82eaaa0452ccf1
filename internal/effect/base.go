package effect

import (
	"fmt"

	"github.com/deepdelve/roguecore/internal/core/ecs"
)

// Poison deals Damage to the owner at the end of each of its turns.
type Poison struct {
	Lifecycle
	Damage int
}

func NewPoison(damage int) *Poison { return &Poison{Damage: damage} }

func (p *Poison) Name() string { return "poison" }

func (p *Poison) Start(tg Target) (bool, error) {
	if err := p.Begin(); err != nil {
		return false, err
	}
	health := tg.Host.Kinds().Health
	if !health.Has(tg.Owner) {
		p.state = Ended
		return false, fmt.Errorf("poison %s: no health component", tg.Owner)
	}
	p.Track(tg.Host.TurnEnded(func(actor ecs.EntityID, _ int) {
		if actor != tg.Owner {
			return
		}
		if h, ok := health.Get(tg.Owner); ok {
			h.HP = max(h.HP-p.Damage, 0)
		}
	}))
	return true, nil
}

func (p *Poison) End() { p.Finish() }

// Haste raises the owner's speed by Percent points while active.
type Haste struct {
	Lifecycle
	Percent int

	target Target
}

func NewHaste(percent int) *Haste { return &Haste{Percent: percent} }

func (h *Haste) Name() string { return "haste" }

func (h *Haste) Start(tg Target) (bool, error) {
	if err := h.Begin(); err != nil {
		return false, err
	}
	a, ok := tg.Host.Kinds().Actor.Get(tg.Owner)
	if !ok {
		h.state = Ended
		return false, fmt.Errorf("haste %s: not an actor", tg.Owner)
	}
	a.SpeedPercent += h.Percent
	h.target = tg
	return true, nil
}

func (h *Haste) End() {
	if !h.Finish() {
		return
	}
	if a, ok := h.target.Host.Kinds().Actor.Get(h.target.Owner); ok {
		a.SpeedPercent -= h.Percent
	}
}
