package system

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/data"
	"github.com/deepdelve/roguecore/internal/rng"
	"github.com/deepdelve/roguecore/internal/world"
)

// Created is raised once a spawned entity is fully configured.
type Created struct {
	Entity    ecs.EntityID
	Blueprint string
}

func (c Created) Fields() map[string]any {
	return map[string]any{"entity": uint64(c.Entity), "blueprint": c.Blueprint}
}

// Destroyed is raised after an entity's components are gone.
type Destroyed struct {
	Entity ecs.EntityID
}

func (d Destroyed) Fields() map[string]any {
	return map[string]any{"entity": uint64(d.Entity)}
}

// EntitySystem builds entities from blueprints and reports their lifecycle.
type EntitySystem struct {
	coresys.Base
	world      *ecs.World
	kinds      *component.Kinds
	grid       *world.Grid
	blueprints *data.BlueprintTable
	rand       rng.Source

	Created   *event.SystemEvent[Created]
	Destroyed *event.SystemEvent[Destroyed]
}

func NewEntitySystem(bus *event.Bus, log *zap.Logger, w *ecs.World, kinds *component.Kinds, grid *world.Grid, blueprints *data.BlueprintTable, rand rng.Source) *EntitySystem {
	s := &EntitySystem{
		Base:       coresys.NewBase("Entity", bus, log),
		world:      w,
		kinds:      kinds,
		grid:       grid,
		blueprints: blueprints,
		rand:       rand.Derive("entity"),
	}
	s.Created = event.NewSystemEvent[Created](s, "Created")
	s.Destroyed = event.NewSystemEvent[Destroyed](s, "Destroyed")
	w.OnDestroyed(func(id ecs.EntityID) {
		grid.Remove(id)
		s.Destroyed.Raise(Destroyed{Entity: id})
	})
	return s
}

func (s *EntitySystem) Routes() []event.Route {
	return []event.Route{s.Created, s.Destroyed}
}

// Spawn builds one entity of blueprint id at (x, y). Called during a store
// enumeration, the entity is configured and announced once it ends.
func (s *EntitySystem) Spawn(id string, x, y int) (ecs.EntityID, error) {
	bp := s.blueprints.Get(id)
	if bp == nil {
		return 0, fmt.Errorf("spawn %q: %w", id, ErrUnknownBlueprint)
	}
	types := make([]ecs.ComponentType, 0, len(bp.Components))
	for _, name := range bp.Components {
		t, ok := s.world.Registry().Lookup(name)
		if !ok {
			return 0, fmt.Errorf("spawn %q: component %q: %w", id, name, ecs.ErrUnknownComponentType)
		}
		types = append(types, t)
	}
	eid, err := s.world.CreateWith(types...)
	if err != nil {
		s.Logger().Error("spawn failed", zap.String("blueprint", id), zap.Error(err))
		return 0, fmt.Errorf("spawn %q: %w", id, err)
	}
	// Inside an enumeration the components attach later; configure after them.
	s.world.Defer(func() {
		if !s.world.Alive(eid) {
			return
		}
		s.configure(eid, bp, x, y)
		s.Logger().Debug("spawned",
			zap.String("blueprint", id),
			zap.Stringer("entity", eid),
			zap.Int("x", x),
			zap.Int("y", y),
		)
		s.Created.Raise(Created{Entity: eid, Blueprint: bp.ID})
	})
	return eid, nil
}

func (s *EntitySystem) configure(id ecs.EntityID, bp *data.Blueprint, x, y int) {
	k := s.kinds
	if c, ok := k.Identity.Get(id); ok {
		c.Name = bp.Name
		c.Blueprint = bp.ID
	}
	if c, ok := k.Render.Get(id); ok {
		if r := []rune(bp.Glyph); len(r) > 0 {
			c.Glyph = r[0]
		}
		c.Color = bp.Color
		c.Layer = bp.Layer
	}
	if c, ok := k.Physics.Get(id); ok {
		c.X, c.Y = x, y
		c.Blocking = bp.Blocking
		s.grid.Place(id, x, y)
	}
	if c, ok := k.Actor.Get(id); ok {
		if bp.Speed > 0 {
			c.Speed = bp.Speed
		}
		if bp.Player {
			c.Controller = component.ControlPlayer
		}
		c.Brain = bp.Brain
	}
	if c, ok := k.Health.Get(id); ok && bp.HP > 0 {
		c.HP, c.MaxHP = bp.HP, bp.HP
	}
	if c, ok := k.Item.Get(id); ok {
		c.Name = bp.Name
		c.Weight = bp.Weight
	}
}

// SpawnList spawns every entry, jittering positions by the entry's random
// range. Failures are collected; the rest of the list still spawns.
func (s *EntitySystem) SpawnList(entries []data.SpawnEntry) ([]ecs.EntityID, error) {
	var (
		ids  []ecs.EntityID
		errs error
	)
	for _, e := range entries {
		for i := 0; i < e.Count; i++ {
			x := e.X + s.jitter(e.RandomX)
			y := e.Y + s.jitter(e.RandomY)
			id, err := s.Spawn(e.Blueprint, x, y)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, errs
}

func (s *EntitySystem) jitter(r int) int {
	if r <= 0 {
		return 0
	}
	return s.rand.IntN(2*r+1) - r
}

// Destroy queues id for removal at the end of the tick.
func (s *EntitySystem) Destroy(id ecs.EntityID) {
	s.world.MarkForDestruction(id)
}
