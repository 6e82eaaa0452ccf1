package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
)

// Died is raised once for an actor whose health reached zero. The entity is
// removed at the end of the same tick.
type Died struct {
	Entity ecs.EntityID
}

func (d Died) Fields() map[string]any {
	return map[string]any{"entity": uint64(d.Entity)}
}

// DeathSystem queues actors with no health left for destruction.
// Phase 3 (PostUpdate).
type DeathSystem struct {
	coresys.Base
	kinds    *component.Kinds
	entities *EntitySystem
	dying    map[ecs.EntityID]struct{}

	Died *event.SystemEvent[Died]
}

func NewDeathSystem(bus *event.Bus, log *zap.Logger, kinds *component.Kinds, entities *EntitySystem) *DeathSystem {
	s := &DeathSystem{
		Base:     coresys.NewBase("Death", bus, log),
		kinds:    kinds,
		entities: entities,
		dying:    make(map[ecs.EntityID]struct{}),
	}
	s.Died = event.NewSystemEvent[Died](s, "Died")
	entities.Destroyed.Subscribe(func(d Destroyed) { delete(s.dying, d.Entity) })
	return s
}

func (s *DeathSystem) Routes() []event.Route { return []event.Route{s.Died} }

func (s *DeathSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DeathSystem) Update(_ time.Duration) {
	var dead []ecs.EntityID
	ecs.Each2(s.kinds.Health, s.kinds.Actor, func(id ecs.EntityID, h *component.Health, _ *component.Actor) {
		if _, ok := s.dying[id]; !ok && h.HP <= 0 {
			dead = append(dead, id)
		}
	})
	for _, id := range dead {
		s.dying[id] = struct{}{}
		s.Logger().Debug("actor died", zap.Stringer("entity", id))
		s.Died.Raise(Died{Entity: id})
		s.entities.Destroy(id)
	}
}
