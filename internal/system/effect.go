package system

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/data"
	"github.com/deepdelve/roguecore/internal/effect"
	"github.com/deepdelve/roguecore/internal/rng"
)

// CanApply asks whether an effect may start on an owner.
type CanApply struct {
	Owner  ecs.EntityID
	Effect string
}

func (c CanApply) Fields() map[string]any {
	return map[string]any{"owner": uint64(c.Owner), "effect": c.Effect}
}

// EffectChanged is the payload of Started and Ended.
type EffectChanged struct {
	Owner  ecs.EntityID
	Effect string
}

func (c EffectChanged) Fields() map[string]any {
	return map[string]any{"owner": uint64(c.Owner), "effect": c.Effect}
}

// EffectSystem starts, tracks and ends effects. It is the effect.Host.
type EffectSystem struct {
	coresys.Base
	world      *ecs.World
	kinds      *component.Kinds
	blueprints *data.BlueprintTable
	rand       rng.Source
	time       *TimeSystem
	active     map[ecs.EntityID][]effect.Effect

	CanApply *event.SystemRequest[CanApply]
	Started  *event.SystemEvent[EffectChanged]
	Ended    *event.SystemEvent[EffectChanged]
}

func NewEffectSystem(bus *event.Bus, log *zap.Logger, world *ecs.World, kinds *component.Kinds, blueprints *data.BlueprintTable, rand rng.Source, time *TimeSystem, entities *EntitySystem) *EffectSystem {
	s := &EffectSystem{
		Base:       coresys.NewBase("Effect", bus, log),
		world:      world,
		kinds:      kinds,
		blueprints: blueprints,
		rand:       rand.Derive("effect"),
		time:       time,
		active:     make(map[ecs.EntityID][]effect.Effect),
	}
	s.CanApply = event.NewSystemRequest[CanApply](s, "CanApply")
	s.Started = event.NewSystemEvent[EffectChanged](s, "Started")
	s.Ended = event.NewSystemEvent[EffectChanged](s, "Ended")

	entities.Created.Subscribe(s.applyBlueprint)
	entities.Destroyed.Subscribe(func(d Destroyed) { s.EndAll(d.Entity) })
	return s
}

func (s *EffectSystem) Routes() []event.Route {
	return []event.Route{s.CanApply, s.Started, s.Ended}
}

func (s *EffectSystem) Kinds() *component.Kinds { return s.kinds }
func (s *EffectSystem) Rand() rng.Source        { return s.rand }

func (s *EffectSystem) TurnEnded(fn func(actor ecs.EntityID, cost int)) *event.Subscription {
	return s.time.TurnEnded.Subscribe(func(t TurnEnded) { fn(t.Actor, t.Cost) })
}

// Active returns a copy of the effects running on owner.
func (s *EffectSystem) Active(owner ecs.EntityID) []effect.Effect {
	return append([]effect.Effect(nil), s.active[owner]...)
}

// Apply starts e on owner unless a CanApply subscriber rejects it or the
// effect declines. It reports whether e is now active.
func (s *EffectSystem) Apply(ctx context.Context, owner ecs.EntityID, e effect.Effect) (bool, error) {
	if !s.world.Alive(owner) {
		return false, fmt.Errorf("apply %s to %s: %w", e.Name(), owner, ecs.ErrEntityNotAlive)
	}
	res := s.CanApply.Handle(ctx, CanApply{Owner: owner, Effect: e.Name()})
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if res == event.Rejected {
		return false, nil
	}
	ok, err := e.Start(effect.Target{
		Host:   s,
		Owner:  owner,
		Expire: func() { s.End(owner, e) },
	})
	if err != nil {
		s.Logger().Error("effect start failed",
			zap.String("effect", effect.Describe(e)),
			zap.Stringer("owner", owner),
			zap.Error(err),
		)
		return false, fmt.Errorf("apply %s to %s: %w", e.Name(), owner, err)
	}
	if !ok {
		return false, nil
	}
	s.active[owner] = append(s.active[owner], e)
	s.Started.Raise(EffectChanged{Owner: owner, Effect: e.Name()})
	return true, nil
}

// End stops e on owner. It reports false when e was not active there.
func (s *EffectSystem) End(owner ecs.EntityID, e effect.Effect) bool {
	list := s.active[owner]
	for i, x := range list {
		if x != e {
			continue
		}
		rest := append(list[:i:i], list[i+1:]...)
		if len(rest) == 0 {
			delete(s.active, owner)
		} else {
			s.active[owner] = rest
		}
		e.End()
		s.Ended.Raise(EffectChanged{Owner: owner, Effect: e.Name()})
		return true
	}
	return false
}

// EndAll stops every effect on owner.
func (s *EffectSystem) EndAll(owner ecs.EntityID) {
	for _, e := range s.Active(owner) {
		s.End(owner, e)
	}
}

// Build turns a spec into an effect chain: base, then temporary, then
// chance, with the non-stacking guard outermost.
func Build(spec data.EffectSpec) (effect.Effect, error) {
	var e effect.Effect
	switch spec.Kind {
	case "poison":
		e = effect.NewPoison(spec.Amount)
	case "haste":
		e = effect.NewHaste(spec.Amount)
	default:
		return nil, fmt.Errorf("build effect %q: %w", spec.Kind, ErrUnknownEffect)
	}
	if spec.Turns > 0 {
		e = effect.NewTemporary(e, spec.Turns)
	}
	if spec.Chance > 0 && spec.Chance < 1 {
		e = effect.NewChance(e, spec.Chance)
	}
	if spec.NonStacking {
		e = effect.NewNonStacking(e)
	}
	return e, nil
}

func (s *EffectSystem) applyBlueprint(c Created) {
	bp := s.blueprints.Get(c.Blueprint)
	if bp == nil {
		return
	}
	for _, spec := range bp.Effects {
		e, err := Build(spec)
		if err == nil {
			_, err = s.Apply(context.Background(), c.Entity, e)
		}
		if err != nil {
			s.Logger().Error("blueprint effect",
				zap.String("blueprint", bp.ID),
				zap.String("kind", spec.Kind),
				zap.Error(err),
			)
		}
	}
}
