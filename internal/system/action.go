package system

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/core/turn"
	"github.com/deepdelve/roguecore/internal/entity"
	"github.com/deepdelve/roguecore/internal/rng"
	"github.com/deepdelve/roguecore/internal/world"
)

// Move steps the actor by (DX, DY). It costs the actor's speed.
type Move struct{ DX, DY int }

// Wait passes a turn at the actor's speed.
type Wait struct{}

// Idle does nothing and costs nothing; the scheduler applies its minimum.
type Idle struct{}

func (Move) ActionName() string { return "move" }
func (Wait) ActionName() string { return "wait" }
func (Idle) ActionName() string { return "idle" }

// CanAct asks whether an actor may perform an action now. A rejection
// turns the action into a no-op.
type CanAct struct {
	Actor  ecs.EntityID
	Action turn.Action
}

func (c CanAct) Fields() map[string]any {
	f := map[string]any{"actor": uint64(c.Actor), "action": c.Action.ActionName()}
	if m, ok := c.Action.(Move); ok {
		f["dx"], f["dy"] = m.DX, m.DY
	}
	return f
}

// Performed reports every resolved action, vetoed or not.
type Performed struct {
	Actor   ecs.EntityID
	Action  string
	Cost    int
	Vetoed  bool
	Blocked bool
}

func (p Performed) Fields() map[string]any {
	return map[string]any{
		"actor":   uint64(p.Actor),
		"action":  p.Action,
		"cost":    p.Cost,
		"vetoed":  p.Vetoed,
		"blocked": p.Blocked,
	}
}

type Moved struct {
	Actor        ecs.EntityID
	FromX, FromY int
	ToX, ToY     int
}

func (m Moved) Fields() map[string]any {
	return map[string]any{
		"actor":  uint64(m.Actor),
		"from_x": m.FromX,
		"from_y": m.FromY,
		"to_x":   m.ToX,
		"to_y":   m.ToY,
	}
}

// SelectActor asks to make an actor the current selection.
type SelectActor struct {
	Actor ecs.EntityID
}

func (s SelectActor) Fields() map[string]any {
	return map[string]any{"actor": uint64(s.Actor)}
}

// SelectionChanged follows an approved SelectActor.
type SelectionChanged struct {
	Previous ecs.EntityID
	Current  ecs.EntityID
}

func (s SelectionChanged) Fields() map[string]any {
	return map[string]any{"previous": uint64(s.Previous), "current": uint64(s.Current)}
}

// Brain picks an action for an AI actor with nothing queued.
type Brain func(a entity.Actor, r rng.Source) turn.Action

// DefaultBrains are the AI routines blueprints can name.
func DefaultBrains() map[string]Brain {
	return map[string]Brain{
		"wait": func(entity.Actor, rng.Source) turn.Action { return Wait{} },
		"idle": func(entity.Actor, rng.Source) turn.Action { return Idle{} },
		"wander": func(_ entity.Actor, r rng.Source) turn.Action {
			switch r.IntN(5) {
			case 0:
				return Move{DX: 1}
			case 1:
				return Move{DX: -1}
			case 2:
				return Move{DY: 1}
			case 3:
				return Move{DY: -1}
			default:
				return Wait{}
			}
		},
	}
}

// ActionSystem turns intents into state changes and costs. It is the
// scheduler's Executor.
type ActionSystem struct {
	coresys.Base
	world    *ecs.World
	kinds    *component.Kinds
	grid     *world.Grid
	proxies  *entity.Proxies
	rand     rng.Source
	brains   map[string]Brain
	selected ecs.EntityID

	CanAct           *event.SystemRequest[CanAct]
	Performed        *event.SystemEvent[Performed]
	Moved            *event.SystemEvent[Moved]
	SelectActor      *event.SystemRequest[SelectActor]
	SelectionChanged *event.SystemEvent[SelectionChanged]
}

func NewActionSystem(bus *event.Bus, log *zap.Logger, w *ecs.World, kinds *component.Kinds, grid *world.Grid, proxies *entity.Proxies, rand rng.Source, brains map[string]Brain) *ActionSystem {
	s := &ActionSystem{
		Base:    coresys.NewBase("Action", bus, log),
		world:   w,
		kinds:   kinds,
		grid:    grid,
		proxies: proxies,
		rand:    rand.Derive("action"),
		brains:  brains,
	}
	s.CanAct = event.NewSystemRequest[CanAct](s, "CanAct")
	s.Performed = event.NewSystemEvent[Performed](s, "Performed")
	s.Moved = event.NewSystemEvent[Moved](s, "Moved")
	s.SelectActor = event.NewSystemRequest[SelectActor](s, "SelectActor")
	s.SelectionChanged = event.NewSystemEvent[SelectionChanged](s, "SelectionChanged")

	// Only live actors can be selected; other subscribers may veto further.
	s.SelectActor.Subscribe(func(_ context.Context, req SelectActor) event.EventResult {
		_, ok := s.proxies.Actor.TryGet(s.world, req.Actor)
		return event.FromBool(ok)
	}, event.WithPriority(100))
	s.SelectActor.Responses().Subscribe(func(r event.Response[SelectActor]) {
		if !r.Result.Bool() || r.Payload.Actor == s.selected {
			return
		}
		prev := s.selected
		s.selected = r.Payload.Actor
		s.SelectionChanged.Raise(SelectionChanged{Previous: prev, Current: s.selected})
	})
	return s
}

func (s *ActionSystem) Routes() []event.Route {
	return []event.Route{s.CanAct, s.Performed, s.Moved, s.SelectActor, s.SelectionChanged}
}

// Queue appends a command to an actor's intent queue.
func (s *ActionSystem) Queue(id ecs.EntityID, a turn.Action) error {
	actor, ok := s.proxies.Actor.TryGet(s.world, id)
	if !ok {
		return fmt.Errorf("queue %s for %s: %w", a.ActionName(), id, ErrNotActor)
	}
	c := actor.Actor()
	c.Intents = append(c.Intents, a)
	return nil
}

// Select makes id the current selection if every subscriber approves.
func (s *ActionSystem) Select(ctx context.Context, id ecs.EntityID) error {
	return s.SelectActor.Require(ctx, SelectActor{Actor: id})
}

func (s *ActionSystem) Selected() ecs.EntityID { return s.selected }

// Intent returns the deferred intent supplier the scheduler stores for id.
// Queued commands come first. With an empty queue a player actor has
// nothing to do yet and an AI actor asks its brain.
func (s *ActionSystem) Intent(id ecs.EntityID) turn.IntentFunc {
	return func() (turn.Action, error) {
		actor, ok := s.proxies.Actor.TryGet(s.world, id)
		if !ok {
			// Lost the actor component but not the entity: burn the turn.
			return Idle{}, nil
		}
		c := actor.Actor()
		if len(c.Intents) > 0 {
			return c.Intents[0], nil
		}
		if c.Controller == component.ControlPlayer {
			return nil, nil
		}
		brain, ok := s.brains[c.Brain]
		if !ok {
			return Wait{}, nil
		}
		return brain(actor, s.rand), nil
	}
}

// Execute applies one action for id. Rejected and blocked actions have a
// null cost. A queued command is consumed once it resolved, vetoed or not,
// so it does not retry forever; a failed step leaves it queued.
func (s *ActionSystem) Execute(ctx context.Context, id ecs.EntityID, a turn.Action) (int, bool, error) {
	actor, ok := s.proxies.Actor.TryGet(s.world, id)
	if !ok {
		return 0, false, nil
	}
	cost, ok, err := s.apply(ctx, id, a)
	if err != nil {
		return 0, false, err
	}
	if c := actor.Actor(); c != nil && len(c.Intents) > 0 && c.Intents[0] == a {
		c.Intents = c.Intents[1:]
	}
	return cost, ok, nil
}

func (s *ActionSystem) apply(ctx context.Context, id ecs.EntityID, a turn.Action) (int, bool, error) {
	res := s.CanAct.Handle(ctx, CanAct{Actor: id, Action: a})
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if res == event.Rejected {
		s.Performed.Raise(Performed{Actor: id, Action: a.ActionName(), Vetoed: true})
		return 0, false, nil
	}

	// Responders may destroy the actor or strip its components.
	actor, ok := s.proxies.Actor.TryGet(s.world, id)
	if !ok {
		s.Performed.Raise(Performed{Actor: id, Action: a.ActionName(), Vetoed: true})
		return 0, false, nil
	}
	c := actor.Actor()
	switch act := a.(type) {
	case Move:
		p := actor.Physics()
		tx, ty := p.X+act.DX, p.Y+act.DY
		if s.blocked(id, tx, ty) {
			s.Performed.Raise(Performed{Actor: id, Action: a.ActionName(), Blocked: true})
			return 0, false, nil
		}
		fx, fy := p.X, p.Y
		p.X, p.Y = tx, ty
		s.grid.Place(id, tx, ty)
		s.Moved.Raise(Moved{Actor: id, FromX: fx, FromY: fy, ToX: tx, ToY: ty})
		return s.done(id, a, c.Cost(c.Speed))
	case Wait:
		return s.done(id, a, c.Cost(c.Speed))
	case Idle:
		s.Performed.Raise(Performed{Actor: id, Action: a.ActionName()})
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("execute %T: %w", a, ErrUnknownAction)
	}
}

func (s *ActionSystem) done(id ecs.EntityID, a turn.Action, cost int) (int, bool, error) {
	s.Performed.Raise(Performed{Actor: id, Action: a.ActionName(), Cost: cost})
	return cost, true, nil
}

func (s *ActionSystem) blocked(self ecs.EntityID, x, y int) bool {
	for _, id := range s.grid.At(x, y) {
		if p, ok := s.kinds.Physics.Get(id); ok && id != self && p.Blocking {
			return true
		}
	}
	return false
}
