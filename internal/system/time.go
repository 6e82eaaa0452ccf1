package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/core/turn"
	"github.com/deepdelve/roguecore/internal/entity"
)

// TurnEnded is raised after every applied action. Time is the actor's next
// eligible time; Now is the simulation time the action happened at.
type TurnEnded struct {
	Actor ecs.EntityID
	Cost  int
	Time  int64
	Now   int64
}

func (t TurnEnded) Fields() map[string]any {
	return map[string]any{"actor": uint64(t.Actor), "cost": t.Cost, "time": t.Time, "now": t.Now}
}

// WaitingForInput is raised once when the scheduler first stalls on a
// player actor with nothing queued.
type WaitingForInput struct {
	Actor ecs.EntityID
	Now   int64
}

func (w WaitingForInput) Fields() map[string]any {
	return map[string]any{"actor": uint64(w.Actor), "now": w.Now}
}

// Turns is what the time system needs from the action pipeline.
type Turns interface {
	turn.Executor
	Intent(id ecs.EntityID) turn.IntentFunc
}

// TimeSystem owns the turn scheduler and advances it every tick.
// Phase 2 (Update).
type TimeSystem struct {
	coresys.Base
	world    *ecs.World
	proxies  *entity.Proxies
	sched    *turn.Scheduler
	turns    Turns
	maxSteps int
	ctx      context.Context
	waiting  ecs.EntityID

	TurnEnded       *event.SystemEvent[TurnEnded]
	WaitingForInput *event.SystemEvent[WaitingForInput]
}

func NewTimeSystem(bus *event.Bus, log *zap.Logger, world *ecs.World, proxies *entity.Proxies, sched *turn.Scheduler, turns Turns, entities *EntitySystem, maxSteps int) *TimeSystem {
	s := &TimeSystem{
		Base:     coresys.NewBase("Time", bus, log),
		world:    world,
		proxies:  proxies,
		sched:    sched,
		turns:    turns,
		maxSteps: max(maxSteps, 1),
		ctx:      context.Background(),
	}
	s.TurnEnded = event.NewSystemEvent[TurnEnded](s, "TurnEnded")
	s.WaitingForInput = event.NewSystemEvent[WaitingForInput](s, "WaitingForInput")

	entities.Created.Subscribe(func(c Created) { s.Track(c.Entity) })
	entities.Destroyed.Subscribe(func(d Destroyed) { s.sched.Remove(d.Entity) })
	return s
}

func (s *TimeSystem) Routes() []event.Route {
	return []event.Route{s.TurnEnded, s.WaitingForInput}
}

func (s *TimeSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Bind sets the context scheduling steps run under.
func (s *TimeSystem) Bind(ctx context.Context) { s.ctx = ctx }

func (s *TimeSystem) Scheduler() *turn.Scheduler { return s.sched }

// Track schedules id at the current time if it is an actor.
func (s *TimeSystem) Track(id ecs.EntityID) bool {
	if !s.proxies.Actor.Satisfied(s.world, id) {
		return false
	}
	if _, ok := s.sched.Get(id); ok {
		return true
	}
	s.sched.Schedule(turn.ActorTime{
		ActorID:       id,
		Time:          s.sched.Now(),
		LastActedTime: s.sched.Now(),
		GetIntent:     s.turns.Intent(id),
	})
	return true
}

func (s *TimeSystem) Update(_ time.Duration) {
	if _, err := s.Advance(s.ctx, s.maxSteps); err != nil {
		// The pending set is untouched; the same step runs again next tick.
		s.Logger().Error("scheduling step failed", zap.Error(err))
	}
}

// Advance runs up to n steps, stopping early when the scheduler is idle or
// waits on input. It returns the number of actions applied. Cancelling ctx
// while turn-end subscribers run stops the batch after the current action.
func (s *TimeSystem) Advance(ctx context.Context, n int) (int, error) {
	acted := 0
	for i := 0; i < n; i++ {
		out, err := s.sched.Step(ctx, s.turns)
		if err != nil {
			return acted, err
		}
		switch out.Status {
		case turn.Idle:
			return acted, nil
		case turn.Waiting:
			if s.waiting != out.Actor {
				s.waiting = out.Actor
				s.WaitingForInput.Raise(WaitingForInput{Actor: out.Actor, Now: s.sched.Now()})
			}
			return acted, nil
		case turn.Acted:
			acted++
			s.waiting = 0
			err := s.TurnEnded.RaiseContext(ctx, TurnEnded{
				Actor: out.Actor,
				Cost:  out.Cost,
				Time:  out.Time,
				Now:   s.sched.Now(),
			})
			// Subscriber faults are already logged by the bus; only a
			// cancellation stops the batch.
			if err != nil && ctx.Err() != nil {
				return acted, ctx.Err()
			}
		}
	}
	return acted, nil
}
