package turn

import (
	"context"
	"fmt"

	"github.com/deepdelve/roguecore/internal/core/ecs"
)

// DefaultMinimumCost is the smallest time step an action can take.
const DefaultMinimumCost = 1

// Executor applies an action for an actor and reports its time cost.
// ok == false is the null cost: the action could not or did not act.
type Executor interface {
	Execute(ctx context.Context, actor ecs.EntityID, action Action) (cost int, ok bool, err error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, actor ecs.EntityID, action Action) (int, bool, error)

func (f ExecutorFunc) Execute(ctx context.Context, actor ecs.EntityID, action Action) (int, bool, error) {
	return f(ctx, actor, action)
}

// Status is what one Step did.
type Status uint8

const (
	// Idle: nobody is scheduled.
	Idle Status = iota
	// Waiting: the next actor has no intent yet; nothing changed.
	Waiting
	// Acted: one actor acted and was rescheduled.
	Acted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Acted:
		return "acted"
	default:
		return "unknown"
	}
}

// Outcome describes one Step. Cost and Time are set for Acted only; Time is
// the actor's new next-eligible time.
type Outcome struct {
	Status Status
	Actor  ecs.EntityID
	Action Action
	Cost   int
	Time   int64
}

// StepError wraps a failure while resolving or applying an intent. The
// pending set is left as it was before the step.
type StepError struct {
	Actor ecs.EntityID
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("turn: step actor %s: %v", e.Actor, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type Option func(*Scheduler)

// WithMinimumCost sets the floor applied to null and too-small costs.
// Values below 1 are ignored; forward progress needs a positive step.
func WithMinimumCost(n int) Option {
	return func(s *Scheduler) {
		if n >= 1 {
			s.minCost = n
		}
	}
}

// Scheduler orders pending actor turns by (Time, ActorID) and resolves one
// intent per Step. It is not safe for concurrent use.
type Scheduler struct {
	q       *queue
	now     int64
	minCost int
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{q: newQueue(), minCost: DefaultMinimumCost}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule inserts or replaces the entry for at.ActorID. Times in the past
// are moved up to Now so simulation time never runs backwards.
func (s *Scheduler) Schedule(at ActorTime) {
	if at.Time < s.now {
		at.Time = s.now
	}
	s.q.upsert(at)
}

func (s *Scheduler) Remove(id ecs.EntityID) bool           { return s.q.remove(id) }
func (s *Scheduler) Get(id ecs.EntityID) (ActorTime, bool) { return s.q.get(id) }
func (s *Scheduler) Len() int                              { return s.q.Len() }
func (s *Scheduler) Now() int64                            { return s.now }
func (s *Scheduler) MinimumCost() int                      { return s.minCost }

// Peek returns the entry the next Step would select.
func (s *Scheduler) Peek() (ActorTime, bool) { return s.q.peek() }

// Step runs one scheduling step against exec.
func (s *Scheduler) Step(ctx context.Context, exec Executor) (Outcome, error) {
	cur, ok := s.q.peek()
	if !ok {
		return Outcome{Status: Idle}, nil
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, &StepError{Actor: cur.ActorID, Err: err}
	}

	var action Action
	if cur.GetIntent != nil {
		a, err := cur.GetIntent()
		if err != nil {
			return Outcome{}, &StepError{Actor: cur.ActorID, Err: fmt.Errorf("resolve intent: %w", err)}
		}
		action = a
	}
	if action == nil {
		return Outcome{Status: Waiting, Actor: cur.ActorID}, nil
	}

	cost, ok, err := exec.Execute(ctx, cur.ActorID, action)
	if err != nil {
		return Outcome{}, &StepError{Actor: cur.ActorID, Err: fmt.Errorf("execute %s: %w", action.ActionName(), err)}
	}
	if !ok || cost < s.minCost {
		cost = s.minCost
	}

	next := cur.WithLastActedTime(cur.Time).WithTime(cur.Time + int64(cost))
	// An action may remove its own actor (death, despawn); do not revive it.
	if _, still := s.q.get(cur.ActorID); still {
		s.q.upsert(next)
	}
	s.now = cur.Time
	return Outcome{
		Status: Acted,
		Actor:  cur.ActorID,
		Action: action,
		Cost:   cost,
		Time:   next.Time,
	}, nil
}
