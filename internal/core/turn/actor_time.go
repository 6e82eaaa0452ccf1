package turn

import "github.com/deepdelve/roguecore/internal/core/ecs"

// Action is whatever an actor decided to do. The scheduler never looks
// inside; the Executor gives it meaning and a cost.
type Action interface {
	ActionName() string
}

// IntentFunc supplies an actor's next action at resolution time. A nil
// action with a nil error means the actor has nothing queued yet.
type IntentFunc func() (Action, error)

// ActorTime is one actor's place in the turn order. Values are replaced,
// never mutated; identity is the ActorID alone.
type ActorTime struct {
	ActorID       ecs.EntityID
	Time          int64
	LastActedTime int64
	GetIntent     IntentFunc
}

func (a ActorTime) WithTime(t int64) ActorTime {
	a.Time = t
	return a
}

func (a ActorTime) WithLastActedTime(t int64) ActorTime {
	a.LastActedTime = t
	return a
}

// Equal compares identities, not positions.
func (a ActorTime) Equal(o ActorTime) bool { return a.ActorID == o.ActorID }

// before is the (Time, ActorID) lexicographic order.
func (a ActorTime) before(o ActorTime) bool {
	if a.Time != o.Time {
		return a.Time < o.Time
	}
	return a.ActorID < o.ActorID
}
