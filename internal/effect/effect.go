// Package effect implements entity-attached behaviors and the decorators
// that add one policy each around a base effect.
package effect

import (
	"errors"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	"github.com/deepdelve/roguecore/internal/rng"
)

var ErrAlreadyStarted = errors.New("effect already started")

// State is the lifecycle position of an effect. It only moves forward.
type State uint8

const (
	NotStarted State = iota
	Active
	Ended
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Active:
		return "active"
	default:
		return "ended"
	}
}

// Host is what a running effect may reach. The effect system implements it.
type Host interface {
	Kinds() *component.Kinds
	Rand() rng.Source
	// TurnEnded subscribes fn to every completed actor turn.
	TurnEnded(fn func(actor ecs.EntityID, cost int)) *event.Subscription
	// Active lists the effects currently running on owner.
	Active(owner ecs.EntityID) []Effect
}

// Target is handed down the decorator chain on Start. Expire ends the
// outermost effect, so an inner policy can finish the whole stack.
type Target struct {
	Host   Host
	Owner  ecs.EntityID
	Expire func()
}

type Effect interface {
	Name() string
	State() State
	// Start activates the effect. false with a nil error means it declined
	// to apply and went straight to Ended.
	Start(t Target) (bool, error)
	// End deactivates the effect. Calls on an effect that is not active do
	// nothing.
	End()
}

// Lifecycle is embedded by effects to track state and own subscriptions.
type Lifecycle struct {
	state State
	subs  event.Disposables
}

func (l *Lifecycle) State() State { return l.state }

// Begin moves NotStarted to Active.
func (l *Lifecycle) Begin() error {
	if l.state != NotStarted {
		return ErrAlreadyStarted
	}
	l.state = Active
	return nil
}

// Decline moves NotStarted straight to Ended.
func (l *Lifecycle) Decline() {
	if l.state == NotStarted {
		l.state = Ended
	}
}

// Track ties subscriptions to the active period.
func (l *Lifecycle) Track(s ...*event.Subscription) { l.subs.Add(s...) }

// Finish moves Active to Ended and disposes tracked subscriptions. It
// reports whether this call did the transition.
func (l *Lifecycle) Finish() bool {
	if l.state != Active {
		return false
	}
	l.state = Ended
	l.subs.Dispose()
	return true
}
