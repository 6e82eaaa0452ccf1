package event

import (
	"context"
	"fmt"
)

// Source is the owner of a set of typed channels: every system.
type Source interface {
	Name() string
	Bus() *Bus
}

// SystemEvent is a typed one-way notification owned by a system. Only the
// owner raises it; anyone may subscribe.
type SystemEvent[P any] struct {
	bus *Bus
	ch  Channel
}

// NewSystemEvent declares the channel "<owner>.<name>" carrying P.
func NewSystemEvent[P any](owner Source, name string) *SystemEvent[P] {
	return &SystemEvent[P]{
		bus: owner.Bus(),
		ch:  Channel{System: owner.Name(), Name: name},
	}
}

func (e *SystemEvent[P]) Channel() Channel { return e.ch }
func (e *SystemEvent[P]) Kind() RouteKind  { return KindEvent }

// Raise delivers p to every subscriber. Subscriber faults are logged by the
// bus and do not reach the raiser.
func (e *SystemEvent[P]) Raise(p P) {
	_ = e.bus.Publish(e.ch, p)
}

// RaiseContext is Raise honoring cancellation between subscribers.
func (e *SystemEvent[P]) RaiseContext(ctx context.Context, p P) error {
	return e.bus.PublishContext(ctx, e.ch, p)
}

func (e *SystemEvent[P]) Subscribe(fn func(P), opts ...SubscribeOption) *Subscription {
	return e.bus.Subscribe(e.ch, func(_ context.Context, payload any) error {
		p, ok := payload.(P)
		if !ok {
			return fmt.Errorf("%w: %T on %s", ErrPayloadType, payload, e.ch)
		}
		fn(p)
		return nil
	}, opts...)
}

// SubscribeScript hands the payload fields to fn. The returned result is
// ignored for events.
func (e *SystemEvent[P]) SubscribeScript(fn ScriptHandler, opts ...SubscribeOption) *Subscription {
	return e.Subscribe(func(p P) { fn(FieldsOf(p)) }, opts...)
}
