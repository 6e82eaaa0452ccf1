package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testSource struct {
	name string
	bus  *Bus
}

func (s testSource) Name() string { return s.name }
func (s testSource) Bus() *Bus    { return s.bus }

func newObservedBus(t *testing.T) (*Bus, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return NewBus(zap.New(core)), logs
}

var chTest = Channel{System: "Test", Name: "Ping"}

func TestPublishRunsByPriorityThenOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []string
	add := func(tag string, opts ...SubscribeOption) {
		bus.Subscribe(chTest, func(context.Context, any) error {
			order = append(order, tag)
			return nil
		}, opts...)
	}
	add("a")
	add("high", WithPriority(10))
	add("b")
	add("low", WithPriority(-1))
	add("high2", WithPriority(10))

	require.NoError(t, bus.Publish(chTest, nil))
	assert.Equal(t, []string{"high", "high2", "a", "b", "low"}, order)
}

func TestUnsubscribeDuringPublishKeepsSnapshot(t *testing.T) {
	bus := NewBus(nil)
	var calls []string
	var second *Subscription
	bus.Subscribe(chTest, func(context.Context, any) error {
		calls = append(calls, "first")
		second.Dispose()
		return nil
	})
	second = bus.Subscribe(chTest, func(context.Context, any) error {
		calls = append(calls, "second")
		return nil
	})

	require.NoError(t, bus.Publish(chTest, 1))
	assert.Equal(t, []string{"first", "second"}, calls, "in-flight payload still delivered")

	calls = nil
	require.NoError(t, bus.Publish(chTest, 2))
	assert.Equal(t, []string{"first"}, calls)
	assert.False(t, second.Active())
}

func TestHandlerDisposingItselfLeavesOthers(t *testing.T) {
	bus := NewBus(nil)
	var calls []string
	var self *Subscription
	bus.Subscribe(chTest, func(context.Context, any) error {
		calls = append(calls, "before")
		return nil
	})
	self = bus.Subscribe(chTest, func(context.Context, any) error {
		calls = append(calls, "self")
		self.Dispose()
		return nil
	})
	bus.Subscribe(chTest, func(context.Context, any) error {
		calls = append(calls, "after")
		return nil
	})

	require.NoError(t, bus.Publish(chTest, 1))
	require.NoError(t, bus.Publish(chTest, 2))
	assert.Equal(t, []string{"before", "self", "after", "before", "after"}, calls)
	assert.False(t, self.Active())
	assert.Equal(t, 2, bus.Subscribers(chTest))
}

func TestSubscribeDuringPublishWaitsForNextRaise(t *testing.T) {
	bus := NewBus(nil)
	late := 0
	bus.Subscribe(chTest, func(context.Context, any) error {
		bus.Subscribe(chTest, func(context.Context, any) error {
			late++
			return nil
		})
		return nil
	})
	require.NoError(t, bus.Publish(chTest, nil))
	assert.Equal(t, 0, late)
	assert.Equal(t, 2, bus.Subscribers(chTest))
}

func TestHandlerFaultIsIsolated(t *testing.T) {
	bus, logs := newObservedBus(t)
	boom := errors.New("boom")
	reached := false
	bus.Subscribe(chTest, func(context.Context, any) error { panic("kaput") })
	bus.Subscribe(chTest, func(context.Context, any) error { return boom })
	bus.Subscribe(chTest, func(context.Context, any) error {
		reached = true
		return nil
	})

	err := bus.Publish(chTest, nil)
	require.Error(t, err)
	assert.True(t, reached)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.ErrorIs(t, err, boom)

	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, chTest, herr.Channel)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestPublishStopsOnCancel(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	bus.Subscribe(chTest, func(context.Context, any) error {
		ran++
		cancel()
		return nil
	})
	bus.Subscribe(chTest, func(context.Context, any) error {
		ran++
		return nil
	})

	err := bus.PublishContext(ctx, chTest, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ran)
}

func TestDisposeIsIdempotent(t *testing.T) {
	bus := NewBus(nil)
	s := bus.Subscribe(chTest, func(context.Context, any) error { return nil })
	other := bus.Subscribe(chTest, func(context.Context, any) error { return nil })
	assert.NotEqual(t, s.ID(), other.ID())

	s.Dispose()
	s.Dispose()
	assert.Equal(t, 1, bus.Subscribers(chTest))

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Dispose)

	other.Dispose()
	assert.Empty(t, bus.Channels())
}

func TestDisposablesReleasesAll(t *testing.T) {
	bus := NewBus(nil)
	var d Disposables
	d.Add(
		bus.Subscribe(chTest, func(context.Context, any) error { return nil }),
		bus.Subscribe(Channel{System: "Test", Name: "Pong"}, func(context.Context, any) error { return nil }),
	)
	assert.Len(t, bus.Channels(), 2)
	d.Dispose()
	assert.Empty(t, bus.Channels())
	assert.Empty(t, d)
}

func TestChannelsAreSorted(t *testing.T) {
	bus := NewBus(nil)
	noop := func(context.Context, any) error { return nil }
	bus.Subscribe(Channel{System: "Time", Name: "TurnEnded"}, noop)
	bus.Subscribe(Channel{System: "Action", Name: "Moved"}, noop)
	bus.Subscribe(Channel{System: "Action", Name: "CanAct"}, noop)

	assert.Equal(t, []Channel{
		{System: "Action", Name: "CanAct"},
		{System: "Action", Name: "Moved"},
		{System: "Time", Name: "TurnEnded"},
	}, bus.Channels())
}
