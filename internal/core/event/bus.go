package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Channel names one stream on the bus: the owning system and the event name.
type Channel struct {
	System string
	Name   string
}

func (c Channel) String() string { return c.System + "." + c.Name }

// Handler receives a published payload. A returned error or a panic is
// reported for this handler alone; the publish carries on.
type Handler func(ctx context.Context, payload any) error

type subscribeConfig struct {
	priority int
}

// SubscribeOption tunes a subscription.
type SubscribeOption func(*subscribeConfig)

// WithPriority makes the handler run before every lower-priority handler on
// the channel. Equal priorities run in subscription order. Default is 0.
func WithPriority(p int) SubscribeOption {
	return func(c *subscribeConfig) { c.priority = p }
}

// Bus is a synchronous publish/subscribe registry. Publish runs handlers in
// the caller goroutine. The mutex only protects the handler tables so that
// handlers may subscribe or dispose while a publish is in flight; handler
// slices are copy-on-write, so an in-flight publish keeps its snapshot.
type Bus struct {
	mu       sync.Mutex
	log      *zap.Logger
	handlers map[Channel][]*Subscription
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:      log,
		handlers: make(map[Channel][]*Subscription),
	}
}

// Subscribe registers h on ch and returns its disposable handle.
func (b *Bus) Subscribe(ch Channel, h Handler, opts ...SubscribeOption) *Subscription {
	var cfg subscribeConfig
	for _, o := range opts {
		o(&cfg)
	}

	b.mu.Lock()
	s := &Subscription{
		id:       uuid.NewString(),
		ch:       ch,
		priority: cfg.priority,
		handler:  h,
		bus:      b,
		active:   true,
	}
	cur := b.handlers[ch]
	// First slot whose priority is strictly lower keeps ties in insertion order.
	at := sort.Search(len(cur), func(i int) bool { return cur[i].priority < s.priority })
	next := make([]*Subscription, 0, len(cur)+1)
	next = append(next, cur[:at]...)
	next = append(next, s)
	next = append(next, cur[at:]...)
	b.handlers[ch] = next
	b.mu.Unlock()

	b.log.Debug("event subscribe",
		zap.Stringer("channel", ch),
		zap.String("subscription", s.id),
		zap.Int("priority", s.priority),
	)
	return s
}

// Publish delivers payload to every handler subscribed to ch at the moment
// of the call.
func (b *Bus) Publish(ch Channel, payload any) error {
	return b.PublishContext(context.Background(), ch, payload)
}

// PublishContext is Publish with cooperative cancellation: once ctx is done
// no further handler is started. Handlers already run are not undone.
// The returned error joins every handler fault and the context error.
func (b *Bus) PublishContext(ctx context.Context, ch Channel, payload any) error {
	b.mu.Lock()
	subs := b.handlers[ch]
	b.mu.Unlock()

	var errs error
	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := b.invoke(ctx, s, payload); err != nil {
			b.log.Error("event handler failed",
				zap.Stringer("channel", ch),
				zap.String("subscription", s.id),
				zap.Error(err),
			)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (b *Bus) invoke(ctx context.Context, s *Subscription, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{
				Channel:      s.ch,
				Subscription: s.id,
				Err:          fmt.Errorf("%w: %v", ErrHandlerPanic, r),
			}
		}
	}()
	if herr := s.handler(ctx, payload); herr != nil {
		return &HandlerError{Channel: s.ch, Subscription: s.id, Err: herr}
	}
	return nil
}

// Subscribers returns the number of live handlers on ch.
func (b *Bus) Subscribers(ch Channel) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[ch])
}

// Channels returns every channel that currently has a handler, sorted.
func (b *Bus) Channels() []Channel {
	b.mu.Lock()
	out := make([]Channel, 0, len(b.handlers))
	for ch := range b.handlers {
		out = append(out, ch)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].System != out[j].System {
			return out[i].System < out[j].System
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (b *Bus) remove(s *Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !s.active {
		return false
	}
	s.active = false
	cur := b.handlers[s.ch]
	next := make([]*Subscription, 0, len(cur))
	for _, o := range cur {
		if o != s {
			next = append(next, o)
		}
	}
	if len(next) == 0 {
		delete(b.handlers, s.ch)
	} else {
		b.handlers[s.ch] = next
	}
	return true
}

// Subscription is the handle returned by every subscribe call.
type Subscription struct {
	id       string
	ch       Channel
	priority int
	handler  Handler
	bus      *Bus
	active   bool
}

func (s *Subscription) ID() string       { return s.id }
func (s *Subscription) Channel() Channel { return s.ch }

// Active reports whether the handler still receives publishes.
func (s *Subscription) Active() bool {
	if s == nil {
		return false
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.active
}

// Dispose unsubscribes. Safe to call repeatedly, on nil, and from inside the
// handler itself; an in-flight publish still finishes with its snapshot.
func (s *Subscription) Dispose() {
	if s == nil || s.bus == nil {
		return
	}
	if s.bus.remove(s) {
		s.bus.log.Debug("event unsubscribe",
			zap.Stringer("channel", s.ch),
			zap.String("subscription", s.id),
		)
	}
}

// Disposables collects subscriptions owned by one component so they can be
// released together.
type Disposables []*Subscription

func (d *Disposables) Add(s ...*Subscription) { *d = append(*d, s...) }

func (d *Disposables) Dispose() {
	for _, s := range *d {
		s.Dispose()
	}
	*d = nil
}
