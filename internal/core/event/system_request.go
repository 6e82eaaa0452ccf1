package event

import (
	"context"
	"fmt"
)

// Response is what a SystemRequest reports once all answers to one raise
// have been collected.
type Response[P any] struct {
	Payload P
	Result  EventResult
}

// Fields exposes the response to scripts.
func (r Response[P]) Fields() map[string]any {
	f := FieldsOf(r.Payload)
	f["result"] = r.Result.String()
	f["approved"] = r.Result.Bool()
	return f
}

type envelope[P any] struct {
	payload P
	results []EventResult
}

// SystemRequest is a typed question a system asks its collaborators. Every
// subscriber answers with an EventResult; the answers fold with All.
type SystemRequest[P any] struct {
	bus       *Bus
	ch        Channel
	responses *SystemEvent[Response[P]]
}

// NewSystemRequest declares the channel "<owner>.<name>" and its response
// hook "<owner>.<name>Response".
func NewSystemRequest[P any](owner Source, name string) *SystemRequest[P] {
	return &SystemRequest[P]{
		bus:       owner.Bus(),
		ch:        Channel{System: owner.Name(), Name: name},
		responses: NewSystemEvent[Response[P]](owner, name+"Response"),
	}
}

func (r *SystemRequest[P]) Channel() Channel { return r.ch }
func (r *SystemRequest[P]) Kind() RouteKind  { return KindRequest }

// Responses is raised after every completed Handle with the aggregate.
func (r *SystemRequest[P]) Responses() *SystemEvent[Response[P]] { return r.responses }

// Subscribe adds a responder. A responder that panics counts as Rejected.
func (r *SystemRequest[P]) Subscribe(fn func(context.Context, P) EventResult, opts ...SubscribeOption) *Subscription {
	return r.bus.Subscribe(r.ch, func(ctx context.Context, payload any) error {
		env, ok := payload.(*envelope[P])
		if !ok {
			return fmt.Errorf("%w: %T on %s", ErrPayloadType, payload, r.ch)
		}
		res := Rejected
		defer func() { env.results = append(env.results, res) }()
		res = fn(ctx, env.payload)
		return nil
	}, opts...)
}

// SubscribeScript adds a responder fed with the payload fields.
func (r *SystemRequest[P]) SubscribeScript(fn ScriptHandler, opts ...SubscribeOption) *Subscription {
	return r.Subscribe(func(_ context.Context, p P) EventResult { return fn(FieldsOf(p)) }, opts...)
}

// Handle asks every subscriber and returns the aggregate. With no
// subscriber it is NoResponse. A cancelled ctx stops the round and yields
// Rejected; the response hook is not raised for an incomplete round.
func (r *SystemRequest[P]) Handle(ctx context.Context, p P) EventResult {
	res, _ := r.dispatch(ctx, p)
	return res
}

// Require is Handle for callers that need a yes: anything other than
// Approved comes back as a *RequestError.
func (r *SystemRequest[P]) Require(ctx context.Context, p P) error {
	res, err := r.dispatch(ctx, p)
	switch {
	case err != nil:
		return &RequestError{Channel: r.ch, Result: res, Err: err}
	case res == Approved:
		return nil
	case res == NoResponse:
		return &RequestError{Channel: r.ch, Result: res, Err: ErrNoResponse}
	default:
		return &RequestError{Channel: r.ch, Result: res, Err: ErrRejected}
	}
}

func (r *SystemRequest[P]) dispatch(ctx context.Context, p P) (EventResult, error) {
	env := &envelope[P]{payload: p}
	// Handler faults are already logged by the bus and folded in as Rejected.
	_ = r.bus.PublishContext(ctx, r.ch, env)
	if err := ctx.Err(); err != nil {
		return Rejected, err
	}
	res := All(env.results...)
	r.responses.Raise(Response[P]{Payload: p, Result: res})
	return res, nil
}

// ResponseRoute exposes the response hook to route tables.
func (r *SystemRequest[P]) ResponseRoute() Route { return r.responses }
