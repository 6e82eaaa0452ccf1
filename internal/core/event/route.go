package event

// RouteKind tells events and requests apart for external binders.
type RouteKind uint8

const (
	KindEvent RouteKind = iota
	KindRequest
)

func (k RouteKind) String() string {
	if k == KindRequest {
		return "request"
	}
	return "event"
}

// ScriptHandler is the untyped subscriber shape used by scripts. Requests
// use its result; events ignore it.
type ScriptHandler func(fields map[string]any) EventResult

// Route is the untyped face of a SystemEvent or SystemRequest, so that
// binders can subscribe by name without knowing the payload type.
type Route interface {
	Channel() Channel
	Kind() RouteKind
	SubscribeScript(fn ScriptHandler, opts ...SubscribeOption) *Subscription
}

// Fielder is implemented by payloads that expose named fields to scripts.
type Fielder interface {
	Fields() map[string]any
}

// FieldsOf returns a fresh field map for p. Payloads without Fields end up
// under the "value" key.
func FieldsOf(p any) map[string]any {
	if f, ok := p.(Fielder); ok {
		if m := f.Fields(); m != nil {
			return m
		}
		return map[string]any{}
	}
	return map[string]any{"value": p}
}
