package system

import (
	"errors"
	"fmt"
	"sort"

	"github.com/deepdelve/roguecore/internal/core/event"
)

var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrDuplicateDatum = errors.New("duplicate datum")
)

// Router is implemented by systems that own events or requests.
type Router interface {
	Routes() []event.Route
}

// DataOwner is implemented by systems that own global named values.
type DataOwner interface {
	Data() []string
}

type responder interface {
	ResponseRoute() event.Route
}

// RouteTable maps channel identities to the routes declared by systems.
// It is built once at startup and read-only afterwards.
type RouteTable struct {
	routes map[event.Channel]event.Route
}

// BuildRoutes collects the routes of every Router among systems, adding the
// response hook of each request. Non-routers are skipped.
func BuildRoutes(systems ...any) (RouteTable, error) {
	t := RouteTable{routes: make(map[event.Channel]event.Route)}
	add := func(r event.Route) error {
		ch := r.Channel()
		if _, dup := t.routes[ch]; dup {
			return fmt.Errorf("build routes: %w: %s", ErrDuplicateRoute, ch)
		}
		t.routes[ch] = r
		return nil
	}
	for _, s := range systems {
		router, ok := s.(Router)
		if !ok {
			continue
		}
		for _, r := range router.Routes() {
			if err := add(r); err != nil {
				return RouteTable{}, err
			}
			if rr, ok := r.(responder); ok {
				if err := add(rr.ResponseRoute()); err != nil {
					return RouteTable{}, err
				}
			}
		}
	}
	return t, nil
}

func (t RouteTable) Lookup(ch event.Channel) (event.Route, bool) {
	r, ok := t.routes[ch]
	return r, ok
}

func (t RouteTable) LookupName(system, name string) (event.Route, bool) {
	return t.Lookup(event.Channel{System: system, Name: name})
}

func (t RouteTable) Len() int { return len(t.routes) }

// Channels lists every routed channel, sorted.
func (t RouteTable) Channels() []event.Channel {
	out := make([]event.Channel, 0, len(t.routes))
	for ch := range t.routes {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// DataTable maps datum names to the name of the owning system.
type DataTable struct {
	owners map[string]string
}

func BuildDataRoutes(systems ...any) (DataTable, error) {
	t := DataTable{owners: make(map[string]string)}
	for _, s := range systems {
		owner, ok := s.(DataOwner)
		if !ok {
			continue
		}
		name := fmt.Sprintf("%T", s)
		if src, ok := s.(event.Source); ok {
			name = src.Name()
		}
		for _, d := range owner.Data() {
			if prev, dup := t.owners[d]; dup {
				return DataTable{}, fmt.Errorf("build data routes: %w: %q owned by %s and %s", ErrDuplicateDatum, d, prev, name)
			}
			t.owners[d] = name
		}
	}
	return t, nil
}

func (t DataTable) Owner(datum string) (string, bool) {
	o, ok := t.owners[datum]
	return o, ok
}

func (t DataTable) Len() int { return len(t.owners) }

func (t DataTable) Names() []string {
	out := make([]string, 0, len(t.owners))
	for d := range t.owners {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
