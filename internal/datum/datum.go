// Package datum holds the global named values of a running game (turn
// counter, dungeon depth) and reports their changes.
package datum

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknown   = errors.New("unknown datum")
	ErrDuplicate = errors.New("datum already defined")
)

// Change is reported once per effective Set.
type Change struct {
	Name string
	Old  int64
	New  int64
}

func (c Change) Fields() map[string]any {
	return map[string]any{"name": c.Name, "old": c.Old, "new": c.New}
}

type Registry struct {
	values   map[string]int64
	watchers []func(Change)
}

func NewRegistry() *Registry {
	return &Registry{values: make(map[string]int64)}
}

func (r *Registry) Define(name string, initial int64) error {
	if _, ok := r.values[name]; ok {
		return fmt.Errorf("define %q: %w", name, ErrDuplicate)
	}
	r.values[name] = initial
	return nil
}

// Set stores v. Writing the current value again reports nothing.
func (r *Registry) Set(name string, v int64) error {
	old, ok := r.values[name]
	if !ok {
		return fmt.Errorf("set %q: %w", name, ErrUnknown)
	}
	if old == v {
		return nil
	}
	r.values[name] = v
	c := Change{Name: name, Old: old, New: v}
	for _, w := range r.watchers {
		w(c)
	}
	return nil
}

// Add is Set(name, Get(name)+delta).
func (r *Registry) Add(name string, delta int64) error {
	old, ok := r.values[name]
	if !ok {
		return fmt.Errorf("add %q: %w", name, ErrUnknown)
	}
	return r.Set(name, old+delta)
}

func (r *Registry) Get(name string) (int64, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.values))
	for n := range r.values {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// OnChange registers fn for every future change.
func (r *Registry) OnChange(fn func(Change)) {
	r.watchers = append(r.watchers, fn)
}
