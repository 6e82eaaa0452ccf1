package ecs

import "fmt"

// Registry tracks all component stores, their dependency lists, and supports
// bulk cleanup on entity destroy.
type Registry struct {
	stores []storage
	deps   [][]ComponentType
	byName map[string]ComponentType
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]storage, 0, 16),
		deps:   make([][]ComponentType, 0, 16),
		byName: make(map[string]ComponentType, 16),
	}
}

// Register adds a component store to the registry and issues its type handle.
// Dependencies must already be registered.
func (r *Registry) Register(s storage, deps []ComponentType) (ComponentType, error) {
	if _, dup := r.byName[s.Name()]; dup {
		return 0, fmt.Errorf("register %q: %w", s.Name(), ErrDuplicateComponent)
	}
	for _, d := range deps {
		if int(d) >= len(r.stores) {
			return 0, fmt.Errorf("register %q: dependency %d: %w", s.Name(), d, ErrUnknownComponentType)
		}
	}
	t := ComponentType(len(r.stores))
	r.stores = append(r.stores, s)
	r.deps = append(r.deps, append([]ComponentType(nil), deps...))
	r.byName[s.Name()] = t
	return t, nil
}

// Depend adds dependencies to an already registered type. Unlike Register
// it can close a loop; the loop surfaces as ErrDependencyCycle on the next
// construction that reaches it.
func (r *Registry) Depend(t ComponentType, deps ...ComponentType) error {
	if int(t) >= len(r.stores) {
		return fmt.Errorf("depend %d: %w", t, ErrUnknownComponentType)
	}
	for _, d := range deps {
		if int(d) >= len(r.stores) {
			return fmt.Errorf("depend %q on %d: %w", r.stores[t].Name(), d, ErrUnknownComponentType)
		}
	}
	r.deps[t] = append(r.deps[t], deps...)
	return nil
}

// Lookup resolves a component name to its type handle.
func (r *Registry) Lookup(name string) (ComponentType, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Name returns the registered name for t, or "" when t is unknown.
func (r *Registry) Name(t ComponentType) string {
	if int(t) >= len(r.stores) {
		return ""
	}
	return r.stores[t].Name()
}

// Len returns the number of registered component types.
func (r *Registry) Len() int { return len(r.stores) }

func (r *Registry) store(t ComponentType) (storage, bool) {
	if int(t) >= len(r.stores) {
		return nil, false
	}
	return r.stores[t], true
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.detach(id)
	}
}

// resolve expands types with their transitive dependencies and returns them
// dependencies-first. Among independent types, request order is kept.
func (r *Registry) resolve(types []ComponentType) ([]ComponentType, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[ComponentType]uint8, len(types)*2)
	order := make([]ComponentType, 0, len(types)*2)

	var visit func(t ComponentType) error
	visit = func(t ComponentType) error {
		if int(t) >= len(r.stores) {
			return fmt.Errorf("component type %d: %w", t, ErrUnknownComponentType)
		}
		switch state[t] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("component %q: %w", r.stores[t].Name(), ErrDependencyCycle)
		}
		state[t] = visiting
		for _, d := range r.deps[t] {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[t] = done
		order = append(order, t)
		return nil
	}

	for _, t := range types {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return order, nil
}
