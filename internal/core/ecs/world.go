package ecs

import "fmt"

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred destruction queue flushed by CleanupSystem each tick.
//
// World is not safe for concurrent use; it belongs to the game loop goroutine.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID

	nextComponent ComponentID
	iterating     int
	pending       []func()

	onDestroyed []func(EntityID)
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Registry() *Registry { return w.registry }

// Depend adds dependency edges between registered component types.
func (w *World) Depend(t ComponentType, deps ...ComponentType) error {
	return w.registry.Depend(t, deps...)
}

// OnDestroyed registers fn to run after an entity's components are gone.
func (w *World) OnDestroyed(fn func(EntityID)) {
	w.onDestroyed = append(w.onDestroyed, fn)
}

// CreateEntity allocates a bare id with no components.
func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

// CreateWith allocates an id and instantiates every listed component type
// plus their dependencies, dependencies first. Every instance is built
// before the id is issued, so a failure leaves nothing behind.
func (w *World) CreateWith(types ...ComponentType) (EntityID, error) {
	order, err := w.registry.resolve(types)
	if err != nil {
		return 0, fmt.Errorf("create entity: %w", err)
	}
	instances := make([]any, len(order))
	for i, t := range order {
		s, _ := w.registry.store(t)
		c, err := s.instantiate()
		if err != nil {
			return 0, fmt.Errorf("create entity: %w", err)
		}
		instances[i] = c
	}

	id := w.pool.Create()
	w.mutate(func() {
		for i, t := range order {
			s, _ := w.registry.store(t)
			// instantiate and attach share the store's own type, so this cannot fail.
			_ = s.attach(id, instances[i])
		}
	})
	return id, nil
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.pool.Len() }

// Has reports whether id currently carries a component of type t.
func (w *World) Has(id EntityID, t ComponentType) bool {
	s, ok := w.registry.store(t)
	return ok && s.Has(id)
}

// HasAll reports whether id is alive and carries every listed type.
func (w *World) HasAll(id EntityID, types []ComponentType) bool {
	if !w.pool.Alive(id) {
		return false
	}
	for _, t := range types {
		if !w.Has(id, t) {
			return false
		}
	}
	return true
}

// AddComponent attaches c under type t. Used by data-driven construction
// where the caller holds a type handle rather than a typed store.
func (w *World) AddComponent(id EntityID, t ComponentType, c any) error {
	s, ok := w.registry.store(t)
	if !ok {
		return fmt.Errorf("add component %d: %w", t, ErrUnknownComponentType)
	}
	if !w.pool.Alive(id) {
		return fmt.Errorf("add %s to %s: %w", s.Name(), id, ErrEntityNotAlive)
	}
	if err := s.check(c); err != nil {
		return fmt.Errorf("add component: %w", err)
	}
	w.mutate(func() {
		// Checked above; a failure here means the store changed under us.
		if err := s.attach(id, c); err != nil {
			panic(err)
		}
	})
	return nil
}

// RemoveComponent detaches the component of type t from id.
func (w *World) RemoveComponent(id EntityID, t ComponentType) {
	s, ok := w.registry.store(t)
	if !ok {
		return
	}
	w.mutate(func() { s.detach(id) })
}

// Destroy removes every component of id and retires the id. Outstanding
// views of it resolve nothing from then on.
func (w *World) Destroy(id EntityID) {
	w.mutate(func() {
		if !w.pool.Alive(id) {
			return
		}
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		for _, fn := range w.onDestroyed {
			fn(id)
		}
	})
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Called by CleanupSystem at the end of each tick. Entities queued by
// destroy observers wait for the next flush. Returns the number flushed.
func (w *World) FlushDestroyQueue() int {
	queue := w.destroyQueue
	w.destroyQueue = make([]EntityID, 0, cap(queue))
	for _, id := range queue {
		w.Destroy(id)
	}
	return len(queue)
}

func (w *World) nextComponentID() ComponentID {
	w.nextComponent++
	return w.nextComponent
}

// Defer runs op now, or after every mutation already buffered when an
// enumeration is running. Callers use it to finish an entity CreateWith
// has not attached yet.
func (w *World) Defer(op func()) {
	w.mutate(op)
}

// mutate applies op now, or buffers it while any enumeration is running.
func (w *World) mutate(op func()) {
	if w.iterating > 0 {
		w.pending = append(w.pending, op)
		return
	}
	op()
}

func (w *World) beginIter() { w.iterating++ }

func (w *World) endIter() {
	w.iterating--
	if w.iterating > 0 {
		return
	}
	// Ops may enqueue more ops through observers; drain until quiet.
	for len(w.pending) > 0 {
		ops := w.pending
		w.pending = nil
		for _, op := range ops {
			op()
		}
	}
}
