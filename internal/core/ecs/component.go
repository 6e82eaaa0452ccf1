package ecs

import "fmt"

// ComponentID identifies one component instance. IDs are issued by the World
// in attach order and never reused.
type ComponentID uint64

// ComponentType is the handle a component kind receives when it is
// registered with a World.
type ComponentType uint16

// Meta is embedded in every component struct. Entity is a back-reference
// for lookups only; the store owns the instance.
type Meta struct {
	ID     ComponentID
	Entity EntityID
}

func (m *Meta) ComponentMeta() *Meta { return m }

// Component is satisfied by any pointer to a struct embedding Meta.
type Component interface {
	ComponentMeta() *Meta
}

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// storage is the type-erased face of Store[T] used by the World for
// blueprint construction and bulk cleanup.
type storage interface {
	Removable
	Type() ComponentType
	Name() string
	Has(id EntityID) bool
	Len() int
	instantiate() (any, error)
	check(c any) error
	attach(id EntityID, c any) error
	detach(id EntityID)
}

type entry[T any] struct {
	id EntityID
	c  *T
}

// Store is a generic typed store for one component kind. Instances are kept
// in insertion order; removals leave tombstones that are compacted once no
// enumeration is running.
// No reflect on the hot path — pure generics.
type Store[T any] struct {
	world   *World
	typ     ComponentType
	name    string
	factory func() *T
	meta    func(*T) *Meta

	index map[EntityID]int
	dense []entry[T]
	holes int
}

// Register adds a component kind to the world and returns its store.
// factory may be nil for kinds that are only ever attached explicitly; such
// kinds cannot appear in a required-component list.
// deps are instantiated before this kind whenever it is required.
// Registration is a startup step; it panics on a duplicate name.
func Register[T any, PT interface {
	*T
	Component
}](w *World, name string, factory func() *T, deps ...ComponentType) *Store[T] {
	s := &Store[T]{
		world:   w,
		name:    name,
		factory: factory,
		meta:    func(c *T) *Meta { return PT(c).ComponentMeta() },
		index:   make(map[EntityID]int, 256),
		dense:   make([]entry[T], 0, 256),
	}
	typ, err := w.registry.Register(s, deps)
	if err != nil {
		panic(err)
	}
	s.typ = typ
	return s
}

func (s *Store[T]) Type() ComponentType { return s.typ }
func (s *Store[T]) Name() string        { return s.name }

// Get returns the live instance for id, if any.
func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.dense[i].c, true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of live instances.
func (s *Store[T]) Len() int {
	return len(s.index)
}

// Add attaches c to id, replacing any existing instance in place. While an
// enumeration is running the attach is deferred until it completes.
func (s *Store[T]) Add(id EntityID, c *T) error {
	if c == nil {
		return fmt.Errorf("add %s: %w", s.name, ErrNotConstructible)
	}
	if !s.world.Alive(id) {
		return fmt.Errorf("add %s to %s: %w", s.name, id, ErrEntityNotAlive)
	}
	s.world.mutate(func() { s.put(id, c) })
	return nil
}

// Remove detaches the instance for id. Deferred while enumerating.
func (s *Store[T]) Remove(id EntityID) {
	s.world.mutate(func() { s.detach(id) })
}

// All returns an insertion-ordered snapshot of every live instance.
func (s *Store[T]) All() []*T {
	out := make([]*T, 0, len(s.index))
	for _, e := range s.dense {
		if e.c != nil {
			out = append(out, e.c)
		}
	}
	return out
}

// Each calls fn for every live instance in insertion order. Structural
// changes requested from fn are applied after the outermost enumeration.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	s.world.beginIter()
	defer s.world.endIter()
	for i := 0; i < len(s.dense); i++ {
		e := s.dense[i]
		if e.c == nil {
			continue
		}
		fn(e.id, e.c)
	}
}

func (s *Store[T]) put(id EntityID, c *T) {
	if !s.world.Alive(id) {
		return
	}
	m := s.meta(c)
	m.Entity = id
	if m.ID == 0 {
		m.ID = s.world.nextComponentID()
	}
	if i, ok := s.index[id]; ok {
		s.dense[i].c = c
		return
	}
	s.index[id] = len(s.dense)
	s.dense = append(s.dense, entry[T]{id: id, c: c})
}

func (s *Store[T]) detach(id EntityID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	s.dense[i] = entry[T]{}
	s.holes++
	s.compact()
}

// compact drops tombstones once they dominate the slice.
func (s *Store[T]) compact() {
	if s.world.iterating > 0 || s.holes < 32 || s.holes*2 < len(s.dense) {
		return
	}
	live := s.dense[:0]
	for _, e := range s.dense {
		if e.c == nil {
			continue
		}
		s.index[e.id] = len(live)
		live = append(live, e)
	}
	clear(s.dense[len(live):])
	s.dense = live
	s.holes = 0
}

func (s *Store[T]) instantiate() (any, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("%s has no factory: %w", s.name, ErrNotConstructible)
	}
	c := s.factory()
	if c == nil {
		return nil, fmt.Errorf("%s factory returned nil: %w", s.name, ErrNotConstructible)
	}
	return c, nil
}

// check reports whether c can be stored here.
func (s *Store[T]) check(c any) error {
	if tc, ok := c.(*T); !ok || tc == nil {
		return fmt.Errorf("attach %s: got %T: %w", s.name, c, ErrNotConstructible)
	}
	return nil
}

func (s *Store[T]) attach(id EntityID, c any) error {
	if err := s.check(c); err != nil {
		return err
	}
	tc := c.(*T)
	s.put(id, tc)
	return nil
}
