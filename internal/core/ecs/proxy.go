package ecs

// View is the raw handle every proxy wraps: an id and the world to resolve
// it against. It caches nothing; each accessor goes back to the store.
type View struct {
	world *World
	id    EntityID
}

func NewView(w *World, id EntityID) View { return View{world: w, id: id} }

func (v View) ID() EntityID   { return v.id }
func (v View) World() *World  { return v.world }
func (v View) Alive() bool    { return v.world != nil && v.world.Alive(v.id) }
func (v View) String() string { return v.id.String() }
func (v View) Is(o View) bool { return v.id == o.id && v.world == o.world }
func (v View) IsZero() bool   { return v.world == nil || v.id.IsZero() }

// Get fetches the live component of kind s for the view, or nil when the
// component (or the entity) is gone.
func Get[T any](v View, s *Store[T]) *T {
	c, _ := s.Get(v.id)
	return c
}

// ProxyDef declares a typed view kind: the component types it requires and
// how to bind a P over a View. Definitions are built once at startup.
type ProxyDef[P any] struct {
	name     string
	required []ComponentType
	bind     func(View) P
}

func DefineProxy[P any](name string, bind func(View) P, required ...ComponentType) *ProxyDef[P] {
	return &ProxyDef[P]{
		name:     name,
		required: append([]ComponentType(nil), required...),
		bind:     bind,
	}
}

func (d *ProxyDef[P]) Name() string { return d.name }

// Required returns a copy of the required component list.
func (d *ProxyDef[P]) Required() []ComponentType {
	return append([]ComponentType(nil), d.required...)
}

// Satisfied reports whether id currently meets the requirement list.
func (d *ProxyDef[P]) Satisfied(w *World, id EntityID) bool {
	return w.HasAll(id, d.required)
}

// TryGet binds a P over id when every required component is present at
// call time. It never panics.
func (d *ProxyDef[P]) TryGet(w *World, id EntityID) (P, bool) {
	if !d.Satisfied(w, id) {
		var zero P
		return zero, false
	}
	return d.bind(NewView(w, id)), true
}

// TryGetProxy is the free-function form of ProxyDef.TryGet.
func TryGetProxy[P any](w *World, d *ProxyDef[P], id EntityID) (P, bool) {
	return d.TryGet(w, id)
}

// Create builds an entity carrying every component the proxy requires.
func Create[P any](w *World, d *ProxyDef[P]) (EntityID, error) {
	return w.CreateWith(d.required...)
}

// MustCreate is Create for startup paths where a failure is a programming error.
func MustCreate[P any](w *World, d *ProxyDef[P]) EntityID {
	id, err := Create(w, d)
	if err != nil {
		panic("ecs: create " + d.name + ": " + err.Error())
	}
	return id
}
