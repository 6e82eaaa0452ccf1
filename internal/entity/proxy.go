// Package entity defines the typed views gameplay code uses over raw ids.
// One id may be viewed as several of these at once; each view only
// promises the components its kind requires.
package entity

import (
	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
)

// Entity is the base view: any live id, with an optional identity.
type Entity struct {
	ecs.View
	k *component.Kinds
}

func (e Entity) Identity() *component.Identity { return ecs.Get(e.View, e.k.Identity) }

// Name is the identity name, or the id when the entity has none.
func (e Entity) Name() string {
	if id := e.Identity(); id != nil && id.Name != "" {
		return id.Name
	}
	return e.View.String()
}

// Drawable has something to draw and somewhere to draw it.
type Drawable struct {
	Entity
}

func (d Drawable) Render() *component.Render   { return ecs.Get(d.View, d.k.Render) }
func (d Drawable) Physics() *component.Physics { return ecs.Get(d.View, d.k.Physics) }

// Actor takes turns.
type Actor struct {
	Entity
}

func (a Actor) Actor() *component.Actor     { return ecs.Get(a.View, a.k.Actor) }
func (a Actor) Physics() *component.Physics { return ecs.Get(a.View, a.k.Physics) }

// Health is nil for actors that cannot be hurt.
func (a Actor) Health() *component.Health { return ecs.Get(a.View, a.k.Health) }

// Item can be picked up and may be drawn.
type Item struct {
	Entity
}

func (i Item) Item() *component.Item       { return ecs.Get(i.View, i.k.Item) }
func (i Item) Physics() *component.Physics { return ecs.Get(i.View, i.k.Physics) }

// Proxies holds the proxy definitions of one world.
type Proxies struct {
	Entity   *ecs.ProxyDef[Entity]
	Drawable *ecs.ProxyDef[Drawable]
	Actor    *ecs.ProxyDef[Actor]
	Item     *ecs.ProxyDef[Item]
}

func NewProxies(k *component.Kinds) *Proxies {
	base := func(v ecs.View) Entity { return Entity{View: v, k: k} }
	return &Proxies{
		Entity: ecs.DefineProxy("entity", base),
		Drawable: ecs.DefineProxy("drawable", func(v ecs.View) Drawable { return Drawable{base(v)} },
			k.Render.Type(), k.Physics.Type()),
		Actor: ecs.DefineProxy("actor", func(v ecs.View) Actor { return Actor{base(v)} },
			k.Actor.Type(), k.Physics.Type()),
		Item: ecs.DefineProxy("item", func(v ecs.View) Item { return Item{base(v)} },
			k.Item.Type()),
	}
}
