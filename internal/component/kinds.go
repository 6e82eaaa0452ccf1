package component

import "github.com/deepdelve/roguecore/internal/core/ecs"

// Component names, as used in blueprints.
const (
	NameIdentity = "identity"
	NameRender   = "render"
	NamePhysics  = "physics"
	NameActor    = "actor"
	NameItem     = "item"
	NameHealth   = "health"
)

// Kinds holds the per-world store of every component kind.
type Kinds struct {
	Identity *ecs.Store[Identity]
	Render   *ecs.Store[Render]
	Physics  *ecs.Store[Physics]
	Actor    *ecs.Store[Actor]
	Item     *ecs.Store[Item]
	Health   *ecs.Store[Health]
}

// Register adds every component kind to w. Actor depends on Physics: an
// entity that takes turns always has a position.
func Register(w *ecs.World) *Kinds {
	k := &Kinds{}
	k.Identity = ecs.Register[Identity](w, NameIdentity, func() *Identity { return &Identity{} })
	k.Render = ecs.Register[Render](w, NameRender, func() *Render { return &Render{Glyph: '?'} })
	k.Physics = ecs.Register[Physics](w, NamePhysics, func() *Physics { return &Physics{} })
	k.Actor = ecs.Register[Actor](w, NameActor, func() *Actor {
		return &Actor{Speed: 100, SpeedPercent: 100}
	}, k.Physics.Type())
	k.Item = ecs.Register[Item](w, NameItem, func() *Item { return &Item{} })
	k.Health = ecs.Register[Health](w, NameHealth, func() *Health { return &Health{HP: 1, MaxHP: 1} })
	return k
}
