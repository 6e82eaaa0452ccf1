package effect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	"github.com/deepdelve/roguecore/internal/rng"
)

type turnEnded struct {
	Actor ecs.EntityID
	Cost  int
}

// fakeHost tracks effects the way the effect system does, without the
// request pipeline.
type fakeHost struct {
	kinds  *component.Kinds
	rand   rng.Source
	bus    *event.Bus
	turns  event.Channel
	active map[ecs.EntityID][]Effect
}

func newFakeHost(t *testing.T, roll float64) (*fakeHost, *ecs.World) {
	t.Helper()
	w := ecs.NewWorld()
	return &fakeHost{
		kinds:  component.Register(w),
		rand:   rng.Fixed(roll),
		bus:    event.NewBus(nil),
		turns:  event.Channel{System: "Time", Name: "TurnEnded"},
		active: make(map[ecs.EntityID][]Effect),
	}, w
}

func (h *fakeHost) Kinds() *component.Kinds { return h.kinds }
func (h *fakeHost) Rand() rng.Source        { return h.rand }

func (h *fakeHost) Active(owner ecs.EntityID) []Effect { return h.active[owner] }

func (h *fakeHost) TurnEnded(fn func(ecs.EntityID, int)) *event.Subscription {
	return h.bus.Subscribe(h.turns, func(_ context.Context, p any) error {
		te := p.(turnEnded)
		fn(te.Actor, te.Cost)
		return nil
	})
}

func (h *fakeHost) endTurn(t *testing.T, id ecs.EntityID) {
	t.Helper()
	require.NoError(t, h.bus.Publish(h.turns, turnEnded{Actor: id, Cost: 100}))
}

func (h *fakeHost) apply(t *testing.T, owner ecs.EntityID, e Effect) bool {
	t.Helper()
	ok, err := e.Start(Target{Host: h, Owner: owner, Expire: func() { h.remove(owner, e) }})
	require.NoError(t, err)
	if ok {
		h.active[owner] = append(h.active[owner], e)
	}
	return ok
}

func (h *fakeHost) remove(owner ecs.EntityID, e Effect) {
	e.End()
	list := h.active[owner]
	for i, x := range list {
		if x == e {
			h.active[owner] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func spawnActor(t *testing.T, w *ecs.World, k *component.Kinds) ecs.EntityID {
	t.Helper()
	id, err := w.CreateWith(k.Actor.Type(), k.Health.Type())
	require.NoError(t, err)
	h, _ := k.Health.Get(id)
	h.HP, h.MaxHP = 20, 20
	return id
}

func TestPoisonDamagesOnOwnerTurns(t *testing.T) {
	host, w := newFakeHost(t, 0)
	a := spawnActor(t, w, host.kinds)
	b := spawnActor(t, w, host.kinds)

	p := NewPoison(3)
	require.True(t, host.apply(t, a, p))
	assert.Equal(t, Active, p.State())

	host.endTurn(t, a)
	host.endTurn(t, b)
	host.endTurn(t, a)
	ha, _ := host.kinds.Health.Get(a)
	hb, _ := host.kinds.Health.Get(b)
	assert.Equal(t, 14, ha.HP)
	assert.Equal(t, 20, hb.HP)

	p.End()
	p.End()
	assert.Equal(t, Ended, p.State())
	host.endTurn(t, a)
	assert.Equal(t, 14, ha.HP, "ended effect holds no subscription")
	assert.Equal(t, 0, host.bus.Subscribers(host.turns))

	_, err := p.Start(Target{Host: host, Owner: a})
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestTemporaryForwardsAndExpires(t *testing.T) {
	host, w := newFakeHost(t, 0)
	a := spawnActor(t, w, host.kinds)
	haste := NewHaste(100)
	tmp := NewTemporary(haste, 2)

	require.True(t, host.apply(t, a, tmp))
	assert.Equal(t, "haste", tmp.Name())
	act, _ := host.kinds.Actor.Get(a)
	assert.Equal(t, 200, act.SpeedPercent)
	assert.Equal(t, Active, haste.State(), "start is forwarded")

	host.endTurn(t, a)
	assert.Equal(t, 1, tmp.Remaining())
	assert.Equal(t, Active, tmp.State())

	host.endTurn(t, a)
	assert.Equal(t, Ended, tmp.State())
	assert.Equal(t, Ended, haste.State(), "end is forwarded")
	assert.Equal(t, 100, act.SpeedPercent)
	assert.Empty(t, host.Active(a))
}

func TestChanceRollsOnce(t *testing.T) {
	host, w := newFakeHost(t, 0.6)
	a := spawnActor(t, w, host.kinds)

	miss := NewChance(NewPoison(1), 0.5)
	assert.False(t, host.apply(t, a, miss))
	assert.Equal(t, Ended, miss.State())
	assert.Equal(t, NotStarted, miss.Inner.State(), "declined chance never starts its inner effect")

	hit := NewChance(NewPoison(1), 0.9)
	assert.True(t, host.apply(t, a, hit))
	assert.Equal(t, Active, hit.Inner.State())
	hit.End()
	assert.Equal(t, Ended, hit.Inner.State())
}

func TestNonStackingRefusesDuplicate(t *testing.T) {
	host, w := newFakeHost(t, 0)
	a := spawnActor(t, w, host.kinds)

	first := NewNonStacking(NewTemporary(NewHaste(50), 3))
	second := NewNonStacking(NewHaste(50))
	require.True(t, host.apply(t, a, first))
	assert.False(t, host.apply(t, a, second))
	assert.Equal(t, Ended, second.State())

	act, _ := host.kinds.Actor.Get(a)
	assert.Equal(t, 150, act.SpeedPercent)

	// A different key stacks.
	poison := NewNonStacking(NewPoison(1))
	assert.True(t, host.apply(t, a, poison))

	host.remove(a, first)
	third := NewNonStacking(NewHaste(50))
	assert.True(t, host.apply(t, a, third), "free again once the first ended")
	assert.Equal(t, "nonstacking(temporary[3](haste))", Describe(first))
}

func TestBaseEffectsNeedTheirComponents(t *testing.T) {
	host, w := newFakeHost(t, 0)
	bare := w.CreateEntity()

	p := NewPoison(1)
	ok, err := p.Start(Target{Host: host, Owner: bare})
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Equal(t, Ended, p.State())

	tmp := NewTemporary(NewHaste(10), 1)
	ok, err = tmp.Start(Target{Host: host, Owner: bare})
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Equal(t, Ended, tmp.State())
}
