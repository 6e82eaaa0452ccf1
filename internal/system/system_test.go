package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/core/turn"
	"github.com/deepdelve/roguecore/internal/data"
	"github.com/deepdelve/roguecore/internal/datum"
	"github.com/deepdelve/roguecore/internal/effect"
	"github.com/deepdelve/roguecore/internal/entity"
	"github.com/deepdelve/roguecore/internal/rng"
	"github.com/deepdelve/roguecore/internal/world"
)

const testBlueprints = `
blueprints:
  - id: hero
    name: Hero
    components: [identity, render, actor, health]
    glyph: "@"
    blocking: true
    speed: 100
    player: true
    hp: 30
  - id: rat
    name: Rat
    components: [identity, actor, health]
    blocking: true
    speed: 50
    brain: wait
    hp: 4
    effects:
      - kind: haste
        amount: 100
        turns: 2
        non_stacking: true
  - id: rock
    components: [physics]
    blocking: true
  - id: potion
    name: Potion
    components: [identity, physics, item]
  - id: ghost
    components: [ectoplasm]
`

type harness struct {
	logs     *observer.ObservedLogs
	bus      *event.Bus
	world    *ecs.World
	kinds    *component.Kinds
	grid     *world.Grid
	proxies  *entity.Proxies
	entities *EntitySystem
	actions  *ActionSystem
	time     *TimeSystem
	effects  *EffectSystem
	data     *DataSystem
	death    *DeathSystem
	cleanup  *CleanupSystem
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	bp, err := data.ParseBlueprintTable([]byte(testBlueprints))
	require.NoError(t, err)

	h := &harness{logs: logs, bus: event.NewBus(log), world: ecs.NewWorld()}
	h.kinds = component.Register(h.world)
	h.proxies = entity.NewProxies(h.kinds)
	r := rng.New(1)
	h.grid = world.NewGrid()
	h.entities = NewEntitySystem(h.bus, log, h.world, h.kinds, h.grid, bp, r)
	h.actions = NewActionSystem(h.bus, log, h.world, h.kinds, h.grid, h.proxies, r, DefaultBrains())
	h.time = NewTimeSystem(h.bus, log, h.world, h.proxies, turn.New(), h.actions, h.entities, 16)
	h.effects = NewEffectSystem(h.bus, log, h.world, h.kinds, bp, r, h.time, h.entities)
	h.data, err = NewDataSystem(h.bus, log, datum.NewRegistry(), h.time)
	require.NoError(t, err)
	h.death = NewDeathSystem(h.bus, log, h.kinds, h.entities)
	h.cleanup = NewCleanupSystem(h.world, log)
	return h
}

func (h *harness) spawn(t *testing.T, bp string, x, y int) ecs.EntityID {
	t.Helper()
	id, err := h.entities.Spawn(bp, x, y)
	require.NoError(t, err)
	return id
}

func (h *harness) pos(id ecs.EntityID) (int, int) {
	p, _ := h.kinds.Physics.Get(id)
	return p.X, p.Y
}

func TestSpawnConfiguresFromBlueprint(t *testing.T) {
	h := newHarness(t)
	var created []Created
	h.entities.Created.Subscribe(func(c Created) { created = append(created, c) })

	hero := h.spawn(t, "hero", 3, 4)
	a, ok := h.proxies.Actor.TryGet(h.world, hero)
	require.True(t, ok)
	assert.Equal(t, "Hero", a.Name())
	assert.Equal(t, component.ControlPlayer, a.Actor().Controller)
	assert.Equal(t, 30, a.Health().HP)
	assert.True(t, a.Physics().Blocking)

	d, ok := h.proxies.Drawable.TryGet(h.world, hero)
	require.True(t, ok)
	assert.Equal(t, '@', d.Render().Glyph)
	assert.Equal(t, []Created{{Entity: hero, Blueprint: "hero"}}, created)

	_, ok = h.time.Scheduler().Get(hero)
	assert.True(t, ok, "new actors are scheduled")

	potion := h.spawn(t, "potion", 0, 0)
	_, ok = h.time.Scheduler().Get(potion)
	assert.False(t, ok)
}

func TestSpawnDuringEnumerationConfiguresAfterIt(t *testing.T) {
	h := newHarness(t)
	first := h.spawn(t, "rat", 0, 0)
	var created []Created
	h.entities.Created.Subscribe(func(c Created) { created = append(created, c) })

	var second ecs.EntityID
	h.kinds.Actor.Each(func(id ecs.EntityID, _ *component.Actor) {
		if id != first {
			return
		}
		second = h.spawn(t, "rat", 7, 9)
		assert.Empty(t, created, "announced once the enumeration ends")
	})

	assert.Equal(t, []Created{{Entity: second, Blueprint: "rat"}}, created)
	x, y := h.pos(second)
	assert.Equal(t, [2]int{7, 9}, [2]int{x, y})
	assert.Equal(t, []ecs.EntityID{second}, h.grid.At(7, 9))
	a, ok := h.proxies.Actor.TryGet(h.world, second)
	require.True(t, ok)
	assert.Equal(t, 50, a.Actor().Speed)
	_, ok = h.time.Scheduler().Get(second)
	assert.True(t, ok, "scheduled like any other spawn")
}

func TestSpawnErrors(t *testing.T) {
	h := newHarness(t)
	_, err := h.entities.Spawn("dragon", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownBlueprint)

	_, err = h.entities.Spawn("ghost", 0, 0)
	assert.ErrorIs(t, err, ecs.ErrUnknownComponentType)
	assert.Equal(t, 0, h.world.Len())

	ids, err := h.entities.SpawnList([]data.SpawnEntry{
		{Blueprint: "rock", X: 5, Y: 5, Count: 3, RandomX: 1, RandomY: 1},
		{Blueprint: "dragon", Count: 1},
	})
	assert.ErrorIs(t, err, ErrUnknownBlueprint)
	require.Len(t, ids, 3)
	for _, id := range ids {
		x, y := h.pos(id)
		assert.InDelta(t, 5, x, 1)
		assert.InDelta(t, 5, y, 1)
	}
}

func TestPlayerWaitsThenActs(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 1, 1)

	var waits []WaitingForInput
	var turns []TurnEnded
	var moves []Moved
	h.time.WaitingForInput.Subscribe(func(w WaitingForInput) { waits = append(waits, w) })
	h.time.TurnEnded.Subscribe(func(te TurnEnded) { turns = append(turns, te) })
	h.actions.Moved.Subscribe(func(m Moved) { moves = append(moves, m) })

	ctx := context.Background()
	n, err := h.time.Advance(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, err = h.time.Advance(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, waits, 1, "waiting is announced once per stall")

	require.NoError(t, h.actions.Queue(hero, Move{DX: 1}))
	n, err = h.time.Advance(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	x, y := h.pos(hero)
	assert.Equal(t, [2]int{2, 1}, [2]int{x, y})
	assert.Equal(t, []Moved{{Actor: hero, FromX: 1, FromY: 1, ToX: 2, ToY: 1}}, moves)
	assert.Equal(t, []ecs.EntityID{hero}, h.grid.At(2, 1), "the index follows moves")
	assert.Equal(t, []TurnEnded{{Actor: hero, Cost: 100, Time: 100, Now: 0}}, turns)
	assert.Len(t, waits, 2)
	assert.Empty(t, h.kinds.Actor.All()[0].Intents)
}

func TestBlockedMoveCostsMinimum(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 1, 1)
	h.spawn(t, "rock", 2, 1)

	var performed []Performed
	h.actions.Performed.Subscribe(func(p Performed) { performed = append(performed, p) })

	require.NoError(t, h.actions.Queue(hero, Move{DX: 1}))
	_, err := h.time.Advance(context.Background(), 1)
	require.NoError(t, err)

	x, _ := h.pos(hero)
	assert.Equal(t, 1, x)
	assert.Equal(t, []ecs.EntityID{hero}, h.grid.At(1, 1))
	require.Len(t, performed, 1)
	assert.True(t, performed[0].Blocked)
	at, _ := h.time.Scheduler().Get(hero)
	assert.Equal(t, int64(turn.DefaultMinimumCost), at.Time)
}

func TestCanActVetoIsANoOp(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 1, 1)
	h.actions.CanAct.Subscribe(func(_ context.Context, c CanAct) event.EventResult {
		if _, ok := c.Action.(Move); ok {
			return event.Rejected
		}
		return event.NoResponse
	})

	var performed []Performed
	h.actions.Performed.Subscribe(func(p Performed) { performed = append(performed, p) })

	require.NoError(t, h.actions.Queue(hero, Move{DY: 1}))
	require.NoError(t, h.actions.Queue(hero, Wait{}))
	n, err := h.time.Advance(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, y := h.pos(hero)
	assert.Equal(t, 1, y)
	require.Len(t, performed, 2)
	assert.True(t, performed[0].Vetoed)
	assert.Equal(t, Performed{Actor: hero, Action: "wait", Cost: 100}, performed[1])
}

func TestCanActResponderDestroysActor(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 1, 1)
	require.NoError(t, h.actions.Queue(hero, Move{DX: 1}))

	var performed []Performed
	h.actions.Performed.Subscribe(func(p Performed) { performed = append(performed, p) })
	h.actions.CanAct.Subscribe(func(_ context.Context, c CanAct) event.EventResult {
		h.world.Destroy(c.Actor)
		return event.Approved
	})

	_, err := h.time.Advance(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, h.world.Alive(hero))
	require.Len(t, performed, 1)
	assert.True(t, performed[0].Vetoed)
	assert.Equal(t, 0, h.time.Scheduler().Len())
	assert.Empty(t, h.grid.At(2, 1))
}

func TestCanActResponderStripsPhysics(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 1, 1)
	require.NoError(t, h.actions.Queue(hero, Wait{}))

	var performed []Performed
	h.actions.Performed.Subscribe(func(p Performed) { performed = append(performed, p) })
	h.actions.CanAct.Subscribe(func(_ context.Context, c CanAct) event.EventResult {
		h.kinds.Physics.Remove(c.Actor)
		return event.Approved
	})

	_, err := h.time.Advance(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, performed, 1)
	assert.True(t, performed[0].Vetoed)
	at, ok := h.time.Scheduler().Get(hero)
	require.True(t, ok)
	assert.Equal(t, int64(turn.DefaultMinimumCost), at.Time)
}

func TestCancelDuringTurnEndStopsBatch(t *testing.T) {
	h := newHarness(t)
	h.spawn(t, "rat", 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.time.TurnEnded.Subscribe(func(TurnEnded) { cancel() }, event.WithPriority(100))
	late := 0
	h.time.TurnEnded.Subscribe(func(TurnEnded) { late++ })

	acted, err := h.time.Advance(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, acted)
	assert.Zero(t, late, "no subscriber starts after cancellation")
}

func TestStepFailureIsLoggedAndRetried(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 0, 0)
	require.NoError(t, h.actions.Queue(hero, dance{}))

	h.time.Update(0)
	h.time.Update(0)
	assert.Equal(t, 2, h.logs.FilterMessage("scheduling step failed").Len())
	at, _ := h.time.Scheduler().Get(hero)
	assert.Equal(t, int64(0), at.Time, "failed steps leave the turn order alone")

	a, _ := h.kinds.Actor.Get(hero)
	a.Intents = nil
	require.NoError(t, h.actions.Queue(hero, Wait{}))
	h.time.Update(0)
	at, _ = h.time.Scheduler().Get(hero)
	assert.Equal(t, int64(100), at.Time)
}

type dance struct{}

func (dance) ActionName() string { return "dance" }

func TestBlueprintEffectsRunAndExpire(t *testing.T) {
	h := newHarness(t)
	var started, ended []EffectChanged
	h.effects.Started.Subscribe(func(c EffectChanged) { started = append(started, c) })
	h.effects.Ended.Subscribe(func(c EffectChanged) { ended = append(ended, c) })
	var changes []datum.Change
	h.data.ValueChanged.Subscribe(func(c datum.Change) { changes = append(changes, c) })

	rat := h.spawn(t, "rat", 0, 0)
	assert.Equal(t, []EffectChanged{{Owner: rat, Effect: "haste"}}, started)
	require.Len(t, h.effects.Active(rat), 1)

	var costs []int
	h.time.TurnEnded.Subscribe(func(te TurnEnded) { costs = append(costs, te.Cost) })
	_, err := h.time.Advance(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []int{25, 25, 50}, costs, "haste doubles speed for two turns")
	assert.Equal(t, []EffectChanged{{Owner: rat, Effect: "haste"}}, ended)
	assert.Empty(t, h.effects.Active(rat))

	assert.Equal(t, []datum.Change{
		{Name: DatumTurn, Old: 0, New: 25},
		{Name: DatumTurn, Old: 25, New: 50},
	}, changes)
	v, _ := h.data.Get(DatumTurn)
	assert.Equal(t, int64(50), v)
}

func TestCanApplyVetoAndNonStacking(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 0, 0)
	ctx := context.Background()

	veto := h.effects.CanApply.Subscribe(func(_ context.Context, c CanApply) event.EventResult {
		return event.FromBool(c.Effect != "poison")
	})
	ok, err := h.effects.Apply(ctx, hero, effect.NewPoison(2))
	require.NoError(t, err)
	assert.False(t, ok)
	veto.Dispose()

	first, err := Build(data.EffectSpec{Kind: "haste", Amount: 10, NonStacking: true})
	require.NoError(t, err)
	second, err := Build(data.EffectSpec{Kind: "haste", Amount: 10, NonStacking: true})
	require.NoError(t, err)

	ok, err = h.effects.Apply(ctx, hero, first)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.effects.Apply(ctx, hero, second)
	require.NoError(t, err)
	assert.False(t, ok)

	a, _ := h.kinds.Actor.Get(hero)
	assert.Equal(t, 110, a.SpeedPercent)

	_, err = Build(data.EffectSpec{Kind: "levitate"})
	assert.ErrorIs(t, err, ErrUnknownEffect)
}

func TestDestroyEndsEverything(t *testing.T) {
	h := newHarness(t)
	rat := h.spawn(t, "rat", 0, 0)

	var destroyed []Destroyed
	var ended []EffectChanged
	h.entities.Destroyed.Subscribe(func(d Destroyed) { destroyed = append(destroyed, d) })
	h.effects.Ended.Subscribe(func(c EffectChanged) { ended = append(ended, c) })

	h.entities.Destroy(rat)
	assert.True(t, h.world.Alive(rat), "destruction waits for cleanup")
	assert.Equal(t, []ecs.EntityID{rat}, h.grid.At(0, 0))

	h.cleanup.Update(0)
	assert.False(t, h.world.Alive(rat))
	assert.Equal(t, []Destroyed{{Entity: rat}}, destroyed)
	assert.Len(t, ended, 1)
	assert.Equal(t, 0, h.time.Scheduler().Len())
	assert.Equal(t, 1, h.cleanup.Flushed())
	assert.Empty(t, h.grid.At(0, 0))

	_, err := h.effects.Apply(context.Background(), rat, effect.NewPoison(1))
	assert.ErrorIs(t, err, ecs.ErrEntityNotAlive)
}

func TestActorsAtZeroHealthDieOnce(t *testing.T) {
	h := newHarness(t)
	rat := h.spawn(t, "rat", 0, 0)
	hero := h.spawn(t, "hero", 1, 0)

	var died []Died
	h.death.Died.Subscribe(func(d Died) { died = append(died, d) })

	hp, _ := h.kinds.Health.Get(rat)
	hp.HP = 0
	h.death.Update(0)
	h.death.Update(0)
	assert.Equal(t, []Died{{Entity: rat}}, died)
	assert.True(t, h.world.Alive(rat), "removed at cleanup")

	h.cleanup.Update(0)
	assert.False(t, h.world.Alive(rat))
	assert.True(t, h.world.Alive(hero))
	_, ok := h.time.Scheduler().Get(rat)
	assert.False(t, ok)
}

func TestSelectActorRequiresApproval(t *testing.T) {
	h := newHarness(t)
	hero := h.spawn(t, "hero", 0, 0)
	rat := h.spawn(t, "rat", 1, 0)
	potion := h.spawn(t, "potion", 2, 0)
	ctx := context.Background()

	var changes []SelectionChanged
	h.actions.SelectionChanged.Subscribe(func(c SelectionChanged) { changes = append(changes, c) })

	require.NoError(t, h.actions.Select(ctx, hero))
	assert.Equal(t, hero, h.actions.Selected())

	assert.ErrorIs(t, h.actions.Select(ctx, potion), event.ErrRejected)
	assert.Equal(t, hero, h.actions.Selected())

	h.actions.SelectActor.Subscribe(func(_ context.Context, s SelectActor) event.EventResult {
		return event.FromBool(s.Actor != rat)
	})
	err := h.actions.Select(ctx, rat)
	var rerr *event.RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, event.Rejected, rerr.Result)

	assert.Equal(t, []SelectionChanged{{Previous: 0, Current: hero}}, changes)
}

func TestQueueRequiresActor(t *testing.T) {
	h := newHarness(t)
	potion := h.spawn(t, "potion", 0, 0)
	assert.ErrorIs(t, h.actions.Queue(potion, Wait{}), ErrNotActor)
}

func TestRoutesAreUnique(t *testing.T) {
	h := newHarness(t)
	table, err := coresys.BuildRoutes(h.entities, h.actions, h.time, h.effects, h.data, h.death, h.cleanup)
	require.NoError(t, err)
	_, ok := table.LookupName("Death", "Died")
	assert.True(t, ok)
	_, ok = table.LookupName("Action", "CanAct")
	assert.True(t, ok)
	_, ok = table.LookupName("Action", "SelectActorResponse")
	assert.True(t, ok)

	dt, err := coresys.BuildDataRoutes(h.entities, h.actions, h.time, h.effects, h.data)
	require.NoError(t, err)
	owner, _ := dt.Owner(DatumDepth)
	assert.Equal(t, "Data", owner)
}
