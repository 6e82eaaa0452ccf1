// Package app is the composition root: it builds every system from config
// and hands back a runnable Game.
package app

import (
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/component"
	"github.com/deepdelve/roguecore/internal/config"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/core/turn"
	"github.com/deepdelve/roguecore/internal/data"
	"github.com/deepdelve/roguecore/internal/datum"
	"github.com/deepdelve/roguecore/internal/entity"
	"github.com/deepdelve/roguecore/internal/rng"
	"github.com/deepdelve/roguecore/internal/scripting"
	"github.com/deepdelve/roguecore/internal/system"
	"github.com/deepdelve/roguecore/internal/world"
)

// ProviderSet builds a Game from a *config.Config and a *zap.Logger.
var ProviderSet = wire.NewSet(
	ProvideBus,
	ecs.NewWorld,
	world.NewGrid,
	component.Register,
	entity.NewProxies,
	ProvideRand,
	ProvideScheduler,
	ProvideBlueprints,
	system.DefaultBrains,
	datum.NewRegistry,
	ProvideEntitySystem,
	ProvideActionSystem,
	ProvideTimeSystem,
	ProvideEffectSystem,
	system.NewDataSystem,
	system.NewCleanupSystem,
	system.NewDeathSystem,
	ProvideRoutes,
	ProvideDataRoutes,
	ProvideScripts,
	ProvideRunner,
	wire.Struct(new(Game), "*"),
)

func ProvideBus(log *zap.Logger) *event.Bus {
	return event.NewBus(log)
}

// ProvideRand seeds the root stream. A zero seed is taken from the clock
// and logged so a run can be replayed.
func ProvideRand(cfg *config.Config, log *zap.Logger) rng.Source {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Info("random seed", zap.Uint64("seed", seed))
	return rng.New(seed)
}

func ProvideScheduler(cfg *config.Config) *turn.Scheduler {
	return turn.New(turn.WithMinimumCost(cfg.Simulation.MinimumCost))
}

func ProvideBlueprints(cfg *config.Config) (*data.BlueprintTable, error) {
	return data.LoadBlueprintTable(cfg.Data.Blueprints)
}

func ProvideEntitySystem(bus *event.Bus, log *zap.Logger, w *ecs.World, k *component.Kinds, g *world.Grid, bp *data.BlueprintTable, r rng.Source) *system.EntitySystem {
	return system.NewEntitySystem(bus, log, w, k, g, bp, r.Derive("spawn"))
}

func ProvideActionSystem(bus *event.Bus, log *zap.Logger, w *ecs.World, k *component.Kinds, g *world.Grid, p *entity.Proxies, r rng.Source, brains map[string]system.Brain) *system.ActionSystem {
	return system.NewActionSystem(bus, log, w, k, g, p, r.Derive("brain"), brains)
}

func ProvideTimeSystem(cfg *config.Config, bus *event.Bus, log *zap.Logger, w *ecs.World, p *entity.Proxies, sched *turn.Scheduler, actions *system.ActionSystem, entities *system.EntitySystem) *system.TimeSystem {
	return system.NewTimeSystem(bus, log, w, p, sched, actions, entities, cfg.Simulation.MaxStepsPerTick)
}

func ProvideEffectSystem(bus *event.Bus, log *zap.Logger, w *ecs.World, k *component.Kinds, bp *data.BlueprintTable, r rng.Source, ts *system.TimeSystem, entities *system.EntitySystem) *system.EffectSystem {
	return system.NewEffectSystem(bus, log, w, k, bp, r.Derive("effect"), ts, entities)
}

func ProvideRoutes(es *system.EntitySystem, as *system.ActionSystem, ts *system.TimeSystem, fs *system.EffectSystem, ds *system.DataSystem, dt *system.DeathSystem) (coresys.RouteTable, error) {
	return coresys.BuildRoutes(es, as, ts, fs, ds, dt)
}

func ProvideDataRoutes(es *system.EntitySystem, as *system.ActionSystem, ts *system.TimeSystem, fs *system.EffectSystem, ds *system.DataSystem) (coresys.DataTable, error) {
	return coresys.BuildDataRoutes(es, as, ts, fs, ds)
}

// ProvideScripts returns a nil engine when scripting is disabled.
func ProvideScripts(cfg *config.Config, routes coresys.RouteTable, reg *datum.Registry, log *zap.Logger) (*scripting.Engine, func(), error) {
	if !cfg.Scripting.Enabled {
		return nil, func() {}, nil
	}
	e, err := scripting.NewEngine(cfg.Scripting.Dir, routes, reg, log)
	if err != nil {
		return nil, nil, err
	}
	return e, e.Close, nil
}

// ProvideRunner registers the ticking systems. Registration order is the
// order within a phase.
func ProvideRunner(ts *system.TimeSystem, ds *system.DeathSystem, cs *system.CleanupSystem) *coresys.Runner {
	r := coresys.NewRunner()
	r.Register(ts)
	r.Register(ds)
	r.Register(cs)
	return r
}
