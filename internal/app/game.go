package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/config"
	"github.com/deepdelve/roguecore/internal/core/ecs"
	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/scripting"
	"github.com/deepdelve/roguecore/internal/system"
	"github.com/deepdelve/roguecore/internal/world"
)

// Game is a fully wired simulation.
type Game struct {
	Config *config.Config
	Log    *zap.Logger
	Bus    *event.Bus
	World  *ecs.World
	Grid   *world.Grid
	Runner *coresys.Runner
	Routes coresys.RouteTable
	Owners coresys.DataTable

	Entities *system.EntitySystem
	Actions  *system.ActionSystem
	Time     *system.TimeSystem
	Effects  *system.EffectSystem
	Data     *system.DataSystem
	Death    *system.DeathSystem
	Cleanup  *system.CleanupSystem
	Scripts  *scripting.Engine // nil when scripting is disabled
}

// Run ticks the runner at the configured rate until ctx is done.
func (g *Game) Run(ctx context.Context) error {
	rate := g.Config.Simulation.TickRate
	g.Time.Bind(ctx)
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	scripts := 0
	if g.Scripts != nil {
		scripts = g.Scripts.Subscriptions()
	}
	g.Log.Info("game loop started",
		zap.Duration("tick", rate),
		zap.Int("routes", g.Routes.Len()),
		zap.Int("subscribed", len(g.Bus.Channels())),
		zap.Int("script handlers", scripts),
		zap.Strings("data", g.Owners.Names()),
	)
	for {
		select {
		case <-ticker.C:
			g.Runner.Tick(rate)
		case <-ctx.Done():
			g.Log.Info("game loop stopped",
				zap.Int64("now", g.Time.Scheduler().Now()),
				zap.Int("destroyed", g.Cleanup.Flushed()),
			)
			return nil
		}
	}
}
