package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/deepdelve/roguecore/internal/app"
	"github.com/deepdelve/roguecore/internal/config"
	"github.com/deepdelve/roguecore/internal/data"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	if cfg.Source != "" {
		log.Info("config loaded", zap.String("path", cfg.Source))
	}

	// 3. Build the game
	game, cleanup, err := app.InitializeGame(cfg, log)
	if err != nil {
		return fmt.Errorf("init game: %w", err)
	}
	defer cleanup()

	// 4. Populate the level
	spawns, err := data.LoadSpawnList(cfg.Data.Spawns)
	if err != nil {
		return fmt.Errorf("load spawns: %w", err)
	}
	ids, err := game.Entities.SpawnList(spawns)
	if err != nil {
		// Partial spawns are playable; report and continue.
		log.Warn("some spawns failed", zap.Error(err))
	}
	log.Info("level populated", zap.Int("entities", len(ids)), zap.Int("placed", game.Grid.Len()))

	// 5. Game loop until a shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return game.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown signal received")
		return nil
	})
	return g.Wait()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
