package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. ROGUECORE_LOGGING_LEVEL.
const EnvPrefix = "ROGUECORE_"

// DefaultPath is used when ROGUECORE_CONFIG is unset.
const DefaultPath = "config/roguecore.toml"

type Config struct {
	Simulation SimulationConfig `toml:"simulation" envPrefix:"SIMULATION_"`
	Logging    LoggingConfig    `toml:"logging" envPrefix:"LOGGING_"`
	Scripting  ScriptingConfig  `toml:"scripting" envPrefix:"SCRIPTING_"`
	Data       DataConfig       `toml:"data" envPrefix:"DATA_"`

	Source string `toml:"-"` // file actually read, empty when defaults only
}

type SimulationConfig struct {
	TickRate        time.Duration `toml:"tick_rate" env:"TICK_RATE"`
	MaxStepsPerTick int           `toml:"max_steps_per_tick" env:"MAX_STEPS_PER_TICK"`
	MinimumCost     int           `toml:"minimum_cost" env:"MINIMUM_COST"`
	Seed            uint64        `toml:"seed" env:"SEED"` // 0 = seed from the clock
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"` // "json" or "console"
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Dir     string `toml:"dir" env:"DIR"`
}

type DataConfig struct {
	Blueprints string `toml:"blueprints" env:"BLUEPRINTS"`
	Spawns     string `toml:"spawns" env:"SPAWNS"`
}

// Path resolves the config file location from the environment.
func Path() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Source = path
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("config: simulation.tick_rate must be positive, got %s", c.Simulation.TickRate)
	}
	if c.Simulation.MaxStepsPerTick < 1 {
		return fmt.Errorf("config: simulation.max_steps_per_tick must be at least 1, got %d", c.Simulation.MaxStepsPerTick)
	}
	if c.Simulation.MinimumCost < 1 {
		return fmt.Errorf("config: simulation.minimum_cost must be at least 1, got %d", c.Simulation.MinimumCost)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:        100 * time.Millisecond,
			MaxStepsPerTick: 64,
			MinimumCost:     1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Data: DataConfig{
			Blueprints: "data/blueprints.yaml",
			Spawns:     "data/spawns.yaml",
		},
	}
}
