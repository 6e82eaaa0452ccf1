//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/config"
)

// InitializeGame builds a Game. The returned func releases the script VM.
func InitializeGame(cfg *config.Config, log *zap.Logger) (*Game, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
