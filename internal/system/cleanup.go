package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/core/ecs"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end,
// after every other phase has stopped looking at those entities.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world   *ecs.World
	log     *zap.Logger
	flushed int
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log.Named("Cleanup")}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.flushed += n
		s.log.Debug("destroyed queued entities", zap.Int("count", n), zap.Int("total", s.flushed))
	}
}

// Flushed is the number of queued destructions processed so far.
func (s *CleanupSystem) Flushed() int { return s.flushed }
