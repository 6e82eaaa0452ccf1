package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/core/event"
)

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: queued player commands
	PhasePreUpdate               // 1: react to last tick's events
	PhaseUpdate                  // 2: turn scheduling, actions
	PhasePostUpdate              // 3: effects, data sync
	PhaseOutput                  // 4: render hooks
	PhaseCleanup                 // 5: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Base is embedded by every gameplay system. It names the system, which is
// also the System half of its channels, and hands out the bus.
type Base struct {
	name string
	bus  *event.Bus
	log  *zap.Logger
}

func NewBase(name string, bus *event.Bus, log *zap.Logger) Base {
	if log == nil {
		log = zap.NewNop()
	}
	return Base{name: name, bus: bus, log: log.Named(name)}
}

func (b Base) Name() string        { return b.name }
func (b Base) Bus() *event.Bus     { return b.bus }
func (b Base) Logger() *zap.Logger { return b.log }
