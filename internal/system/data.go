package system

import (
	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/datum"
)

const (
	DatumTurn  = "turn"
	DatumDepth = "depth"
)

// DataSystem owns the global named values and publishes their changes.
type DataSystem struct {
	coresys.Base
	registry *datum.Registry

	ValueChanged *event.SystemEvent[datum.Change]
}

func NewDataSystem(bus *event.Bus, log *zap.Logger, registry *datum.Registry, time *TimeSystem) (*DataSystem, error) {
	s := &DataSystem{
		Base:     coresys.NewBase("Data", bus, log),
		registry: registry,
	}
	s.ValueChanged = event.NewSystemEvent[datum.Change](s, "ValueChanged")
	for name, v := range map[string]int64{DatumTurn: 0, DatumDepth: 1} {
		if err := registry.Define(name, v); err != nil {
			return nil, err
		}
	}
	registry.OnChange(s.ValueChanged.Raise)
	time.TurnEnded.Subscribe(func(t TurnEnded) {
		_ = registry.Set(DatumTurn, t.Now)
	})
	return s, nil
}

func (s *DataSystem) Routes() []event.Route { return []event.Route{s.ValueChanged} }
func (s *DataSystem) Data() []string        { return []string{DatumTurn, DatumDepth} }

func (s *DataSystem) Registry() *datum.Registry { return s.registry }

func (s *DataSystem) Get(name string) (int64, bool) { return s.registry.Get(name) }

func (s *DataSystem) Set(name string, v int64) error { return s.registry.Set(name, v) }
