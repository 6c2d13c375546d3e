package hardware

import (
	"fmt"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/config"
	"github.com/san-kum/dxlhw/internal/dxl"
)

// NewSimBus builds a simulated bus with one servo per configured actuator.
func NewSimBus(cfg *config.Config) (*dxl.SimBus, error) {
	bus := dxl.NewSimBus()
	for _, name := range cfg.ActuatorNames() {
		a := cfg.Actuators[name]
		if a.ID == nil || *a.ID < 0 || *a.ID > actuator.MaxID {
			return nil, fmt.Errorf("actuator %s: missing or invalid id", name)
		}
		model, err := a.ModelNumber()
		if err != nil {
			return nil, fmt.Errorf("actuator %s: %w", name, err)
		}
		bus.AddServo(uint8(*a.ID), model)
	}
	return bus, nil
}

// ActuatorConfigs converts every configured actuator block.
func ActuatorConfigs(cfg *config.Config) map[string]actuator.Config {
	out := make(map[string]actuator.Config, len(cfg.Actuators))
	for name := range cfg.Actuators {
		out[name] = cfg.Actuator(name)
	}
	return out
}
