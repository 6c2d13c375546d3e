package actuator

import (
	"math"
	"sort"

	"github.com/san-kum/dxlhw/internal/dxl"
)

// Data is the register set shared by an actuator, its modes and the
// framework. State fields are written only by the active mode's Read;
// command fields are written by the framework and consumed by Write.
// NaN in a command field means "no command".
type Data struct {
	Name           string
	ID             uint8
	Workbench      dxl.Workbench
	TorqueConstant float64

	Pos, Vel, Eff          float64
	PosCmd, VelCmd, EffCmd float64

	// AdditionalStates and AdditionalCmds map control-table item names to
	// integer registers. The pointers stay valid for the actuator's lifetime.
	AdditionalStates map[string]*int32
	AdditionalCmds   map[string]*int32
}

func NewData(name string, wb dxl.Workbench, id uint8, torqueConstant float64, stateNames, cmdNames []string) *Data {
	d := &Data{
		Name:             name,
		ID:               id,
		Workbench:        wb,
		TorqueConstant:   torqueConstant,
		PosCmd:           math.NaN(),
		VelCmd:           math.NaN(),
		EffCmd:           math.NaN(),
		AdditionalStates: make(map[string]*int32, len(stateNames)),
		AdditionalCmds:   make(map[string]*int32, len(cmdNames)),
	}
	for _, n := range stateNames {
		d.AdditionalStates[n] = new(int32)
	}
	for _, n := range cmdNames {
		d.AdditionalCmds[n] = new(int32)
	}
	return d
}

// Snapshot is a value copy of an actuator's registers.
type Snapshot struct {
	Name     string
	ID       uint8
	Mode     string
	Position float64
	Velocity float64
	Effort   float64

	PositionCmd float64
	VelocityCmd float64
	EffortCmd   float64

	States   map[string]int32
	Commands map[string]int32
}

func (d *Data) snapshot(mode string) Snapshot {
	s := Snapshot{
		Name:        d.Name,
		ID:          d.ID,
		Mode:        mode,
		Position:    d.Pos,
		Velocity:    d.Vel,
		Effort:      d.Eff,
		PositionCmd: d.PosCmd,
		VelocityCmd: d.VelCmd,
		EffortCmd:   d.EffCmd,
		States:      make(map[string]int32, len(d.AdditionalStates)),
		Commands:    make(map[string]int32, len(d.AdditionalCmds)),
	}
	for k, v := range d.AdditionalStates {
		s.States[k] = *v
	}
	for k, v := range d.AdditionalCmds {
		s.Commands[k] = *v
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
