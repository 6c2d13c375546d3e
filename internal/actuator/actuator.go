package actuator

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/dxlhw/internal/dxl"
	"github.com/san-kum/dxlhw/internal/hwif"
)

// MaxID is the highest addressable servo id; 253 and up are reserved.
const MaxID = 252

// Config holds the parameters of one actuator.
type Config struct {
	ID             int
	TorqueConstant float64

	// OperatingModeMap maps controller names to mode type tags. It is
	// required; an empty map is allowed.
	OperatingModeMap map[string]string

	// ItemMap holds the optional control-table items written when a mode of
	// the keyed type starts.
	ItemMap map[string]map[string]int

	AdditionalStates   []string
	AdditionalCommands []string
}

func (c Config) validate() error {
	if c.ID < 0 || c.ID > MaxID {
		return &ParamError{Key: "id", Reason: fmt.Sprintf("must be in [0, %d], got %d", MaxID, c.ID)}
	}
	if !(c.TorqueConstant > 0) || math.IsInf(c.TorqueConstant, 0) {
		return &ParamError{Key: "torque_constant", Reason: fmt.Sprintf("must be positive and finite, got %v", c.TorqueConstant)}
	}
	if c.OperatingModeMap == nil {
		return &ParamError{Key: "operating_mode_map", Reason: "missing"}
	}
	for _, n := range c.AdditionalStates {
		if _, err := dxl.LookupItem(n); err != nil {
			return &ParamError{Key: "additional_states", Reason: err.Error()}
		}
	}
	for _, n := range c.AdditionalCommands {
		it, err := dxl.LookupItem(n)
		if err != nil {
			return &ParamError{Key: "additional_commands", Reason: err.Error()}
		}
		if it.ReadOnly {
			return &ParamError{Key: "additional_commands", Reason: fmt.Sprintf("%s is read-only", n)}
		}
	}
	return nil
}

// Actuator runs at most one operating mode on a single servo.
type Actuator struct {
	data    *Data
	modes   *ModeRegistry
	present OperatingMode
	logger  *slog.Logger
}

// Init resolves the servo, builds its modes and registers its handles with
// hw. On error nothing has been registered and no actuator is returned.
func Init(name string, wb dxl.Workbench, hw hwif.Registrar, cfg Config, logger *slog.Logger) (*Actuator, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("actuator", name, "id", cfg.ID)

	if err := cfg.validate(); err != nil {
		logger.Error("invalid actuator configuration", "error", err)
		return nil, err
	}
	id := uint8(cfg.ID)

	model, err := wb.Ping(id)
	if err != nil {
		logger.Error("failed to ping the actuator", "error", err)
		return nil, fmt.Errorf("%w: %s (id: %d): %w", ErrServoNotFound, name, id, err)
	}
	logger.Debug("found servo", "model", model)

	data := NewData(name, wb, id, cfg.TorqueConstant, cfg.AdditionalStates, cfg.AdditionalCommands)

	modes, err := NewModeRegistry(data, cfg.OperatingModeMap, cfg.ItemMap, logger)
	if err != nil {
		logger.Error("failed to make operating modes", "error", err)
		return nil, err
	}

	if err := hw.Register(registrations(data)...); err != nil {
		logger.Error("failed to register handles", "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrRegistration, name, err)
	}

	return newActuator(data, modes, logger), nil
}

func newActuator(data *Data, modes *ModeRegistry, logger *slog.Logger) *Actuator {
	return &Actuator{data: data, modes: modes, logger: logger}
}

func registrations(d *Data) []hwif.Registration {
	state := hwif.NewActuatorStateHandle(d.Name, &d.Pos, &d.Vel, &d.Eff)
	regs := []hwif.Registration{
		{Kind: hwif.KindState, Handle: state},
		{Kind: hwif.KindPosition, Handle: hwif.NewActuatorHandle(state, &d.PosCmd)},
		{Kind: hwif.KindVelocity, Handle: hwif.NewActuatorHandle(state, &d.VelCmd)},
		{Kind: hwif.KindEffort, Handle: hwif.NewActuatorHandle(state, &d.EffCmd)},
	}
	for _, n := range sortedKeys(d.AdditionalStates) {
		regs = append(regs, hwif.Registration{
			Kind:   hwif.KindInt32State,
			Handle: hwif.NewInt32StateHandle(d.Name+"/"+n, d.AdditionalStates[n]),
		})
	}
	for _, n := range sortedKeys(d.AdditionalCmds) {
		regs = append(regs, hwif.Registration{
			Kind:   hwif.KindInt32,
			Handle: hwif.NewInt32Handle(d.Name+"/"+n, d.AdditionalCmds[n], d.AdditionalCmds[n]),
		})
	}
	return regs
}

func (a *Actuator) Name() string { return a.data.Name }
func (a *Actuator) ID() uint8    { return a.data.ID }

// Controllers returns the controller names this actuator has modes for.
func (a *Actuator) Controllers() []string { return a.modes.Controllers() }

// PresentMode returns the active mode's name, or "" when no mode is active.
func (a *Actuator) PresentMode() string {
	if a.present == nil {
		return ""
	}
	return a.present.Name()
}

func (a *Actuator) Snapshot() Snapshot {
	return a.data.snapshot(a.PresentMode())
}

// stopsPresent reports whether any stopping controller claims the active mode.
func (a *Actuator) stopsPresent(stopping []hwif.ControllerInfo) bool {
	if a.present == nil {
		return false
	}
	for _, c := range stopping {
		if m, ok := a.modes.Lookup(c.Name); ok && m == a.present {
			return true
		}
	}
	return false
}

func (a *Actuator) countStarting(starting []hwif.ControllerInfo) int {
	n := 0
	for _, c := range starting {
		if _, ok := a.modes.Lookup(c.Name); ok {
			n++
		}
	}
	return n
}

// PrepareSwitch checks that applying stopping then starting leaves at most
// one mode active. It never changes state.
func (a *Actuator) PrepareSwitch(starting, stopping []hwif.ControllerInfo) error {
	n := 0
	if a.present != nil && !a.stopsPresent(stopping) {
		n = 1
	}
	n += a.countStarting(starting)

	if n > 1 {
		err := &SwitchError{Actuator: a.data.Name, Modes: n}
		a.logger.Error("rejected infeasible controller switch",
			"starting", hwif.Names(starting), "stopping", hwif.Names(stopping), "modes", n)
		return err
	}
	return nil
}

// DoSwitch stops the active mode if a stopping controller claims it, then,
// when idle, starts the mode of the first starting controller that has one.
//
// The caller must have validated the same lists with PrepareSwitch. Starting
// more than one mode is a precondition violation: it is logged and only the
// first match is started.
func (a *Actuator) DoSwitch(starting, stopping []hwif.ControllerInfo) {
	if a.stopsPresent(stopping) {
		a.logger.Info("stopping operating mode", "mode", a.present.Name())
		a.present.Stopping()
		a.present = nil
	}

	if a.present != nil {
		if n := a.countStarting(starting); n > 0 {
			a.logger.Warn("switch precondition violated: mode already active",
				"mode", a.present.Name(), "starting", hwif.Names(starting))
		}
		return
	}

	if n := a.countStarting(starting); n > 1 {
		a.logger.Warn("switch precondition violated: several modes starting, using the first",
			"starting", hwif.Names(starting), "modes", n)
	}
	for _, c := range starting {
		m, ok := a.modes.Lookup(c.Name)
		if !ok {
			continue
		}
		a.logger.Info("starting operating mode", "mode", m.Name(), "controller", c.Name)
		a.present = m
		m.Starting()
		return
	}
}

func (a *Actuator) Read(t time.Time, period time.Duration) {
	if a.present != nil {
		a.present.Read(t, period)
	}
}

func (a *Actuator) Write(t time.Time, period time.Duration) {
	if a.present != nil {
		a.present.Write(t, period)
	}
}

// Close stops the active mode, if any, so the servo is left in a safe state.
// Calling Close again does nothing.
func (a *Actuator) Close() {
	if a.present == nil {
		return
	}
	a.logger.Info("stopping operating mode on shutdown", "mode", a.present.Name())
	a.present.Stopping()
	a.present = nil
}
