package actuator

import (
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/dxlhw/internal/dxl"
)

// OperatingMode is one strategy for driving the servo. Every method must be
// safe to call repeatedly in the order imposed by the switching protocol, and
// none may block beyond a bounded bus transaction. Hardware failures are
// logged, never returned: a failed Read leaves the registers at their last
// known values.
type OperatingMode interface {
	Name() string
	Starting()
	Stopping()
	Read(t time.Time, period time.Duration)
	Write(t time.Time, period time.Duration)
}

// modeBase carries what every variant shares: the register set, the
// per-mode item map and bus helpers that log instead of failing.
type modeBase struct {
	name     string
	data     *Data
	items    map[string]int
	logger   *slog.Logger
	torqueOn bool

	prevCmds map[string]int32
}

func newModeBase(name string, data *Data, items map[string]int, logger *slog.Logger) modeBase {
	return modeBase{
		name:     name,
		data:     data,
		items:    items,
		logger:   logger.With("mode", name),
		prevCmds: make(map[string]int32),
	}
}

func (m *modeBase) Name() string { return m.name }

func (m *modeBase) writeItem(item string, value int32) bool {
	if err := m.data.Workbench.ItemWrite(m.data.ID, item, value); err != nil {
		m.logger.Warn("failed to write item", "item", item, "value", value, "error", err)
		return false
	}
	m.logger.Debug("wrote item", "item", item, "value", value)
	return true
}

func (m *modeBase) torqueEnable(enable bool) bool {
	set := dxl.TorqueOff
	if enable {
		set = dxl.TorqueOn
	}
	if err := set(m.data.Workbench, m.data.ID); err != nil {
		m.logger.Warn("failed to switch torque", "enable", enable, "error", err)
		return false
	}
	m.logger.Debug("switched torque", "enable", enable)
	m.torqueOn = enable
	return true
}

// writeItems writes the mode's item map in name order.
func (m *modeBase) writeItems() bool {
	ok := true
	for _, name := range sortedKeys(m.items) {
		if !m.writeItem(name, int32(m.items[name])) {
			ok = false
		}
	}
	return ok
}

// readState refreshes position, velocity and effort. Nothing is stored
// unless all three reads succeed.
func (m *modeBase) readState() bool {
	wb, id := m.data.Workbench, m.data.ID

	pos, err := wb.ItemRead(id, dxl.ItemPresentPosition)
	if err != nil {
		m.logger.Warn("failed to read state", "item", dxl.ItemPresentPosition, "error", err)
		return false
	}
	vel, err := wb.ItemRead(id, dxl.ItemPresentVelocity)
	if err != nil {
		m.logger.Warn("failed to read state", "item", dxl.ItemPresentVelocity, "error", err)
		return false
	}
	cur, err := wb.ItemRead(id, dxl.ItemPresentCurrent)
	if err != nil {
		m.logger.Warn("failed to read state", "item", dxl.ItemPresentCurrent, "error", err)
		return false
	}

	m.data.Pos = dxl.PositionToRadians(pos)
	m.data.Vel = dxl.VelocityToRadians(vel)
	m.data.Eff = dxl.CurrentToAmperes(cur) * m.data.TorqueConstant
	return true
}

func (m *modeBase) readAdditionalStates() {
	for _, name := range sortedKeys(m.data.AdditionalStates) {
		v, err := m.data.Workbench.ItemRead(m.data.ID, name)
		if err != nil {
			m.logger.Warn("failed to read additional state", "item", name, "error", err)
			continue
		}
		*m.data.AdditionalStates[name] = v
	}
}

// writeAdditionalCmds sends additional commands that changed since they were
// last sent.
func (m *modeBase) writeAdditionalCmds() {
	for _, name := range sortedKeys(m.data.AdditionalCmds) {
		v := *m.data.AdditionalCmds[name]
		if prev, ok := m.prevCmds[name]; ok && prev == v {
			continue
		}
		if m.writeItem(name, v) {
			m.prevCmds[name] = v
		}
	}
}

// startControl puts the servo into opMode with the item map applied.
// prime runs with torque off after the state has been read, so it can align
// goals with the present state before torque comes back on.
func (m *modeBase) startControl(opMode int32, prime func()) {
	m.logger.Info("starting operating mode")
	m.torqueEnable(false)
	if !m.writeItem(dxl.ItemOperatingMode, opMode) {
		m.logger.Error("failed to set operating mode", "operating_mode", opMode)
	}
	if !m.writeItems() {
		m.logger.Error("failed to apply item map")
	}
	m.readState()
	m.readAdditionalStates()
	for name := range m.prevCmds {
		delete(m.prevCmds, name)
	}
	prime()
	if !m.torqueEnable(true) {
		m.logger.Error("failed to enable torque")
	}
}

// stopControl disables torque if this mode enabled it. Extra calls are no-ops.
func (m *modeBase) stopControl() {
	if !m.torqueOn {
		return
	}
	m.logger.Info("stopping operating mode")
	if !m.torqueEnable(false) {
		m.logger.Error("failed to disable torque")
	}
	m.torqueOn = false
}

// readCurrentLimit returns the servo's Current_Limit, or 0 when it cannot be
// read, in which case goal currents are bounded only by the register width.
func (m *modeBase) readCurrentLimit() int32 {
	c, err := m.data.Workbench.ItemRead(m.data.ID, dxl.ItemCurrentLimit)
	if err != nil {
		m.logger.Warn("failed to read current limit", "error", err)
		return 0
	}
	return c
}

// goalCurrent converts an effort in N*m to a goal current within limit.
func (m *modeBase) goalCurrent(effort float64, limit int32) int32 {
	return dxl.ClampCurrent(dxl.AmperesToCurrent(effort/m.data.TorqueConstant), limit)
}

// changed reports whether cmd is a real command that differs from prev.
func changed(cmd, prev float64) bool {
	return !math.IsNaN(cmd) && (math.IsNaN(prev) || cmd != prev)
}
