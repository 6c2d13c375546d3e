package actuator

import (
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/dxlhw/internal/dxl"
)

// ExtendedPositionMode tracks the position command over multiple turns. A
// positive velocity command is forwarded as the profile velocity.
type ExtendedPositionMode struct {
	modeBase
	prevPosCmd float64
	prevVelCmd float64
}

func NewExtendedPositionMode(data *Data, items map[string]int, logger *slog.Logger) *ExtendedPositionMode {
	return &ExtendedPositionMode{
		modeBase:   newModeBase(ModeExtendedPosition, data, items, logger),
		prevPosCmd: math.NaN(),
		prevVelCmd: math.NaN(),
	}
}

func (m *ExtendedPositionMode) Starting() {
	m.startControl(dxl.OpModeExtendedPosition, func() {
		m.data.PosCmd = m.data.Pos
		m.prevPosCmd = math.NaN()
		m.prevVelCmd = math.NaN()
		if m.writeItem(dxl.ItemGoalPosition, dxl.RadiansToPosition(m.data.Pos)) {
			m.prevPosCmd = m.data.Pos
		}
	})
}

func (m *ExtendedPositionMode) Stopping() { m.stopControl() }

func (m *ExtendedPositionMode) Read(t time.Time, period time.Duration) {
	m.readState()
	m.readAdditionalStates()
}

func (m *ExtendedPositionMode) Write(t time.Time, period time.Duration) {
	if changed(m.data.VelCmd, m.prevVelCmd) && m.data.VelCmd > 0 {
		if m.writeItem(dxl.ItemProfileVelocity, dxl.RadiansToVelocity(m.data.VelCmd)) {
			m.prevVelCmd = m.data.VelCmd
		}
	}
	if changed(m.data.PosCmd, m.prevPosCmd) {
		if m.writeItem(dxl.ItemGoalPosition, dxl.RadiansToPosition(m.data.PosCmd)) {
			m.prevPosCmd = m.data.PosCmd
		}
	}
	m.writeAdditionalCmds()
}

// CurrentBasedPositionMode tracks the position command with the effort
// command acting as a current limit.
type CurrentBasedPositionMode struct {
	modeBase
	prevPosCmd   float64
	prevEffCmd   float64
	currentLimit int32
}

func NewCurrentBasedPositionMode(data *Data, items map[string]int, logger *slog.Logger) *CurrentBasedPositionMode {
	return &CurrentBasedPositionMode{
		modeBase:   newModeBase(ModeCurrentBasedPosition, data, items, logger),
		prevPosCmd: math.NaN(),
		prevEffCmd: math.NaN(),
	}
}

// Starting primes the effort command with the servo's goal current, or with
// its current limit when no goal current is set, so the servo is not limp.
func (m *CurrentBasedPositionMode) Starting() {
	m.startControl(dxl.OpModeCurrentBasedPosition, func() {
		m.data.PosCmd = m.data.Pos
		m.prevPosCmd = math.NaN()
		m.prevEffCmd = math.NaN()
		if m.writeItem(dxl.ItemGoalPosition, dxl.RadiansToPosition(m.data.Pos)) {
			m.prevPosCmd = m.data.Pos
		}
		m.currentLimit = m.readCurrentLimit()
		m.data.EffCmd = m.primeEffort()
	})
}

func (m *CurrentBasedPositionMode) primeEffort() float64 {
	wb, id := m.data.Workbench, m.data.ID
	for _, item := range []string{dxl.ItemGoalCurrent, dxl.ItemCurrentLimit} {
		c, err := wb.ItemRead(id, item)
		if err != nil {
			m.logger.Warn("failed to read current", "item", item, "error", err)
			continue
		}
		if c != 0 {
			return math.Abs(dxl.CurrentToAmperes(c)) * m.data.TorqueConstant
		}
	}
	return m.data.Eff
}

func (m *CurrentBasedPositionMode) Stopping() { m.stopControl() }

func (m *CurrentBasedPositionMode) Read(t time.Time, period time.Duration) {
	m.readState()
	m.readAdditionalStates()
}

func (m *CurrentBasedPositionMode) Write(t time.Time, period time.Duration) {
	if changed(m.data.EffCmd, m.prevEffCmd) {
		if m.writeItem(dxl.ItemGoalCurrent, m.goalCurrent(math.Abs(m.data.EffCmd), m.currentLimit)) {
			m.prevEffCmd = m.data.EffCmd
		}
	}
	if changed(m.data.PosCmd, m.prevPosCmd) {
		if m.writeItem(dxl.ItemGoalPosition, dxl.RadiansToPosition(m.data.PosCmd)) {
			m.prevPosCmd = m.data.PosCmd
		}
	}
	m.writeAdditionalCmds()
}
