package actuator

import (
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/dxlhw/internal/dxl"
)

type VelocityMode struct {
	modeBase
	prevVelCmd float64
}

func NewVelocityMode(data *Data, items map[string]int, logger *slog.Logger) *VelocityMode {
	return &VelocityMode{
		modeBase:   newModeBase(ModeVelocity, data, items, logger),
		prevVelCmd: math.NaN(),
	}
}

func (m *VelocityMode) Starting() {
	m.startControl(dxl.OpModeVelocity, func() {
		m.data.VelCmd = m.data.Vel
		m.prevVelCmd = math.NaN()
	})
}

func (m *VelocityMode) Stopping() { m.stopControl() }

func (m *VelocityMode) Read(t time.Time, period time.Duration) {
	m.readState()
	m.readAdditionalStates()
}

func (m *VelocityMode) Write(t time.Time, period time.Duration) {
	if changed(m.data.VelCmd, m.prevVelCmd) {
		if m.writeItem(dxl.ItemGoalVelocity, dxl.RadiansToVelocity(m.data.VelCmd)) {
			m.prevVelCmd = m.data.VelCmd
		}
	}
	m.writeAdditionalCmds()
}

// CurrentMode commands torque through the goal current, using the torque
// constant to convert effort to amperes.
type CurrentMode struct {
	modeBase
	prevEffCmd   float64
	currentLimit int32
}

func NewCurrentMode(data *Data, items map[string]int, logger *slog.Logger) *CurrentMode {
	return &CurrentMode{
		modeBase:   newModeBase(ModeCurrent, data, items, logger),
		prevEffCmd: math.NaN(),
	}
}

func (m *CurrentMode) Starting() {
	m.startControl(dxl.OpModeCurrent, func() {
		m.currentLimit = m.readCurrentLimit()
		m.data.EffCmd = m.data.Eff
		m.prevEffCmd = math.NaN()
	})
}

func (m *CurrentMode) Stopping() { m.stopControl() }

func (m *CurrentMode) Read(t time.Time, period time.Duration) {
	m.readState()
	m.readAdditionalStates()
}

func (m *CurrentMode) Write(t time.Time, period time.Duration) {
	if changed(m.data.EffCmd, m.prevEffCmd) {
		if m.writeItem(dxl.ItemGoalCurrent, m.goalCurrent(m.data.EffCmd, m.currentLimit)) {
			m.prevEffCmd = m.data.EffCmd
		}
	}
	m.writeAdditionalCmds()
}
