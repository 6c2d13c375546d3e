package actuator

import (
	"log/slog"
	"time"
)

// TorqueDisableMode leaves the servo limp and keeps reporting its state.
// Stopping does not re-enable torque; the next mode decides.
type TorqueDisableMode struct {
	modeBase
}

func NewTorqueDisableMode(data *Data, logger *slog.Logger) *TorqueDisableMode {
	return &TorqueDisableMode{modeBase: newModeBase(ModeTorqueDisable, data, nil, logger)}
}

func (m *TorqueDisableMode) Starting() {
	m.logger.Info("starting operating mode")
	if !m.torqueEnable(false) {
		m.logger.Error("failed to disable torque")
	}
	m.readState()
}

func (m *TorqueDisableMode) Stopping() {}

func (m *TorqueDisableMode) Read(t time.Time, period time.Duration) {
	m.readState()
	m.readAdditionalStates()
}

func (m *TorqueDisableMode) Write(t time.Time, period time.Duration) {}

// RebootMode reboots the servo once on Starting and does nothing afterwards.
type RebootMode struct {
	modeBase
}

func NewRebootMode(data *Data, logger *slog.Logger) *RebootMode {
	return &RebootMode{modeBase: newModeBase(ModeReboot, data, nil, logger)}
}

func (m *RebootMode) Starting() {
	m.logger.Info("rebooting servo")
	if err := m.data.Workbench.Reboot(m.data.ID); err != nil {
		m.logger.Error("failed to reboot servo", "error", err)
	}
}

func (m *RebootMode) Stopping()                               {}
func (m *RebootMode) Read(t time.Time, period time.Duration)  {}
func (m *RebootMode) Write(t time.Time, period time.Duration) {}

// ClearMultiTurnMode folds the multi-turn position into one turn on
// Starting, with torque off, and then only reports state.
type ClearMultiTurnMode struct {
	modeBase
}

func NewClearMultiTurnMode(data *Data, logger *slog.Logger) *ClearMultiTurnMode {
	return &ClearMultiTurnMode{modeBase: newModeBase(ModeClearMultiTurn, data, nil, logger)}
}

func (m *ClearMultiTurnMode) Starting() {
	m.logger.Info("clearing multi-turn position")
	m.torqueEnable(false)
	if err := m.data.Workbench.ClearMultiTurn(m.data.ID); err != nil {
		m.logger.Error("failed to clear multi-turn", "error", err)
	}
	m.readState()
}

func (m *ClearMultiTurnMode) Stopping() {}

func (m *ClearMultiTurnMode) Read(t time.Time, period time.Duration) {
	m.readState()
}

func (m *ClearMultiTurnMode) Write(t time.Time, period time.Duration) {}
