package controllers

import "github.com/san-kum/dxlhw/internal/hwif"

// Mode claims no handles. Starting it only selects whatever operating mode
// the actuators map its name to, such as torque_disable or reboot.
type Mode struct {
	base
}

func NewMode(name string, joints []string) *Mode {
	return &Mode{base: base{name: name, typ: TypeMode, joints: joints}}
}

func (m *Mode) Init(hw *hwif.RobotHW) error { return nil }
func (m *Mode) Starting(t float64)          {}
func (m *Mode) Update(t, dt float64)        {}
func (m *Mode) Stopping(t float64)          {}
