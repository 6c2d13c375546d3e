package controllers

import "github.com/san-kum/dxlhw/internal/hwif"

// Effort holds a constant effort command on every joint while running.
type Effort struct {
	base
	Effort  float64
	handles []hwif.ActuatorHandle
}

func NewEffort(name string, joints []string, effort float64) *Effort {
	return &Effort{base: base{name: name, typ: TypeEffort, joints: joints}, Effort: effort}
}

func (e *Effort) Init(hw *hwif.RobotHW) error {
	h, err := e.commandHandles(hw, hwif.KindEffort)
	if err != nil {
		return err
	}
	e.handles = h
	return nil
}

func (e *Effort) Starting(t float64) {}

func (e *Effort) Update(t, dt float64) {
	for _, h := range e.handles {
		h.SetCommand(e.Effort)
	}
}

func (e *Effort) Stopping(t float64) {
	for _, h := range e.handles {
		h.SetCommand(0)
	}
}
