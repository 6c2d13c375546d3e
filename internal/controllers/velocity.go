package controllers

import "github.com/san-kum/dxlhw/internal/hwif"

// Velocity drives each joint towards Target by commanding velocity from a
// PID on the position error.
type Velocity struct {
	base
	handles []hwif.ActuatorHandle
	pids    []*PID

	kp, ki, kd, target float64
}

func NewVelocity(name string, joints []string, kp, ki, kd, target float64) *Velocity {
	return &Velocity{
		base:   base{name: name, typ: TypeVelocity, joints: joints},
		kp:     kp,
		ki:     ki,
		kd:     kd,
		target: target,
	}
}

func (v *Velocity) Init(hw *hwif.RobotHW) error {
	h, err := v.commandHandles(hw, hwif.KindVelocity)
	if err != nil {
		return err
	}
	v.handles = h
	v.pids = make([]*PID, len(h))
	for i := range h {
		v.pids[i] = NewPID(v.kp, v.ki, v.kd, v.target)
	}
	return nil
}

func (v *Velocity) Starting(t float64) {
	for _, p := range v.pids {
		p.Reset()
	}
}

func (v *Velocity) Update(t, dt float64) {
	for i, h := range v.handles {
		h.SetCommand(v.pids[i].Compute(h.Position(), t))
	}
}

// Stopping zeroes the velocity command.
func (v *Velocity) Stopping(t float64) {
	for _, h := range v.handles {
		h.SetCommand(0)
	}
}
