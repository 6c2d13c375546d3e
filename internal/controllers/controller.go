// Package controllers holds the framework-side consumers of actuator
// handles. A controller claims command handles of the joints it drives and
// is updated once per tick while running.
package controllers

import (
	"errors"

	"github.com/san-kum/dxlhw/internal/hwif"
)

var (
	ErrUnknownType = errors.New("controllers: unknown controller type")
	ErrNoJoints    = errors.New("controllers: no joints configured")
)

// Controller is driven by the manager. Times are seconds since the loop
// started.
type Controller interface {
	Info() hwif.ControllerInfo
	// Init acquires the controller's handles. It is called once, before the
	// first Starting.
	Init(hw *hwif.RobotHW) error
	Starting(t float64)
	Update(t, dt float64)
	Stopping(t float64)
}

type base struct {
	name   string
	typ    string
	joints []string
}

func (b base) Info() hwif.ControllerInfo {
	return hwif.ControllerInfo{Name: b.name, Type: b.typ, Resources: append([]string(nil), b.joints...)}
}

func (b base) commandHandles(hw *hwif.RobotHW, kind hwif.Kind) ([]hwif.ActuatorHandle, error) {
	if len(b.joints) == 0 {
		return nil, ErrNoJoints
	}
	handles := make([]hwif.ActuatorHandle, 0, len(b.joints))
	for _, j := range b.joints {
		h, err := hw.Actuator(kind, j)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}
