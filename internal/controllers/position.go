package controllers

import (
	"math"

	"github.com/san-kum/dxlhw/internal/hwif"
)

// Position commands Target + Amplitude*sin(2*pi*Frequency*t) on every joint,
// with t measured from Starting.
type Position struct {
	base
	Target    float64
	Amplitude float64
	Frequency float64

	handles []hwif.ActuatorHandle
	start   float64
}

func NewPosition(name string, joints []string, target, amplitude, frequency float64) *Position {
	return &Position{
		base:      base{name: name, typ: TypePosition, joints: joints},
		Target:    target,
		Amplitude: amplitude,
		Frequency: frequency,
	}
}

func (p *Position) Init(hw *hwif.RobotHW) error {
	h, err := p.commandHandles(hw, hwif.KindPosition)
	if err != nil {
		return err
	}
	p.handles = h
	return nil
}

func (p *Position) Starting(t float64) { p.start = t }
func (p *Position) Stopping(t float64) {}

func (p *Position) Setpoint(t float64) float64 {
	return p.Target + p.Amplitude*math.Sin(2*math.Pi*p.Frequency*(t-p.start))
}

func (p *Position) Update(t, dt float64) {
	sp := p.Setpoint(t)
	for _, h := range p.handles {
		h.SetCommand(sp)
	}
}
