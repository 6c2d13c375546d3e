package metrics

import (
	"math"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/loop"
)

// TrackingError is the RMS of position command minus position, over samples
// taken while a position mode is active with a command set.
type TrackingError struct {
	name    string
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{
		name: "tracking_error",
	}
}

func (e *TrackingError) Name() string {
	return e.name
}

func (e *TrackingError) Observe(tick loop.Tick) {
	for _, s := range tick.Snapshots {
		if !positionMode(s.Mode) || math.IsNaN(s.PositionCmd) {
			continue
		}
		d := s.PositionCmd - s.Position
		e.sumSq += d * d
		e.samples++
	}
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}

func positionMode(mode string) bool {
	return mode == actuator.ModeExtendedPosition || mode == actuator.ModeCurrentBasedPosition
}
