// Package trace records per-tick actuator samples and stores runs on disk as
// JSON metadata, CSV and CBOR sample files.
package trace

import (
	"sync"

	"github.com/san-kum/dxlhw/internal/loop"
)

// Sample is one actuator's registers at one tick.
type Sample struct {
	Time        float64          `cbor:"t" json:"time"`
	Actuator    string           `cbor:"a" json:"actuator"`
	Mode        string           `cbor:"m" json:"mode"`
	Position    float64          `cbor:"p" json:"position"`
	Velocity    float64          `cbor:"v" json:"velocity"`
	Effort      float64          `cbor:"e" json:"effort"`
	PositionCmd float64          `cbor:"pc" json:"position_cmd"`
	VelocityCmd float64          `cbor:"vc" json:"velocity_cmd"`
	EffortCmd   float64          `cbor:"ec" json:"effort_cmd"`
	States      map[string]int32 `cbor:"s,omitempty" json:"states,omitempty"`
}

// Recorder is a loop observer that keeps every sample in memory.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
	every   int
}

// NewRecorder keeps one tick out of every; values below 1 keep all ticks.
func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every}
}

func (r *Recorder) OnTick(tick loop.Tick) {
	if tick.Index%r.every != 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range tick.Snapshots {
		r.samples = append(r.samples, Sample{
			Time:        tick.Time,
			Actuator:    s.Name,
			Mode:        s.Mode,
			Position:    s.Position,
			Velocity:    s.Velocity,
			Effort:      s.Effort,
			PositionCmd: s.PositionCmd,
			VelocityCmd: s.VelocityCmd,
			EffortCmd:   s.EffortCmd,
			States:      s.States,
		})
	}
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Series extracts one actuator's time, position and position command.
func Series(samples []Sample, actuator string) (times, pos, cmd []float64) {
	for _, s := range samples {
		if s.Actuator != actuator {
			continue
		}
		times = append(times, s.Time)
		pos = append(pos, s.Position)
		cmd = append(cmd, s.PositionCmd)
	}
	return times, pos, cmd
}

// Actuators lists actuator names in order of first appearance.
func Actuators(samples []Sample) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range samples {
		if !seen[s.Actuator] {
			seen[s.Actuator] = true
			names = append(names, s.Actuator)
		}
	}
	return names
}
