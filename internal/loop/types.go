package loop

import (
	"time"

	"github.com/san-kum/dxlhw/internal/actuator"
)

// Robot is the hardware side of the loop.
type Robot interface {
	Read(t time.Time, period time.Duration)
	Write(t time.Time, period time.Duration)
	Snapshots() []actuator.Snapshot
}

// Plant advances simulated physics between ticks.
type Plant interface {
	Step(dt time.Duration)
}

// Tick describes one completed control cycle.
type Tick struct {
	Index     int
	Time      float64 // seconds since the run started
	Period    time.Duration
	Elapsed   time.Duration // wall time spent in read, update and write
	Snapshots []actuator.Snapshot
}

func (t Tick) Overrun() bool { return t.Elapsed > t.Period }

type Metric interface {
	Name() string
	Observe(tick Tick)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(tick Tick)
}

// Switch is a controller switch applied once the run reaches At.
type Switch struct {
	At    time.Duration
	Start []string
	Stop  []string
}

type Config struct {
	Period time.Duration
	// Duration bounds the run; zero runs until the context is done.
	Duration time.Duration
	// Realtime paces ticks with the wall clock. Otherwise ticks run back to
	// back on a virtual clock starting at Epoch.
	Realtime bool
	Epoch    time.Time
	Start    []string
	Schedule []Switch
}

type Result struct {
	Ticks    int
	Times    []float64
	Overruns int
	Metrics  map[string]float64
	Errors   []error
}
