package metrics

import "github.com/san-kum/dxlhw/internal/loop"

// Overruns counts ticks whose read, update and write took longer than the
// period.
type Overruns struct {
	name       string
	violations int
}

func NewOverruns() *Overruns {
	return &Overruns{
		name: "overruns",
	}
}

func (o *Overruns) Name() string {
	return o.name
}

func (o *Overruns) Observe(tick loop.Tick) {
	if tick.Overrun() {
		o.violations++
	}
}

func (o *Overruns) Value() float64 {
	return float64(o.violations)
}

func (o *Overruns) Reset() {
	o.violations = 0
}

// Default returns the metrics recorded for every run.
func Default() []loop.Metric {
	return []loop.Metric{
		NewTrackingError(),
		NewControlEffort(),
		NewOverruns(),
	}
}
