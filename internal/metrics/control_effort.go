package metrics

import (
	"math"

	"github.com/san-kum/dxlhw/internal/loop"
)

// ControlEffort is the mean absolute effort per actuator sample.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(tick loop.Tick) {
	for _, s := range tick.Snapshots {
		if s.Mode == "" {
			continue
		}
		c.sum += math.Abs(s.Effort)
		c.samples++
	}
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
