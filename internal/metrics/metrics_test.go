package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/loop"
)

func tick(snaps ...actuator.Snapshot) loop.Tick {
	return loop.Tick{Period: 10 * time.Millisecond, Snapshots: snaps}
}

func TestTrackingError(t *testing.T) {
	m := NewTrackingError()
	if m.Value() != 0 {
		t.Errorf("expected 0 with no samples, got %f", m.Value())
	}

	m.Observe(tick(
		actuator.Snapshot{Mode: actuator.ModeExtendedPosition, PositionCmd: 1.0, Position: 0.7},
		actuator.Snapshot{Mode: actuator.ModeCurrentBasedPosition, PositionCmd: 0.4, Position: 0.0},
		actuator.Snapshot{Mode: actuator.ModeVelocity, PositionCmd: 5, Position: 0},
		actuator.Snapshot{Mode: actuator.ModeExtendedPosition, PositionCmd: math.NaN()},
	))

	want := math.Sqrt((0.09 + 0.16) / 2)
	if math.Abs(m.Value()-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected 0 after reset")
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(tick(
		actuator.Snapshot{Mode: actuator.ModeCurrent, Effort: -0.4},
		actuator.Snapshot{Mode: actuator.ModeVelocity, Effort: 0.2},
		actuator.Snapshot{Effort: 9},
	))
	if math.Abs(m.Value()-0.3) > 1e-9 {
		t.Errorf("expected 0.3, got %f", m.Value())
	}
}

func TestOverruns(t *testing.T) {
	m := NewOverruns()
	m.Observe(loop.Tick{Period: 10 * time.Millisecond, Elapsed: 2 * time.Millisecond})
	m.Observe(loop.Tick{Period: 10 * time.Millisecond, Elapsed: 12 * time.Millisecond})
	if m.Value() != 1 {
		t.Errorf("expected 1 overrun, got %f", m.Value())
	}
}

func TestDefault(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Default() {
		names[m.Name()] = true
	}
	for _, n := range []string{"tracking_error", "control_effort", "overruns"} {
		if !names[n] {
			t.Errorf("missing default metric %s", n)
		}
	}
}
