package controllers

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dxlhw/internal/config"
	"github.com/san-kum/dxlhw/internal/hwif"
)

type joint struct {
	pos, vel, eff          float64
	posCmd, velCmd, effCmd float64
	led                    int32
}

func newRobot(t *testing.T, names ...string) (*hwif.RobotHW, map[string]*joint) {
	t.Helper()
	hw := hwif.NewRobotHW()
	joints := make(map[string]*joint)
	for _, n := range names {
		j := &joint{}
		state := hwif.NewActuatorStateHandle(n, &j.pos, &j.vel, &j.eff)
		err := hw.Register(
			hwif.Registration{Kind: hwif.KindState, Handle: state},
			hwif.Registration{Kind: hwif.KindPosition, Handle: hwif.NewActuatorHandle(state, &j.posCmd)},
			hwif.Registration{Kind: hwif.KindVelocity, Handle: hwif.NewActuatorHandle(state, &j.velCmd)},
			hwif.Registration{Kind: hwif.KindEffort, Handle: hwif.NewActuatorHandle(state, &j.effCmd)},
			hwif.Registration{Kind: hwif.KindInt32, Handle: hwif.NewInt32Handle(n+"/LED", &j.led, &j.led)},
		)
		if err != nil {
			t.Fatal(err)
		}
		joints[n] = j
	}
	return hw, joints
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	u := ctrl.Compute(1.0, 0.0)
	if u >= 0 {
		t.Error("PID should output negative control for positive error")
	}

	u = ctrl.Compute(0.5, 0.1)
	if u >= 0 {
		t.Error("PID should keep pushing towards the target")
	}

	ctrl.Reset()
	if u := ctrl.Compute(0.0, 5.0); u != 0 {
		t.Errorf("expected zero control at target after reset, got %f", u)
	}
}

func TestPosition(t *testing.T) {
	hw, joints := newRobot(t, "a", "b")
	ctrl := NewPosition("pos", []string{"a", "b"}, 0.5, 0.2, 1.0)
	if err := ctrl.Init(hw); err != nil {
		t.Fatal(err)
	}

	ctrl.Starting(2.0)
	ctrl.Update(2.0, 0.01)
	for name, j := range joints {
		if j.posCmd != 0.5 {
			t.Errorf("%s: expected command 0.5 at start, got %f", name, j.posCmd)
		}
	}

	ctrl.Update(2.25, 0.01)
	if math.Abs(joints["a"].posCmd-0.7) > 1e-9 {
		t.Errorf("expected command at peak 0.7, got %f", joints["a"].posCmd)
	}

	info := ctrl.Info()
	if info.Name != "pos" || info.Type != TypePosition || len(info.Resources) != 2 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestVelocity(t *testing.T) {
	hw, joints := newRobot(t, "a")
	ctrl := NewVelocity("vel", []string{"a"}, 2.0, 0, 0, 1.0)
	if err := ctrl.Init(hw); err != nil {
		t.Fatal(err)
	}

	joints["a"].pos = 0.25
	ctrl.Starting(0)
	ctrl.Update(0, 0.01)
	if joints["a"].velCmd != 1.5 {
		t.Errorf("expected velocity command 1.5, got %f", joints["a"].velCmd)
	}

	ctrl.Stopping(1)
	if joints["a"].velCmd != 0 {
		t.Errorf("expected zero velocity after stopping, got %f", joints["a"].velCmd)
	}
}

func TestEffort(t *testing.T) {
	hw, joints := newRobot(t, "a")
	ctrl := NewEffort("eff", []string{"a"}, 0.3)
	if err := ctrl.Init(hw); err != nil {
		t.Fatal(err)
	}
	ctrl.Update(0, 0.01)
	if joints["a"].effCmd != 0.3 {
		t.Errorf("expected effort 0.3, got %f", joints["a"].effCmd)
	}
	ctrl.Stopping(1)
	if joints["a"].effCmd != 0 {
		t.Errorf("expected effort 0 after stopping, got %f", joints["a"].effCmd)
	}
}

func TestForward(t *testing.T) {
	hw, joints := newRobot(t, "a")
	ctrl := NewForward("led", []string{"a"}, "LED", 1)
	if err := ctrl.Init(hw); err != nil {
		t.Fatal(err)
	}
	ctrl.Update(0, 0.01)
	if joints["a"].led != 1 {
		t.Errorf("expected LED 1, got %d", joints["a"].led)
	}

	if err := NewForward("x", []string{"a"}, "", 1).Init(hw); !errors.Is(err, ErrNoItem) {
		t.Errorf("expected ErrNoItem, got %v", err)
	}
	if err := NewForward("x", []string{"a"}, "Goal_PWM", 1).Init(hw); !errors.Is(err, hwif.ErrHandleNotFound) {
		t.Errorf("expected ErrHandleNotFound, got %v", err)
	}
}

func TestInitErrors(t *testing.T) {
	hw, _ := newRobot(t, "a")

	if err := NewPosition("p", nil, 0, 0, 0).Init(hw); !errors.Is(err, ErrNoJoints) {
		t.Errorf("expected ErrNoJoints, got %v", err)
	}
	if err := NewEffort("e", []string{"missing"}, 1).Init(hw); !errors.Is(err, hwif.ErrHandleNotFound) {
		t.Errorf("expected ErrHandleNotFound, got %v", err)
	}
	if err := NewMode("m", nil).Init(hw); err != nil {
		t.Errorf("mode controller needs no handles, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		typ  string
		want string
	}{
		{TypePosition, TypePosition},
		{TypeVelocity, TypeVelocity},
		{TypeEffort, TypeEffort},
		{TypeForward, TypeForward},
		{TypeMode, TypeMode},
	}
	for _, tt := range tests {
		c, err := r.New("c", config.ControllerConfig{Type: tt.typ})
		if err != nil {
			t.Fatalf("%s: %v", tt.typ, err)
		}
		if got := c.Info().Type; got != tt.want {
			t.Errorf("expected type %s, got %s", tt.want, got)
		}
	}

	if _, err := r.New("c", config.ControllerConfig{Type: "lqr"}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if len(r.Types()) != 5 {
		t.Errorf("expected 5 types, got %v", r.Types())
	}
}
