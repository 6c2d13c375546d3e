package loop_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/config"
	"github.com/san-kum/dxlhw/internal/dxl"
	"github.com/san-kum/dxlhw/internal/hardware"
	"github.com/san-kum/dxlhw/internal/hwif"
	"github.com/san-kum/dxlhw/internal/loop"
	"github.com/san-kum/dxlhw/internal/manager"
	"github.com/san-kum/dxlhw/internal/metrics"
)

type rig struct {
	bus *dxl.SimBus
	hw  *hardware.Hardware
	mgr *manager.Manager
	l   *loop.Loop
}

func newRig(t *testing.T, preset string) *rig {
	t.Helper()
	cfg := config.GetPreset(preset)
	bus, err := hardware.NewSimBus(cfg)
	require.NoError(t, err)
	robot := hwif.NewRobotHW()
	hw, err := hardware.New(bus, robot, hardware.ActuatorConfigs(cfg), nil)
	require.NoError(t, err)
	t.Cleanup(hw.Close)
	mgr, err := manager.New(hw, robot, cfg.Controllers, nil, nil)
	require.NoError(t, err)

	l := loop.New(hw, mgr, nil)
	l.SetPlant(bus)
	return &rig{bus: bus, hw: hw, mgr: mgr, l: l}
}

type tickLog struct {
	ticks []loop.Tick
}

func (o *tickLog) OnTick(tick loop.Tick) { o.ticks = append(o.ticks, tick) }

func TestRunVirtualTime(t *testing.T) {
	r := newRig(t, "single_xm")
	obs := &tickLog{}
	r.l.AddObserver(obs)
	for _, m := range metrics.Default() {
		r.l.AddMetric(m)
	}

	res, err := r.l.Run(context.Background(), loop.Config{
		Period:   10 * time.Millisecond,
		Duration: time.Second,
		Start:    []string{"position_controller"},
	})
	require.NoError(t, err)

	assert.Equal(t, 100, res.Ticks)
	assert.Len(t, res.Times, 100)
	assert.InDelta(t, 0.99, res.Times[99], 1e-9)
	assert.Empty(t, res.Errors)
	assert.Contains(t, res.Metrics, "tracking_error")
	assert.Less(t, res.Metrics["tracking_error"], 0.5)

	require.Len(t, obs.ticks, 100)
	last := obs.ticks[99].Snapshots[0]
	assert.Equal(t, actuator.ModeExtendedPosition, last.Mode)
	assert.Equal(t, []string{"position_controller"}, r.mgr.Running())
}

func TestRunSchedule(t *testing.T) {
	r := newRig(t, "single_xm")
	obs := &tickLog{}
	r.l.AddObserver(obs)

	res, err := r.l.Run(context.Background(), loop.Config{
		Period:   10 * time.Millisecond,
		Duration: 500 * time.Millisecond,
		Start:    []string{"position_controller"},
		Schedule: []loop.Switch{
			{At: 300 * time.Millisecond, Start: []string{"torque_off"}, Stop: []string{"velocity_controller"}},
			{At: 200 * time.Millisecond, Start: []string{"velocity_controller"}, Stop: []string{"position_controller"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, actuator.ModeExtendedPosition, obs.ticks[19].Snapshots[0].Mode)
	assert.Equal(t, actuator.ModeVelocity, obs.ticks[20].Snapshots[0].Mode)
	assert.Equal(t, actuator.ModeTorqueDisable, obs.ticks[30].Snapshots[0].Mode)
	assert.Empty(t, res.Errors)

	torque, _ := r.bus.Register(1, dxl.ItemTorqueEnable)
	assert.Equal(t, int32(0), torque)
}

func TestRunCollectsSwitchErrors(t *testing.T) {
	r := newRig(t, "single_xm")

	res, err := r.l.Run(context.Background(), loop.Config{
		Period:   10 * time.Millisecond,
		Duration: 100 * time.Millisecond,
		Start:    []string{"position_controller", "velocity_controller"},
		Schedule: []loop.Switch{{At: 50 * time.Millisecond, Start: []string{"ghost"}}},
	})
	require.NoError(t, err)

	require.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Errors[0], manager.ErrSwitchRejected)
	assert.ErrorIs(t, res.Errors[0], actuator.ErrInfeasibleSwitch)
	assert.ErrorIs(t, res.Errors[1], manager.ErrUnknownController)
	assert.Empty(t, r.mgr.Running())
}

func TestRunAppliesRequestedSwitches(t *testing.T) {
	r := newRig(t, "single_xm")
	r.mgr.RequestSwitch([]string{"velocity_controller"}, nil)

	_, err := r.l.Run(context.Background(), loop.Config{Period: 10 * time.Millisecond, Duration: 20 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, []string{"velocity_controller"}, r.mgr.Running())
	assert.Equal(t, actuator.ModeVelocity, r.hw.Snapshots()[0].Mode)
}

func TestRunUntilCanceled(t *testing.T) {
	r := newRig(t, "single_xm")
	ctx, cancel := context.WithCancel(context.Background())

	obs := observerFunc(func(tick loop.Tick) {
		if tick.Index == 9 {
			cancel()
		}
	})
	r.l.AddObserver(obs)

	res, err := r.l.Run(ctx, loop.Config{Period: 10 * time.Millisecond})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, res.Ticks)
}

func TestRunRealtime(t *testing.T) {
	r := newRig(t, "single_xm")

	begin := time.Now()
	res, err := r.l.Run(context.Background(), loop.Config{
		Period:   5 * time.Millisecond,
		Duration: 50 * time.Millisecond,
		Realtime: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.Ticks)
	assert.GreaterOrEqual(t, time.Since(begin), 40*time.Millisecond)
}

func TestRunInvalidConfig(t *testing.T) {
	r := newRig(t, "single_xm")

	tests := []struct {
		name string
		cfg  loop.Config
	}{
		{"zero period", loop.Config{Period: 0, Duration: time.Second}},
		{"negative duration", loop.Config{Period: time.Millisecond, Duration: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.l.Run(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

type observerFunc func(loop.Tick)

func (f observerFunc) OnTick(tick loop.Tick) { f(tick) }
