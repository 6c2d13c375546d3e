package dxl

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupItem(t *testing.T) {
	it, err := LookupItem(ItemGoalPosition)
	require.NoError(t, err)
	assert.Equal(t, uint16(116), it.Address)
	assert.False(t, it.EEPROM())

	it, err = LookupItem(ItemOperatingMode)
	require.NoError(t, err)
	assert.True(t, it.EEPROM())

	_, err = LookupItem("Goal_Banana")
	assert.ErrorIs(t, err, ErrUnknownItem)

	items := Items()
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Address, items[i].Address)
	}
}

func TestSimBusPing(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM540W270)
	bus.AddServo(7, ModelXL430W250)

	model, err := bus.Ping(1)
	require.NoError(t, err)
	assert.Equal(t, ModelXM540W270, model)
	assert.Equal(t, []uint8{1, 7}, bus.IDs())

	_, err = bus.Ping(3)
	assert.ErrorIs(t, err, ErrNoResponse)

	bus.Unplug(7)
	_, err = bus.Ping(7)
	assert.ErrorIs(t, err, ErrNoResponse)
	bus.Plug(7)
	_, err = bus.Ping(7)
	assert.NoError(t, err)
}

func TestSimBusWriteAccess(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM430W350)

	assert.ErrorIs(t, bus.ItemWrite(1, ItemPresentPosition, 0), ErrReadOnly)
	assert.ErrorIs(t, bus.ItemWrite(1, "Nope", 0), ErrUnknownItem)

	require.NoError(t, bus.ItemWrite(1, ItemOperatingMode, OpModeVelocity))
	require.NoError(t, TorqueOn(bus, 1))
	assert.ErrorIs(t, bus.ItemWrite(1, ItemOperatingMode, OpModeCurrent), ErrAccess)
	require.NoError(t, TorqueOff(bus, 1))
	require.NoError(t, bus.ItemWrite(1, ItemOperatingMode, OpModeCurrent))

	items := make([]string, 0)
	for _, tr := range bus.Transfers() {
		items = append(items, tr.Item)
	}
	assert.Equal(t, []string{ItemOperatingMode, ItemTorqueEnable, ItemTorqueEnable, ItemOperatingMode}, items)

	bus.ResetTransfers()
	assert.Empty(t, bus.Transfers())
}

func TestSimBusFailNext(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM430W350)
	boom := errors.New("boom")

	bus.FailNext(1, boom)
	_, err := bus.ItemRead(1, ItemPresentPosition)
	assert.ErrorIs(t, err, boom)

	_, err = bus.ItemRead(1, ItemPresentPosition)
	assert.NoError(t, err)
}

func TestSimBusPositionControl(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM430W350)
	require.NoError(t, bus.ItemWrite(1, ItemGoalPosition, RadiansToPosition(1.0)))

	bus.Step(time.Second)
	pos, _ := bus.Register(1, ItemPresentPosition)
	assert.InDelta(t, 0, PositionToRadians(pos), 1e-9, "torque off holds still")

	require.NoError(t, TorqueOn(bus, 1))
	bus.Step(2 * time.Second)
	pos, _ = bus.Register(1, ItemPresentPosition)
	assert.InDelta(t, 1.0, PositionToRadians(pos), 0.01)
	moving, _ := bus.Register(1, ItemMoving)
	assert.Equal(t, int32(0), moving)
}

func TestSimBusVelocityLimit(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM430W350)
	require.NoError(t, bus.ItemWrite(1, ItemOperatingMode, OpModeVelocity))
	require.NoError(t, bus.ItemWrite(1, ItemGoalVelocity, 1000))
	require.NoError(t, TorqueOn(bus, 1))

	bus.Step(time.Second)
	vel, _ := bus.Register(1, ItemPresentVelocity)
	limit, _ := bus.Register(1, ItemVelocityLimit)
	assert.InDelta(t, float64(limit), float64(vel), 1)

	moving, _ := bus.Register(1, ItemMoving)
	assert.Equal(t, int32(1), moving)
}

func TestSimBusRebootAndClearMultiTurn(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM430W350)
	bus.SetPosition(1, 2*math.Pi+0.5)
	require.NoError(t, TorqueOn(bus, 1))

	require.NoError(t, bus.Reboot(1))
	assert.Equal(t, 1, bus.Reboots(1))
	torque, _ := bus.Register(1, ItemTorqueEnable)
	assert.Equal(t, int32(0), torque)
	pos, _ := bus.Register(1, ItemPresentPosition)
	assert.InDelta(t, 0.5, PositionToRadians(pos), 0.01)
	goal, _ := bus.Register(1, ItemGoalPosition)
	assert.Equal(t, pos, goal)
	mode, _ := bus.Register(1, ItemOperatingMode)
	assert.Equal(t, OpModePosition, mode, "EEPROM survives a reboot")

	bus.SetPosition(1, -3*math.Pi)
	require.NoError(t, bus.ClearMultiTurn(1))
	pos, _ = bus.Register(1, ItemPresentPosition)
	assert.InDelta(t, math.Pi, math.Abs(PositionToRadians(pos)), 0.01)
}

func TestSimBusClearMultiTurnWhileMoving(t *testing.T) {
	bus := NewSimBus()
	bus.AddServo(1, ModelXM430W350)
	require.NoError(t, bus.ItemWrite(1, ItemOperatingMode, OpModeVelocity))
	require.NoError(t, bus.ItemWrite(1, ItemGoalVelocity, 100))
	require.NoError(t, TorqueOn(bus, 1))
	bus.Step(200 * time.Millisecond)

	assert.ErrorIs(t, bus.ClearMultiTurn(1), ErrAccess)
}
