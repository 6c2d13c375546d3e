package actuator

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/dxlhw/internal/dxl"
)

const testKt = 1.5

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBus(t *testing.T, ids ...uint8) *dxl.SimBus {
	t.Helper()
	bus := dxl.NewSimBus()
	for _, id := range ids {
		bus.AddServo(id, dxl.ModelXM430W350)
	}
	return bus
}

func register(t *testing.T, bus *dxl.SimBus, id uint8, item string) int32 {
	t.Helper()
	v, ok := bus.Register(id, item)
	require.True(t, ok, "register %s not set on servo %d", item, id)
	return v
}

// writesOf returns the values written to item, in order.
func writesOf(bus *dxl.SimBus, item string) []int32 {
	var vals []int32
	for _, tr := range bus.Transfers() {
		if tr.Item == item {
			vals = append(vals, tr.Value)
		}
	}
	return vals
}
