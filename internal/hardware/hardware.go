// Package hardware runs a set of actuators sharing one bus as a single robot.
// It serializes switching with the Read/Write cycle so individual actuators
// never see concurrent calls.
package hardware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/dxl"
	"github.com/san-kum/dxlhw/internal/hwif"
)

var ErrClosed = errors.New("hardware: closed")

type Hardware struct {
	mu        sync.Mutex
	hw        *hwif.RobotHW
	actuators []*actuator.Actuator
	logger    *slog.Logger
	closed    bool
}

// New initializes one actuator per entry of actuators, in name order.
// Handles are collected in a staging registry and reach hw only once every
// actuator is built; on any failure hw is left untouched and the actuators
// already built are closed.
func New(wb dxl.Workbench, hw *hwif.RobotHW, actuators map[string]actuator.Config, logger *slog.Logger) (*Hardware, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Hardware{hw: hw, logger: logger}

	names := make([]string, 0, len(actuators))
	for name := range actuators {
		names = append(names, name)
	}
	sort.Strings(names)

	staged := hw.Stage()
	for _, name := range names {
		a, err := actuator.Init(name, wb, staged, actuators[name], logger)
		if err != nil {
			h.closeActuators()
			return nil, fmt.Errorf("init actuator %s: %w", name, err)
		}
		h.actuators = append(h.actuators, a)
	}
	if err := hw.Merge(staged); err != nil {
		h.closeActuators()
		return nil, fmt.Errorf("register handles: %w", err)
	}
	logger.Info("hardware initialized", "actuators", len(h.actuators))
	return h, nil
}

// Interfaces returns the handle registry the actuators registered with.
func (h *Hardware) Interfaces() *hwif.RobotHW { return h.hw }

func (h *Hardware) Names() []string {
	names := make([]string, len(h.actuators))
	for i, a := range h.actuators {
		names[i] = a.Name()
	}
	return names
}

// Snapshots copies every actuator's registers, in name order.
func (h *Hardware) Snapshots() []actuator.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]actuator.Snapshot, len(h.actuators))
	for i, a := range h.actuators {
		out[i] = a.Snapshot()
	}
	return out
}

// PrepareSwitch succeeds only if every actuator accepts the switch. All
// rejections are reported.
func (h *Hardware) PrepareSwitch(starting, stopping []hwif.ControllerInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	var errs []error
	for _, a := range h.actuators {
		if err := a.PrepareSwitch(starting, stopping); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Hardware) DoSwitch(starting, stopping []hwif.ControllerInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for _, a := range h.actuators {
		a.DoSwitch(starting, stopping)
	}
}

func (h *Hardware) Read(t time.Time, period time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for _, a := range h.actuators {
		a.Read(t, period)
	}
}

func (h *Hardware) Write(t time.Time, period time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for _, a := range h.actuators {
		a.Write(t, period)
	}
}

// Close stops every active mode. Later calls to any method are no-ops.
func (h *Hardware) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.closeActuators()
	h.logger.Info("hardware closed")
}

func (h *Hardware) closeActuators() {
	for _, a := range h.actuators {
		a.Close()
	}
}
