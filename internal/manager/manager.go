// Package manager owns the controllers of a robot and runs controller
// switches against the hardware as two-phase transactions.
package manager

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/san-kum/dxlhw/internal/config"
	"github.com/san-kum/dxlhw/internal/controllers"
	"github.com/san-kum/dxlhw/internal/hwif"
)

var (
	ErrUnknownController = errors.New("manager: unknown controller")
	ErrAlreadyRunning    = errors.New("manager: controller already running")
	ErrNotRunning        = errors.New("manager: controller not running")
	ErrSwitchRejected    = errors.New("manager: switch rejected by hardware")
)

// Hardware is the switching side of the robot.
type Hardware interface {
	PrepareSwitch(starting, stopping []hwif.ControllerInfo) error
	DoSwitch(starting, stopping []hwif.ControllerInfo)
}

// Request is a queued switch.
type Request struct {
	Start []string
	Stop  []string
}

type Manager struct {
	mu          sync.Mutex
	hw          Hardware
	controllers map[string]controllers.Controller
	running     map[string]bool
	pending     []Request
	logger      *slog.Logger
}

// New builds and initializes every configured controller against robot.
func New(hw Hardware, robot *hwif.RobotHW, cfgs map[string]config.ControllerConfig, reg *controllers.Registry, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if reg == nil {
		reg = controllers.NewRegistry()
	}
	m := &Manager{
		hw:          hw,
		controllers: make(map[string]controllers.Controller, len(cfgs)),
		running:     make(map[string]bool),
		logger:      logger.With("component", "manager"),
	}

	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c, err := reg.New(name, cfgs[name])
		if err != nil {
			return nil, err
		}
		if err := c.Init(robot); err != nil {
			return nil, fmt.Errorf("init controller %s: %w", name, err)
		}
		m.controllers[name] = c
		m.logger.Debug("loaded controller", "controller", name, "type", cfgs[name].Type)
	}
	return m, nil
}

// Add registers an initialized controller under its own name.
func (m *Manager) Add(c controllers.Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := c.Info().Name
	if _, ok := m.controllers[name]; ok {
		return fmt.Errorf("manager: controller %s already loaded", name)
	}
	m.controllers[name] = c
	return nil
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.controllers)
}

func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.running)
}

// Switch stops the controllers in stop and starts those in start. A
// controller in both lists is restarted. Nothing changes unless the hardware
// accepts the switch.
func (m *Manager) Switch(start, stop []string, t float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	starting, stopping, err := m.resolve(start, stop)
	if err != nil {
		m.logger.Error("invalid switch request", "start", start, "stop", stop, "error", err)
		return err
	}
	if err := m.hw.PrepareSwitch(starting, stopping); err != nil {
		m.logger.Error("hardware rejected switch", "start", start, "stop", stop, "error", err)
		return fmt.Errorf("%w: %w", ErrSwitchRejected, err)
	}

	for _, info := range stopping {
		m.controllers[info.Name].Stopping(t)
		delete(m.running, info.Name)
	}
	m.hw.DoSwitch(starting, stopping)
	for _, info := range starting {
		m.controllers[info.Name].Starting(t)
		m.running[info.Name] = true
	}

	m.logger.Info("switched controllers", "start", start, "stop", stop, "running", sortedKeys(m.running))
	return nil
}

func (m *Manager) resolve(start, stop []string) (starting, stopping []hwif.ControllerInfo, err error) {
	stopSet := make(map[string]bool, len(stop))
	for _, name := range stop {
		c, ok := m.controllers[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownController, name)
		}
		if !m.running[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotRunning, name)
		}
		if !stopSet[name] {
			stopSet[name] = true
			stopping = append(stopping, c.Info())
		}
	}

	seen := make(map[string]bool, len(start))
	for _, name := range start {
		c, ok := m.controllers[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownController, name)
		}
		if m.running[name] && !stopSet[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
		}
		if !seen[name] {
			seen[name] = true
			starting = append(starting, c.Info())
		}
	}
	return starting, stopping, nil
}

// RequestSwitch queues a switch for the next ApplyPending. It is safe to
// call from any goroutine.
func (m *Manager) RequestSwitch(start, stop []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, Request{Start: start, Stop: stop})
}

// ApplyPending runs queued switches in order and returns their errors.
func (m *Manager) ApplyPending(t float64) error {
	m.mu.Lock()
	queue := m.pending
	m.pending = nil
	m.mu.Unlock()

	var errs []error
	for _, r := range queue {
		if err := m.Switch(r.Start, r.Stop, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Update runs one tick of every running controller, in name order.
func (m *Manager) Update(t, dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range sortedKeys(m.running) {
		m.controllers[name].Update(t, dt)
	}
}

// StopAll stops every running controller, for shutdown.
func (m *Manager) StopAll(t float64) error {
	return m.Switch(nil, m.Running(), t)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
