// Package loop drives the read, update, write cycle of a robot at a fixed
// period, applying controller switches between ticks.
package loop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/san-kum/dxlhw/internal/manager"
)

type Loop struct {
	robot     Robot
	mgr       *manager.Manager
	plant     Plant
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func New(robot Robot, mgr *manager.Manager, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		robot:     robot,
		mgr:       mgr,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger.With("component", "loop"),
	}
}

func (l *Loop) SetPlant(p Plant)       { l.plant = p }
func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

// Run ticks until cfg.Duration has elapsed or ctx is done. Switch failures
// are collected in the result and do not stop the run.
func (l *Loop) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := -1
	if cfg.Duration > 0 {
		steps = int(cfg.Duration / cfg.Period)
	}
	result := &Result{
		Times:   make([]float64, 0, max(steps, 0)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range l.metrics {
		m.Reset()
	}

	schedule := append([]Switch(nil), cfg.Schedule...)
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].At < schedule[j].At })

	if len(cfg.Start) > 0 {
		if err := l.mgr.Switch(cfg.Start, nil, 0); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	var ticker *time.Ticker
	if cfg.Realtime {
		ticker = time.NewTicker(cfg.Period)
		defer ticker.Stop()
	}

	dt := cfg.Period.Seconds()
	l.logger.Info("control loop started", "period", cfg.Period, "duration", cfg.Duration, "realtime", cfg.Realtime)

	for i := 0; steps < 0 || i < steps; i++ {
		select {
		case <-ctx.Done():
			l.finish(result)
			return result, ctx.Err()
		default:
		}

		elapsed := time.Duration(i) * cfg.Period
		t := elapsed.Seconds()
		now := cfg.Epoch.Add(elapsed)
		if cfg.Realtime {
			now = time.Now()
		}

		for len(schedule) > 0 && schedule[0].At <= elapsed {
			sw := schedule[0]
			schedule = schedule[1:]
			if err := l.mgr.Switch(sw.Start, sw.Stop, t); err != nil {
				result.Errors = append(result.Errors, err)
			}
		}
		if err := l.mgr.ApplyPending(t); err != nil {
			result.Errors = append(result.Errors, err)
		}

		begin := time.Now()
		l.robot.Read(now, cfg.Period)
		l.mgr.Update(t, dt)
		l.robot.Write(now, cfg.Period)

		tick := Tick{
			Index:     i,
			Time:      t,
			Period:    cfg.Period,
			Elapsed:   time.Since(begin),
			Snapshots: l.robot.Snapshots(),
		}
		if tick.Overrun() {
			result.Overruns++
			l.logger.Warn("tick overran its period", "tick", i, "elapsed", tick.Elapsed)
		}
		for _, m := range l.metrics {
			m.Observe(tick)
		}
		for _, obs := range l.observers {
			obs.OnTick(tick)
		}

		result.Ticks++
		result.Times = append(result.Times, t)

		if l.plant != nil {
			l.plant.Step(cfg.Period)
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				l.finish(result)
				return result, ctx.Err()
			case <-ticker.C:
			}
		}
	}

	l.finish(result)
	l.logger.Info("control loop finished", "ticks", result.Ticks, "overruns", result.Overruns, "errors", len(result.Errors))
	return result, nil
}

func (l *Loop) finish(result *Result) {
	for _, m := range l.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Period <= 0 {
		return fmt.Errorf("period must be positive, got %v", cfg.Period)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", cfg.Duration)
	}
	return nil
}
