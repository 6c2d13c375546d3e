package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/dxl"
)

const (
	DefaultPeriod         = 0.01
	DefaultDuration       = 10.0
	DefaultDataDir        = "./runs"
	DefaultLogLevel       = "info"
	DefaultModel          = "XM430-W350"
	DefaultTorqueConstant = 1.5
	DefaultKp             = 4.0
	DefaultKi             = 0.0
	DefaultKd             = 0.1
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DXLHW_"

type Config struct {
	Period   float64 `yaml:"period" env:"PERIOD"`
	Duration float64 `yaml:"duration" env:"DURATION"`
	Realtime bool    `yaml:"realtime" env:"REALTIME"`
	DataDir  string  `yaml:"data_dir" env:"DATA_DIR"`
	LogLevel string  `yaml:"log_level" env:"LOG_LEVEL"`

	Actuators   map[string]ActuatorConfig   `yaml:"actuators"`
	Controllers map[string]ControllerConfig `yaml:"controllers"`

	// Start lists the controllers started before the first tick.
	Start    []string       `yaml:"start"`
	Schedule []SwitchConfig `yaml:"schedule"`
}

// ActuatorConfig is the per-actuator parameter block. Required keys are
// pointers so a missing key can be told apart from a zero value.
type ActuatorConfig struct {
	ID                 *int                      `yaml:"id"`
	TorqueConstant     *float64                  `yaml:"torque_constant"`
	Model              string                    `yaml:"model,omitempty"`
	OperatingModeMap   map[string]string         `yaml:"operating_mode_map"`
	ItemMap            map[string]map[string]int `yaml:"item_map,omitempty"`
	AdditionalStates   []string                  `yaml:"additional_states,omitempty"`
	AdditionalCommands []string                  `yaml:"additional_commands,omitempty"`
}

type ControllerConfig struct {
	Type   string   `yaml:"type"`
	Joints []string `yaml:"joints,omitempty"`

	Target    float64 `yaml:"target,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty"`
	Frequency float64 `yaml:"frequency,omitempty"`
	Kp        float64 `yaml:"kp,omitempty"`
	Ki        float64 `yaml:"ki,omitempty"`
	Kd        float64 `yaml:"kd,omitempty"`
	Effort    float64 `yaml:"effort,omitempty"`
	Item      string  `yaml:"item,omitempty"`
	Value     int32   `yaml:"value,omitempty"`
}

// SwitchConfig is a controller switch applied at a fixed time into the run.
type SwitchConfig struct {
	At    float64  `yaml:"at"`
	Start []string `yaml:"start,omitempty"`
	Stop  []string `yaml:"stop,omitempty"`
}

func Default() *Config {
	return &Config{
		Period:      DefaultPeriod,
		Duration:    DefaultDuration,
		DataDir:     DefaultDataDir,
		LogLevel:    DefaultLogLevel,
		Actuators:   map[string]ActuatorConfig{},
		Controllers: map[string]ControllerConfig{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides top-level settings from DXLHW_* environment variables.
func ApplyEnv(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

// ApplyEnvFrom is ApplyEnv over an explicit environment.
func ApplyEnvFrom(cfg *Config, environ map[string]string) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ})
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// ActuatorNames returns the configured actuator names in sorted order.
func (c *Config) ActuatorNames() []string {
	names := make([]string, 0, len(c.Actuators))
	for name := range c.Actuators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ControllerNames returns the configured controller names in sorted order.
func (c *Config) ControllerNames() []string {
	names := make([]string, 0, len(c.Controllers))
	for name := range c.Controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Actuator converts the named block into actuator parameters. Missing
// required keys are left at their zero values; run Validate first.
func (c *Config) Actuator(name string) actuator.Config {
	a := c.Actuators[name]
	out := actuator.Config{
		OperatingModeMap:   a.OperatingModeMap,
		ItemMap:            a.ItemMap,
		AdditionalStates:   a.AdditionalStates,
		AdditionalCommands: a.AdditionalCommands,
	}
	if a.ID != nil {
		out.ID = *a.ID
	}
	if a.TorqueConstant != nil {
		out.TorqueConstant = *a.TorqueConstant
	}
	return out
}

// ModelNumber resolves the actuator's servo model, defaulting to DefaultModel.
func (a ActuatorConfig) ModelNumber() (uint16, error) {
	name := a.Model
	if name == "" {
		name = DefaultModel
	}
	m, ok := dxl.LookupModel(name)
	if !ok {
		return 0, fmt.Errorf("unknown servo model %q", name)
	}
	return m, nil
}

// Validate reports every problem found, each as an *actuator.ParamError
// keyed by its dotted path.
func (c *Config) Validate() error {
	var errs []error
	add := func(key, format string, args ...any) {
		errs = append(errs, &actuator.ParamError{Key: key, Reason: fmt.Sprintf(format, args...)})
	}

	if c.Period <= 0 {
		add("period", "must be positive, got %v", c.Period)
	}
	if c.Duration < 0 {
		add("duration", "must not be negative, got %v", c.Duration)
	}
	if _, err := c.Level(); err != nil {
		add("log_level", "%v", err)
	}

	ids := make(map[int]string)
	for _, name := range c.ActuatorNames() {
		a := c.Actuators[name]
		prefix := "actuators." + name + "."
		if a.ID == nil {
			add(prefix+"id", "missing")
		} else if *a.ID < 0 || *a.ID > actuator.MaxID {
			add(prefix+"id", "must be in [0, %d], got %d", actuator.MaxID, *a.ID)
		} else if other, dup := ids[*a.ID]; dup {
			add(prefix+"id", "id %d already used by %s", *a.ID, other)
		} else {
			ids[*a.ID] = name
		}
		if a.TorqueConstant == nil {
			add(prefix+"torque_constant", "missing")
		} else if *a.TorqueConstant <= 0 {
			add(prefix+"torque_constant", "must be positive, got %v", *a.TorqueConstant)
		}
		if a.OperatingModeMap == nil {
			add(prefix+"operating_mode_map", "missing")
		}
		for _, ctrl := range sortedKeys(a.OperatingModeMap) {
			mode := a.OperatingModeMap[ctrl]
			if !actuator.IsModeType(mode) {
				add(prefix+"operating_mode_map."+ctrl, "unknown operating mode %q", mode)
			}
			if _, ok := c.Controllers[ctrl]; !ok {
				add(prefix+"operating_mode_map."+ctrl, "no such controller")
			}
		}
		if _, err := a.ModelNumber(); err != nil {
			add(prefix+"model", "%v", err)
		}
	}

	for _, name := range c.ControllerNames() {
		ctrl := c.Controllers[name]
		prefix := "controllers." + name + "."
		if ctrl.Type == "" {
			add(prefix+"type", "missing")
		}
		for _, j := range ctrl.Joints {
			if _, ok := c.Actuators[j]; !ok {
				add(prefix+"joints", "unknown actuator %q", j)
			}
		}
	}

	for _, name := range c.Start {
		if _, ok := c.Controllers[name]; !ok {
			add("start", "unknown controller %q", name)
		}
	}
	for i, sw := range c.Schedule {
		key := fmt.Sprintf("schedule.%d", i)
		if sw.At < 0 {
			add(key+".at", "must not be negative, got %v", sw.At)
		}
		for _, name := range append(append([]string{}, sw.Start...), sw.Stop...) {
			if _, ok := c.Controllers[name]; !ok {
				add(key, "unknown controller %q", name)
			}
		}
	}

	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
