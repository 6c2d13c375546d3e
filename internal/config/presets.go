package config

import (
	"sort"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/dxl"
)

var presets = map[string]func() *Config{
	"single_xm": singleXM,
	"dual_arm":  dualArm,
}

func singleXM() *Config {
	cfg := Default()
	cfg.Duration = 6
	cfg.Actuators["joint1"] = ActuatorConfig{
		ID:             intPtr(1),
		TorqueConstant: floatPtr(DefaultTorqueConstant),
		Model:          "XM430-W350",
		OperatingModeMap: map[string]string{
			"position_controller": actuator.ModeExtendedPosition,
			"velocity_controller": actuator.ModeVelocity,
			"torque_off":          actuator.ModeTorqueDisable,
		},
		ItemMap: map[string]map[string]int{
			actuator.ModeExtendedPosition: {dxl.ItemPositionPGain: 800, dxl.ItemProfileAcceleration: 0},
		},
		AdditionalStates:   []string{dxl.ItemPresentTemperature, dxl.ItemPresentInputVoltage},
		AdditionalCommands: []string{dxl.ItemLED},
	}
	cfg.Controllers = map[string]ControllerConfig{
		"position_controller": {Type: "position", Joints: []string{"joint1"}, Amplitude: 0.8, Frequency: 0.5},
		"velocity_controller": {Type: "velocity", Joints: []string{"joint1"}, Target: 0.5, Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		"torque_off":          {Type: "mode", Joints: []string{"joint1"}},
		"led":                 {Type: "forward", Joints: []string{"joint1"}, Item: dxl.ItemLED, Value: 1},
	}
	cfg.Start = []string{"position_controller", "led"}
	cfg.Schedule = []SwitchConfig{
		{At: 3, Start: []string{"velocity_controller"}, Stop: []string{"position_controller"}},
		{At: 5, Start: []string{"torque_off"}, Stop: []string{"velocity_controller"}},
	}
	return cfg
}

func dualArm() *Config {
	cfg := Default()
	cfg.Duration = 8
	cfg.Actuators["shoulder"] = ActuatorConfig{
		ID:             intPtr(1),
		TorqueConstant: floatPtr(2.4),
		Model:          "XM540-W270",
		OperatingModeMap: map[string]string{
			"arm_position": actuator.ModeCurrentBasedPosition,
			"arm_effort":   actuator.ModeCurrent,
			"arm_off":      actuator.ModeTorqueDisable,
			"arm_reboot":   actuator.ModeReboot,
		},
		AdditionalStates: []string{dxl.ItemPresentTemperature},
	}
	cfg.Actuators["elbow"] = ActuatorConfig{
		ID:             intPtr(2),
		TorqueConstant: floatPtr(DefaultTorqueConstant),
		Model:          "XM430-W350",
		OperatingModeMap: map[string]string{
			"arm_position": actuator.ModeExtendedPosition,
			"arm_effort":   actuator.ModeCurrent,
			"arm_off":      actuator.ModeTorqueDisable,
			"arm_reboot":   actuator.ModeReboot,
		},
		AdditionalStates: []string{dxl.ItemPresentTemperature},
	}
	cfg.Controllers = map[string]ControllerConfig{
		"arm_position": {Type: "position", Joints: []string{"shoulder", "elbow"}, Amplitude: 0.5, Frequency: 0.25},
		"arm_effort":   {Type: "effort", Joints: []string{"shoulder", "elbow"}, Effort: 0.05},
		"arm_off":      {Type: "mode", Joints: []string{"shoulder", "elbow"}},
		"arm_reboot":   {Type: "mode", Joints: []string{"shoulder", "elbow"}},
	}
	cfg.Start = []string{"arm_position"}
	cfg.Schedule = []SwitchConfig{
		{At: 4, Start: []string{"arm_effort"}, Stop: []string{"arm_position"}},
		{At: 6, Start: []string{"arm_off"}, Stop: []string{"arm_effort"}},
	}
	return cfg
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
