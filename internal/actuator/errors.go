package actuator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParam indicates a missing or out-of-range configuration parameter.
	ErrInvalidParam = errors.New("actuator: invalid parameter")

	// ErrUnknownMode indicates an operating mode type that is not one of the known variants.
	ErrUnknownMode = errors.New("actuator: unknown operating mode")

	// ErrServoNotFound indicates the servo did not answer a ping during initialization.
	ErrServoNotFound = errors.New("actuator: servo not found")

	// ErrRegistration indicates the hardware interfaces refused the actuator's handles.
	ErrRegistration = errors.New("actuator: handle registration failed")

	// ErrInfeasibleSwitch indicates a switch would leave more than one mode active.
	ErrInfeasibleSwitch = errors.New("actuator: infeasible controller switch")
)

// ParamError reports a configuration parameter that is missing or invalid.
type ParamError struct {
	Key    string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("actuator: parameter %q: %s", e.Key, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParam
}

// SwitchError reports a rejected switch and how many modes it would have left active.
type SwitchError struct {
	Actuator string
	Modes    int
}

func (e *SwitchError) Error() string {
	return fmt.Sprintf("actuator %s: switch would leave %d operating modes active", e.Actuator, e.Modes)
}

func (e *SwitchError) Unwrap() error {
	return ErrInfeasibleSwitch
}
