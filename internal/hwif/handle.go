package hwif

// Kind names a hardware interface a handle can be registered to.
type Kind string

const (
	KindState      Kind = "state"
	KindPosition   Kind = "position"
	KindVelocity   Kind = "velocity"
	KindEffort     Kind = "effort"
	KindInt32State Kind = "int32_state"
	KindInt32      Kind = "int32"
)

// AllKinds lists every interface kind in registration order.
func AllKinds() []Kind {
	return []Kind{KindState, KindPosition, KindVelocity, KindEffort, KindInt32State, KindInt32}
}

// IsCommand reports whether handles of this kind carry a writable command.
func (k Kind) IsCommand() bool {
	switch k {
	case KindPosition, KindVelocity, KindEffort, KindInt32:
		return true
	}
	return false
}

type Handle interface {
	Name() string
	valid() bool
}

type ActuatorStateHandle struct {
	name          string
	pos, vel, eff *float64
}

func NewActuatorStateHandle(name string, pos, vel, eff *float64) ActuatorStateHandle {
	return ActuatorStateHandle{name: name, pos: pos, vel: vel, eff: eff}
}

func (h ActuatorStateHandle) Name() string      { return h.name }
func (h ActuatorStateHandle) Position() float64 { return *h.pos }
func (h ActuatorStateHandle) Velocity() float64 { return *h.vel }
func (h ActuatorStateHandle) Effort() float64   { return *h.eff }
func (h ActuatorStateHandle) valid() bool       { return h.pos != nil && h.vel != nil && h.eff != nil }

// ActuatorHandle couples an actuator's state with one command register.
type ActuatorHandle struct {
	ActuatorStateHandle
	cmd *float64
}

func NewActuatorHandle(state ActuatorStateHandle, cmd *float64) ActuatorHandle {
	return ActuatorHandle{ActuatorStateHandle: state, cmd: cmd}
}

func (h ActuatorHandle) Command() float64     { return *h.cmd }
func (h ActuatorHandle) SetCommand(v float64) { *h.cmd = v }
func (h ActuatorHandle) valid() bool          { return h.ActuatorStateHandle.valid() && h.cmd != nil }

type Int32StateHandle struct {
	name  string
	value *int32
}

func NewInt32StateHandle(name string, value *int32) Int32StateHandle {
	return Int32StateHandle{name: name, value: value}
}

func (h Int32StateHandle) Name() string { return h.name }
func (h Int32StateHandle) Value() int32 { return *h.value }
func (h Int32StateHandle) valid() bool  { return h.value != nil }

// Int32Handle is a writable integer register. State and command may share
// the same storage.
type Int32Handle struct {
	Int32StateHandle
	cmd *int32
}

func NewInt32Handle(name string, value, cmd *int32) Int32Handle {
	return Int32Handle{Int32StateHandle: NewInt32StateHandle(name, value), cmd: cmd}
}

func (h Int32Handle) Command() int32     { return *h.cmd }
func (h Int32Handle) SetCommand(v int32) { *h.cmd = v }
func (h Int32Handle) valid() bool        { return h.Int32StateHandle.valid() && h.cmd != nil }

// Registration pairs a handle with the interface it is exposed on.
type Registration struct {
	Kind   Kind
	Handle Handle
}

// ControllerInfo describes a controller taking part in a switch request.
type ControllerInfo struct {
	Name      string
	Type      string
	Resources []string
}

// Names extracts controller names, preserving order.
func Names(infos []ControllerInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
