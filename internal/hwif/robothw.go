package hwif

import (
	"fmt"
	"sort"
	"sync"
)

// Registrar accepts handle registrations from actuators.
type Registrar interface {
	Register(regs ...Registration) error
}

// RobotHW is an in-memory Registrar that also serves handle lookups.
type RobotHW struct {
	mu      sync.RWMutex
	offered map[Kind]bool
	handles map[Kind]map[string]Handle
}

// NewRobotHW creates a registry offering the given interfaces, or all of them
// when none are given.
func NewRobotHW(kinds ...Kind) *RobotHW {
	if len(kinds) == 0 {
		kinds = AllKinds()
	}
	r := &RobotHW{
		offered: make(map[Kind]bool, len(kinds)),
		handles: make(map[Kind]map[string]Handle, len(kinds)),
	}
	for _, k := range kinds {
		r.offered[k] = true
		r.handles[k] = make(map[string]Handle)
	}
	return r
}

// Register adds every registration or none of them.
func (r *RobotHW) Register(regs ...Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[Kind]map[string]bool)
	for _, reg := range regs {
		if !r.offered[reg.Kind] {
			return fmt.Errorf("%w: %s", ErrKindUnavailable, reg.Kind)
		}
		if reg.Handle == nil || !reg.Handle.valid() {
			return fmt.Errorf("%w: %s", ErrNilHandle, reg.Kind)
		}
		name := reg.Handle.Name()
		if _, exists := r.handles[reg.Kind][name]; exists || batch[reg.Kind][name] {
			return fmt.Errorf("%w: %s %q", ErrDuplicateHandle, reg.Kind, name)
		}
		if batch[reg.Kind] == nil {
			batch[reg.Kind] = make(map[string]bool)
		}
		batch[reg.Kind][name] = true
	}

	for _, reg := range regs {
		r.handles[reg.Kind][reg.Handle.Name()] = reg.Handle
	}
	return nil
}

// Kinds returns the offered interfaces in AllKinds order.
func (r *RobotHW) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kinds []Kind
	for _, k := range AllKinds() {
		if r.offered[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Stage returns an empty registry offering the same interfaces as r.
// Registrations collected in it reach r only through Merge.
func (r *RobotHW) Stage() *RobotHW {
	return NewRobotHW(r.Kinds()...)
}

// Merge registers every handle of staged into r, all or nothing.
func (r *RobotHW) Merge(staged *RobotHW) error {
	staged.mu.RLock()
	var regs []Registration
	for _, k := range AllKinds() {
		names := make([]string, 0, len(staged.handles[k]))
		for name := range staged.handles[k] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			regs = append(regs, Registration{Kind: k, Handle: staged.handles[k][name]})
		}
	}
	staged.mu.RUnlock()

	return r.Register(regs...)
}

// Names returns the sorted handle names registered for kind.
func (r *RobotHW) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handles[kind]))
	for name := range r.handles[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *RobotHW) lookup(kind Kind, name string) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.offered[kind] {
		return nil, fmt.Errorf("%w: %s", ErrKindUnavailable, kind)
	}
	h, ok := r.handles[kind][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrHandleNotFound, kind, name)
	}
	return h, nil
}

func (r *RobotHW) ActuatorState(name string) (ActuatorStateHandle, error) {
	h, err := r.lookup(KindState, name)
	if err != nil {
		return ActuatorStateHandle{}, err
	}
	sh, ok := h.(ActuatorStateHandle)
	if !ok {
		return ActuatorStateHandle{}, fmt.Errorf("%w: %s %q", ErrHandleType, KindState, name)
	}
	return sh, nil
}

// Actuator looks up a command handle on the position, velocity or effort interface.
func (r *RobotHW) Actuator(kind Kind, name string) (ActuatorHandle, error) {
	h, err := r.lookup(kind, name)
	if err != nil {
		return ActuatorHandle{}, err
	}
	ah, ok := h.(ActuatorHandle)
	if !ok {
		return ActuatorHandle{}, fmt.Errorf("%w: %s %q", ErrHandleType, kind, name)
	}
	return ah, nil
}

func (r *RobotHW) Int32State(name string) (Int32StateHandle, error) {
	h, err := r.lookup(KindInt32State, name)
	if err != nil {
		return Int32StateHandle{}, err
	}
	ih, ok := h.(Int32StateHandle)
	if !ok {
		return Int32StateHandle{}, fmt.Errorf("%w: %s %q", ErrHandleType, KindInt32State, name)
	}
	return ih, nil
}

func (r *RobotHW) Int32(name string) (Int32Handle, error) {
	h, err := r.lookup(KindInt32, name)
	if err != nil {
		return Int32Handle{}, err
	}
	ih, ok := h.(Int32Handle)
	if !ok {
		return Int32Handle{}, fmt.Errorf("%w: %s %q", ErrHandleType, KindInt32, name)
	}
	return ih, nil
}
