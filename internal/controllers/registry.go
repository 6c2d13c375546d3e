package controllers

import (
	"fmt"
	"sort"

	"github.com/san-kum/dxlhw/internal/config"
)

const (
	TypeEffort   = "effort"
	TypeForward  = "forward"
	TypeMode     = "mode"
	TypePosition = "position"
	TypeVelocity = "velocity"
)

type Factory func(name string, cfg config.ControllerConfig) Controller

type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.factories[TypePosition] = func(name string, cfg config.ControllerConfig) Controller {
		return NewPosition(name, cfg.Joints, cfg.Target, cfg.Amplitude, cfg.Frequency)
	}
	r.factories[TypeVelocity] = func(name string, cfg config.ControllerConfig) Controller {
		return NewVelocity(name, cfg.Joints, cfg.Kp, cfg.Ki, cfg.Kd, cfg.Target)
	}
	r.factories[TypeEffort] = func(name string, cfg config.ControllerConfig) Controller {
		return NewEffort(name, cfg.Joints, cfg.Effort)
	}
	r.factories[TypeForward] = func(name string, cfg config.ControllerConfig) Controller {
		return NewForward(name, cfg.Joints, cfg.Item, cfg.Value)
	}
	r.factories[TypeMode] = func(name string, cfg config.ControllerConfig) Controller {
		return NewMode(name, cfg.Joints)
	}

	return r
}

// Register adds or replaces the factory for typ.
func (r *Registry) Register(typ string, f Factory) {
	r.factories[typ] = f
}

func (r *Registry) New(name string, cfg config.ControllerConfig) (Controller, error) {
	fn, ok := r.factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q (controller %s)", ErrUnknownType, cfg.Type, name)
	}
	return fn(name, cfg), nil
}

func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
