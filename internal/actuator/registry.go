package actuator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/dxlhw/internal/dxl"
)

// Operating mode type tags accepted in operating_mode_map.
const (
	ModeClearMultiTurn       = "clear_multi_turn"
	ModeCurrent              = "current"
	ModeCurrentBasedPosition = "current_based_position"
	ModeExtendedPosition     = "extended_position"
	ModeReboot               = "reboot"
	ModeTorqueDisable        = "torque_disable"
	ModeVelocity             = "velocity"
)

type modeFactory func(data *Data, items map[string]int, logger *slog.Logger) OperatingMode

var factories = map[string]modeFactory{
	ModeClearMultiTurn: func(d *Data, _ map[string]int, l *slog.Logger) OperatingMode {
		return NewClearMultiTurnMode(d, l)
	},
	ModeCurrent: func(d *Data, items map[string]int, l *slog.Logger) OperatingMode {
		return NewCurrentMode(d, items, l)
	},
	ModeCurrentBasedPosition: func(d *Data, items map[string]int, l *slog.Logger) OperatingMode {
		return NewCurrentBasedPositionMode(d, items, l)
	},
	ModeExtendedPosition: func(d *Data, items map[string]int, l *slog.Logger) OperatingMode {
		return NewExtendedPositionMode(d, items, l)
	},
	ModeReboot: func(d *Data, _ map[string]int, l *slog.Logger) OperatingMode {
		return NewRebootMode(d, l)
	},
	ModeTorqueDisable: func(d *Data, _ map[string]int, l *slog.Logger) OperatingMode {
		return NewTorqueDisableMode(d, l)
	},
	ModeVelocity: func(d *Data, items map[string]int, l *slog.Logger) OperatingMode {
		return NewVelocityMode(d, items, l)
	},
}

// ModeTypes lists the known operating mode type tags.
func ModeTypes() []string {
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsModeType reports whether t is a known operating mode type tag.
func IsModeType(t string) bool {
	_, ok := factories[t]
	return ok
}

// ModeRegistry maps controller names to operating modes. It is immutable once built.
type ModeRegistry struct {
	modes map[string]OperatingMode
}

// NewModeRegistry builds one mode per entry of modeMap (controller name to
// mode type). itemMaps holds the optional item map of each mode type; every
// item must exist in the servo's control table and be writable.
func NewModeRegistry(data *Data, modeMap map[string]string, itemMaps map[string]map[string]int, logger *slog.Logger) (*ModeRegistry, error) {
	r := &ModeRegistry{modes: make(map[string]OperatingMode, len(modeMap))}
	for _, controller := range sortedKeys(modeMap) {
		modeType := modeMap[controller]
		factory, ok := factories[modeType]
		if !ok {
			return nil, fmt.Errorf("%w: %q for controller %q", ErrUnknownMode, modeType, controller)
		}
		items, err := copyItemMap(modeType, itemMaps[modeType])
		if err != nil {
			return nil, err
		}
		r.modes[controller] = factory(data, items, logger)
	}
	return r, nil
}

// NewModeRegistryFrom wraps prebuilt modes.
func NewModeRegistryFrom(modes map[string]OperatingMode) *ModeRegistry {
	r := &ModeRegistry{modes: make(map[string]OperatingMode, len(modes))}
	for name, m := range modes {
		if m != nil {
			r.modes[name] = m
		}
	}
	return r
}

func copyItemMap(modeType string, items map[string]int) (map[string]int, error) {
	out := make(map[string]int, len(items))
	for name, v := range items {
		it, err := dxl.LookupItem(name)
		if err != nil {
			return nil, &ParamError{Key: "item_map/" + modeType + "/" + name, Reason: err.Error()}
		}
		if it.ReadOnly {
			return nil, &ParamError{Key: "item_map/" + modeType + "/" + name, Reason: "item is read-only"}
		}
		out[name] = v
	}
	return out, nil
}

// Lookup returns the mode claimed by a controller.
func (r *ModeRegistry) Lookup(controller string) (OperatingMode, bool) {
	m, ok := r.modes[controller]
	return m, ok
}

// Controllers returns the registered controller names in sorted order.
func (r *ModeRegistry) Controllers() []string {
	return sortedKeys(r.modes)
}

func (r *ModeRegistry) Len() int { return len(r.modes) }
