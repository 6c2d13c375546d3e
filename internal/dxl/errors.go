package dxl

import "errors"

var (
	// ErrNoResponse indicates no servo answered on the given id.
	ErrNoResponse = errors.New("dxl: no response from servo")

	// ErrUnknownItem indicates the control-table item name is not known.
	ErrUnknownItem = errors.New("dxl: unknown control table item")

	// ErrAccess indicates the item cannot be written in the servo's present state,
	// e.g. an EEPROM item while torque is enabled.
	ErrAccess = errors.New("dxl: control table access denied")

	// ErrReadOnly indicates a write to a read-only item.
	ErrReadOnly = errors.New("dxl: control table item is read-only")
)
