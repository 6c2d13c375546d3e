package hwif

import "errors"

var (
	// ErrKindUnavailable indicates the registrar does not offer the requested interface.
	ErrKindUnavailable = errors.New("hwif: hardware interface not available")

	// ErrDuplicateHandle indicates a handle name is already registered for the interface.
	ErrDuplicateHandle = errors.New("hwif: handle already registered")

	// ErrHandleNotFound indicates no handle with the given name exists.
	ErrHandleNotFound = errors.New("hwif: handle not found")

	// ErrHandleType indicates the registered handle does not have the requested type.
	ErrHandleType = errors.New("hwif: handle has unexpected type")

	// ErrNilHandle indicates a handle was built without its backing storage.
	ErrNilHandle = errors.New("hwif: handle has nil storage")
)
