package voidscript

import "errors"

var (
	// ErrInvalidEntity is returned when an operation receives a stale or
	// destroyed entity handle.
	ErrInvalidEntity = errors.New("voidscript: invalid entity")

	// ErrComponentNotFound is returned by required-component reads on an
	// entity that lacks the component.
	ErrComponentNotFound = errors.New("voidscript: component not found")

	// ErrTypeConflict is returned when a component name is re-registered
	// with a different Go type.
	ErrTypeConflict = errors.New("voidscript: component name registered with a different type")

	// ErrUnknownComponent is returned for lookups of component names or IDs
	// that were never registered.
	ErrUnknownComponent = errors.New("voidscript: unknown component")

	// ErrUnknownField is returned by schema field access for paths that do
	// not exist on a component type.
	ErrUnknownField = errors.New("voidscript: unknown field")
)
