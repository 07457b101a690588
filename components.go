package voidscript

import (
	"fmt"
	"unsafe"
)

// AddComponent adds a component of type T to the entity with its registered
// default (or zero) value and returns a pointer to the stored data. If the
// entity already has the component, the existing data is returned untouched.
//
// Adding a component moves the entity to a different archetype, which
// invalidates component pointers obtained earlier.
func AddComponent[T any](w *World, e Entity) (*T, error) {
	id, err := idFor[T](w.registry)
	if err != nil {
		return nil, err
	}
	ptr, err := w.AddComponentByID(e, id)
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// SetComponent adds the component with the given value, or overwrites it in
// place if the entity already has it.
func SetComponent[T any](w *World, e Entity, val T) error {
	ptr, err := AddComponent[T](w, e)
	if err != nil {
		return err
	}
	*ptr = val
	return nil
}

// GetComponent retrieves a pointer to the entity's component of type T, or
// nil if the entity is invalid or lacks the component. The pointer is valid
// until the next structural change.
func GetComponent[T any](w *World, e Entity) *T {
	id, err := idFor[T](w.registry)
	if err != nil {
		return nil
	}
	ptr, ok := w.componentPtr(e, id)
	if !ok {
		return nil
	}
	return (*T)(ptr)
}

// TryGetComponent retrieves the component if present, reporting absence
// without an error.
func TryGetComponent[T any](w *World, e Entity) (*T, bool) {
	p := GetComponent[T](w, e)
	return p, p != nil
}

// GetRequiredComponent retrieves the component or fails with
// ErrComponentNotFound (or ErrInvalidEntity for a stale handle).
func GetRequiredComponent[T any](w *World, e Entity) (*T, error) {
	id, err := idFor[T](w.registry)
	if err != nil {
		return nil, err
	}
	ptr, ok := w.componentPtr(e, id)
	if !ok {
		if !w.IsAlive(e) {
			return nil, fmt.Errorf("%w: %d@%d", ErrInvalidEntity, e.Index(), e.Generation())
		}
		ct, _ := w.registry.ByID(id)
		return nil, fmt.Errorf("%w: %q on entity %d", ErrComponentNotFound, ct.Name, e.Index())
	}
	return (*T)(ptr), nil
}

// RemoveComponent removes the component of type T from the entity. Removing a
// component the entity does not have is a no-op.
func RemoveComponent[T any](w *World, e Entity) error {
	id, err := idFor[T](w.registry)
	if err != nil {
		return err
	}
	return w.RemoveComponentByID(e, id)
}

// componentPtrAt indexes straight into the component array; callers must
// have validated the archetype and row.
func componentPtrAt(a *archetype, id ComponentID, row int) unsafe.Pointer {
	return unsafe.Add(a.compPointers[id], uintptr(row)*a.compSizes[id])
}
