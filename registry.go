package voidscript

import (
	"fmt"
	"reflect"
	"unsafe"
)

// MaxComponentTypes defines the maximum number of unique component types that
// can be registered. This value is fixed at 256.
const MaxComponentTypes = 256

// ComponentID is a stable identifier assigned to a component type for the
// lifetime of its Registry.
type ComponentID uint8

// ComponentType is the registered descriptor for a component: its name, its
// field schema, and whether it participates in serialization at all.
type ComponentType struct {
	Name         string
	Fields       []FieldSpec
	ID           ComponentID
	Serializable bool

	typ          reflect.Type
	size         uintptr
	writeDefault func(dst unsafe.Pointer) // nil means zero value
}

// GoType returns the Go type backing the component.
func (ct *ComponentType) GoType() reflect.Type { return ct.typ }

// Field resolves a dotted field path ("position.x") against the schema.
func (ct *ComponentType) Field(path string) (*FieldSpec, error) {
	f, err := findField(ct.Fields, path)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", ct.Name, err)
	}
	return f, nil
}

// Registry maps component type names to schemas and stable IDs. It is an
// explicit value passed to NewWorld rather than process-global state, so
// embedders and tests can hold independent registries.
type Registry struct {
	byName map[string]*ComponentType
	byType map[reflect.Type]ComponentID
	byID   [MaxComponentTypes]*ComponentType
	next   uint16
}

// NewRegistry creates a registry with the built-in hierarchy components
// (Parent, Children) already registered.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*ComponentType, 32),
		byType: make(map[reflect.Type]ComponentID, 32),
	}
	if _, err := RegisterComponent[Parent](r, "Parent"); err != nil {
		panic(err)
	}
	if _, err := RegisterComponent[Children](r, "Children"); err != nil {
		panic(err)
	}
	return r
}

// RegisterComponent registers T under the given name and returns its stable
// ID. Registering the same name with the same type again returns the existing
// ID; a different type, or the same type under a second name, fails with
// ErrTypeConflict.
func RegisterComponent[T any](r *Registry, name string) (ComponentID, error) {
	return registerComponent[T](r, name, true, nil)
}

// RegisterComponentWithDefault registers T with a default-value factory. The
// factory runs whenever the component is added without explicit data,
// including restoring non-serializable fields on load.
func RegisterComponentWithDefault[T any](r *Registry, name string, def func() T) (ComponentID, error) {
	return registerComponent[T](r, name, true, def)
}

// RegisterTransientComponent registers T as a runtime-only component: it is
// never written to documents and is not recreated on load.
func RegisterTransientComponent[T any](r *Registry, name string) (ComponentID, error) {
	return registerComponent[T](r, name, false, nil)
}

// MustRegister is RegisterComponent that panics on error, for init-time
// registration tables.
func MustRegister[T any](r *Registry, name string) ComponentID {
	id, err := RegisterComponent[T](r, name)
	if err != nil {
		panic(err)
	}
	return id
}

func registerComponent[T any](r *Registry, name string, serializable bool, def func() T) (ComponentID, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return 0, fmt.Errorf("voidscript: component %q must be a struct type", name)
	}
	if existing, ok := r.byName[name]; ok {
		if existing.typ != t {
			return 0, fmt.Errorf("%w: %q is %s, not %s", ErrTypeConflict, name, existing.typ, t)
		}
		return existing.ID, nil
	}
	// The typed accessors resolve components through the Go type, so one type
	// cannot back two names.
	if prev, ok := r.byType[t]; ok {
		return 0, fmt.Errorf("%w: type %s is already registered as %q", ErrTypeConflict, t, r.byID[prev].Name)
	}
	if r.next >= MaxComponentTypes {
		return 0, fmt.Errorf("voidscript: cannot register %q: maximum number of component types (%d) reached", name, MaxComponentTypes)
	}
	fields, err := buildFieldSchema(t, 0)
	if err != nil {
		return 0, fmt.Errorf("voidscript: register %q: %w", name, err)
	}
	ct := &ComponentType{
		ID:           ComponentID(r.next),
		Name:         name,
		Serializable: serializable,
		Fields:       fields,
		typ:          t,
		size:         t.Size(),
	}
	if def != nil {
		ct.writeDefault = func(dst unsafe.Pointer) {
			*(*T)(dst) = def()
		}
	}
	r.byName[name] = ct
	r.byID[ct.ID] = ct
	r.byType[t] = ct.ID
	r.next++
	return ct.ID, nil
}

// ByName looks up a component type by its registered name.
func (r *Registry) ByName(name string) (*ComponentType, bool) {
	ct, ok := r.byName[name]
	return ct, ok
}

// ByID looks up a component type by its stable ID.
func (r *Registry) ByID(id ComponentID) (*ComponentType, bool) {
	ct := r.byID[id]
	return ct, ct != nil
}

// IDByType returns the ComponentID registered for a Go type.
func (r *Registry) IDByType(t reflect.Type) (ComponentID, bool) {
	id, ok := r.byType[t]
	return id, ok
}

// Len returns the number of registered component types.
func (r *Registry) Len() int { return int(r.next) }

// idFor returns the ID for T, or an error if T was never registered.
func idFor[T any](r *Registry) (ComponentID, error) {
	var zero T
	t := reflect.TypeOf(zero)
	id, ok := r.byType[t]
	if !ok {
		return 0, fmt.Errorf("%w: type %s", ErrUnknownComponent, t)
	}
	return id, nil
}
