package voidscript

import (
	"fmt"
	"unsafe"
)

// GetField reads a single component field by dotted path, e.g.
// GetField(e, "Transform", "position.x"). Values come back normalized
// (int64/uint64/float64/bool/string/Entity/[]Entity/[]byte, nested structs as
// maps).
func (w *World) GetField(e Entity, component, path string) (any, error) {
	ct, base, err := w.fieldTarget(e, component)
	if err != nil {
		return nil, err
	}
	f, err := ct.Field(path)
	if err != nil {
		return nil, err
	}
	return readField(base, f), nil
}

// SetField writes a single component field by dotted path, coercing decoded
// document values where needed.
func (w *World) SetField(e Entity, component, path string, value any) error {
	ct, base, err := w.fieldTarget(e, component)
	if err != nil {
		return err
	}
	f, err := ct.Field(path)
	if err != nil {
		return err
	}
	return writeField(base, f, value)
}

// ReadComponent returns the entity's component data as a nested map holding
// only serializable fields, the shape that goes into documents.
func (w *World) ReadComponent(e Entity, component string) (map[string]any, error) {
	ct, base, err := w.fieldTarget(e, component)
	if err != nil {
		return nil, err
	}
	return readSerializableFields(base, ct.Fields), nil
}

// WriteComponent applies a nested data map onto the entity's component.
// Unknown keys and un-coercible values fail; already-written fields are not
// rolled back.
func (w *World) WriteComponent(e Entity, component string, data map[string]any) error {
	ct, base, err := w.fieldTarget(e, component)
	if err != nil {
		return err
	}
	return writeFieldMap(base, ct.Fields, data)
}

func (w *World) fieldTarget(e Entity, component string) (*ComponentType, unsafe.Pointer, error) {
	ct, ok := w.registry.ByName(component)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownComponent, component)
	}
	base, ok := w.componentPtr(e, ct.ID)
	if !ok {
		if !w.IsAlive(e) {
			return nil, nil, fmt.Errorf("%w: %d@%d", ErrInvalidEntity, e.Index(), e.Generation())
		}
		return nil, nil, fmt.Errorf("%w: %q on entity %d", ErrComponentNotFound, component, e.Index())
	}
	return ct, base, nil
}

// readSerializableFields builds the document-shape map for a field list,
// skipping fields flagged non-serializable.
func readSerializableFields(base unsafe.Pointer, fields []FieldSpec) map[string]any {
	m := make(map[string]any, len(fields))
	for i := range fields {
		f := &fields[i]
		if !f.Serializable {
			continue
		}
		if f.Kind == KindStruct {
			m[f.Name] = readSerializableFields(base, f.Fields)
			continue
		}
		m[f.Name] = readField(base, f)
	}
	return m
}

func writeFieldMap(base unsafe.Pointer, fields []FieldSpec, data map[string]any) error {
	for key, val := range data {
		f, err := findField(fields, key)
		if err != nil {
			return err
		}
		if err := writeField(base, f, val); err != nil {
			return err
		}
	}
	return nil
}
