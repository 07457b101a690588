package voidscript

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// FieldKind classifies a component field for schema-driven serialization and
// editor access. Values are normalized at the boundary: all signed integers
// read as int64, unsigned as uint64, floats as float64.
type FieldKind uint8

const (
	KindBool FieldKind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindEntity      // reference to another entity, remapped on save/load
	KindEntitySlice // []Entity, remapped element-wise
	KindBytes       // opaque payload, kept for forward compatibility
	KindStruct      // nested struct, flattened into dotted paths
)

// FieldSpec describes one field of a registered component type. The schema is
// built once at registration via reflection; all later reads and writes go
// through stored offsets without reflecting again.
type FieldSpec struct {
	Name         string
	Kind         FieldKind
	Serializable bool // false: dropped on save, restored from defaults on load
	AssetRef     bool // string field holding an asset GUID
	Fields       []FieldSpec
	offset       uintptr // byte offset from the component base
	typ          reflect.Type
}

var (
	entityType      = reflect.TypeOf(Entity(0))
	entitySliceType = reflect.TypeOf([]Entity(nil))
	byteSliceType   = reflect.TypeOf([]byte(nil))
)

// buildFieldSchema flattens the exported fields of t into FieldSpecs with
// offsets relative to base+baseOffset. Unexported fields are skipped; they are
// invisible to serialization and the editor.
func buildFieldSchema(t reflect.Type, baseOffset uintptr) ([]FieldSpec, error) {
	specs := make([]FieldSpec, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, serializable, assetRef := parseFieldTag(f)
		spec := FieldSpec{
			Name:         name,
			Serializable: serializable,
			AssetRef:     assetRef,
			offset:       baseOffset + f.Offset,
			typ:          f.Type,
		}
		kind, err := fieldKindOf(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), f.Name, err)
		}
		spec.Kind = kind
		if kind == KindStruct {
			sub, err := buildFieldSchema(f.Type, spec.offset)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", t.Name(), f.Name, err)
			}
			spec.Fields = sub
		}
		if assetRef && kind != KindString {
			return nil, fmt.Errorf("field %s.%s: asset tag requires a string field", t.Name(), f.Name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseFieldTag reads the `vs` struct tag: "-" marks a field non-serializable,
// a leading name renames it, and the "asset" option flags a GUID reference.
// Untagged fields serialize under their lower-camel name.
func parseFieldTag(f reflect.StructField) (name string, serializable, assetRef bool) {
	name = lowerFirst(f.Name)
	serializable = true
	tag, ok := f.Tag.Lookup("vs")
	if !ok {
		return name, serializable, false
	}
	parts := strings.Split(tag, ",")
	switch parts[0] {
	case "":
	case "-":
		serializable = false
	default:
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "asset" {
			assetRef = true
		}
	}
	return name, serializable, assetRef
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func fieldKindOf(t reflect.Type) (FieldKind, error) {
	switch t {
	case entityType:
		return KindEntity, nil
	case entitySliceType:
		return KindEntitySlice, nil
	case byteSliceType:
		return KindBytes, nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindUint, nil
	case reflect.Float32, reflect.Float64:
		return KindFloat, nil
	case reflect.String:
		return KindString, nil
	case reflect.Struct:
		return KindStruct, nil
	}
	return 0, fmt.Errorf("unsupported field type %s", t)
}

// findField resolves a dotted path ("position.x") against a field list.
func findField(fields []FieldSpec, path string) (*FieldSpec, error) {
	head, rest, nested := strings.Cut(path, ".")
	for i := range fields {
		f := &fields[i]
		if f.Name != head {
			continue
		}
		if !nested {
			return f, nil
		}
		if f.Kind != KindStruct {
			return nil, fmt.Errorf("%w: %q is not a struct", ErrUnknownField, head)
		}
		return findField(f.Fields, rest)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, head)
}

// readField reads a field from a component at base and returns a normalized
// value (int64/uint64/float64/bool/string/Entity/[]Entity/[]byte). Struct
// fields come back as a map of their exported fields.
func readField(base unsafe.Pointer, f *FieldSpec) any {
	p := unsafe.Add(base, f.offset)
	switch f.Kind {
	case KindBool:
		return *(*bool)(p)
	case KindInt:
		switch f.typ.Kind() {
		case reflect.Int:
			return int64(*(*int)(p))
		case reflect.Int8:
			return int64(*(*int8)(p))
		case reflect.Int16:
			return int64(*(*int16)(p))
		case reflect.Int32:
			return int64(*(*int32)(p))
		default:
			return *(*int64)(p)
		}
	case KindUint:
		switch f.typ.Kind() {
		case reflect.Uint:
			return uint64(*(*uint)(p))
		case reflect.Uint8:
			return uint64(*(*uint8)(p))
		case reflect.Uint16:
			return uint64(*(*uint16)(p))
		case reflect.Uint32:
			return uint64(*(*uint32)(p))
		default:
			return *(*uint64)(p)
		}
	case KindFloat:
		if f.typ.Kind() == reflect.Float32 {
			return float64(*(*float32)(p))
		}
		return *(*float64)(p)
	case KindString:
		return *(*string)(p)
	case KindEntity:
		return *(*Entity)(p)
	case KindEntitySlice:
		src := *(*[]Entity)(p)
		out := make([]Entity, len(src))
		copy(out, src)
		return out
	case KindBytes:
		src := *(*[]byte)(p)
		out := make([]byte, len(src))
		copy(out, src)
		return out
	case KindStruct:
		m := make(map[string]any, len(f.Fields))
		for i := range f.Fields {
			m[f.Fields[i].Name] = readField(base, &f.Fields[i])
		}
		return m
	}
	return nil
}

// writeField stores a value into a field, coercing decoded document values
// (JSON numbers arrive as float64, YAML as int64 or float64, bytes as base64
// strings). A nil value zeroes the field.
func writeField(base unsafe.Pointer, f *FieldSpec, v any) error {
	p := unsafe.Add(base, f.offset)
	if v == nil {
		memZero(p, f.typ.Size())
		return nil
	}
	switch f.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return coerceErr(f, v)
		}
		*(*bool)(p) = b
	case KindInt:
		n, ok := coerceInt(v)
		if !ok {
			return coerceErr(f, v)
		}
		switch f.typ.Kind() {
		case reflect.Int:
			*(*int)(p) = int(n)
		case reflect.Int8:
			*(*int8)(p) = int8(n)
		case reflect.Int16:
			*(*int16)(p) = int16(n)
		case reflect.Int32:
			*(*int32)(p) = int32(n)
		default:
			*(*int64)(p) = n
		}
	case KindUint:
		n, ok := coerceUint(v)
		if !ok {
			return coerceErr(f, v)
		}
		switch f.typ.Kind() {
		case reflect.Uint:
			*(*uint)(p) = uint(n)
		case reflect.Uint8:
			*(*uint8)(p) = uint8(n)
		case reflect.Uint16:
			*(*uint16)(p) = uint16(n)
		case reflect.Uint32:
			*(*uint32)(p) = uint32(n)
		default:
			*(*uint64)(p) = n
		}
	case KindFloat:
		n, ok := coerceFloat(v)
		if !ok {
			return coerceErr(f, v)
		}
		if f.typ.Kind() == reflect.Float32 {
			*(*float32)(p) = float32(n)
		} else {
			*(*float64)(p) = n
		}
	case KindString:
		s, ok := v.(string)
		if !ok {
			return coerceErr(f, v)
		}
		*(*string)(p) = s
	case KindEntity:
		e, ok := v.(Entity)
		if !ok {
			return coerceErr(f, v)
		}
		*(*Entity)(p) = e
	case KindEntitySlice:
		es, ok := v.([]Entity)
		if !ok {
			return coerceErr(f, v)
		}
		out := make([]Entity, len(es))
		copy(out, es)
		*(*[]Entity)(p) = out
	case KindBytes:
		switch b := v.(type) {
		case []byte:
			out := make([]byte, len(b))
			copy(out, b)
			*(*[]byte)(p) = out
		case string:
			decoded, err := base64.StdEncoding.DecodeString(b)
			if err != nil {
				return coerceErr(f, v)
			}
			*(*[]byte)(p) = decoded
		default:
			return coerceErr(f, v)
		}
	case KindStruct:
		m, ok := v.(map[string]any)
		if !ok {
			return coerceErr(f, v)
		}
		for key, val := range m {
			sub, err := findField(f.Fields, key)
			if err != nil {
				return err
			}
			if err := writeField(base, sub, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func coerceErr(f *FieldSpec, v any) error {
	return fmt.Errorf("field %q: cannot assign %T", f.Name, v)
}

func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func coerceUint(v any) (uint64, bool) {
	n, ok := coerceInt(v)
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		i, ok := coerceInt(v)
		if !ok {
			return 0, false
		}
		return float64(i), true
	}
}
