// Package editor provides the inspector-facing view over scene documents:
// path-addressed property access with modify/apply/save tracking, and an
// undo/redo stack over the resulting change records.
package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voidscript/voidscript/scene"
)

// DirtyState tracks where a document sits between edit and disk.
type DirtyState int

const (
	// StateClean means the document matches what was last saved.
	StateClean DirtyState = iota
	// StateModified means properties were set but not yet applied.
	StateModified
	// StateApplied means changes were applied and await a save.
	StateApplied
)

func (s DirtyState) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateModified:
		return "modified"
	case StateApplied:
		return "applied"
	}
	return "unknown"
}

// ChangeRecord is one applied property edit, carrying enough to undo it.
type ChangeRecord struct {
	Path     string
	OldValue any
	NewValue any
}

// SerializedObject wraps a scene document for path-addressed editing.
// Writes accumulate as pending changes; ApplyModifiedProperties commits them
// to the document and hands back change records for the undo stack.
type SerializedObject struct {
	doc     *scene.Document
	pending map[string]ChangeRecord
	order   []string
	state   DirtyState
}

// NewSerializedObject wraps a document. The document is edited in place.
func NewSerializedObject(doc *scene.Document) *SerializedObject {
	return &SerializedObject{doc: doc, pending: make(map[string]ChangeRecord)}
}

// Document returns the underlying document.
func (o *SerializedObject) Document() *scene.Document { return o.doc }

// State returns the current dirty state.
func (o *SerializedObject) State() DirtyState { return o.state }

// FindProperty resolves a path like
// "entities[0].components[2].data.position.x" into a property handle.
// Resolution fails if the path does not address an existing value.
func (o *SerializedObject) FindProperty(path string) (*SerializedProperty, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if _, err := o.resolve(segs); err != nil {
		return nil, err
	}
	return &SerializedProperty{obj: o, path: path, segs: segs}, nil
}

// ApplyModifiedProperties commits all pending writes to the document and
// returns their change records in write order. The state moves to Applied.
// With nothing pending it returns nil and leaves the state alone.
func (o *SerializedObject) ApplyModifiedProperties() ([]ChangeRecord, error) {
	if len(o.pending) == 0 {
		return nil, nil
	}
	records := make([]ChangeRecord, 0, len(o.pending))
	for _, path := range o.order {
		rec := o.pending[path]
		segs, err := parsePath(path)
		if err != nil {
			return nil, err
		}
		if err := o.write(segs, rec.NewValue); err != nil {
			return nil, fmt.Errorf("apply %s: %w", path, err)
		}
		records = append(records, rec)
	}
	o.pending = make(map[string]ChangeRecord)
	o.order = o.order[:0]
	o.state = StateApplied
	return records, nil
}

// DiscardModifiedProperties drops pending writes without touching the
// document.
func (o *SerializedObject) DiscardModifiedProperties() {
	o.pending = make(map[string]ChangeRecord)
	o.order = o.order[:0]
	if o.state == StateModified {
		o.state = StateClean
	}
}

// MarkSaved records that the document was written to disk.
func (o *SerializedObject) MarkSaved() {
	if o.state == StateApplied {
		o.state = StateClean
	}
}

// setDirect writes a value straight into the document, bypassing the pending
// queue. Used by undo/redo, which must not re-enter the dirty pipeline.
func (o *SerializedObject) setDirect(path string, value any) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	if err := o.write(segs, value); err != nil {
		return err
	}
	o.state = StateApplied
	return nil
}

// SerializedProperty addresses one value inside a wrapped document.
type SerializedProperty struct {
	obj  *SerializedObject
	path string
	segs []segment
}

// Path returns the property's full path.
func (p *SerializedProperty) Path() string { return p.path }

// Value returns the current value, with any pending write winning over the
// document.
func (p *SerializedProperty) Value() (any, error) {
	if rec, ok := p.obj.pending[p.path]; ok {
		return rec.NewValue, nil
	}
	return p.obj.resolve(p.segs)
}

// FloatValue returns the value as float64.
func (p *SerializedProperty) FloatValue() (float64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("property %s: not a number (%T)", p.path, v)
}

// IntValue returns the value as int64.
func (p *SerializedProperty) IntValue() (int64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("property %s: not an integer (%T)", p.path, v)
}

// StringValue returns the value as a string.
func (p *SerializedProperty) StringValue() (string, error) {
	v, err := p.Value()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("property %s: not a string (%T)", p.path, v)
	}
	return s, nil
}

// BoolValue returns the value as a bool.
func (p *SerializedProperty) BoolValue() (bool, error) {
	v, err := p.Value()
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("property %s: not a bool (%T)", p.path, v)
	}
	return b, nil
}

// Set stages a new value. The document itself is untouched until
// ApplyModifiedProperties; repeated sets on the same path collapse into one
// change record keeping the original old value.
func (p *SerializedProperty) Set(value any) error {
	cur, err := p.obj.walk(p.segs)
	if err != nil {
		return err
	}
	if cur.hasDirect {
		return fmt.Errorf("property %s: field is read-only", p.path)
	}
	old, err := cur.get()
	if err != nil {
		return err
	}
	if rec, ok := p.obj.pending[p.path]; ok {
		rec.NewValue = value
		p.obj.pending[p.path] = rec
	} else {
		p.obj.pending[p.path] = ChangeRecord{Path: p.path, OldValue: old, NewValue: value}
		p.obj.order = append(p.obj.order, p.path)
	}
	p.obj.state = StateModified
	return nil
}

// segment is one step of a parsed property path.
type segment struct {
	name  string
	index int // -1 when no [n] suffix
}

func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty property path")
	}
	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg := segment{index: -1}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("property path %q: malformed index in %q", path, part)
			}
			idx, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("property path %q: bad index in %q", path, part)
			}
			seg.name = part[:i]
			seg.index = idx
		} else {
			seg.name = part
		}
		if seg.name == "" {
			return nil, fmt.Errorf("property path %q: empty segment", path)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// resolve walks the document and returns the addressed value.
func (o *SerializedObject) resolve(segs []segment) (any, error) {
	cur, err := o.walk(segs)
	if err != nil {
		return nil, err
	}
	return cur.get()
}

// write walks the document and replaces the addressed value.
func (o *SerializedObject) write(segs []segment, value any) error {
	cur, err := o.walk(segs)
	if err != nil {
		return err
	}
	return cur.set(value)
}

// cursor is the landing spot of a path walk: either a map slot or a slice
// slot, so both reads and writes go through the same resolution.
type cursor struct {
	m     map[string]any
	key   string
	slice []any
	idx   int
	// direct holds struct-level values (entity ids, type names) that are
	// read-only through this view.
	direct    any
	hasDirect bool
}

func (c cursor) get() (any, error) {
	if c.hasDirect {
		return c.direct, nil
	}
	if c.m != nil {
		v, ok := c.m[c.key]
		if !ok {
			return nil, fmt.Errorf("no such field %q", c.key)
		}
		return v, nil
	}
	return c.slice[c.idx], nil
}

func (c cursor) set(value any) error {
	if c.hasDirect {
		return fmt.Errorf("field is read-only")
	}
	if c.m != nil {
		if _, ok := c.m[c.key]; !ok {
			return fmt.Errorf("no such field %q", c.key)
		}
		c.m[c.key] = value
		return nil
	}
	c.slice[c.idx] = value
	return nil
}

// walk resolves everything but the final slot. The structured document head
// (entities, components, data) is matched explicitly; below data it is plain
// maps and arrays.
func (o *SerializedObject) walk(segs []segment) (cursor, error) {
	if segs[0].name != "entities" {
		return cursor{}, fmt.Errorf("property path must start with \"entities\", got %q", segs[0].name)
	}
	if segs[0].index < 0 || segs[0].index >= len(o.doc.Entities) {
		return cursor{}, fmt.Errorf("entity index %d out of range (%d entities)", segs[0].index, len(o.doc.Entities))
	}
	ent := &o.doc.Entities[segs[0].index]
	if len(segs) == 1 {
		return cursor{}, fmt.Errorf("path addresses an entity record, not a value")
	}

	switch segs[1].name {
	case "id":
		return cursor{direct: ent.ID, hasDirect: true}, nil
	case "generation":
		return cursor{direct: ent.Generation, hasDirect: true}, nil
	case "components":
		// handled below
	default:
		return cursor{}, fmt.Errorf("unknown entity field %q", segs[1].name)
	}
	if segs[1].index < 0 || segs[1].index >= len(ent.Components) {
		return cursor{}, fmt.Errorf("component index %d out of range (%d components)", segs[1].index, len(ent.Components))
	}
	comp := &ent.Components[segs[1].index]
	if len(segs) == 2 {
		return cursor{}, fmt.Errorf("path addresses a component record, not a value")
	}

	switch segs[2].name {
	case "typeId":
		return cursor{direct: comp.TypeID, hasDirect: true}, nil
	case "typeName":
		return cursor{direct: comp.TypeName, hasDirect: true}, nil
	case "data":
		// handled below
	default:
		return cursor{}, fmt.Errorf("unknown component field %q", segs[2].name)
	}

	var cur any = comp.Data
	rest := segs[3:]
	if segs[2].index >= 0 {
		return cursor{}, fmt.Errorf("\"data\" is not indexable")
	}
	if len(rest) == 0 {
		return cursor{}, fmt.Errorf("path addresses the data block, not a value")
	}

	for i, seg := range rest {
		m, ok := cur.(map[string]any)
		if !ok {
			return cursor{}, fmt.Errorf("segment %q: parent is not an object (%T)", seg.name, cur)
		}
		last := i == len(rest)-1
		if seg.index < 0 {
			if last {
				return cursor{m: m, key: seg.name}, nil
			}
			next, ok := m[seg.name]
			if !ok {
				return cursor{}, fmt.Errorf("no such field %q", seg.name)
			}
			cur = next
			continue
		}
		arr, ok := m[seg.name].([]any)
		if !ok {
			return cursor{}, fmt.Errorf("segment %q: not an array", seg.name)
		}
		if seg.index >= len(arr) {
			return cursor{}, fmt.Errorf("segment %q: index %d out of range (%d elements)", seg.name, seg.index, len(arr))
		}
		if last {
			return cursor{slice: arr, idx: seg.index}, nil
		}
		cur = arr[seg.index]
	}
	return cursor{}, fmt.Errorf("unreachable path")
}
