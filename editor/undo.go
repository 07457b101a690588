package editor

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultUndoLimit bounds the undo stack; the oldest group is evicted
// silently once the limit is hit.
const DefaultUndoLimit = 100

// changeGroup is one undo step: every record in it is undone or redone
// together.
type changeGroup struct {
	label   string
	records []ChangeRecord
}

// UndoRedoManager keeps a bounded undo/redo history of applied property
// changes over one serialized object. Changes recorded between BeginGroup and
// EndGroup collapse into a single step. A new change invalidates the redo
// stack.
type UndoRedoManager struct {
	obj   *SerializedObject
	log   *zap.Logger
	limit int

	undo []changeGroup
	redo []changeGroup

	grouping   bool
	current    changeGroup
	performing bool
}

// NewUndoRedoManager creates a manager over the given object. limit <= 0
// means DefaultUndoLimit. logger may be nil.
func NewUndoRedoManager(obj *SerializedObject, limit int, logger *zap.Logger) *UndoRedoManager {
	if limit <= 0 {
		limit = DefaultUndoLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UndoRedoManager{obj: obj, limit: limit, log: logger}
}

// RecordChange pushes one applied change onto the history. Calls made while
// an undo or redo is executing are ignored, so replaying changes never
// re-records them.
func (m *UndoRedoManager) RecordChange(rec ChangeRecord) {
	if m.performing {
		return
	}
	if m.grouping {
		m.current.records = append(m.current.records, rec)
		return
	}
	m.push(changeGroup{label: rec.Path, records: []ChangeRecord{rec}})
}

// RecordChanges pushes a batch of applied changes as one undo step.
func (m *UndoRedoManager) RecordChanges(label string, recs []ChangeRecord) {
	if m.performing || len(recs) == 0 {
		return
	}
	if m.grouping {
		m.current.records = append(m.current.records, recs...)
		return
	}
	m.push(changeGroup{label: label, records: recs})
}

// BeginGroup starts collecting changes into a single undo step. Nested calls
// are not supported; a second BeginGroup flushes the open group first.
func (m *UndoRedoManager) BeginGroup(label string) {
	if m.grouping {
		m.EndGroup()
	}
	m.grouping = true
	m.current = changeGroup{label: label}
}

// EndGroup closes the open group and pushes it if it collected anything.
func (m *UndoRedoManager) EndGroup() {
	if !m.grouping {
		return
	}
	m.grouping = false
	if len(m.current.records) > 0 {
		m.push(m.current)
	}
	m.current = changeGroup{}
}

func (m *UndoRedoManager) push(g changeGroup) {
	m.undo = append(m.undo, g)
	if len(m.undo) > m.limit {
		copy(m.undo, m.undo[1:])
		m.undo = m.undo[:m.limit]
	}
	// Any new edit forks history; the redo branch is gone.
	m.redo = m.redo[:0]
}

// CanUndo reports whether an undo step is available.
func (m *UndoRedoManager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (m *UndoRedoManager) CanRedo() bool { return len(m.redo) > 0 }

// UndoDepth returns the number of undoable steps.
func (m *UndoRedoManager) UndoDepth() int { return len(m.undo) }

// Undo reverts the most recent step, restoring old values in reverse record
// order, and moves it to the redo stack. If a record fails to apply, the step
// stays on the undo stack so it is not lost.
func (m *UndoRedoManager) Undo() error {
	if len(m.undo) == 0 {
		return fmt.Errorf("nothing to undo")
	}
	g := m.undo[len(m.undo)-1]

	m.performing = true
	defer func() { m.performing = false }()
	for i := len(g.records) - 1; i >= 0; i-- {
		rec := g.records[i]
		if err := m.obj.setDirect(rec.Path, rec.OldValue); err != nil {
			return fmt.Errorf("undo %q: %w", g.label, err)
		}
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, g)
	m.log.Debug("undo", zap.String("label", g.label), zap.Int("records", len(g.records)))
	return nil
}

// Redo reapplies the most recently undone step. A step that fails to apply
// stays on the redo stack.
func (m *UndoRedoManager) Redo() error {
	if len(m.redo) == 0 {
		return fmt.Errorf("nothing to redo")
	}
	g := m.redo[len(m.redo)-1]

	m.performing = true
	defer func() { m.performing = false }()
	for _, rec := range g.records {
		if err := m.obj.setDirect(rec.Path, rec.NewValue); err != nil {
			return fmt.Errorf("redo %q: %w", g.label, err)
		}
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, g)
	m.log.Debug("redo", zap.String("label", g.label), zap.Int("records", len(g.records)))
	return nil
}

// Clear drops both stacks, e.g. after loading a different document.
func (m *UndoRedoManager) Clear() {
	m.undo = nil
	m.redo = nil
	m.grouping = false
	m.current = changeGroup{}
}
