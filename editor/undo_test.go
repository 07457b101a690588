package editor_test

import (
	"testing"

	"github.com/voidscript/voidscript/editor"
)

const posX = "entities[0].components[0].data.position.x"

func applyChange(t *testing.T, obj *editor.SerializedObject, mgr *editor.UndoRedoManager, path string, value any) {
	t.Helper()
	prop, err := obj.FindProperty(path)
	if err != nil {
		t.Fatalf("FindProperty(%s) failed: %v", path, err)
	}
	if err := prop.Set(value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	records, err := obj.ApplyModifiedProperties()
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for _, rec := range records {
		mgr.RecordChange(rec)
	}
}

func readFloat(t *testing.T, obj *editor.SerializedObject, path string) float64 {
	t.Helper()
	prop, err := obj.FindProperty(path)
	if err != nil {
		t.Fatalf("FindProperty(%s) failed: %v", path, err)
	}
	v, err := prop.FloatValue()
	if err != nil {
		t.Fatalf("FloatValue failed: %v", err)
	}
	return v
}

// go test -run ^TestUndoRedo$ . -count 1
func TestUndoRedo(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	if mgr.CanUndo() || mgr.CanRedo() {
		t.Error("Expected empty stacks initially")
	}

	applyChange(t, obj, mgr, posX, 10.0)
	applyChange(t, obj, mgr, posX, 20.0)

	if !mgr.CanUndo() {
		t.Fatal("Expected undo to be available")
	}
	if err := mgr.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if v := readFloat(t, obj, posX); v != 10.0 {
		t.Errorf("Expected 10.0 after one undo, got %v", v)
	}
	if err := mgr.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if v := readFloat(t, obj, posX); v != 1.0 {
		t.Errorf("Expected the original 1.0 after two undos, got %v", v)
	}
	if mgr.CanUndo() {
		t.Error("Expected the undo stack to be exhausted")
	}
	if err := mgr.Undo(); err == nil {
		t.Error("Expected an error when undoing past the bottom")
	}

	if err := mgr.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if v := readFloat(t, obj, posX); v != 10.0 {
		t.Errorf("Expected 10.0 after redo, got %v", v)
	}
	if err := mgr.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if v := readFloat(t, obj, posX); v != 20.0 {
		t.Errorf("Expected 20.0 after the second redo, got %v", v)
	}
	if mgr.CanRedo() {
		t.Error("Expected the redo stack to be exhausted")
	}
}

// go test -run ^TestNewChangeClearsRedo$ . -count 1
func TestNewChangeClearsRedo(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	applyChange(t, obj, mgr, posX, 10.0)
	mgr.Undo()
	if !mgr.CanRedo() {
		t.Fatal("Expected redo after undo")
	}

	applyChange(t, obj, mgr, posX, 99.0)
	if mgr.CanRedo() {
		t.Error("Expected redo history to be invalidated by a new change")
	}
}

// go test -run ^TestUndoGroup$ . -count 1
func TestUndoGroup(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	const posY = "entities[0].components[0].data.position.y"
	mgr.BeginGroup("move")
	applyChange(t, obj, mgr, posX, 100.0)
	applyChange(t, obj, mgr, posY, 200.0)
	mgr.EndGroup()

	if mgr.UndoDepth() != 1 {
		t.Fatalf("Expected a single grouped step, got depth %d", mgr.UndoDepth())
	}
	if err := mgr.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if readFloat(t, obj, posX) != 1.0 || readFloat(t, obj, posY) != 2.0 {
		t.Error("Expected the whole group to revert in one undo")
	}
	if err := mgr.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if readFloat(t, obj, posX) != 100.0 || readFloat(t, obj, posY) != 200.0 {
		t.Error("Expected the whole group to reapply in one redo")
	}
}

// go test -run ^TestRecordChangesSingleStep$ . -count 1
func TestRecordChangesSingleStep(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	const posY = "entities[0].components[0].data.position.y"
	for path, v := range map[string]any{posX: 10.0, posY: 20.0} {
		prop, err := obj.FindProperty(path)
		if err != nil {
			t.Fatalf("FindProperty(%s) failed: %v", path, err)
		}
		if err := prop.Set(v); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	records, err := obj.ApplyModifiedProperties()
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	mgr.RecordChanges("move", records)

	if mgr.UndoDepth() != 1 {
		t.Fatalf("Expected one batched step, got depth %d", mgr.UndoDepth())
	}
	if err := mgr.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if readFloat(t, obj, posX) != 1.0 || readFloat(t, obj, posY) != 2.0 {
		t.Error("Expected the whole batch to revert in one undo")
	}
}

// go test -run ^TestFailedUndoKeepsStep$ . -count 1
func TestFailedUndoKeepsStep(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	applyChange(t, obj, mgr, posX, 10.0)
	mgr.RecordChanges("broken", []editor.ChangeRecord{
		{Path: "entities[9].components[0].data.position.x", OldValue: 0.0, NewValue: 1.0},
	})

	if err := mgr.Undo(); err == nil {
		t.Fatal("Expected an error undoing a record with a dead path")
	}
	if mgr.UndoDepth() != 2 {
		t.Errorf("Expected the failed step to stay on the undo stack, depth = %d, want 2", mgr.UndoDepth())
	}
	if mgr.CanRedo() {
		t.Error("Expected nothing on the redo stack after a failed undo")
	}
	if v := readFloat(t, obj, posX); v != 10.0 {
		t.Errorf("Expected the document untouched by the failed undo, got %v", v)
	}
}

// go test -run ^TestEmptyGroupIsDropped$ . -count 1
func TestEmptyGroupIsDropped(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	mgr.BeginGroup("noop")
	mgr.EndGroup()
	if mgr.CanUndo() {
		t.Error("Expected an empty group to leave no undo step")
	}
}

// go test -run ^TestUndoLimitEvictsOldest$ . -count 1
func TestUndoLimitEvictsOldest(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 3, nil)

	for i := 1; i <= 5; i++ {
		applyChange(t, obj, mgr, posX, float64(i*10))
	}
	if mgr.UndoDepth() != 3 {
		t.Fatalf("Expected depth capped at 3, got %d", mgr.UndoDepth())
	}

	// Only the three newest steps revert; the floor is the value the oldest
	// retained record starts from.
	for mgr.CanUndo() {
		if err := mgr.Undo(); err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
	}
	if v := readFloat(t, obj, posX); v != 20.0 {
		t.Errorf("Expected 20.0 after exhausting a capped stack, got %v", v)
	}
}

// go test -run ^TestClearDropsHistory$ . -count 1
func TestClearDropsHistory(t *testing.T) {
	obj := editor.NewSerializedObject(sampleDocument())
	mgr := editor.NewUndoRedoManager(obj, 0, nil)

	applyChange(t, obj, mgr, posX, 10.0)
	mgr.Undo()
	mgr.Clear()
	if mgr.CanUndo() || mgr.CanRedo() {
		t.Error("Expected Clear to drop both stacks")
	}
}
