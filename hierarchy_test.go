package voidscript_test

import (
	"testing"

	vs "github.com/voidscript/voidscript"
)

// go test -run ^TestSetParent$ . -count 1
func TestSetParent(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	parent := world.CreateEntity()
	child := world.CreateEntity()

	if err := vs.SetParent(world, child, parent); err != nil {
		t.Fatalf("SetParent failed: %v", err)
	}
	if vs.ParentOf(world, child) != parent {
		t.Error("Expected ParentOf to return the parent")
	}
	kids := vs.ChildrenOf(world, parent)
	if len(kids) != 1 || kids[0] != child {
		t.Errorf("Expected children [%v], got %v", child, kids)
	}
}

// go test -run ^TestReparent$ . -count 1
func TestReparent(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	a := world.CreateEntity()
	b := world.CreateEntity()
	child := world.CreateEntity()

	vs.SetParent(world, child, a)
	if err := vs.SetParent(world, child, b); err != nil {
		t.Fatalf("Reparent failed: %v", err)
	}
	if len(vs.ChildrenOf(world, a)) != 0 {
		t.Error("Expected child to be detached from the old parent")
	}
	if vs.ParentOf(world, child) != b {
		t.Error("Expected child to hang under the new parent")
	}
}

// go test -run ^TestSelfParentRejected$ . -count 1
func TestSelfParentRejected(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	e := world.CreateEntity()
	if err := vs.SetParent(world, e, e); err == nil {
		t.Error("Expected self-parenting to fail")
	}
}

// go test -run ^TestClearParent$ . -count 1
func TestClearParent(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	parent := world.CreateEntity()
	child := world.CreateEntity()
	vs.SetParent(world, child, parent)

	if err := vs.ClearParent(world, child); err != nil {
		t.Fatalf("ClearParent failed: %v", err)
	}
	if !vs.ParentOf(world, child).IsNil() {
		t.Error("Expected no parent after ClearParent")
	}
	if len(vs.ChildrenOf(world, parent)) != 0 {
		t.Error("Expected parent's child list to be empty")
	}
}

// go test -run ^TestDescendants$ . -count 1
func TestDescendants(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	root := world.CreateEntity()
	c1 := world.CreateEntity()
	c2 := world.CreateEntity()
	g1 := world.CreateEntity()
	vs.SetParent(world, c1, root)
	vs.SetParent(world, c2, root)
	vs.SetParent(world, g1, c1)

	got := vs.Descendants(world, root)
	if len(got) != 3 {
		t.Fatalf("Expected 3 descendants, got %d: %v", len(got), got)
	}
	seen := map[vs.Entity]bool{}
	for _, e := range got {
		seen[e] = true
	}
	if !seen[c1] || !seen[c2] || !seen[g1] {
		t.Errorf("Expected {c1 c2 g1}, got %v", got)
	}
}

// go test -run ^TestDestroyDetachesFromParent$ . -count 1
func TestDestroyDetachesFromParent(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	parent := world.CreateEntity()
	child := world.CreateEntity()
	vs.SetParent(world, child, parent)

	world.DestroyEntity(child)
	if len(vs.ChildrenOf(world, parent)) != 0 {
		t.Error("Expected destroyed child to vanish from the parent's list")
	}
}
