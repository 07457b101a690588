package voidscript_test

import (
	"errors"
	"testing"

	vs "github.com/voidscript/voidscript"
)

// go test -run ^TestCommandsDeferUntilFlush$ . -count 1
func TestCommandsDeferUntilFlush(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	cmd := vs.NewCommands(world)

	e := vs.With(cmd.Spawn(), Position{X: 1}).Build()

	// The handle is alive immediately, the component is not there yet.
	if !world.IsAlive(e) {
		t.Fatal("Expected spawned entity to be alive before flush")
	}
	if vs.GetComponent[Position](world, e) != nil {
		t.Error("Expected component to be deferred until flush")
	}
	if cmd.Pending() != 1 {
		t.Errorf("Expected 1 pending op, got %d", cmd.Pending())
	}

	if err := cmd.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	p := vs.GetComponent[Position](world, e)
	if p == nil || p.X != 1 {
		t.Errorf("Expected Position{X:1} after flush, got %+v", p)
	}
	if cmd.Pending() != 0 {
		t.Error("Expected the queue to drain on flush")
	}
}

// go test -run ^TestSpawnDuringIteration$ . -count 1
func TestSpawnDuringIteration(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	cmd := vs.NewCommands(world)
	for i := 0; i < 3; i++ {
		e := world.CreateEntity()
		vs.SetComponent(world, e, Position{X: float32(i)})
	}

	// Spawning through the buffer mid-iteration must not disturb the scan.
	f := vs.NewFilter[Position](world)
	visited := 0
	for f.Next() {
		vs.With(cmd.Spawn(), Position{X: 100}).Build()
		visited++
	}
	if visited != 3 {
		t.Errorf("Expected to visit 3 entities, got %d", visited)
	}

	cmd.Flush()
	f.Reset()
	total := 0
	for f.Next() {
		total++
	}
	if total != 6 {
		t.Errorf("Expected 6 entities after flush, got %d", total)
	}
}

// go test -run ^TestCommandsDestroyRecursive$ . -count 1
func TestCommandsDestroyRecursive(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	cmd := vs.NewCommands(world)

	root := world.CreateEntity()
	child := world.CreateEntity()
	grandchild := world.CreateEntity()
	sibling := world.CreateEntity()
	vs.SetParent(world, child, root)
	vs.SetParent(world, grandchild, child)

	cmd.Entity(root).DestroyRecursive()
	if err := cmd.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	for _, e := range []vs.Entity{root, child, grandchild} {
		if world.IsAlive(e) {
			t.Errorf("Expected %v to be destroyed", e)
		}
	}
	if !world.IsAlive(sibling) {
		t.Error("Expected unrelated entity to survive")
	}
}

// go test -run ^TestFlushJoinsErrors$ . -count 1
func TestFlushJoinsErrors(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	cmd := vs.NewCommands(world)

	e := world.CreateEntity()
	cmd.Entity(e).AddComponent("NoSuchComponent")
	cmd.Entity(e).AddComponent("Position")

	err := cmd.Flush()
	if !errors.Is(err, vs.ErrUnknownComponent) {
		t.Errorf("Expected ErrUnknownComponent from flush, got %v", err)
	}
	// Later operations still ran.
	if vs.GetComponent[Position](world, e) == nil {
		t.Error("Expected operations after a failed one to still apply")
	}
}

// go test -run ^TestSetComponentCmd$ . -count 1
func TestSetComponentCmd(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	cmd := vs.NewCommands(world)
	e := world.CreateEntity()

	vs.SetComponentCmd(cmd, e, Position{X: 3, Y: 4})
	if _, ok := vs.TryGetComponent[Position](world, e); ok {
		t.Fatal("Expected the write to be deferred until flush")
	}
	cmd.Flush()
	pos := vs.GetComponent[Position](world, e)
	if pos == nil || pos.X != 3 || pos.Y != 4 {
		t.Errorf("Expected Position{3 4} after flush, got %+v", pos)
	}
}

// go test -run ^TestRemoveComponentCmd$ . -count 1
func TestRemoveComponentCmd(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	cmd := vs.NewCommands(world)
	e := world.CreateEntity()
	vs.SetComponent(world, e, Velocity{VX: 1})

	vs.RemoveComponentCmd[Velocity](cmd, e)
	if _, ok := vs.TryGetComponent[Velocity](world, e); !ok {
		t.Fatal("Expected component to survive until flush")
	}
	cmd.Flush()
	if _, ok := vs.TryGetComponent[Velocity](world, e); ok {
		t.Error("Expected component to be removed after flush")
	}
}
