package voidscript_test

import (
	"testing"

	vs "github.com/voidscript/voidscript"
)

// go test -run ^TestFilterIteration$ . -count 1
func TestFilterIteration(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	for i := 0; i < 5; i++ {
		e := world.CreateEntity()
		vs.SetComponent(world, e, Position{X: float32(i)})
		if i%2 == 0 {
			vs.SetComponent(world, e, Velocity{VX: 1})
		}
	}

	f := vs.NewFilter[Position](world)
	count := 0
	sum := float32(0)
	for f.Next() {
		sum += f.Get().X
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 matches, got %d", count)
	}
	if sum != 0+1+2+3+4 {
		t.Errorf("Expected X sum 10, got %v", sum)
	}

	// Reset rewinds for another pass.
	f.Reset()
	count = 0
	for f.Next() {
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 matches after Reset, got %d", count)
	}
}

// go test -run ^TestFilter2MutatesThroughPointers$ . -count 1
func TestFilter2MutatesThroughPointers(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	e := world.CreateEntity()
	vs.SetComponent(world, e, Position{X: 1})
	vs.SetComponent(world, e, Velocity{VX: 2})

	f := vs.NewFilter2[Position, Velocity](world)
	for f.Next() {
		p, v := f.Get()
		p.X += v.VX
	}
	if vs.GetComponent[Position](world, e).X != 3 {
		t.Error("Expected filter pointers to write through to storage")
	}
}

// go test -run ^TestFilterExcludes$ . -count 1
func TestFilterExcludes(t *testing.T) {
	world, _, velID, _ := setupWorld(t)
	still := world.CreateEntity()
	vs.SetComponent(world, still, Position{})
	moving := world.CreateEntity()
	vs.SetComponent(world, moving, Position{})
	vs.SetComponent(world, moving, Velocity{})

	f := vs.NewFilter[Position](world, velID)
	count := 0
	for f.Next() {
		if f.Entity() != still {
			t.Errorf("Expected only the still entity, got %v", f.Entity())
		}
		count++
	}
	if count != 1 {
		t.Errorf("Expected 1 match, got %d", count)
	}
}

// go test -run ^TestFilterSeesNewArchetypes$ . -count 1
func TestFilterSeesNewArchetypes(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	f := vs.NewFilter[Health](world)

	for f.Next() {
		t.Fatal("Expected no matches in an empty world")
	}

	// A new archetype appears after the filter was built.
	e := world.CreateEntity()
	vs.SetComponent(world, e, Health{Current: 1})

	f.Reset()
	found := false
	for f.Next() {
		found = true
	}
	if !found {
		t.Error("Expected the filter to pick up archetypes created after it")
	}
}

// go test -run ^TestQueryByName$ . -count 1
func TestQueryByName(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	a := world.CreateEntity()
	vs.SetComponent(world, a, Position{})
	vs.SetComponent(world, a, Velocity{})
	b := world.CreateEntity()
	vs.SetComponent(world, b, Position{})

	q, err := vs.NewQuery(world, []string{"Position"}, []string{"Velocity"})
	if err != nil {
		t.Fatalf("NewQuery failed: %v", err)
	}
	if q.Count() != 1 {
		t.Errorf("Expected count 1, got %d", q.Count())
	}
	q.Reset()
	for q.Next() {
		if q.Entity() != b {
			t.Errorf("Expected entity b, got %v", q.Entity())
		}
	}

	if _, err := vs.NewQuery(world, []string{"NoSuch"}, nil); err == nil {
		t.Error("Expected an error for an unknown component name")
	}
}
