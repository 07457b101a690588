package voidscript_test

import (
	"testing"

	vs "github.com/voidscript/voidscript"
)

type damageEvent struct {
	Target vs.Entity
	Amount int
}

// go test -run ^TestEventReadOnce$ . -count 1
func TestEventReadOnce(t *testing.T) {
	bus := vs.NewEventBus(0)
	reader := vs.NewEventReader[damageEvent](bus)

	vs.Send(bus, damageEvent{Amount: 5})
	vs.Send(bus, damageEvent{Amount: 7})

	got := reader.Read()
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if got[0].Amount != 5 || got[1].Amount != 7 {
		t.Errorf("Expected events in send order, got %+v", got)
	}

	// A reader never sees the same event twice.
	if len(reader.Read()) != 0 {
		t.Error("Expected no events on the second read")
	}
}

// go test -run ^TestEventIndependentReaders$ . -count 1
func TestEventIndependentReaders(t *testing.T) {
	bus := vs.NewEventBus(0)
	r1 := vs.NewEventReader[damageEvent](bus)
	r2 := vs.NewEventReader[damageEvent](bus)

	vs.Send(bus, damageEvent{Amount: 1})

	if len(r1.Read()) != 1 {
		t.Error("Expected reader 1 to see the event")
	}
	if len(r2.Read()) != 1 {
		t.Error("Expected reader 2 to see the event independently")
	}
}

// go test -run ^TestEventRetention$ . -count 1
func TestEventRetention(t *testing.T) {
	bus := vs.NewEventBus(2)
	vs.Send(bus, damageEvent{Amount: 1})

	// Still retained one frame later for late readers.
	bus.EndFrame()
	late := vs.NewEventReader[damageEvent](bus)
	if len(late.Peek()) != 1 {
		t.Error("Expected event to survive one frame boundary")
	}

	// Gone after the retention window passes.
	bus.EndFrame()
	if got := late.Peek(); len(got) != 0 {
		t.Errorf("Expected event to be dropped after retention, got %d", len(got))
	}
}

// go test -run ^TestEventPeekDoesNotConsume$ . -count 1
func TestEventPeekDoesNotConsume(t *testing.T) {
	bus := vs.NewEventBus(0)
	reader := vs.NewEventReader[damageEvent](bus)
	vs.Send(bus, damageEvent{Amount: 3})

	if len(reader.Peek()) != 1 {
		t.Fatal("Expected Peek to see the event")
	}
	if len(reader.Read()) != 1 {
		t.Error("Expected Read to still deliver after Peek")
	}
}

// go test -run ^TestEventTypesAreIsolated$ . -count 1
func TestEventTypesAreIsolated(t *testing.T) {
	type spawnEvent struct{ E vs.Entity }
	bus := vs.NewEventBus(0)
	dmg := vs.NewEventReader[damageEvent](bus)

	vs.Send(bus, spawnEvent{})
	if len(dmg.Read()) != 0 {
		t.Error("Expected no cross-talk between event types")
	}
}
