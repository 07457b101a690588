package voidscript_test

import (
	"testing"
	"time"

	vs "github.com/voidscript/voidscript"
)

// go test -run ^TestSchedulerPhaseOrder$ . -count 1
func TestSchedulerPhaseOrder(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	sched := vs.NewScheduler(world, nil, nil)

	var order []string
	sched.AddSystem(vs.PhasePostUpdate, "post", func(ctx *vs.FrameContext) {
		order = append(order, "post")
	})
	sched.AddSystem(vs.PhasePreUpdate, "pre", func(ctx *vs.FrameContext) {
		order = append(order, "pre")
	})
	sched.AddSystem(vs.PhaseUpdate, "update-a", func(ctx *vs.FrameContext) {
		order = append(order, "update-a")
	})
	sched.AddSystem(vs.PhaseUpdate, "update-b", func(ctx *vs.FrameContext) {
		order = append(order, "update-b")
	})

	sched.RunFrame(16 * time.Millisecond)

	want := []string{"pre", "update-a", "update-b", "post"}
	if len(order) != len(want) {
		t.Fatalf("Expected %d system runs, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

// go test -run ^TestSchedulerFlushesBetweenPhases$ . -count 1
func TestSchedulerFlushesBetweenPhases(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	sched := vs.NewScheduler(world, nil, nil)

	var spawned vs.Entity
	sched.AddSystem(vs.PhaseUpdate, "spawner", func(ctx *vs.FrameContext) {
		spawned = vs.With(ctx.Commands.Spawn(), Position{X: 9}).Build()
	})
	sched.AddSystem(vs.PhasePostUpdate, "checker", func(ctx *vs.FrameContext) {
		// The update-phase flush already ran.
		p := vs.GetComponent[Position](ctx.World, spawned)
		if p == nil || p.X != 9 {
			t.Errorf("Expected spawn to be flushed before the next phase, got %+v", p)
		}
	})

	sched.RunFrame(16 * time.Millisecond)
}

// go test -run ^TestSchedulerRunCondition$ . -count 1
func TestSchedulerRunCondition(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	sched := vs.NewScheduler(world, nil, nil)

	runs := 0
	sched.AddSystemIf(vs.PhaseUpdate, "every-other", func(ctx *vs.FrameContext) {
		runs++
	}, func(ctx *vs.FrameContext) bool {
		return ctx.Frame%2 == 0
	})

	for i := 0; i < 4; i++ {
		sched.RunFrame(time.Millisecond)
	}
	if runs != 2 {
		t.Errorf("Expected 2 runs over 4 frames, got %d", runs)
	}
}

// go test -run ^TestSchedulerFrameAdvances$ . -count 1
func TestSchedulerFrameAdvances(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	sched := vs.NewScheduler(world, nil, nil)

	var seen []uint64
	sched.AddSystem(vs.PhaseUpdate, "recorder", func(ctx *vs.FrameContext) {
		seen = append(seen, ctx.Frame)
	})
	sched.RunFrame(time.Millisecond)
	sched.RunFrame(time.Millisecond)

	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Errorf("Expected frames [0 1], got %v", seen)
	}
	if sched.Frame() != 2 {
		t.Errorf("Expected scheduler frame 2, got %d", sched.Frame())
	}
}

// go test -run ^TestSchedulerEventsSweep$ . -count 1
func TestSchedulerEventsSweep(t *testing.T) {
	world, _, _, _ := setupWorld(t)
	bus := vs.NewEventBus(1)
	sched := vs.NewScheduler(world, bus, nil)

	reader := vs.NewEventReader[damageEvent](bus)
	sched.AddSystem(vs.PhaseUpdate, "emitter", func(ctx *vs.FrameContext) {
		if ctx.Frame == 0 {
			vs.Send(ctx.Events, damageEvent{Amount: 1})
		}
	})

	sched.RunFrame(time.Millisecond)
	// Retention of one frame: the event is swept by the first EndFrame.
	if got := reader.Peek(); len(got) != 0 {
		t.Errorf("Expected the event to be swept at end of frame, got %d", len(got))
	}
}
