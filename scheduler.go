package voidscript

import (
	"time"

	"go.uber.org/zap"
)

// Phase defines execution ordering within a single frame. Systems in the same
// phase run in registration order; command-buffer mutations flush at phase
// boundaries so within-phase queries observe a consistent archetype layout.
type Phase int

const (
	PhasePreUpdate Phase = iota
	PhaseUpdate
	PhasePostUpdate
	PhaseRenderSync
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseRenderSync:
		return "render-sync"
	}
	return "unknown"
}

// FrameContext is handed to every system invocation.
type FrameContext struct {
	World    *World
	Commands *Commands
	Events   *EventBus
	DT       time.Duration
	Frame    uint64
}

// SystemFunc is the body of a system.
type SystemFunc func(*FrameContext)

// RunCondition suppresses a system for the frame when it returns false.
type RunCondition func(*FrameContext) bool

type systemEntry struct {
	name  string
	fn    SystemFunc
	runIf RunCondition
}

// Scheduler drives the single-threaded frame loop: it runs systems grouped
// into ordered phases, flushes the shared command buffer at each phase
// boundary, and sweeps retained events once at end of frame.
type Scheduler struct {
	world    *World
	commands *Commands
	events   *EventBus
	log      *zap.Logger
	phases   [numPhases][]systemEntry
	frame    uint64
}

// NewScheduler creates a scheduler over the world. A nil logger disables
// logging.
func NewScheduler(w *World, events *EventBus, log *zap.Logger) *Scheduler {
	if events == nil {
		events = NewEventBus(DefaultEventRetention)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		world:    w,
		commands: NewCommands(w),
		events:   events,
		log:      log,
	}
}

// Commands returns the shared command buffer, for callers that queue work
// outside system execution.
func (s *Scheduler) Commands() *Commands { return s.commands }

// Events returns the scheduler's event bus.
func (s *Scheduler) Events() *EventBus { return s.events }

// Frame returns the number of completed frames.
func (s *Scheduler) Frame() uint64 { return s.frame }

// AddSystem registers a system in the given phase. Within a phase, systems
// run in registration order.
func (s *Scheduler) AddSystem(phase Phase, name string, fn SystemFunc) {
	s.phases[phase] = append(s.phases[phase], systemEntry{name: name, fn: fn})
}

// AddSystemIf registers a system guarded by a run condition evaluated each
// frame.
func (s *Scheduler) AddSystemIf(phase Phase, name string, fn SystemFunc, cond RunCondition) {
	s.phases[phase] = append(s.phases[phase], systemEntry{name: name, fn: fn, runIf: cond})
}

// RunFrame executes one frame: every phase in order, a command-buffer flush
// after each phase, then the end-of-frame event sweep.
func (s *Scheduler) RunFrame(dt time.Duration) {
	ctx := &FrameContext{
		World:    s.world,
		Commands: s.commands,
		Events:   s.events,
		DT:       dt,
		Frame:    s.frame,
	}
	for phase := Phase(0); phase < numPhases; phase++ {
		for _, sys := range s.phases[phase] {
			if sys.runIf != nil && !sys.runIf(ctx) {
				continue
			}
			sys.fn(ctx)
		}
		if err := s.commands.Flush(); err != nil {
			s.log.Warn("command flush failed",
				zap.Stringer("phase", phase),
				zap.Uint64("frame", s.frame),
				zap.Error(err))
		}
	}
	s.events.EndFrame()
	s.frame++
}
