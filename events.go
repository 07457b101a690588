package voidscript

import "reflect"

// DefaultEventRetention is how many frames an emitted event stays readable
// when no explicit retention is configured.
const DefaultEventRetention = 2

// EventBus carries typed event channels between systems. Events are stamped
// with the frame they were sent in and retained for a configured number of
// frames, so readers running later in the same frame or in the next frame
// still observe them. Compaction happens once per frame in EndFrame.
type EventBus struct {
	channels map[reflect.Type]eventChannel
	retain   uint64
	frame    uint64
}

// NewEventBus creates a bus retaining events for retainFrames frames.
// Non-positive values fall back to DefaultEventRetention.
func NewEventBus(retainFrames int) *EventBus {
	if retainFrames <= 0 {
		retainFrames = DefaultEventRetention
	}
	return &EventBus{
		channels: make(map[reflect.Type]eventChannel, 8),
		retain:   uint64(retainFrames),
	}
}

// Frame returns the current frame number.
func (b *EventBus) Frame() uint64 { return b.frame }

// EndFrame advances the frame counter and drops events older than the
// retention window. The scheduler calls this once at end of frame.
func (b *EventBus) EndFrame() {
	b.frame++
	for _, ch := range b.channels {
		ch.compact(b.frame, b.retain)
	}
}

type eventChannel interface {
	compact(currentFrame, retain uint64)
}

type stamped[T any] struct {
	value T
	seq   uint64
	frame uint64
}

type typedChannel[T any] struct {
	items   []stamped[T]
	nextSeq uint64
}

func (ch *typedChannel[T]) compact(currentFrame, retain uint64) {
	keep := ch.items[:0]
	for _, it := range ch.items {
		if it.frame+retain > currentFrame {
			keep = append(keep, it)
		}
	}
	// Zero the dropped tail so event payloads are not pinned.
	for i := len(keep); i < len(ch.items); i++ {
		ch.items[i] = stamped[T]{}
	}
	ch.items = keep
}

func channelFor[T any](b *EventBus) *typedChannel[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if ch, ok := b.channels[t]; ok {
		return ch.(*typedChannel[T])
	}
	ch := &typedChannel[T]{}
	b.channels[t] = ch
	return ch
}

// Send emits an event of type T, visible to readers for the bus's retention
// window.
func Send[T any](b *EventBus, event T) {
	ch := channelFor[T](b)
	ch.items = append(ch.items, stamped[T]{value: event, seq: ch.nextSeq, frame: b.frame})
	ch.nextSeq++
}

// EventReader consumes events of type T. Each reader keeps its own cursor
// outside the buffer, so multiple readers progress independently. A fresh
// reader observes whatever is still retained.
type EventReader[T any] struct {
	bus    *EventBus
	cursor uint64
}

// NewEventReader creates a reader over the bus's T channel.
func NewEventReader[T any](b *EventBus) *EventReader[T] {
	return &EventReader[T]{bus: b}
}

// Read returns all retained events the reader has not seen yet and advances
// the cursor past them.
func (r *EventReader[T]) Read() []T {
	ch := channelFor[T](r.bus)
	var out []T
	for _, it := range ch.items {
		if it.seq >= r.cursor {
			out = append(out, it.value)
		}
	}
	r.cursor = ch.nextSeq
	return out
}

// Peek returns unseen events without advancing the cursor.
func (r *EventReader[T]) Peek() []T {
	ch := channelFor[T](r.bus)
	var out []T
	for _, it := range ch.items {
		if it.seq >= r.cursor {
			out = append(out, it.value)
		}
	}
	return out
}
