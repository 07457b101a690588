package voidscript

import (
	"errors"
	"fmt"
)

// Commands is a deferred-mutation buffer. Systems queue structural changes
// (spawns, component adds/removes, destroys) while iterating, and the
// scheduler flushes the queue at phase boundaries so in-progress archetype
// scans are never invalidated.
//
// Entity handles are reserved immediately (a spawned entity is alive in the
// empty archetype from Spawn() on), but component and destroy operations only
// take effect at Flush.
type Commands struct {
	world *World
	ops   []func(*World) error
}

// NewCommands creates a command buffer targeting w.
func NewCommands(w *World) *Commands {
	return &Commands{world: w}
}

// World exposes the target world for immediate reads (GetComponent,
// TryGetComponent and friends read live state, they are never deferred).
func (c *Commands) World() *World { return c.world }

// Pending returns the number of queued operations.
func (c *Commands) Pending() int { return len(c.ops) }

func (c *Commands) queue(op func(*World) error) {
	c.ops = append(c.ops, op)
}

// Flush applies all queued operations in submission order. Operation errors
// are collected and joined; later operations still run.
func (c *Commands) Flush() error {
	var errs []error
	for _, op := range c.ops {
		if err := op(c.world); err != nil {
			errs = append(errs, err)
		}
	}
	c.ops = c.ops[:0]
	return errors.Join(errs...)
}

// Spawn reserves a new entity and returns a builder for its initial
// components.
func (c *Commands) Spawn() *EntityBuilder {
	return &EntityBuilder{c: c, e: c.world.CreateEntity()}
}

// EntityBuilder accumulates component additions for a spawned entity.
type EntityBuilder struct {
	c *Commands
	e Entity
}

// With queues a component value for the entity being built.
func With[T any](b *EntityBuilder, val T) *EntityBuilder {
	e := b.e
	b.c.queue(func(w *World) error {
		return SetComponent(w, e, val)
	})
	return b
}

// WithName queues a component addition by registered name, initialized from
// the type's default factory.
func (b *EntityBuilder) WithName(component string) *EntityBuilder {
	e := b.e
	b.c.queue(func(w *World) error {
		ct, ok := w.registry.ByName(component)
		if !ok {
			return errUnknown(component)
		}
		_, err := w.AddComponentByID(e, ct.ID)
		return err
	})
	return b
}

// Build finalizes the builder and returns the entity handle. The handle is
// already alive; its components appear at the next flush.
func (b *EntityBuilder) Build() Entity { return b.e }

// Entity returns a command proxy for an existing entity.
func (c *Commands) Entity(e Entity) EntityCommands {
	return EntityCommands{c: c, e: e}
}

// EntityCommands queues operations against one entity.
type EntityCommands struct {
	c *Commands
	e Entity
}

// ID returns the proxied entity handle.
func (ec EntityCommands) ID() Entity { return ec.e }

// AddComponent queues a component addition by registered name.
func (ec EntityCommands) AddComponent(component string) {
	e := ec.e
	ec.c.queue(func(w *World) error {
		ct, ok := w.registry.ByName(component)
		if !ok {
			return errUnknown(component)
		}
		_, err := w.AddComponentByID(e, ct.ID)
		return err
	})
}

// RemoveComponent queues a component removal by registered name.
func (ec EntityCommands) RemoveComponent(component string) {
	e := ec.e
	ec.c.queue(func(w *World) error {
		ct, ok := w.registry.ByName(component)
		if !ok {
			return errUnknown(component)
		}
		return w.RemoveComponentByID(e, ct.ID)
	})
}

// Destroy queues destruction of the entity. Children survive with dangling
// Parent references.
func (ec EntityCommands) Destroy() {
	e := ec.e
	ec.c.queue(func(w *World) error {
		return w.DestroyEntity(e)
	})
}

// DestroyRecursive queues destruction of the entity and every descendant
// reachable through Children links, detaching the subtree from its parent.
func (ec EntityCommands) DestroyRecursive() {
	e := ec.e
	ec.c.queue(func(w *World) error {
		if !w.IsAlive(e) {
			return nil // already gone, nothing to take down
		}
		subtree := Descendants(w, e)
		if err := w.DestroyEntity(e); err != nil {
			return err
		}
		var errs []error
		for _, d := range subtree {
			if !w.IsAlive(d) {
				continue
			}
			if err := w.DestroyEntity(d); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// SetComponentCmd queues a typed component write through the buffer.
func SetComponentCmd[T any](c *Commands, e Entity, val T) {
	c.queue(func(w *World) error {
		return SetComponent(w, e, val)
	})
}

// RemoveComponentCmd queues a typed component removal through the buffer.
func RemoveComponentCmd[T any](c *Commands, e Entity) {
	c.queue(func(w *World) error {
		return RemoveComponent[T](w, e)
	})
}

func errUnknown(component string) error {
	return fmt.Errorf("%w: %q", ErrUnknownComponent, component)
}
