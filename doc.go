// Package voidscript implements the entity-component core of the VoidScript
// engine: an archetype-based Entity-Component-System with a named component
// registry, deferred structural mutation through a command buffer, a phased
// frame scheduler, and retained event channels.
//
// Features:
// - Archetype-based storage with max 256 component types.
// - Bitmask for fast archetype lookup.
// - Generational entity handles packed into a single uint64.
// - Schema-driven field access for serialization and editor tooling.
// - Simple, generic Filter APIs for 1 to 3 components.
//
// Scene serialization lives in the scene subpackage, the editor-facing
// property and undo layer in the editor subpackage.
package voidscript
