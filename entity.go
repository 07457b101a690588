package voidscript

// Entity is a handle to an object in a World. It packs a 32-bit index into
// the low bits and a 32-bit generation into the high bits. The generation is
// bumped each time an index is reused, so a stale handle never matches a live
// entity occupying the same slot.
type Entity uint64

// NilEntity is the reserved "no entity" value. Generations start at 1, so no
// live handle ever equals it.
const NilEntity Entity = 0

// NewEntity packs an index and a generation into a handle.
func NewEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index part of the handle.
func (e Entity) Index() uint32 { return uint32(e) }

// Generation returns the generation part of the handle.
func (e Entity) Generation() uint32 { return uint32(e >> 32) }

// IsNil reports whether the handle is the reserved "no entity" value.
func (e Entity) IsNil() bool { return e == NilEntity }

// entityMeta holds where an entity lives.
type entityMeta struct {
	archetypeIndex int    // index in World.archetypes, -1 if dead
	index          int    // row inside the archetype
	generation     uint32 // current generation, 0 if the slot is dead
}
