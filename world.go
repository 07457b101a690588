package voidscript

import (
	"fmt"
	"reflect"
	"unsafe"
)

// archetype holds storage for one unique component-set mask. Component data
// lives in parallel typed arrays addressed through unsafe pointers; the
// entities slice records which entity owns each row.
type archetype struct {
	compPointers [MaxComponentTypes]unsafe.Pointer
	compSizes    [MaxComponentTypes]uintptr
	entities     []Entity
	compOrder    []ComponentID
	mask         bitmask256
	index        int // position in world.archetypes
	size         int // current entity count
	capacity     int
}

// World owns entity identity, archetype storage, and a shared resource store.
// All access is single-threaded; structural changes during query iteration
// must go through a Commands buffer.
type World struct {
	registry        *Registry
	resources       *Resources
	freeIDs         []uint32
	metas           []entityMeta
	archetypes      []*archetype
	maskToArchetype map[bitmask256]int
	capacity        int
	nextGeneration  uint32
	archetypeVer    uint32 // incremented when a new archetype is created
	mutationVer     uint32 // incremented on structural entity mutations
}

// NewWorld creates a world backed by the given component registry, with
// storage pre-allocated for initialCapacity entities. Capacity grows
// automatically when exceeded.
func NewWorld(registry *Registry, initialCapacity int) *World {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	w := &World{
		registry:        registry,
		resources:       &Resources{},
		freeIDs:         make([]uint32, initialCapacity),
		metas:           make([]entityMeta, initialCapacity),
		archetypes:      make([]*archetype, 0, 16),
		maskToArchetype: make(map[bitmask256]int),
		capacity:        initialCapacity,
		nextGeneration:  1,
	}
	for i := range w.freeIDs {
		w.freeIDs[i] = uint32(initialCapacity - 1 - i)
	}
	for i := range w.metas {
		w.metas[i].archetypeIndex = -1
		w.metas[i].index = -1
	}
	// Pre-create the empty archetype so CreateEntity never misses.
	w.getOrCreateArchetype(bitmask256{})
	return w
}

// Registry returns the component registry the world was built with.
func (w *World) Registry() *Registry { return w.registry }

// Resources returns the world's shared resource store.
func (w *World) Resources() *Resources { return w.resources }

// IsAlive checks whether the entity handle is currently valid: index in range
// and generation matching the live slot.
func (w *World) IsAlive(e Entity) bool {
	idx := e.Index()
	if int(idx) >= len(w.metas) {
		return false
	}
	meta := w.metas[idx]
	return meta.generation != 0 && meta.generation == e.Generation()
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.capacity - len(w.freeIDs)
}

// ArchetypeCount returns the number of distinct archetypes created so far.
func (w *World) ArchetypeCount() int {
	return len(w.archetypes)
}

// CreateEntity creates a new entity with no components.
func (w *World) CreateEntity() Entity {
	return w.createEntity(w.archetypes[w.maskToArchetype[bitmask256{}]])
}

// DestroyEntity removes an entity, detaching it from any parent first. The
// slot's generation is retired so stale handles fail IsAlive. Children are
// left alive with dangling Parent references; use Commands.DestroyRecursive
// to take down a subtree.
func (w *World) DestroyEntity(e Entity) error {
	if !w.IsAlive(e) {
		return fmt.Errorf("%w: %d@%d", ErrInvalidEntity, e.Index(), e.Generation())
	}
	w.detachFromParent(e)
	meta := &w.metas[e.Index()]
	w.removeFromArchetype(w.archetypes[meta.archetypeIndex], meta)
	meta.archetypeIndex = -1
	meta.index = -1
	meta.generation = 0
	w.freeIDs = append(w.freeIDs, e.Index())
	w.mutationVer++
	return nil
}

// Clear removes all entities, recycling their IDs and resetting archetypes
// without deallocating storage. Generations keep increasing across Clear, so
// handles from before the call stay invalid.
func (w *World) Clear() {
	for i := range w.metas {
		w.metas[i].archetypeIndex = -1
		w.metas[i].index = -1
		w.metas[i].generation = 0
	}
	w.freeIDs = w.freeIDs[:0]
	for i := 0; i < w.capacity; i++ {
		w.freeIDs = append(w.freeIDs, uint32(w.capacity-1-i))
	}
	for _, a := range w.archetypes {
		for _, id := range a.compOrder {
			if a.compPointers[id] != nil {
				memZero(a.compPointers[id], uintptr(a.size)*a.compSizes[id])
			}
		}
		a.size = 0
	}
	w.mutationVer++
}

// expand grows the entity metadata and free-ID pools.
func (w *World) expand(additional int) {
	oldCap := w.capacity
	newCap := oldCap * 2
	if newCap < oldCap+additional {
		newCap = oldCap + additional
	}
	delta := newCap - oldCap
	newMetas := make([]entityMeta, delta)
	for i := range newMetas {
		newMetas[i].archetypeIndex = -1
		newMetas[i].index = -1
	}
	w.metas = append(w.metas, newMetas...)
	for i := 0; i < delta; i++ {
		w.freeIDs = append(w.freeIDs, uint32(newCap-1-i))
	}
	w.capacity = newCap
}

// getOrCreateArchetype returns the archetype for the given mask, creating it
// with empty storage on first use.
func (w *World) getOrCreateArchetype(mask bitmask256) *archetype {
	if idx, ok := w.maskToArchetype[mask]; ok {
		return w.archetypes[idx]
	}
	a := &archetype{
		index: len(w.archetypes),
		mask:  mask,
	}
	for id := 0; id < w.registry.Len(); id++ {
		if !mask.containsBit(uint8(id)) {
			continue
		}
		ct := w.registry.byID[id]
		a.compOrder = append(a.compOrder, ct.ID)
		a.compSizes[ct.ID] = ct.size
	}
	w.archetypes = append(w.archetypes, a)
	w.maskToArchetype[mask] = a.index
	w.archetypeVer++
	return a
}

// growArchetype ensures room for need more rows, reallocating the typed
// component arrays and copying existing data.
func (w *World) growArchetype(a *archetype, need int) {
	if a.size+need <= a.capacity {
		return
	}
	newCap := max(a.capacity*2, a.size+need, 8)
	newEntities := make([]Entity, newCap)
	copy(newEntities, a.entities[:a.size])
	a.entities = newEntities
	for _, id := range a.compOrder {
		ct := w.registry.byID[id]
		slice := reflect.MakeSlice(reflect.SliceOf(ct.typ), newCap, newCap)
		ptr := slice.UnsafePointer()
		if a.compPointers[id] != nil && a.size > 0 {
			memCopy(ptr, a.compPointers[id], uintptr(a.size)*ct.size)
		}
		a.compPointers[id] = ptr
	}
	a.capacity = newCap
}

// pushRow appends an entity row to the archetype and returns its index. The
// caller is responsible for filling the component slots.
func (w *World) pushRow(a *archetype, e Entity) int {
	w.growArchetype(a, 1)
	idx := a.size
	a.entities[idx] = e
	a.size++
	return idx
}

// createEntity places a fresh entity into the given archetype.
func (w *World) createEntity(a *archetype) Entity {
	if len(w.freeIDs) == 0 {
		w.expand(1)
	}
	last := len(w.freeIDs) - 1
	id := w.freeIDs[last]
	w.freeIDs = w.freeIDs[:last]
	meta := &w.metas[id]
	meta.generation = w.nextGeneration
	w.nextGeneration++
	e := NewEntity(id, meta.generation)
	idx := w.pushRow(a, e)
	meta.archetypeIndex = a.index
	meta.index = idx
	// New rows may sit on memory vacated by swap-removal; clear it.
	for _, cid := range a.compOrder {
		w.initComponentSlot(a, cid, idx)
	}
	w.mutationVer++
	return e
}

// initComponentSlot resets a component slot to its registered default (or the
// zero value) at the given row.
func (w *World) initComponentSlot(a *archetype, id ComponentID, idx int) unsafe.Pointer {
	ct := w.registry.byID[id]
	ptr := unsafe.Add(a.compPointers[id], uintptr(idx)*ct.size)
	memZero(ptr, ct.size)
	if ct.writeDefault != nil {
		ct.writeDefault(ptr)
	}
	return ptr
}

// removeFromArchetype removes the entity's row, swapping the last row in and
// patching the moved entity's recorded index. The vacated tail slots are
// zeroed so stale string/slice headers do not pin memory.
func (w *World) removeFromArchetype(a *archetype, meta *entityMeta) {
	idx := meta.index
	lastIdx := a.size - 1
	if idx < lastIdx {
		lastEnt := a.entities[lastIdx]
		a.entities[idx] = lastEnt
		for _, id := range a.compOrder {
			size := a.compSizes[id]
			src := unsafe.Add(a.compPointers[id], uintptr(lastIdx)*size)
			dst := unsafe.Add(a.compPointers[id], uintptr(idx)*size)
			memCopy(dst, src, size)
		}
		w.metas[lastEnt.Index()].index = idx
	}
	for _, id := range a.compOrder {
		memZero(unsafe.Add(a.compPointers[id], uintptr(lastIdx)*a.compSizes[id]), a.compSizes[id])
	}
	a.size--
	w.mutationVer++
}

// componentPtr returns a pointer to the entity's component data, or false if
// the entity is dead or lacks the component. The pointer is valid until the
// next structural change.
func (w *World) componentPtr(e Entity, id ComponentID) (unsafe.Pointer, bool) {
	if !w.IsAlive(e) {
		return nil, false
	}
	meta := w.metas[e.Index()]
	a := w.archetypes[meta.archetypeIndex]
	if !a.mask.containsBit(uint8(id)) {
		return nil, false
	}
	return unsafe.Add(a.compPointers[id], uintptr(meta.index)*a.compSizes[id]), true
}

// HasComponent reports whether the entity currently has the component.
func (w *World) HasComponent(e Entity, id ComponentID) bool {
	_, ok := w.componentPtr(e, id)
	return ok
}

// AddComponentByID adds the component to the entity, migrating it to the
// archetype with the extended signature. The new slot is initialized from the
// type's default factory (or zeroed). Adding a component the entity already
// has returns the existing data untouched.
func (w *World) AddComponentByID(e Entity, id ComponentID) (unsafe.Pointer, error) {
	if !w.IsAlive(e) {
		return nil, fmt.Errorf("%w: %d@%d", ErrInvalidEntity, e.Index(), e.Generation())
	}
	if _, ok := w.registry.ByID(id); !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownComponent, id)
	}
	meta := &w.metas[e.Index()]
	a := w.archetypes[meta.archetypeIndex]
	if a.mask.containsBit(uint8(id)) {
		return unsafe.Add(a.compPointers[id], uintptr(meta.index)*a.compSizes[id]), nil
	}
	newMask := a.mask
	newMask.set(uint8(id))
	target := w.getOrCreateArchetype(newMask)
	newIdx := w.pushRow(target, e)
	for _, cid := range a.compOrder {
		src := unsafe.Add(a.compPointers[cid], uintptr(meta.index)*a.compSizes[cid])
		dst := unsafe.Add(target.compPointers[cid], uintptr(newIdx)*target.compSizes[cid])
		memCopy(dst, src, a.compSizes[cid])
	}
	ptr := w.initComponentSlot(target, id, newIdx)
	w.removeFromArchetype(a, meta)
	meta.archetypeIndex = target.index
	meta.index = newIdx
	w.mutationVer++
	return ptr, nil
}

// RemoveComponentByID removes the component, migrating the entity to the
// archetype with the reduced signature. Removing a component the entity does
// not have is a no-op.
func (w *World) RemoveComponentByID(e Entity, id ComponentID) error {
	if !w.IsAlive(e) {
		return fmt.Errorf("%w: %d@%d", ErrInvalidEntity, e.Index(), e.Generation())
	}
	if _, ok := w.registry.ByID(id); !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownComponent, id)
	}
	meta := &w.metas[e.Index()]
	a := w.archetypes[meta.archetypeIndex]
	if !a.mask.containsBit(uint8(id)) {
		return nil
	}
	newMask := a.mask
	newMask.unset(uint8(id))
	target := w.getOrCreateArchetype(newMask)
	newIdx := w.pushRow(target, e)
	for _, cid := range a.compOrder {
		if cid == id {
			continue
		}
		src := unsafe.Add(a.compPointers[cid], uintptr(meta.index)*a.compSizes[cid])
		dst := unsafe.Add(target.compPointers[cid], uintptr(newIdx)*target.compSizes[cid])
		memCopy(dst, src, a.compSizes[cid])
	}
	w.removeFromArchetype(a, meta)
	meta.archetypeIndex = target.index
	meta.index = newIdx
	w.mutationVer++
	return nil
}

// ComponentTypesOf returns the registered types present on the entity, in
// component-ID order.
func (w *World) ComponentTypesOf(e Entity) []*ComponentType {
	if !w.IsAlive(e) {
		return nil
	}
	a := w.archetypes[w.metas[e.Index()].archetypeIndex]
	out := make([]*ComponentType, 0, len(a.compOrder))
	for _, id := range a.compOrder {
		out = append(out, w.registry.byID[id])
	}
	return out
}
