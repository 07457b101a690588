package voidscript

import (
	"fmt"
	"reflect"
)

// filterCache tracks archetypes matching an include/exclude mask pair and
// refreshes lazily when new archetypes have been created since the last scan.
type filterCache struct {
	world    *World
	matching []*archetype
	include  bitmask256
	exclude  bitmask256
	seenVer  uint32
}

func newFilterCache(w *World, include, exclude bitmask256) filterCache {
	c := filterCache{world: w, include: include, exclude: exclude}
	c.rebuild()
	return c
}

func (c *filterCache) rebuild() {
	c.matching = c.matching[:0]
	for _, a := range c.world.archetypes {
		if a.mask.contains(c.include) && !a.mask.intersects(c.exclude) {
			c.matching = append(c.matching, a)
		}
	}
	c.seenVer = c.world.archetypeVer
}

func (c *filterCache) refresh() {
	if c.seenVer != c.world.archetypeVer {
		c.rebuild()
	}
}

func mustID[T any](w *World) ComponentID {
	id, err := idFor[T](w.registry)
	if err != nil {
		var zero T
		panic(fmt.Sprintf("voidscript: filter over unregistered component type %s", reflect.TypeOf(zero)))
	}
	return id
}

// Filter iterates all entities that have component T and none of the excluded
// components. Iteration within one archetype is row order at call time;
// structural mutations during iteration must be deferred through Commands.
type Filter[T any] struct {
	cache    filterCache
	id       ComponentID
	matchIdx int
	row      int
	cur      *archetype
}

// NewFilter creates a filter over entities possessing T, excluding entities
// that have any of the given component IDs.
func NewFilter[T any](w *World, excludes ...ComponentID) *Filter[T] {
	id := mustID[T](w)
	var include bitmask256
	include.set(uint8(id))
	f := &Filter[T]{cache: newFilterCache(w, include, makeMask(excludes)), id: id}
	f.Reset()
	return f
}

// Reset rewinds the iterator, picking up archetypes created since the last
// iteration.
func (f *Filter[T]) Reset() {
	f.cache.refresh()
	f.matchIdx = 0
	f.row = -1
	f.cur = nil
}

// Next advances to the next matching entity. It must be called before Entity
// or Get, and returns false when iteration is complete.
func (f *Filter[T]) Next() bool {
	f.row++
	if f.cur != nil && f.row < f.cur.size {
		return true
	}
	for f.matchIdx < len(f.cache.matching) {
		a := f.cache.matching[f.matchIdx]
		f.matchIdx++
		if a.size == 0 {
			continue
		}
		f.cur = a
		f.row = 0
		return true
	}
	f.cur = nil
	return false
}

// Entity returns the current entity.
func (f *Filter[T]) Entity() Entity { return f.cur.entities[f.row] }

// Get returns a pointer to the current entity's component data.
func (f *Filter[T]) Get() *T {
	return (*T)(componentPtrAt(f.cur, f.id, f.row))
}

// Filter2 iterates entities that have both A and B.
type Filter2[A, B any] struct {
	cache    filterCache
	idA, idB ComponentID
	matchIdx int
	row      int
	cur      *archetype
}

// NewFilter2 creates a filter over entities possessing A and B, excluding
// entities that have any of the given component IDs.
func NewFilter2[A, B any](w *World, excludes ...ComponentID) *Filter2[A, B] {
	idA, idB := mustID[A](w), mustID[B](w)
	var include bitmask256
	include.set(uint8(idA))
	include.set(uint8(idB))
	f := &Filter2[A, B]{cache: newFilterCache(w, include, makeMask(excludes)), idA: idA, idB: idB}
	f.Reset()
	return f
}

// Reset rewinds the iterator, picking up archetypes created since the last
// iteration.
func (f *Filter2[A, B]) Reset() {
	f.cache.refresh()
	f.matchIdx = 0
	f.row = -1
	f.cur = nil
}

// Next advances to the next matching entity.
func (f *Filter2[A, B]) Next() bool {
	f.row++
	if f.cur != nil && f.row < f.cur.size {
		return true
	}
	for f.matchIdx < len(f.cache.matching) {
		a := f.cache.matching[f.matchIdx]
		f.matchIdx++
		if a.size == 0 {
			continue
		}
		f.cur = a
		f.row = 0
		return true
	}
	f.cur = nil
	return false
}

// Entity returns the current entity.
func (f *Filter2[A, B]) Entity() Entity { return f.cur.entities[f.row] }

// Get returns pointers to the current entity's A and B data.
func (f *Filter2[A, B]) Get() (*A, *B) {
	return (*A)(componentPtrAt(f.cur, f.idA, f.row)),
		(*B)(componentPtrAt(f.cur, f.idB, f.row))
}

// Filter3 iterates entities that have A, B and C.
type Filter3[A, B, C any] struct {
	cache         filterCache
	idA, idB, idC ComponentID
	matchIdx      int
	row           int
	cur           *archetype
}

// NewFilter3 creates a filter over entities possessing A, B and C, excluding
// entities that have any of the given component IDs.
func NewFilter3[A, B, C any](w *World, excludes ...ComponentID) *Filter3[A, B, C] {
	idA, idB, idC := mustID[A](w), mustID[B](w), mustID[C](w)
	var include bitmask256
	include.set(uint8(idA))
	include.set(uint8(idB))
	include.set(uint8(idC))
	f := &Filter3[A, B, C]{cache: newFilterCache(w, include, makeMask(excludes)), idA: idA, idB: idB, idC: idC}
	f.Reset()
	return f
}

// Reset rewinds the iterator, picking up archetypes created since the last
// iteration.
func (f *Filter3[A, B, C]) Reset() {
	f.cache.refresh()
	f.matchIdx = 0
	f.row = -1
	f.cur = nil
}

// Next advances to the next matching entity.
func (f *Filter3[A, B, C]) Next() bool {
	f.row++
	if f.cur != nil && f.row < f.cur.size {
		return true
	}
	for f.matchIdx < len(f.cache.matching) {
		a := f.cache.matching[f.matchIdx]
		f.matchIdx++
		if a.size == 0 {
			continue
		}
		f.cur = a
		f.row = 0
		return true
	}
	f.cur = nil
	return false
}

// Entity returns the current entity.
func (f *Filter3[A, B, C]) Entity() Entity { return f.cur.entities[f.row] }

// Get returns pointers to the current entity's A, B and C data.
func (f *Filter3[A, B, C]) Get() (*A, *B, *C) {
	return (*A)(componentPtrAt(f.cur, f.idA, f.row)),
		(*B)(componentPtrAt(f.cur, f.idB, f.row)),
		(*C)(componentPtrAt(f.cur, f.idC, f.row))
}

// Query is the name-addressed counterpart to the generic filters: it matches
// entities by required ("all") and excluded ("none") component names. Used by
// editor and serialization code that works from registry names.
type Query struct {
	cache    filterCache
	matchIdx int
	row      int
	cur      *archetype
}

// NewQuery builds a query from component names. Unknown names fail with
// ErrUnknownComponent.
func NewQuery(w *World, all []string, none []string) (*Query, error) {
	var include, exclude bitmask256
	for _, name := range all {
		ct, ok := w.registry.ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
		}
		include.set(uint8(ct.ID))
	}
	for _, name := range none {
		ct, ok := w.registry.ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
		}
		exclude.set(uint8(ct.ID))
	}
	q := &Query{cache: newFilterCache(w, include, exclude)}
	q.Reset()
	return q, nil
}

// Reset rewinds the iterator, picking up archetypes created since the last
// iteration.
func (q *Query) Reset() {
	q.cache.refresh()
	q.matchIdx = 0
	q.row = -1
	q.cur = nil
}

// Next advances to the next matching entity.
func (q *Query) Next() bool {
	q.row++
	if q.cur != nil && q.row < q.cur.size {
		return true
	}
	for q.matchIdx < len(q.cache.matching) {
		a := q.cache.matching[q.matchIdx]
		q.matchIdx++
		if a.size == 0 {
			continue
		}
		q.cur = a
		q.row = 0
		return true
	}
	q.cur = nil
	return false
}

// Entity returns the current entity.
func (q *Query) Entity() Entity { return q.cur.entities[q.row] }

// Count returns the number of matching entities without consuming the
// iterator.
func (q *Query) Count() int {
	q.cache.refresh()
	n := 0
	for _, a := range q.cache.matching {
		n += a.size
	}
	return n
}
