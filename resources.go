package voidscript

import "reflect"

// Resources is a typed key-value store for world-global collaborators: asset
// databases, configuration, injected platform services. One value per type.
type Resources struct {
	items map[reflect.Type]any
}

// AddResource stores res, keyed by its concrete type. Panics if a resource of
// the same type already exists; shared state must have one owner.
func AddResource[T any](r *Resources, res *T) {
	if res == nil {
		panic("voidscript: cannot add nil resource")
	}
	t := reflect.TypeOf(res)
	if r.items == nil {
		r.items = make(map[reflect.Type]any, 8)
	}
	if _, ok := r.items[t]; ok {
		panic("voidscript: resource of the same type already exists")
	}
	r.items[t] = res
}

// GetResource retrieves the resource of type T, or nil if absent.
func GetResource[T any](r *Resources) *T {
	res, ok := r.items[reflect.TypeOf((*T)(nil))]
	if !ok {
		return nil
	}
	return res.(*T)
}

// RemoveResource drops the resource of type T if present.
func RemoveResource[T any](r *Resources) {
	delete(r.items, reflect.TypeOf((*T)(nil)))
}

// Clear removes all resources.
func (r *Resources) Clear() {
	clear(r.items)
}
