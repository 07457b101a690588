package voidscript

import "fmt"

// Parent marks an entity as the child of another. Registered by NewRegistry
// under the name "Parent".
type Parent struct {
	Entity Entity
}

// Children records an entity's direct children. Registered by NewRegistry
// under the name "Children". Order is insertion order.
type Children struct {
	IDs []Entity `vs:"ids"`
}

// SetParent attaches child under parent, detaching it from any previous
// parent. Both entities must be alive.
func SetParent(w *World, child, parent Entity) error {
	if !w.IsAlive(child) || !w.IsAlive(parent) {
		return fmt.Errorf("%w: SetParent(%d, %d)", ErrInvalidEntity, child.Index(), parent.Index())
	}
	if child == parent {
		return fmt.Errorf("voidscript: entity %d cannot parent itself", child.Index())
	}
	w.detachFromParent(child)
	pc, err := AddComponent[Parent](w, child)
	if err != nil {
		return err
	}
	pc.Entity = parent
	cc, err := AddComponent[Children](w, parent)
	if err != nil {
		return err
	}
	for _, id := range cc.IDs {
		if id == child {
			return nil
		}
	}
	cc.IDs = append(cc.IDs, child)
	return nil
}

// ClearParent detaches child from its parent and removes its Parent
// component. A root entity is left unchanged.
func ClearParent(w *World, child Entity) error {
	if !w.IsAlive(child) {
		return fmt.Errorf("%w: %d@%d", ErrInvalidEntity, child.Index(), child.Generation())
	}
	w.detachFromParent(child)
	return RemoveComponent[Parent](w, child)
}

// ParentOf returns the entity's parent, or NilEntity for roots.
func ParentOf(w *World, e Entity) Entity {
	if pc := GetComponent[Parent](w, e); pc != nil {
		return pc.Entity
	}
	return NilEntity
}

// ChildrenOf returns the entity's direct children. The returned slice aliases
// component storage; copy it before mutating the hierarchy.
func ChildrenOf(w *World, e Entity) []Entity {
	if cc := GetComponent[Children](w, e); cc != nil {
		return cc.IDs
	}
	return nil
}

// Descendants returns all entities reachable from e through Children links,
// depth-first, not including e itself. Dead references are skipped.
func Descendants(w *World, e Entity) []Entity {
	var out []Entity
	stack := append([]Entity(nil), ChildrenOf(w, e)...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !w.IsAlive(cur) {
			continue
		}
		out = append(out, cur)
		stack = append(stack, ChildrenOf(w, cur)...)
	}
	return out
}

// detachFromParent removes e from its parent's child set, if it has a live
// parent. The Parent component itself is left in place.
func (w *World) detachFromParent(e Entity) {
	pc := GetComponent[Parent](w, e)
	if pc == nil || !w.IsAlive(pc.Entity) {
		return
	}
	cc := GetComponent[Children](w, pc.Entity)
	if cc == nil {
		return
	}
	for i, id := range cc.IDs {
		if id == e {
			cc.IDs = append(cc.IDs[:i], cc.IDs[i+1:]...)
			return
		}
	}
}
