package voidscript

// bitmask256 represents a set of up to 256 component IDs. It uniquely
// identifies an archetype: each bit corresponds to a component ID, and a set
// bit means the component is present.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given component ID.
func (m *bitmask256) set(bit uint8) {
	i := bit >> 6
	o := bit & 63
	m[i] |= uint64(1) << uint64(o)
}

// unset disables the bit corresponding to the given component ID.
func (m *bitmask256) unset(bit uint8) {
	i := bit >> 6
	o := bit & 63
	m[i] &= ^(uint64(1) << uint64(o))
}

// contains checks if all the bits set in sub are also set in m. Used to
// determine whether an archetype's component set is a superset of a filter's
// required components.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// intersects checks if m has any bits in common with other.
func (m bitmask256) intersects(other bitmask256) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0) ||
		(m[2]&other[2] != 0) ||
		(m[3]&other[3] != 0)
}

// containsBit checks if a specific bit is set in the mask.
func (m bitmask256) containsBit(bit uint8) bool {
	i := bit >> 6
	o := bit & 63
	return (m[i] & (uint64(1) << uint64(o))) != 0
}

// makeMask creates a mask from a slice of component IDs.
func makeMask(ids []ComponentID) bitmask256 {
	var m bitmask256
	for _, id := range ids {
		m.set(uint8(id))
	}
	return m
}
