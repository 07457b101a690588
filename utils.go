package voidscript

import "unsafe"

// memCopy copies size bytes from src to dst using built-in copy for performance.
func memCopy(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	dstBytes := unsafe.Slice((*byte)(dst), size)
	srcBytes := unsafe.Slice((*byte)(src), size)
	copy(dstBytes, srcBytes)
}

// memZero clears size bytes at dst. Used to reset vacated or freshly claimed
// component slots so stale headers do not pin memory or leak old values.
func memZero(dst unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	b := unsafe.Slice((*byte)(dst), size)
	clear(b)
}
