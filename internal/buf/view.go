package buf

import (
	"math/bits"
	"unsafe"
)

// PtrSize is the platform pointer size in bytes.
const PtrSize = int(unsafe.Sizeof(uintptr(0)))

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

// AlignUp rounds n up to a multiple of align. align must be a power of two.
func AlignUp(n, align int) int {
	mask := align - 1
	return (n + mask) &^ mask
}

// AlignPtr rounds n up to the platform pointer size.
func AlignPtr(n int) int {
	return AlignUp(n, PtrSize)
}

// SizeOf returns the in-memory size of a T.
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// AlignOf returns the required alignment of a T.
func AlignOf[T any]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

// View reinterprets the first n*SizeOf[T]() bytes of b as a []T.
// Returns nil when b is too small, n <= 0, or b is not aligned for T.
//
// The caller must keep the memory behind b alive while the view is in use, and T
// must not contain Go pointers: allocator memory is invisible to the garbage collector.
func View[T any](b []byte, n int) []T {
	size := SizeOf[T]()
	if n <= 0 || size == 0 {
		return nil
	}
	need, ok := MulOverflowSafe(n, size)
	if !ok || need > len(b) {
		return nil
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(p)%uintptr(AlignOf[T]()) != 0 {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}

// Addr returns the address of the first byte of b, or 0 for an empty slice.
func Addr(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
