package arena

import "github.com/SilentCathedral918/vytal-sub000/internal/buf"

// Make returns a zeroed *T stored inside the arena, or nil when it does not fit or T
// has zero size. T must not contain Go pointers.
func Make[T any](a *Arena) *T {
	s := MakeSlice[T](a, 1)
	if s == nil {
		return nil
	}
	return &s[0]
}

// MakeSlice returns n zeroed elements of T stored inside the arena, or nil.
// T must not contain Go pointers.
func MakeSlice[T any](a *Arena, n int) []T {
	size := buf.SizeOf[T]()
	total, ok := buf.MulOverflowSafe(size, n)
	if !ok || total <= 0 {
		return nil
	}
	return buf.View[T](a.AllocAligned(total, buf.AlignOf[T]()), n)
}
