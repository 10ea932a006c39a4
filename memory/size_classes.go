package memory

import (
	"math"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
)

const (
	// minClassSize is the seed of the class sequence before pointer alignment.
	minClassSize = 4

	// classGrowth is the ratio between consecutive size classes.
	classGrowth = 1.618
)

// ComputeSizeClasses returns the ascending block sizes a zone of the given capacity
// serves. The first class is 4 bytes aligned up to the pointer size; each following
// class is the previous one times 1.618, aligned up. Generation stops before a class
// would reach capacity, and capacity itself is always the last class.
//
// For a 64-byte zone on a 64-bit platform this yields [8 16 32 56 64].
// A capacity <= 0 yields an empty table.
func ComputeSizeClasses(capacity int) []int {
	if capacity <= 0 {
		return nil
	}

	classes := make([]int, 0, 32)
	size := buf.AlignPtr(minClassSize)
	for size < capacity {
		classes = append(classes, size)

		next := math.Ceil(float64(size) * classGrowth)
		if next >= float64(capacity) {
			break
		}
		nextSize := buf.AlignPtr(int(next))
		if nextSize <= size {
			nextSize = size + buf.PtrSize // Ensure progress
		}
		size = nextSize
	}
	return append(classes, capacity)
}

// sizeClassTable holds the computed class sizes of one zone.
type sizeClassTable struct {
	sizes []int
}

func newSizeClassTable(capacity int) sizeClassTable {
	return sizeClassTable{sizes: ComputeSizeClasses(capacity)}
}

// indexFor returns the index of the smallest class that can hold size bytes,
// or -1 when size exceeds the largest class. Every class except the last is
// pointer aligned, so searching with the raw size equals searching with the
// aligned one.
func (t sizeClassTable) indexFor(size int) int {
	if size <= 0 {
		return -1
	}

	lo, hi := 0, len(t.sizes)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.sizes[mid] {
			if mid == 0 || size > t.sizes[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return -1
}

func (t sizeClassTable) len() int { return len(t.sizes) }
