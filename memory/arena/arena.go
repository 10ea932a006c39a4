// Package arena implements a fixed-capacity bump allocator.
//
// Allocate many short-lived objects from one arena, then Clear it to drop them all at
// once. There is no per-object free. Not goroutine-safe.
package arena

import (
	"fmt"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/internal/region"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

// Arena hands out consecutive, aligned blocks of one region.
type Arena struct {
	region   *region.Region
	data     []byte
	base     uintptr
	capacity int
	used     int
}

// New creates an arena over a zeroed region of capacity bytes.
func New(capacity int) (*Arena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("arena capacity %d: %w", capacity, memory.ErrInvalidParam)
	}
	r, err := region.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("arena: %w: %w", memory.ErrAllocationFailed, err)
	}
	return &Arena{
		region:   r,
		data:     r.Bytes(),
		base:     buf.Addr(r.Bytes()),
		capacity: capacity,
	}, nil
}

// AllocAligned returns a zero-filled block of size bytes whose address is a multiple
// of align. It returns nil when size <= 0, align is not a power of two, the block does
// not fit, or the arena was released.
func (a *Arena) AllocAligned(size, align int) []byte {
	if a.data == nil || size <= 0 || !buf.IsPow2(align) {
		return nil
	}

	addr := a.base + uintptr(a.used)
	mask := uintptr(align - 1)
	start := a.used + int(((addr+mask)&^mask)-addr)

	end, ok := buf.AddOverflowSafe(start, size)
	if !ok || start > a.capacity || end > a.capacity {
		return nil
	}

	block := a.data[start:end:end]
	clear(block)
	a.used = end
	return block
}

// Alloc returns a zero-filled, pointer-aligned block of size bytes, or nil.
func (a *Arena) Alloc(size int) []byte {
	return a.AllocAligned(size, buf.PtrSize)
}

// Clear zeroes everything handed out so far and rewinds the arena. Blocks returned
// before Clear alias the blocks returned after it.
func (a *Arena) Clear() {
	if a.data == nil {
		return
	}
	a.region.Zero(a.used)
	a.used = 0
}

// Release frees the region. The arena returns nil from every allocation afterwards.
func (a *Arena) Release() error {
	if a.data == nil {
		return nil
	}
	a.data = nil
	a.base = 0
	a.used = 0
	return a.region.Close()
}

// Released reports whether Release was called.
func (a *Arena) Released() bool { return a.data == nil }

// Used returns the bytes consumed, alignment padding included.
func (a *Arena) Used() int { return a.used }

// Capacity returns the region size.
func (a *Arena) Capacity() int { return a.capacity }

// Available returns the bytes left before alignment.
func (a *Arena) Available() int {
	if a.data == nil {
		return 0
	}
	return a.capacity - a.used
}

// Utilization returns Used/Capacity in [0, 1].
func (a *Arena) Utilization() float64 {
	return float64(a.used) / float64(a.capacity)
}
