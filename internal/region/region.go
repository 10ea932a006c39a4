// Package region provides the raw, fixed-size byte buffers that back zones, arenas
// and pools.
//
// Large regions are anonymous private memory mappings on unix systems so that the
// pages live outside the Go heap and are returned to the OS on Close. Small regions,
// and every region on platforms without mmap, come from the Go heap.
package region

import (
	"fmt"
	"unsafe"
)

// MapThreshold is the smallest region size that is memory-mapped instead of heap allocated.
const MapThreshold = 64 << 10

// Region is a fixed-size, zero-initialised, pointer-aligned byte buffer.
// Not goroutine-safe.
type Region struct {
	data    []byte
	mapped  bool
	release func() error
}

// New returns a region of exactly size bytes.
func New(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}
	if size >= MapThreshold {
		data, release, err := mapAnon(size)
		if err == nil {
			return &Region{data: data, mapped: true, release: release}, nil
		}
		// mmap can fail under RLIMIT_AS or on exotic platforms; the heap still works.
	}
	return NewHeap(size), nil
}

// NewHeap returns a heap-backed region of exactly size bytes. The buffer is built from
// 64-bit words so it is always at least 8-byte aligned.
func NewHeap(size int) *Region {
	words := make([]uint64, (size+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(words)*8)[:size:size]
	return &Region{data: data, release: func() error { return nil }}
}

// Bytes returns the whole buffer. Nil after Close.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the region size, 0 after Close.
func (r *Region) Len() int { return len(r.data) }

// Mapped reports whether the region is an OS memory mapping.
func (r *Region) Mapped() bool { return r.mapped }

// Zero clears the first n bytes of the region.
func (r *Region) Zero(n int) {
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > 0 {
		clear(r.data[:n])
	}
}

// Close releases the buffer. Closing twice is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	r.data = nil
	release := r.release
	r.release = nil
	if release == nil {
		return nil
	}
	return release()
}
