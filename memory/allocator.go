package memory

import (
	"fmt"
	"unsafe"
)

// Ref identifies a block handed out by an Allocator. For zones it is the byte offset
// of the block inside the zone region.
type Ref int

// Allocator is the contract containers use to obtain and release their storage.
//
// Alloc returns a block of at least size bytes; the returned slice has len == size and
// may have a larger cap. Free must be called with the same ref and size that Alloc
// received. Blocks are aligned to at least the platform pointer size.
type Allocator interface {
	Alloc(size int) (Ref, []byte, error)
	Free(ref Ref, size int) error
}

var (
	_ Allocator = (*Zone)(nil)
	_ Allocator = (*Heap)(nil)
)

// Heap is an Allocator backed by the Go heap. Each block is a separate allocation that
// stays reachable until it is freed. The zero value is ready to use.
// Not goroutine-safe.
type Heap struct {
	blocks map[Ref]heapBlock
	next   Ref
	used   int
}

type heapBlock struct {
	words []uint64
	size  int
}

// NewHeap returns an empty heap allocator.
func NewHeap() *Heap {
	return &Heap{}
}

// Alloc returns a zero-filled, 8-byte aligned block of size bytes.
func (h *Heap) Alloc(size int) (Ref, []byte, error) {
	if size <= 0 {
		return 0, nil, fmt.Errorf("heap alloc %d bytes: %w", size, ErrInvalidParam)
	}
	if h.blocks == nil {
		h.blocks = make(map[Ref]heapBlock)
	}

	words := make([]uint64, (size+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(words)*8)

	h.next++
	ref := h.next
	h.blocks[ref] = heapBlock{words: words, size: size}
	h.used += size
	return ref, data[:size], nil
}

// Free drops the block so the garbage collector can reclaim it.
func (h *Heap) Free(ref Ref, size int) error {
	blk, ok := h.blocks[ref]
	if !ok {
		return fmt.Errorf("heap free ref %d: %w", ref, ErrDeallocationFailed)
	}
	if size <= 0 || size > len(blk.words)*8 {
		return fmt.Errorf("heap free ref %d size %d: %w", ref, size, ErrDeallocationFailed)
	}
	delete(h.blocks, ref)
	h.used -= blk.size
	return nil
}

// Used returns the number of bytes currently handed out.
func (h *Heap) Used() int { return h.used }

// Blocks returns the number of live blocks.
func (h *Heap) Blocks() int { return len(h.blocks) }
