// Package pool implements a fixed-size chunk allocator.
//
// A pool splits one region into chunkCount equal chunks. Free chunks are tracked by an
// index stack, allocated chunks by a bitset so that double frees and foreign indices are
// rejected. Allocation and release are O(1). Not goroutine-safe.
package pool

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/internal/region"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

// Chunk is the index of a chunk inside its pool.
type Chunk uint32

// Option configures a Pool.
type Option func(*options)

type options struct {
	alignment int
}

// WithAlignment sets the chunk alignment. It must be a power of two.
// Default: the platform pointer size.
func WithAlignment(align int) Option {
	return func(o *options) { o.alignment = align }
}

// Pool hands out equal-sized chunks of one region.
type Pool struct {
	region     *region.Region
	data       []byte
	chunkSize  int
	chunkCount int
	free       []uint32 // stack of free chunk indices, top at the end
	inUse      *bitset.BitSet
}

// New creates a pool of chunkCount chunks sharing capacity bytes. capacity must be a
// multiple of chunkCount; each chunk is capacity/chunkCount bytes rounded up to the
// alignment, so capacity is a minimum. New(12, 4) holds four 8-byte chunks (32 bytes)
// on 64-bit targets; Capacity reports the real size.
func New(capacity, chunkCount int, opts ...Option) (*Pool, error) {
	o := options{alignment: buf.PtrSize}
	for _, opt := range opts {
		opt(&o)
	}

	if capacity <= 0 || chunkCount <= 0 || uint64(chunkCount) > math.MaxUint32 {
		return nil, fmt.Errorf("pool capacity %d chunks %d: %w", capacity, chunkCount, memory.ErrInvalidParam)
	}
	if capacity%chunkCount != 0 {
		return nil, fmt.Errorf("pool capacity %d not divisible by %d chunks: %w",
			capacity, chunkCount, memory.ErrInvalidParam)
	}
	if !buf.IsPow2(o.alignment) {
		return nil, fmt.Errorf("pool alignment %d: %w", o.alignment, memory.ErrInvalidParam)
	}

	chunkSize := buf.AlignUp(capacity/chunkCount, o.alignment)
	total, ok := buf.MulOverflowSafe(chunkSize, chunkCount)
	if !ok {
		return nil, fmt.Errorf("pool %d chunks of %d bytes: %w", chunkCount, chunkSize, memory.ErrInvalidParam)
	}

	// Over-allocate by one alignment unit so chunk 0 can start on an aligned address.
	r, err := region.New(total + o.alignment)
	if err != nil {
		return nil, fmt.Errorf("pool: %w: %w", memory.ErrAllocationFailed, err)
	}
	base := r.Bytes()
	pad := 0
	if mis := int(buf.Addr(base) % uintptr(o.alignment)); mis != 0 {
		pad = o.alignment - mis
	}

	p := &Pool{
		region:     r,
		data:       base[pad : pad+total : pad+total],
		chunkSize:  chunkSize,
		chunkCount: chunkCount,
		free:       make([]uint32, 0, chunkCount),
		inUse:      bitset.New(uint(chunkCount)),
	}
	p.resetFreeList()
	return p, nil
}

// resetFreeList pushes every chunk in reverse so the first Allocate yields chunk 0.
func (p *Pool) resetFreeList() {
	p.free = p.free[:0]
	for i := p.chunkCount - 1; i >= 0; i-- {
		p.free = append(p.free, uint32(i))
	}
	p.inUse.ClearAll()
}

// Allocate pops a free chunk and returns it zero-filled. It fails with
// memory.ErrAllocationFailed when every chunk is in use.
func (p *Pool) Allocate() (Chunk, []byte, error) {
	if p.data == nil {
		return 0, nil, fmt.Errorf("pool: %w", memory.ErrNotAllocated)
	}
	n := len(p.free)
	if n == 0 {
		return 0, nil, fmt.Errorf("pool exhausted (%d chunks): %w", p.chunkCount, memory.ErrAllocationFailed)
	}

	idx := p.free[n-1]
	p.free = p.free[:n-1]
	p.inUse.Set(uint(idx))

	b := p.chunk(idx)
	clear(b)
	return Chunk(idx), b, nil
}

// Deallocate pushes c back onto the free list. Chunks out of range or not currently
// allocated fail with memory.ErrDeallocationFailed.
func (p *Pool) Deallocate(c Chunk) error {
	if p.data == nil {
		return fmt.Errorf("pool: %w", memory.ErrNotAllocated)
	}
	if int(c) >= p.chunkCount {
		return fmt.Errorf("pool chunk %d out of range [0, %d): %w", c, p.chunkCount, memory.ErrDeallocationFailed)
	}
	if !p.inUse.Test(uint(c)) {
		return fmt.Errorf("pool chunk %d not allocated: %w", c, memory.ErrDeallocationFailed)
	}
	p.inUse.Clear(uint(c))
	p.free = append(p.free, uint32(c))
	return nil
}

// DeallocateAll returns every chunk to the free list.
func (p *Pool) DeallocateAll() {
	if p.data == nil {
		return
	}
	p.resetFreeList()
}

// Release frees the region. The pool is unusable afterwards.
func (p *Pool) Release() error {
	if p.data == nil {
		return nil
	}
	p.data = nil
	p.free = nil
	p.inUse.ClearAll()
	return p.region.Close()
}

// Bytes returns the memory of an allocated chunk, or nil.
func (p *Pool) Bytes(c Chunk) []byte {
	if p.data == nil || int(c) >= p.chunkCount || !p.inUse.Test(uint(c)) {
		return nil
	}
	return p.chunk(uint32(c))
}

func (p *Pool) chunk(idx uint32) []byte {
	off := int(idx) * p.chunkSize
	return p.data[off : off+p.chunkSize : off+p.chunkSize]
}

// Object views an allocated chunk as a *T. It returns nil when the chunk is not
// allocated or T does not fit. T must not contain Go pointers.
func Object[T any](p *Pool, c Chunk) *T {
	s := buf.View[T](p.Bytes(c), 1)
	if s == nil {
		return nil
	}
	return &s[0]
}

// ChunkSize returns the aligned chunk size in bytes.
func (p *Pool) ChunkSize() int { return p.chunkSize }

// ChunkCount returns the number of chunks.
func (p *Pool) ChunkCount() int { return p.chunkCount }

// Capacity returns the bytes spanned by all chunks, after alignment rounding.
func (p *Pool) Capacity() int { return p.chunkSize * p.chunkCount }

// Used returns the number of allocated chunks.
func (p *Pool) Used() int { return int(p.inUse.Count()) }

// Available returns the number of free chunks.
func (p *Pool) Available() int { return len(p.free) }
