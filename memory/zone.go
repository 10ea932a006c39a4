package memory

import (
	"fmt"
	"math"
	"os"

	"github.com/bits-and-blooms/bitset"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/internal/logger"
	"github.com/SilentCathedral918/vytal-sub000/internal/region"
)

// Runtime debug flag for allocation logging - controlled by VYTAL_LOG_ALLOC env var.
var logAlloc = os.Getenv("VYTAL_LOG_ALLOC") != ""

const (
	// freeListInitial is the capacity of a class free list on its first growth.
	freeListInitial = 10

	// freeListGrowth is the ratio applied when a full free list grows.
	freeListGrowth = 1.618
)

// sizeClass is one block size of a zone with the LIFO stack of its released blocks.
type sizeClass struct {
	size int
	free []Ref
}

// push appends ref, growing the stack geometrically when it is full.
func (c *sizeClass) push(ref Ref) {
	if len(c.free) == cap(c.free) {
		newCap := freeListInitial
		if cap(c.free) > 0 {
			newCap = int(math.Ceil(float64(cap(c.free)) * freeListGrowth))
		}
		grown := make([]Ref, len(c.free), newCap)
		copy(grown, c.free)
		c.free = grown
	}
	c.free = append(c.free, ref)
}

func (c *sizeClass) pop() (Ref, bool) {
	n := len(c.free)
	if n == 0 {
		return 0, false
	}
	ref := c.free[n-1]
	c.free = c.free[:n-1]
	return ref, true
}

// Zone is a named, fixed-capacity region carved into size-classed blocks.
//
// Blocks come from the class free list when one was released before, otherwise from
// the untouched tail of the region. Released blocks are only reused for the same
// class. Not goroutine-safe.
type Zone struct {
	name     string
	region   *region.Region
	data     []byte
	capacity int
	used     int // bytes in live blocks, counted by class size
	top      int // bump high-water mark
	table    sizeClassTable
	classes  []sizeClass
	live     *bitset.BitSet // one bit per pointer-sized offset holding a live block
}

// NewZone creates a standalone zone. Zones registered through a Manager are
// created by New.
func NewZone(name string, capacity int) (*Zone, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("zone %q capacity %d: %w", name, capacity, ErrInvalidParam)
	}
	r, err := region.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("zone %q: %w: %w", name, ErrAllocationFailed, err)
	}

	z := &Zone{
		name:     name,
		region:   r,
		data:     r.Bytes(),
		capacity: capacity,
		table:    newSizeClassTable(capacity),
		live:     bitset.New(uint(capacity/buf.PtrSize + 1)),
	}
	z.classes = make([]sizeClass, z.table.len())
	for i, size := range z.table.sizes {
		z.classes[i].size = size
	}
	return z, nil
}

// Alloc returns a block for size bytes. The slice has len == size and cap equal to
// the class size. Blocks reused from a free list keep their previous contents.
func (z *Zone) Alloc(size int) (Ref, []byte, error) {
	if z.data == nil {
		return 0, nil, fmt.Errorf("zone %q: %w", z.name, ErrNotAllocated)
	}
	if size <= 0 {
		return 0, nil, fmt.Errorf("zone %q alloc %d bytes: %w", z.name, size, ErrInvalidParam)
	}

	idx := z.table.indexFor(size)
	if idx < 0 {
		return 0, nil, fmt.Errorf("zone %q alloc %d bytes exceeds capacity %d: %w",
			z.name, size, z.capacity, ErrInsufficientMemory)
	}
	cls := &z.classes[idx]

	ref, reused := cls.pop()
	if !reused {
		if z.top+cls.size > z.capacity {
			if logAlloc {
				logger.Debug("zone exhausted", "zone", z.name, "size", size, "class", cls.size,
					"top", z.top, "capacity", z.capacity)
			}
			return 0, nil, fmt.Errorf("zone %q alloc %d bytes (class %d, %d/%d bytes bumped): %w",
				z.name, size, cls.size, z.top, z.capacity, ErrInsufficientMemory)
		}
		ref = Ref(z.top)
		z.top += cls.size
	}
	z.used += cls.size
	z.live.Set(uint(int(ref) / buf.PtrSize))

	if logAlloc {
		logger.Debug("zone alloc", "zone", z.name, "ref", int(ref), "size", size,
			"class", cls.size, "reused", reused, "used", z.used)
	}

	off := int(ref)
	return ref, z.data[off : off+size : off+cls.size], nil
}

// Free releases a block obtained from Alloc. size must map to the same class as the
// size passed to Alloc. Releasing a block that is not live fails with
// ErrDeallocationFailed.
func (z *Zone) Free(ref Ref, size int) error {
	if z.data == nil {
		return fmt.Errorf("zone %q: %w", z.name, ErrNotAllocated)
	}
	idx := z.table.indexFor(size)
	if idx < 0 {
		return fmt.Errorf("zone %q free ref %d size %d: %w", z.name, ref, size, ErrDeallocationFailed)
	}
	cls := &z.classes[idx]

	off := int(ref)
	if _, err := buf.CheckBlockBounds(z.top, off, 1, cls.size); err != nil {
		return fmt.Errorf("zone %q free ref %d: %w: %w", z.name, ref, ErrDeallocationFailed, err)
	}
	if off%minAlign(cls.size) != 0 {
		return fmt.Errorf("zone %q free ref %d misaligned: %w", z.name, ref, ErrDeallocationFailed)
	}
	bit := uint(off / buf.PtrSize)
	if !z.live.Test(bit) {
		return fmt.Errorf("zone %q free ref %d: block not allocated: %w", z.name, ref, ErrDeallocationFailed)
	}
	if z.used < cls.size {
		return fmt.Errorf("zone %q free %d bytes with %d in use: %w",
			z.name, cls.size, z.used, ErrDeallocationFailed)
	}

	cls.push(ref)
	z.used -= cls.size
	z.live.Clear(bit)

	if logAlloc {
		logger.Debug("zone free", "zone", z.name, "ref", off, "class", cls.size, "used", z.used)
	}
	return nil
}

// minAlign returns the alignment every block of the given class satisfies.
// Only the last class may be unaligned, and it can only sit at offset 0.
func minAlign(classSize int) int {
	if classSize%buf.PtrSize == 0 {
		return buf.PtrSize
	}
	return 1
}

// Clear zeroes the whole region and forgets every block. Free-list storage is kept.
func (z *Zone) Clear() {
	if z.data == nil {
		return
	}
	z.region.Zero(z.capacity)
	for i := range z.classes {
		z.classes[i].free = z.classes[i].free[:0]
	}
	z.used = 0
	z.top = 0
	z.live.ClearAll()
}

// Close releases the region. The zone is unusable afterwards.
func (z *Zone) Close() error {
	if z.data == nil {
		return nil
	}
	z.data = nil
	for i := range z.classes {
		z.classes[i].free = nil
	}
	z.used, z.top = 0, 0
	return z.region.Close()
}

// Name returns the zone name.
func (z *Zone) Name() string { return z.name }

// Capacity returns the region size in bytes.
func (z *Zone) Capacity() int { return z.capacity }

// Used returns the bytes held by live blocks, counted by class size.
func (z *Zone) Used() int { return z.used }

// HighWater returns the number of bytes ever handed out by bumping.
func (z *Zone) HighWater() int { return z.top }

// Classes returns a copy of the zone's size classes.
func (z *Zone) Classes() []int {
	return append([]int(nil), z.table.sizes...)
}

// ClassStats describes one size class of a zone.
type ClassStats struct {
	Size         int
	FreeBlocks   int
	FreeCapacity int
}

// ZoneStats is a point-in-time snapshot of a zone.
type ZoneStats struct {
	Name      string
	Capacity  int
	Used      int
	HighWater int
	Mapped    bool
	Classes   []ClassStats
}

// Utilization returns Used/Capacity in [0, 1].
func (s ZoneStats) Utilization() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Used) / float64(s.Capacity)
}

// Stats returns a snapshot of the zone counters.
func (z *Zone) Stats() ZoneStats {
	st := ZoneStats{
		Name:      z.name,
		Capacity:  z.capacity,
		Used:      z.used,
		HighWater: z.top,
		Mapped:    z.region.Mapped(),
		Classes:   make([]ClassStats, len(z.classes)),
	}
	for i, c := range z.classes {
		st.Classes[i] = ClassStats{Size: c.size, FreeBlocks: len(c.free), FreeCapacity: cap(c.free)}
	}
	return st
}
