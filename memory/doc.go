// Package memory provides the engine's zone allocator: fixed-capacity regions carved
// into size-classed blocks that are recycled through per-class free lists.
//
// # Overview
//
// A Manager owns a fixed set of named zones, decided once from a []ZoneSpec. Every
// subsystem asks its own zone for memory, so an exhausted audio zone cannot starve the
// renderer. There is no global manager: construct one and hand it to whoever needs it.
//
//	mgr, err := memory.New([]memory.ZoneSpec{
//	    {Name: "Containers", Capacity: 4 << 20},
//	    {Name: "Audio", Capacity: 16 << 20},
//	})
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	ref, block, err := mgr.Allocate("Containers", 100)
//	if err != nil {
//	    return err
//	}
//	copy(block, payload)
//
//	// Later, release it with the same size.
//	err = mgr.Deallocate("Containers", ref, 100)
//
// # Size Classes
//
// Each zone derives its classes from its capacity with ComputeSizeClasses. The first
// class is 4 bytes rounded up to the pointer size; each next class grows by 1.618 and
// is rounded up again, and the zone capacity closes the table:
//
//	capacity 64:    8, 16, 32, 56, 64
//	capacity 4096:  8, 16, 32, 56, 96, 160, 264, 432, 704, 1144, 1856, 3008, 4096
//
// A request is served from the smallest class that holds it, so internal fragmentation
// is bounded by the 1.618 ratio.
//
// # Allocation
//
//   - Free-list hit: the most recently released block of the class is reused (LIFO).
//     Its previous contents are left in place.
//   - Miss: the block is bumped from the never-used tail of the region. Fresh blocks are
//     zero because regions start zeroed and Clear zeroes them again.
//   - Neither: ErrInsufficientMemory. Blocks released in other classes are never split or
//     merged to serve a request.
//
// Used counts live bytes by class size; HighWater counts bytes ever bumped. Used never
// exceeds HighWater, which never exceeds Capacity.
//
// # Allocator Interface
//
// Zone and Heap implement Allocator, the two-method contract the containers in
// container/array and container/hashmap are built on:
//
//   - Alloc(size): returns a Ref and a slice with len == size
//   - Free(ref, size): returns the block; size must map to the same class
//
// Memory handed out by a zone is invisible to the garbage collector. Never store Go
// pointers (including strings, slices, maps and interfaces) inside it.
//
// # Debugging
//
// Set VYTAL_LOG_ALLOC=1 to log every zone allocation and release at debug level through
// internal/logger.
//
// # Thread Safety
//
// Nothing in this package locks. Zone registration is immutable after New, so disjoint
// zones can be used from different goroutines; one zone must stay on one goroutine or be
// guarded by the caller.
package memory
