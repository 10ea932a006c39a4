// Package hashmap implements an open-addressing hash table keyed by the 64-bit hash of a
// string, with values stored inline in slots obtained from a memory.Allocator.
//
// Collisions are resolved by linear probing. Removal marks a slot as a tombstone so that
// probe chains stay intact; tombstones are reused by later inserts and dropped only when
// the table grows. Tables with heavy insert/remove churn and no growth therefore probe
// longer over time, up to the probe limit of 3/4 of the capacity.
//
// Only the hash of a key is stored. Two keys with the same 64-bit hash are the same key.
// V must not contain Go pointers when the allocator is a zone. Not goroutine-safe.
package hashmap

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/internal/logger"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

const (
	// DefaultCapacity is the slot count of a new map.
	DefaultCapacity = 10

	// DefaultGrowth multiplies the slot count when the load factor is reached.
	DefaultGrowth = 1.618

	// DefaultLoadFactor is the occupancy that triggers growth.
	DefaultLoadFactor = 0.75
)

const (
	hashEmpty     uint64 = 0
	hashTombstone uint64 = math.MaxUint64
)

// HashKey returns the slot hash of key. Hashes that collide with the empty or tombstone
// markers are moved to the neighbouring value.
func HashKey(key string) uint64 {
	h := xxhash.Sum64String(key)
	switch h {
	case hashEmpty:
		return 1
	case hashTombstone:
		return hashTombstone - 1
	}
	return h
}

type slot[V any] struct {
	hash  uint64
	value V
}

// Option configures a Map.
type Option func(*options)

type options struct {
	capacity   int
	growth     float64
	loadFactor float64
}

// WithCapacity sets the initial slot count.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithGrowth sets the slot count multiplier applied on growth. Must be greater than 1.
func WithGrowth(f float64) Option {
	return func(o *options) { o.growth = f }
}

// WithLoadFactor sets the occupancy in (0, 1) at which the map grows.
func WithLoadFactor(f float64) Option {
	return func(o *options) { o.loadFactor = f }
}

// Map is a string-keyed hash table of V.
type Map[V any] struct {
	alloc      memory.Allocator
	ref        memory.Ref
	slots      []slot[V]
	size       int
	growth     float64
	loadFactor float64
	allocated  bool
}

// New allocates an empty map from alloc.
func New[V any](alloc memory.Allocator, opts ...Option) (*Map[V], error) {
	o := options{capacity: DefaultCapacity, growth: DefaultGrowth, loadFactor: DefaultLoadFactor}
	for _, opt := range opts {
		opt(&o)
	}

	if alloc == nil {
		return nil, fmt.Errorf("hashmap: nil allocator: %w", memory.ErrInvalidParam)
	}
	if o.capacity <= 0 || !(o.growth > 1) || math.IsInf(o.growth, 0) ||
		!(o.loadFactor > 0 && o.loadFactor < 1) {
		return nil, fmt.Errorf("hashmap capacity %d growth %v load factor %v: %w",
			o.capacity, o.growth, o.loadFactor, memory.ErrInvalidParam)
	}

	m := &Map[V]{alloc: alloc, growth: o.growth, loadFactor: o.loadFactor}
	ref, slots, err := m.allocate(o.capacity)
	if err != nil {
		return nil, err
	}
	m.ref, m.slots, m.allocated = ref, slots, true
	return m, nil
}

// allocate obtains an all-empty table of n slots. Blocks recycled by a zone keep
// their old bytes, so the table is always cleared.
func (m *Map[V]) allocate(n int) (memory.Ref, []slot[V], error) {
	bytes, ok := buf.MulOverflowSafe(n, buf.SizeOf[slot[V]]())
	if !ok {
		return 0, nil, fmt.Errorf("hashmap: %d slots overflow: %w", n, memory.ErrInvalidParam)
	}
	ref, block, err := m.alloc.Alloc(bytes)
	if err != nil {
		return 0, nil, fmt.Errorf("hashmap alloc %d slots: %w", n, err)
	}
	slots := buf.View[slot[V]](block, n)
	if slots == nil {
		_ = m.alloc.Free(ref, bytes)
		return 0, nil, fmt.Errorf("hashmap: block misaligned for slot type: %w", memory.ErrAllocationFailed)
	}
	clear(slots)
	return ref, slots, nil
}

func (m *Map[V]) blockBytes() int {
	return len(m.slots) * buf.SizeOf[slot[V]]()
}

// probeLimit is the longest probe sequence any operation walks.
func probeLimit(capacity int) int {
	return max(1, capacity*3/4)
}

func (m *Map[V]) check() error {
	if !m.allocated {
		return fmt.Errorf("hashmap: %w", memory.ErrNotAllocated)
	}
	return nil
}

// find returns the slot index holding h.
func (m *Map[V]) find(h uint64) (int, error) {
	n := len(m.slots)
	idx := int(h % uint64(n))
	for range probeLimit(n) {
		switch m.slots[idx].hash {
		case hashEmpty:
			return -1, memory.ErrKeyNotFound
		case h:
			return idx, nil
		}
		idx = (idx + 1) % n
	}
	return -1, memory.ErrReachedProbingLimits
}

// place stores (h, v) in slots, claiming the first tombstone passed or the empty slot
// that ends the probe.
func place[V any](slots []slot[V], h uint64, v V) error {
	n := len(slots)
	idx := int(h % uint64(n))
	target := -1
	for range probeLimit(n) {
		switch slots[idx].hash {
		case hashEmpty:
			if target < 0 {
				target = idx
			}
			slots[target] = slot[V]{hash: h, value: v}
			return nil
		case hashTombstone:
			if target < 0 {
				target = idx
			}
		case h:
			return memory.ErrKeyAlreadyExists
		}
		idx = (idx + 1) % n
	}
	if target < 0 {
		return memory.ErrReachedProbingLimits
	}
	slots[target] = slot[V]{hash: h, value: v}
	return nil
}

// grow rehashes every live slot into a table of capacity*growth slots.
// On failure the map is unchanged.
func (m *Map[V]) grow() error {
	oldCap := len(m.slots)
	newCap := int(math.Ceil(float64(oldCap) * m.growth))
	if newCap <= oldCap {
		newCap = oldCap + 1
	}

	ref, slots, err := m.allocate(newCap)
	if err != nil {
		return err
	}
	for _, s := range m.slots {
		if s.hash == hashEmpty || s.hash == hashTombstone {
			continue
		}
		if err := place(slots, s.hash, s.value); err != nil {
			_ = m.alloc.Free(ref, newCap*buf.SizeOf[slot[V]]())
			return fmt.Errorf("hashmap rehash into %d slots: %w", newCap, err)
		}
	}

	oldRef, oldBytes := m.ref, m.blockBytes()
	m.ref, m.slots = ref, slots
	if err := m.alloc.Free(oldRef, oldBytes); err != nil {
		logger.Warn("hashmap: release old table", "ref", int(oldRef), "bytes", oldBytes, "err", err)
	}
	return nil
}

// Insert adds key with value v. It fails with memory.ErrKeyAlreadyExists when key is
// present, without growing the table. A new key grows the map first when the insert
// would reach the load factor.
func (m *Map[V]) Insert(key string, v V) error {
	if err := m.check(); err != nil {
		return err
	}
	h := HashKey(key)
	if _, err := m.find(h); err == nil {
		return fmt.Errorf("hashmap insert %q: %w", key, memory.ErrKeyAlreadyExists)
	}
	if float64(m.size+1) >= m.loadFactor*float64(len(m.slots)) {
		if err := m.grow(); err != nil {
			return err
		}
	}
	if err := place(m.slots, h, v); err != nil {
		return fmt.Errorf("hashmap insert %q: %w", key, err)
	}
	m.size++
	return nil
}

// Search returns a pointer to the value of key. The pointer is invalidated by growth.
func (m *Map[V]) Search(key string) (*V, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	idx, err := m.find(HashKey(key))
	if err != nil {
		return nil, fmt.Errorf("hashmap search %q: %w", key, err)
	}
	return &m.slots[idx].value, nil
}

// Get returns a copy of the value of key.
func (m *Map[V]) Get(key string) (V, error) {
	p, err := m.Search(key)
	if err != nil {
		var zero V
		return zero, err
	}
	return *p, nil
}

// Contains reports whether key is present.
func (m *Map[V]) Contains(key string) bool {
	_, err := m.Search(key)
	return err == nil
}

// Update overwrites the value of an existing key.
func (m *Map[V]) Update(key string, v V) error {
	p, err := m.Search(key)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Remove deletes key, leaving a tombstone in its slot.
func (m *Map[V]) Remove(key string) error {
	if err := m.check(); err != nil {
		return err
	}
	idx, err := m.find(HashKey(key))
	if err != nil {
		return fmt.Errorf("hashmap remove %q: %w", key, err)
	}
	m.slots[idx] = slot[V]{hash: hashTombstone}
	m.size--
	return nil
}

// Range calls fn for every entry in slot order until fn returns false.
func (m *Map[V]) Range(fn func(hash uint64, v *V) bool) {
	if !m.allocated {
		return
	}
	for i := range m.slots {
		s := &m.slots[i]
		if s.hash == hashEmpty || s.hash == hashTombstone {
			continue
		}
		if !fn(s.hash, &s.value) {
			return
		}
	}
}

// Clear empties every slot, tombstones included, and keeps the table.
func (m *Map[V]) Clear() error {
	if err := m.check(); err != nil {
		return err
	}
	clear(m.slots)
	m.size = 0
	return nil
}

// Tombstones returns the number of slots marked as removed.
func (m *Map[V]) Tombstones() int {
	n := 0
	for _, s := range m.slots {
		if s.hash == hashTombstone {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (m *Map[V]) Len() int { return m.size }

// Cap returns the slot count.
func (m *Map[V]) Cap() int { return len(m.slots) }

// Empty reports whether the map has no entries.
func (m *Map[V]) Empty() bool { return m.size == 0 }

// Destroy returns the table to the allocator. Every later call fails with
// memory.ErrNotAllocated.
func (m *Map[V]) Destroy() error {
	if err := m.check(); err != nil {
		return err
	}
	err := m.alloc.Free(m.ref, m.blockBytes())
	m.slots, m.size, m.allocated = nil, 0, false
	if err != nil {
		return fmt.Errorf("hashmap destroy: %w", err)
	}
	return nil
}
