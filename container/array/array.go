// Package array implements a growable, contiguous sequence whose storage comes from a
// memory.Allocator.
//
// Elements live inside a single allocator block viewed as a []T. When the block is
// full it is replaced by a larger one (capacity times the growth factor), the live
// prefix is copied over and the old block is freed. If the larger block cannot be
// obtained the array keeps its old block and contents.
//
// T must not contain Go pointers when the allocator is a zone: zone memory is not
// scanned by the garbage collector. Not goroutine-safe.
package array

import (
	"fmt"
	"math"
	"slices"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/internal/logger"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

const (
	// DefaultCapacity is the element capacity of a new array.
	DefaultCapacity = 10

	// DefaultGrowth multiplies the capacity of a full array.
	DefaultGrowth = 2.0
)

// Option configures an Array.
type Option func(*options)

type options struct {
	capacity int
	growth   float64
}

// WithCapacity sets the initial element capacity.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithGrowth sets the factor applied to the capacity when the array is full.
// It must be greater than 1.
func WithGrowth(f float64) Option {
	return func(o *options) { o.growth = f }
}

// Array is a growable sequence of T.
type Array[T comparable] struct {
	alloc     memory.Allocator
	ref       memory.Ref
	data      []T // len(data) == capacity
	size      int
	growth    float64
	allocated bool
}

// New allocates an empty array from alloc.
func New[T comparable](alloc memory.Allocator, opts ...Option) (*Array[T], error) {
	o := options{capacity: DefaultCapacity, growth: DefaultGrowth}
	for _, opt := range opts {
		opt(&o)
	}

	if alloc == nil {
		return nil, fmt.Errorf("array: nil allocator: %w", memory.ErrInvalidParam)
	}
	if buf.SizeOf[T]() == 0 {
		return nil, fmt.Errorf("array: zero-size element type: %w", memory.ErrInvalidParam)
	}
	if o.capacity <= 0 || !(o.growth > 1) || math.IsInf(o.growth, 0) {
		return nil, fmt.Errorf("array capacity %d growth %v: %w", o.capacity, o.growth, memory.ErrInvalidParam)
	}

	a := &Array[T]{alloc: alloc, growth: o.growth}
	ref, data, err := a.allocate(o.capacity)
	if err != nil {
		return nil, err
	}
	a.ref, a.data, a.allocated = ref, data, true
	return a, nil
}

// allocate obtains a block for n elements.
func (a *Array[T]) allocate(n int) (memory.Ref, []T, error) {
	bytes, ok := buf.MulOverflowSafe(n, buf.SizeOf[T]())
	if !ok {
		return 0, nil, fmt.Errorf("array: %d elements overflow: %w", n, memory.ErrInvalidParam)
	}
	ref, block, err := a.alloc.Alloc(bytes)
	if err != nil {
		return 0, nil, fmt.Errorf("array alloc %d elements: %w", n, err)
	}
	data := buf.View[T](block, n)
	if data == nil {
		_ = a.alloc.Free(ref, bytes)
		return 0, nil, fmt.Errorf("array: block misaligned for element type: %w", memory.ErrAllocationFailed)
	}
	return ref, data, nil
}

func (a *Array[T]) blockBytes() int {
	return len(a.data) * buf.SizeOf[T]()
}

// grow moves the live elements to a block of capacity*growth elements.
// On failure nothing changes.
func (a *Array[T]) grow() error {
	oldCap := len(a.data)
	newCap := int(math.Ceil(float64(oldCap) * a.growth))
	if newCap <= oldCap {
		newCap = oldCap + 1
	}

	ref, data, err := a.allocate(newCap)
	if err != nil {
		return err
	}
	copy(data, a.data[:a.size])

	oldRef, oldBytes := a.ref, a.blockBytes()
	a.ref, a.data = ref, data
	if err := a.alloc.Free(oldRef, oldBytes); err != nil {
		logger.Warn("array: release old block", "ref", int(oldRef), "bytes", oldBytes, "err", err)
	}
	return nil
}

func (a *Array[T]) check() error {
	if !a.allocated {
		return fmt.Errorf("array: %w", memory.ErrNotAllocated)
	}
	return nil
}

// Push appends v, growing the array when it is full.
func (a *Array[T]) Push(v T) error {
	if err := a.check(); err != nil {
		return err
	}
	if a.size == len(a.data) {
		if err := a.grow(); err != nil {
			return err
		}
	}
	a.data[a.size] = v
	a.size++
	return nil
}

// Pop removes and returns the last element.
func (a *Array[T]) Pop() (T, error) {
	var zero T
	if err := a.check(); err != nil {
		return zero, err
	}
	if a.size == 0 {
		return zero, fmt.Errorf("array pop: %w", memory.ErrEmptyData)
	}
	a.size--
	v := a.data[a.size]
	a.data[a.size] = zero
	return v, nil
}

// Insert places v at index i, shifting the elements at i and after one slot right.
// i must be in [0, Len()].
func (a *Array[T]) Insert(i int, v T) error {
	if err := a.check(); err != nil {
		return err
	}
	if i < 0 || i > a.size {
		return fmt.Errorf("array insert at %d (len %d): %w", i, a.size, memory.ErrInvalidParam)
	}
	if a.size == len(a.data) {
		if err := a.grow(); err != nil {
			return err
		}
	}
	copy(a.data[i+1:a.size+1], a.data[i:a.size])
	a.data[i] = v
	a.size++
	return nil
}

// RemoveAt deletes the element at index i, shifting the rest left.
func (a *Array[T]) RemoveAt(i int) error {
	if err := a.check(); err != nil {
		return err
	}
	if a.size == 0 {
		return fmt.Errorf("array remove at %d: %w", i, memory.ErrEmptyData)
	}
	if i < 0 || i >= a.size {
		return fmt.Errorf("array remove at %d (len %d): %w", i, a.size, memory.ErrInvalidParam)
	}
	a.removeAt(i)
	return nil
}

func (a *Array[T]) removeAt(i int) {
	copy(a.data[i:a.size-1], a.data[i+1:a.size])
	a.size--
	var zero T
	a.data[a.size] = zero
}

// Remove deletes the first element equal to v, or every such element when all is set,
// and returns how many were removed. memory.ErrKeyNotFound is returned when v is absent.
func (a *Array[T]) Remove(v T, all bool) (int, error) {
	if err := a.check(); err != nil {
		return 0, err
	}
	if a.size == 0 {
		return 0, fmt.Errorf("array remove: %w", memory.ErrEmptyData)
	}

	removed := 0
	for i := 0; i < a.size; {
		if a.data[i] != v {
			i++
			continue
		}
		a.removeAt(i)
		removed++
		if !all {
			break
		}
	}
	if removed == 0 {
		return 0, fmt.Errorf("array remove: %w", memory.ErrKeyNotFound)
	}
	return removed, nil
}

// Clear drops every element but keeps the block.
func (a *Array[T]) Clear() error {
	if err := a.check(); err != nil {
		return err
	}
	clear(a.data[:a.size])
	a.size = 0
	return nil
}

// Sort orders the elements with cmp, which follows the slices.SortFunc contract.
func (a *Array[T]) Sort(cmp func(x, y T) int) error {
	if err := a.check(); err != nil {
		return err
	}
	if cmp == nil {
		return fmt.Errorf("array sort: nil comparator: %w", memory.ErrInvalidParam)
	}
	slices.SortFunc(a.data[:a.size], cmp)
	return nil
}

// At returns a pointer to the element at index i. The pointer is invalidated by any
// operation that grows the array.
func (a *Array[T]) At(i int) (*T, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	if i < 0 || i >= a.size {
		return nil, fmt.Errorf("array at %d (len %d): %w", i, a.size, memory.ErrInvalidParam)
	}
	return &a.data[i], nil
}

// Get returns a copy of the element at index i.
func (a *Array[T]) Get(i int) (T, error) {
	p, err := a.At(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// Set overwrites the element at index i.
func (a *Array[T]) Set(i int, v T) error {
	p, err := a.At(i)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Index returns the position of the first element equal to v, or -1.
func (a *Array[T]) Index(v T) int {
	if !a.allocated {
		return -1
	}
	return slices.Index(a.data[:a.size], v)
}

// Values returns the live elements. The slice aliases the array storage and is
// invalidated by growth or Destroy.
func (a *Array[T]) Values() []T {
	if !a.allocated {
		return nil
	}
	return a.data[:a.size:a.size]
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return a.size }

// Cap returns the element capacity of the current block.
func (a *Array[T]) Cap() int { return len(a.data) }

// Empty reports whether the array has no elements.
func (a *Array[T]) Empty() bool { return a.size == 0 }

// Full reports whether the next Push will grow the array.
func (a *Array[T]) Full() bool { return a.size == len(a.data) }

// Destroy returns the block to the allocator. Every later call fails with
// memory.ErrNotAllocated.
func (a *Array[T]) Destroy() error {
	if err := a.check(); err != nil {
		return err
	}
	err := a.alloc.Free(a.ref, a.blockBytes())
	a.data, a.size, a.allocated = nil, 0, false
	if err != nil {
		return fmt.Errorf("array destroy: %w", err)
	}
	return nil
}
