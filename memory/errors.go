package memory

import "errors"

var (
	// ErrInvalidParam indicates a non-positive size, a bad option or an out-of-range index.
	ErrInvalidParam = errors.New("memory: invalid parameter")

	// ErrNotAllocated indicates use of a container or allocator after it was destroyed.
	ErrNotAllocated = errors.New("memory: not allocated")

	// ErrAllocationFailed indicates an exhausted pool or a failed backing allocation.
	ErrAllocationFailed = errors.New("memory: allocation failed")

	// ErrInsufficientMemory indicates that a zone cannot serve the requested size class.
	ErrInsufficientMemory = errors.New("memory: insufficient memory")

	// ErrDeallocationFailed indicates an invalid, out-of-range or repeated release.
	ErrDeallocationFailed = errors.New("memory: deallocation failed")

	// ErrEmptyData indicates a removal from an empty container.
	ErrEmptyData = errors.New("memory: empty data")

	// ErrKeyAlreadyExists indicates an insert of a key that is already present.
	ErrKeyAlreadyExists = errors.New("memory: key already exists")

	// ErrKeyNotFound indicates a lookup of a key that is not present.
	ErrKeyNotFound = errors.New("memory: key not found")

	// ErrReachedProbingLimits indicates that a hash map probe sequence hit its bound.
	ErrReachedProbingLimits = errors.New("memory: reached probing limits")

	// ErrNotExist indicates an unregistered zone name.
	ErrNotExist = errors.New("memory: zone does not exist")
)
