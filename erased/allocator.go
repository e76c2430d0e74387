package erased

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/typebridge/errors"
)

// ErrOutOfMemory is raised when heap storage for a value cannot be obtained.
// Call reports it as StatOutOfMemory.
var ErrOutOfMemory = errors.New(errors.PhaseCall, errors.KindAllocation).
	Detail("out of memory").
	Build()

// Allocator provides heap storage for values that do not fit inline.
// Alloc returns zeroed storage for one value of type t.
type Allocator interface {
	Alloc(t reflect.Type) (unsafe.Pointer, error)
	Free(t reflect.Type, p unsafe.Pointer)
}

type goAllocator struct{}

func (goAllocator) Alloc(t reflect.Type) (unsafe.Pointer, error) {
	return reflect.New(t).UnsafePointer(), nil
}

func (goAllocator) Free(reflect.Type, unsafe.Pointer) {}

// HeapAllocator allocates from the Go heap and never fails.
var HeapAllocator Allocator = goAllocator{}

// Budget is an Allocator that fails once the bytes in use would exceed a limit.
type Budget struct {
	mu    sync.Mutex
	limit uintptr
	used  uintptr
	peak  uintptr
}

func NewBudget(limit uintptr) *Budget {
	return &Budget{limit: limit}
}

func (b *Budget) Alloc(t reflect.Type) (unsafe.Pointer, error) {
	size := t.Size()

	b.mu.Lock()
	if b.used+size > b.limit {
		b.mu.Unlock()
		return nil, errors.AllocationFailed(errors.PhaseDump, size, uintptr(t.Align()))
	}
	b.used += size
	if b.used > b.peak {
		b.peak = b.used
	}
	b.mu.Unlock()

	return reflect.New(t).UnsafePointer(), nil
}

func (b *Budget) Free(t reflect.Type, _ unsafe.Pointer) {
	b.mu.Lock()
	b.used -= t.Size()
	b.mu.Unlock()
}

// Used returns the bytes currently allocated.
func (b *Budget) Used() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Peak returns the high-water mark of allocated bytes.
func (b *Budget) Peak() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

// IsOutOfMemory reports whether any error in err's tree is an allocation
// failure.
func IsOutOfMemory(err error) bool {
	if e, ok := err.(*errors.Error); ok && e.Kind == errors.KindAllocation {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if IsOutOfMemory(e) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		if next := u.Unwrap(); next != nil {
			return IsOutOfMemory(next)
		}
	}
	return false
}

func isAllocation(v any) bool {
	err, ok := v.(error)
	return ok && IsOutOfMemory(err)
}
