package resource

import (
	"sync"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

var (
	ErrClosed            = errors.New(errors.PhaseHost, errors.KindUnsupported).Detail("resource backend closed").Build()
	ErrOutstandingBorrow = errors.New(errors.PhaseHost, errors.KindInvalidInput).Detail("cannot drop resource with outstanding borrows").Build()
	ErrInvalidHandle     = errors.New(errors.PhaseHost, errors.KindNotFound).Detail("invalid resource handle").Build()
)

// LocalBackend is an in-memory backend with borrow tracking.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       *erased.Value
	index       index.Index
	borrowCount uint32
	valid       bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create moves the object held by v into the backend and returns a handle.
// v is left empty.
func (b *LocalBackend) Create(v *erased.Value) (Handle, error) {
	if !v.HasValue() {
		return 0, errors.InvalidInput(errors.PhaseHost, "cannot store an empty value")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	owned := &erased.Value{}
	owned.Move(v)
	e := entry{
		value: owned,
		index: owned.Index(),
		valid: true,
	}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// lookup returns the live entry for handle. Caller holds mu.
func (b *LocalBackend) lookup(handle Handle) (*entry, bool) {
	if handle == 0 {
		return nil, false
	}
	idx := handle - 1
	if int(idx) >= len(b.entries) {
		return nil, false
	}
	e := &b.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e, true
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (*erased.Value, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Drop removes a resource and returns its value, which the caller now owns.
func (b *LocalBackend) Drop(handle Handle) (*erased.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(handle)
	if !ok {
		return nil, ErrInvalidHandle
	}
	if e.borrowCount > 0 {
		return nil, ErrOutstandingBorrow
	}

	value := e.value
	*e = entry{}
	b.freeList = append(b.freeList, handle)
	return value, nil
}

// Close destroys all stored values.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			b.entries[i].value.Reset()
			b.entries[i] = entry{}
		}
	}

	b.entries = nil
	b.freeList = nil
	return nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend) Borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(handle)
	if !ok {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(handle)
	if !ok || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Index returns the type index for a handle.
func (b *LocalBackend) Index(handle Handle) (index.Index, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return index.Zero, false
	}
	return e.index, true
}

// Len returns the number of active resources.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all active resources.
func (b *LocalBackend) Each(fn func(Handle, *erased.Value) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.value) {
				break
			}
		}
	}
}
