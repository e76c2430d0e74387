package resource

import (
	"sync"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/index"
)

// Table hands out integer handles for values owned across an ABI boundary
// and notifies observers of their lifecycle.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert moves the object held by v into the table and returns its handle.
// It returns 0 when v is empty or the table is closed.
func (t *Table) Insert(v *erased.Value) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(v)
	if err != nil {
		return 0
	}

	stored, _ := t.backend.Get(handle)
	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Index:  stored.Index(),
		Ref:    stored.Const(),
	})

	return handle
}

// Put stores x and returns its handle.
func Put[T any](t *Table, x T) Handle {
	return t.Insert(erased.New(x))
}

// Get retrieves a value by handle. The table keeps ownership.
func (t *Table) Get(handle Handle) (*erased.Value, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it has index i.
func (t *Table) GetTyped(handle Handle, i index.Index) (*erased.Value, bool) {
	actual, ok := t.backend.Index(handle)
	if !ok || actual != i {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Lookup returns a pointer to the T stored under handle.
func Lookup[T any](t *Table, handle Handle) (*T, bool) {
	v, ok := t.GetTyped(handle, index.For[T]())
	if !ok {
		return nil, false
	}
	return erased.Get[T](v)
}

// Take removes handle and hands its value to the caller without
// destroying it.
func (t *Table) Take(handle Handle) (*erased.Value, error) {
	v, err := t.backend.Drop(handle)
	if err != nil {
		return nil, err
	}
	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Index:  v.Index(),
		Ref:    v.Const(),
	})
	return v, nil
}

// Remove drops handle and destroys its value.
func (t *Table) Remove(handle Handle) error {
	v, err := t.Take(handle)
	if err != nil {
		return err
	}
	v.Reset()
	return nil
}

// Borrow marks handle as in use; Remove fails until the borrow returns.
func (t *Table) Borrow(handle Handle) bool {
	if !t.backend.Borrow(handle) {
		return false
	}
	t.notify(Event{Type: EventBorrowed, Handle: handle})
	return true
}

// ReturnBorrow ends one borrow of handle.
func (t *Table) ReturnBorrow(handle Handle) bool {
	if !t.backend.ReturnBorrow(handle) {
		return false
	}
	t.notify(Event{Type: EventBorrowReturned, Handle: handle})
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer. o must be comparable, so ObserverFunc
// observers cannot be removed.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active resources.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear drops all resources.
func (t *Table) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, _ *erased.Value) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_ = t.Remove(h)
	}
}

// Close releases all resources and stops accepting operations.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

// Backend returns the underlying backend.
func (t *Table) Backend() Backend {
	return t.backend
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
