package resource

import (
	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/index"
)

// Handle is an opaque reference to a value in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

// Event represents a resource lifecycle event. Ref is a const reference to
// the value, valid only for the duration of the notification.
type Event struct {
	Ref    erased.Ref
	Handle Handle
	Index  index.Index
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend provides the underlying storage for a Table.
type Backend interface {
	// Create takes ownership of the object held by v and returns a handle.
	Create(v *erased.Value) (Handle, error)

	// Get returns the value stored under handle.
	Get(handle Handle) (*erased.Value, bool)

	// Drop removes handle and hands its value to the caller.
	// Fails while borrows are outstanding.
	Drop(handle Handle) (*erased.Value, error)

	// Borrow increments the borrow count for a handle.
	Borrow(handle Handle) bool

	// ReturnBorrow decrements the borrow count for a handle.
	ReturnBorrow(handle Handle) bool

	// Close destroys every stored value.
	Close() error
}
