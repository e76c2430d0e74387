// Package resource provides handle tables for values owned across an ABI
// boundary.
//
// Foreign code cannot hold Go pointers, so values handed out through a
// host binding are stored in a Table and referred to by integer handles:
//
//	table := resource.NewTable()
//
//	// Store a value, get a handle
//	h := resource.Put(table, myValue)
//
//	// Typed access
//	p, ok := resource.Lookup[MyType](table, h)
//
//	// Destroy the value and free the handle
//	err := table.Remove(h)
//
// # Borrows
//
// A handle passed as a call argument is borrowed for the duration of the
// call. Remove fails with ErrOutstandingBorrow while borrows remain.
//
// # Observers
//
// Register observers to track resource lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventCreated:
//	        log.Printf("resource %d created", e.Handle)
//	    case resource.EventDropped:
//	        log.Printf("resource %d dropped", e.Handle)
//	    }
//	}))
//
// Values are not garbage collected while stored: the host must Remove
// handles the foreign side drops, or Close the table.
package resource
