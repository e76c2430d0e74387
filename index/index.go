package index

import (
	"reflect"
	"sync"
)

// Index identifies a Go type for the lifetime of the process.
type Index uint32

// Zero is the empty Index.
const Zero Index = 0

type entry struct {
	typ  reflect.Type
	name string
}

var identities = struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]Index
	byName  map[string]Index
	entries []entry
}{
	byType:  make(map[reflect.Type]Index),
	byName:  make(map[string]Index),
	entries: []entry{{name: "<empty>"}},
}

// Of returns the Index for t, assigning a new one on first sight.
// A nil type maps to Zero.
func Of(t reflect.Type) Index {
	if t == nil {
		return Zero
	}

	identities.mu.RLock()
	i, ok := identities.byType[t]
	identities.mu.RUnlock()
	if ok {
		return i
	}

	identities.mu.Lock()
	defer identities.mu.Unlock()

	if i, ok := identities.byType[t]; ok {
		return i
	}
	if len(identities.entries) > maxIndex {
		panic("index: identity space exhausted")
	}

	i = Index(len(identities.entries))
	name := t.String()
	identities.entries = append(identities.entries, entry{typ: t, name: name})
	identities.byType[t] = i
	if _, taken := identities.byName[name]; !taken {
		identities.byName[name] = i
	}
	return i
}

// For returns the Index of T.
func For[T any]() Index {
	return Of(reflect.TypeFor[T]())
}

// ByName resolves a type name as printed by reflect.Type.String.
// Only types that have already been seen can be found.
func ByName(name string) (Index, bool) {
	identities.mu.RLock()
	defer identities.mu.RUnlock()
	i, ok := identities.byName[name]
	return i, ok
}

func (i Index) lookup() entry {
	identities.mu.RLock()
	defer identities.mu.RUnlock()
	if int(i) >= len(identities.entries) {
		return entry{name: "<unknown>"}
	}
	return identities.entries[i]
}

// Type returns the Go type this Index stands for, or nil for Zero.
func (i Index) Type() reflect.Type {
	return i.lookup().typ
}

// Name returns a human-readable type name.
func (i Index) Name() string {
	return i.lookup().name
}

// IsZero reports whether i is the empty Index.
func (i Index) IsZero() bool {
	return i == Zero
}

// Is reports whether i identifies T.
func Is[T any](i Index) bool {
	return i != Zero && i == For[T]()
}

func (i Index) String() string {
	return i.Name()
}
