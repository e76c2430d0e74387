package erased

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

// Conversion builds a value of the edge's destination type at dst from src.
// dst is zeroed storage of the destination type.
type Conversion func(src Ref, dst unsafe.Pointer) bool

type edge struct {
	to index.Index
	fn Conversion
}

// Registry maps indices to tables and holds the conversion graph.
// Registration normally happens at startup; after Freeze the registry is
// read-only apart from lazily compiled default tables.
type Registry struct {
	mu     sync.RWMutex
	tables map[index.Index]*Table
	edges  map[index.Index][]edge
	alloc  Allocator
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[index.Index]*Table),
		edges:  make(map[index.Index][]edge),
		alloc:  HeapAllocator,
	}
}

var defaultRegistry = newDefaultRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// SetAllocator replaces the allocator used for heap placement.
func (r *Registry) SetAllocator(a Allocator) {
	if a == nil {
		a = HeapAllocator
	}
	r.mu.Lock()
	r.alloc = a
	r.mu.Unlock()
}

func (r *Registry) Allocator() Allocator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alloc
}

// Register installs t. Registering the same table twice is a no-op;
// registering a different table for an index that already has one fails.
func (r *Registry) Register(t *Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tables[t.Index]; ok {
		if existing == t {
			return nil
		}
		return errors.Registration(t.Name(), nil, "a different table is already registered")
	}
	if r.frozen {
		return errors.Registration(t.Name(), nil, "registry is frozen")
	}
	if t.reg == nil {
		t.reg = r
	}
	r.tables[t.Index] = t
	Logger().Debug("registered table", zapIndex(t.Index), zapKind(t.Info.Kind))
	return nil
}

// MustRegister is Register that panics on error, for use in init.
func (r *Registry) MustRegister(t *Table) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the table registered for i without compiling one.
func (r *Registry) Lookup(i index.Index) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[i]
	return t, ok
}

// Table returns the table for i, compiling and installing the default table
// on first use. It returns nil for the zero index.
func (r *Registry) Table(i index.Index) *Table {
	if t, ok := r.Lookup(i); ok {
		return t
	}
	typ := i.Type()
	if typ == nil {
		return nil
	}
	compiled := Compile(typ)

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[i]; ok {
		return t
	}
	compiled.reg = r
	r.tables[i] = compiled
	return compiled
}

// TableOf returns the table for T in r.
func TableOf[T any](r *Registry) *Table {
	return r.Table(index.For[T]())
}

// Convert adds a conversion edge from one index to another. Edges that
// would close a cycle are rejected so route search always terminates.
func (r *Registry) Convert(from, to index.Index, fn Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Registration(from.Name(), nil, "registry is frozen")
	}
	if from == to || r.reachable(to, from) {
		return errors.Cycle(from.Name(), to.Name())
	}
	for _, e := range r.edges[from] {
		if e.to == to {
			return errors.Registration(from.Name(), nil, fmt.Sprintf("conversion to %s already registered", to.Name()))
		}
	}
	r.edges[from] = append(r.edges[from], edge{to: to, fn: fn})
	return nil
}

// AddConversion registers a typed conversion from S to D.
func AddConversion[S, D any](r *Registry, fn func(S) D) error {
	return r.Convert(index.For[S](), index.For[D](), func(src Ref, dst unsafe.Pointer) bool {
		*(*D)(dst) = fn(*(*S)(src.ptr))
		return true
	})
}

// Freeze makes the registry read-only for explicit registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// reachable reports whether to can be reached from from. Caller holds mu.
func (r *Registry) reachable(from, to index.Index) bool {
	visited := map[index.Index]bool{from: true}
	stack := []index.Index{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		for _, e := range r.edges[cur] {
			if !visited[e.to] {
				visited[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// route returns the first edge path from one index to another, searched
// depth-first in registration order.
func (r *Registry) route(from, to index.Index) []edge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	visited := map[index.Index]bool{from: true}
	var path []edge
	var walk func(cur index.Index) bool
	walk = func(cur index.Index) bool {
		for _, e := range r.edges[cur] {
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			path = append(path, e)
			if e.to == to || walk(e.to) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if walk(from) {
		return path
	}
	return nil
}

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	mustConvert(AddConversion(r, func(v int8) int16 { return int16(v) }))
	mustConvert(AddConversion(r, func(v int16) int32 { return int32(v) }))
	mustConvert(AddConversion(r, func(v int32) int64 { return int64(v) }))
	mustConvert(AddConversion(r, func(v int) int64 { return int64(v) }))
	mustConvert(AddConversion(r, func(v uint8) uint16 { return uint16(v) }))
	mustConvert(AddConversion(r, func(v uint16) uint32 { return uint32(v) }))
	mustConvert(AddConversion(r, func(v uint32) uint64 { return uint64(v) }))
	mustConvert(AddConversion(r, func(v float32) float64 { return float64(v) }))
	mustConvert(AddConversion(r, func(v int64) float64 { return float64(v) }))
	return r
}

func mustConvert(err error) {
	if err != nil {
		panic(err)
	}
}

// Register installs t in the default registry.
func Register(t *Table) error { return defaultRegistry.Register(t) }

// Convert adds a conversion edge to the default registry.
func Convert(from, to index.Index, fn Conversion) error {
	return defaultRegistry.Convert(from, to, fn)
}

// TableFor returns the table for i from the default registry, compiling it
// on first use.
func TableFor(i index.Index) *Table { return defaultRegistry.Table(i) }

// TableForType is TableFor by reflect.Type.
func TableForType(t reflect.Type) *Table { return defaultRegistry.Table(index.Of(t)) }
