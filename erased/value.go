package erased

import (
	"hash/maphash"
	"reflect"
	"unsafe"

	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
	"github.com/wippyai/typebridge/internal/layout"
)

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Value owns exactly one object of any registered type, or nothing.
// Pointer-free values that fit are stored inline; everything else lives on
// the heap. A Value must not be copied after first use.
type Value struct {
	_     noCopy
	table *Table
	alloc Allocator
	store storage
}

// New returns a Value holding x, placed in the default registry.
func New[T any](x T) *Value {
	v := &Value{}
	if err := EmplaceIn(defaultRegistry, v, x); err != nil {
		panic(err)
	}
	return v
}

// Emplace replaces the contents of v with x.
func Emplace[T any](v *Value, x T) error {
	return EmplaceIn(defaultRegistry, v, x)
}

// EmplaceIn replaces the contents of v with x using r's table and allocator.
func EmplaceIn[T any](r *Registry, v *Value, x T) error {
	tbl := TableOf[T](r)
	p, err := v.prepare(tbl, r.Allocator())
	if err != nil {
		return err
	}
	*(*T)(p) = x
	return nil
}

// Box stores a copy of the dynamic value of x.
func (r *Registry) Box(x any) (*Value, error) {
	if x == nil {
		return nil, errors.NilPointer(errors.PhaseLoad, nil, "<nil>")
	}
	rv := reflect.ValueOf(x)
	tbl := r.Table(index.Of(rv.Type()))
	v := &Value{}
	p, err := v.prepare(tbl, r.Allocator())
	if err != nil {
		return nil, err
	}
	reflect.NewAt(tbl.Type, p).Elem().Set(rv)
	return v, nil
}

// Box stores a copy of x in a Value from the default registry.
func Box(x any) (*Value, error) { return defaultRegistry.Box(x) }

// NewValue default-constructs a value of index i.
func (r *Registry) NewValue(i index.Index) (*Value, error) {
	tbl := r.Table(i)
	if tbl == nil {
		return nil, errors.Impossible(errors.PhaseLoad, i.Name(), "no table for index")
	}
	v := &Value{}
	if err := v.Construct(tbl, r.Allocator()); err != nil {
		return nil, err
	}
	return v, nil
}

// Construct replaces the contents of v with a default-constructed value of tbl.
func (v *Value) Construct(tbl *Table, a Allocator) error {
	p, err := v.prepare(tbl, a)
	if err != nil {
		return err
	}
	tbl.Construct(p)
	return nil
}

// prepare resets v and returns zeroed storage for tbl.
func (v *Value) prepare(tbl *Table, a Allocator) (unsafe.Pointer, error) {
	v.Reset()
	if a == nil {
		a = HeapAllocator
	}
	if tbl.Info.Kind == layout.Heap {
		p, err := a.Alloc(tbl.Type)
		if err != nil {
			return nil, err
		}
		v.store.heap = p
	}
	v.table = tbl
	v.alloc = a
	return v.store.addr(tbl.Info.Kind), nil
}

// Reset destroys the held object, if any, leaving v empty.
func (v *Value) Reset() {
	if v.table == nil {
		return
	}
	tbl := v.table
	p := v.store.addr(tbl.Info.Kind)
	tbl.Destruct(p)
	if tbl.Info.Kind == layout.Heap {
		v.alloc.Free(tbl.Type, p)
	}
	v.table = nil
	v.alloc = nil
	v.store.clear()
}

// Move transfers the object held by src into v. src is left empty and its
// old contents are not destroyed.
func (v *Value) Move(src *Value) {
	if v == src {
		return
	}
	v.Reset()
	if src.table == nil {
		return
	}
	tbl := src.table
	switch tbl.Info.Kind {
	case layout.Trivial, layout.Relocatable:
		v.store.inline = src.store.inline
	case layout.Stack:
		tbl.Relocate(unsafe.Pointer(&v.store.inline), unsafe.Pointer(&src.store.inline))
	case layout.Heap:
		v.store.heap = src.store.heap
	}
	v.table = tbl
	v.alloc = src.alloc
	src.table = nil
	src.alloc = nil
	src.store.clear()
}

// Clone returns an independent copy of v. Types without a copy slot fail
// with a not_copyable error, and a panicking Clone hook is reported as an
// exception error.
func (v *Value) Clone() (out *Value, err error) {
	out = &Value{}
	if v.table == nil {
		return out, nil
	}
	tbl := v.table
	if tbl.Copy == nil {
		return nil, errors.NotCopyable(tbl.Name())
	}
	p, err := out.prepare(tbl, v.alloc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out.abandon()
			out, err = nil, errors.Exception(capture(r))
		}
	}()
	tbl.Copy(p, v.Pointer())
	return out, nil
}

// abandon frees storage without running the destructor, for values whose
// construction did not complete.
func (v *Value) abandon() {
	if v.table != nil && v.table.Info.Kind == layout.Heap {
		v.alloc.Free(v.table.Type, v.store.heap)
	}
	v.table = nil
	v.alloc = nil
	v.store.clear()
}

func (v *Value) HasValue() bool { return v.table != nil }

// Table returns the table of the held type, or nil when empty.
func (v *Value) Table() *Table { return v.table }

func (v *Value) Index() index.Index {
	if v.table == nil {
		return index.Zero
	}
	return v.table.Index
}

// Kind returns where the held object lives.
func (v *Value) Kind() layout.Kind {
	if v.table == nil {
		return layout.Trivial
	}
	return v.table.Info.Kind
}

// Pointer returns the address of the held object, or nil when empty.
func (v *Value) Pointer() unsafe.Pointer {
	if v.table == nil {
		return nil
	}
	return v.store.addr(v.table.Info.Kind)
}

// Ref returns a mutable reference to the held object.
func (v *Value) Ref() Ref { return v.ref(index.Mutable) }

// Const returns a read-only reference to the held object.
func (v *Value) Const() Ref { return v.ref(index.Const) }

// Temporary returns a reference that permits moving out of v.
func (v *Value) Temporary() Ref { return v.ref(index.Rvalue) }

func (v *Value) ref(q index.Qualifier) Ref {
	if v.table == nil {
		return Ref{}
	}
	return MakeRef(v.table.Index, q, v.Pointer())
}

// Interface returns a copy of the held object.
func (v *Value) Interface() any {
	return v.Const().Interface()
}

// Get returns a pointer to the held object if it has type T.
func Get[T any](v *Value) (*T, bool) {
	if v.table == nil || v.table.Index != index.For[T]() {
		return nil, false
	}
	return (*T)(v.Pointer()), true
}

// Equal reports whether v and o hold equal objects of the same type. Two
// empty values are equal.
func (v *Value) Equal(o *Value) bool {
	if v.table == nil || o.table == nil {
		return v.table == nil && o.table == nil
	}
	if v.table.Index != o.table.Index || v.table.Equal == nil {
		return false
	}
	return v.table.Equal(v.Pointer(), o.Pointer())
}

// Compare orders v against o. ok is false when the types differ or are
// unordered.
func (v *Value) Compare(o *Value) (c int, ok bool) {
	if v.table == nil || o.table == nil || v.table.Index != o.table.Index || v.table.Compare == nil {
		return 0, false
	}
	return v.table.Compare(v.Pointer(), o.Pointer()), true
}

// Hash hashes the held object with seed. ok is false when the type is not
// hashable.
func (v *Value) Hash(seed maphash.Seed) (h uint64, ok bool) {
	if v.table == nil || v.table.Hash == nil {
		return 0, false
	}
	return v.table.Hash(v.Pointer(), seed), true
}
