package erased

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
	"github.com/wippyai/typebridge/internal/layout"
)

// Target is the caller-supplied destination of a dump or call. On the way
// in it states what is wanted: a type index (zero for any), the accepted
// shapes, and the capacity of its inline buffer. On the way out it holds
// exactly one result, written once. An owned result must be taken or
// released.
type Target struct {
	_        noCopy
	want     index.Index
	accept   Shape
	capacity uintptr
	alloc    Allocator

	done   bool
	taken  bool
	stat   Stat
	result index.Tagged
	ptr    unsafe.Pointer
	table  *Table
	store  storage

	received int
	expected int
	arg      int
	argWant  index.Tagged
	exc      *Exception
	detail   string
}

// NewTarget returns a target for want (zero for any type) accepting the
// given shapes. ShapeNone requests no result.
func NewTarget(want index.Index, accept Shape) *Target {
	return &Target{want: want, accept: accept, capacity: layout.InlineSize}
}

// WithCapacity limits the inline buffer to n bytes.
func (t *Target) WithCapacity(n uintptr) *Target {
	t.capacity = min(n, layout.InlineSize)
	return t
}

// WithAllocator sets the allocator used for heap results.
func (t *Target) WithAllocator(a Allocator) *Target {
	t.alloc = a
	return t
}

func (t *Target) Want() index.Index { return t.want }
func (t *Target) Accept() Shape     { return t.accept }
func (t *Target) Capacity() uintptr { return t.capacity }

// Done reports whether a result has been written.
func (t *Target) Done() bool { return t.done }

func (t *Target) Stat() Stat { return t.stat }

// Result returns the tagged index of the result.
func (t *Target) Result() index.Tagged { return t.result }

// Pointer returns the address of a value or reference result.
func (t *Target) Pointer() unsafe.Pointer { return t.ptr }

// Index returns the index carried by a StatIndex result.
func (t *Target) Index() index.Index {
	if t.stat != StatIndex {
		return index.Zero
	}
	return t.result.Index()
}

func (t *Target) wants(i index.Index) bool {
	return t.want == index.Zero || t.want == i
}

func (t *Target) allocator(r *Registry) Allocator {
	if t.alloc == nil {
		t.alloc = r.Allocator()
	}
	return t.alloc
}

func (t *Target) finish(s Stat) Stat {
	if t.done {
		panic(fmt.Sprintf("erased: target already holds %s, cannot write %s", t.stat, s))
	}
	t.done = true
	t.stat = s
	return s
}

// SetNone records that no result was produced.
func (t *Target) SetNone() Stat { return t.finish(StatNone) }

// SetIndex records a bare type index as the result.
func (t *Target) SetIndex(i index.Index) Stat {
	t.result = index.Tag(i, index.Value)
	return t.finish(StatIndex)
}

func (t *Target) SetImpossible(detail string) Stat {
	t.detail = detail
	return t.finish(StatImpossible)
}

func (t *Target) SetWrongNumber(received, expected int) Stat {
	t.received, t.expected = received, expected
	return t.finish(StatWrongNumber)
}

// SetWrongType records that argument arg could not be cast to want.
// Argument -1 denotes the receiver.
func (t *Target) SetWrongType(arg int, want index.Tagged) Stat {
	t.arg, t.argWant = arg, want
	return t.finish(StatWrongType)
}

// SetWrongReturn records that a result of type got could not be placed.
func (t *Target) SetWrongReturn(got index.Tagged) Stat {
	t.result = got
	return t.finish(StatWrongReturn)
}

func (t *Target) SetOutOfMemory() Stat { return t.finish(StatOutOfMemory) }

// SetException records a raised value. Errors and *Exception values are
// kept as they are.
func (t *Target) SetException(v any) Stat {
	e, ok := v.(*Exception)
	if !ok {
		e = &Exception{Value: v}
	}
	t.exc = e
	return t.finish(StatException)
}

// Retry clears a recoverable failure (StatImpossible, StatWrongNumber or
// StatWrongType) so another callee can write t. It reports whether t was
// cleared; results and other failures stay written.
func (t *Target) Retry() bool {
	if !t.done || !t.stat.Recoverable() {
		return false
	}
	t.abandon()
	return true
}

func (t *Target) bind(ref Ref, q index.Qualifier) {
	t.result = index.Tag(ref.Index(), q)
	t.ptr = ref.ptr
	if q == index.Mutable {
		t.finish(StatWrite)
	} else {
		t.finish(StatRead)
	}
}

func (t *Target) own(tbl *Table, p unsafe.Pointer, s Stat) {
	t.table = tbl
	t.result = index.Tag(tbl.Index, index.Value)
	t.ptr = p
	t.finish(s)
}

// Ref returns a reference to the result: mutable for owned and Write
// results, const for Read results.
func (t *Target) Ref() Ref {
	switch t.stat {
	case StatStack, StatHeap:
		if t.taken {
			return Ref{}
		}
		return MakeRef(t.result.Index(), index.Mutable, t.ptr)
	case StatRead:
		return MakeRef(t.result.Index(), index.Const, t.ptr)
	case StatWrite:
		return MakeRef(t.result.Index(), index.Mutable, t.ptr)
	}
	return Ref{}
}

// Interface returns a copy of the result, or nil when there is none.
func (t *Target) Interface() any {
	if t.stat == StatIndex {
		return t.result.Index()
	}
	return t.Ref().Interface()
}

// Take moves an owned result into v, or copies a referenced one.
func (t *Target) Take(v *Value) bool {
	switch t.stat {
	case StatStack:
		if t.taken {
			return false
		}
		v.Reset()
		t.table.Relocate(unsafe.Pointer(&v.store.inline), t.ptr)
		v.table = t.table
		v.alloc = HeapAllocator
	case StatHeap:
		if t.taken {
			return false
		}
		v.Reset()
		if t.table.Info.Kind == layout.Heap {
			v.store.heap = t.ptr
			v.alloc = t.alloc
		} else {
			// Inline kinds are addressed in the inline buffer.
			t.table.Relocate(unsafe.Pointer(&v.store.inline), t.ptr)
			t.alloc.Free(t.table.Type, t.ptr)
			v.alloc = HeapAllocator
		}
		v.table = t.table
	case StatRead, StatWrite:
		tbl := TableFor(t.result.Index())
		if tbl == nil || tbl.Copy == nil {
			return false
		}
		p, err := v.prepare(tbl, tbl.registry().Allocator())
		if err != nil {
			return false
		}
		tbl.Copy(p, t.ptr)
		return true
	default:
		return false
	}
	t.taken = true
	t.ptr = nil
	t.store.clear()
	return true
}

// Release destroys an owned result that was not taken.
func (t *Target) Release() {
	if !t.stat.Owned() || t.taken || !t.done {
		return
	}
	t.table.Destruct(t.ptr)
	if t.stat == StatHeap {
		t.alloc.Free(t.table.Type, t.ptr)
	}
	t.taken = true
	t.ptr = nil
	t.store.clear()
}

// abandon discards whatever was written so the target can describe a
// different outcome.
func (t *Target) abandon() {
	t.Release()
	want, accept, capacity, alloc := t.want, t.accept, t.capacity, t.alloc
	*t = Target{want: want, accept: accept, capacity: capacity, alloc: alloc}
}

// Exception returns the captured exception of a StatException result.
func (t *Target) Exception() *Exception { return t.exc }

// WrongNumber returns the received and expected argument counts.
func (t *Target) WrongNumber() (received, expected int) { return t.received, t.expected }

// WrongType returns the failing argument and the tagged index it needed.
func (t *Target) WrongType() (arg int, want index.Tagged) { return t.arg, t.argWant }

func (t *Target) Detail() string { return t.detail }

// Err converts a failure outcome into an error. Successful or unwritten
// targets return nil.
func (t *Target) Err() error {
	if !t.done {
		return nil
	}
	switch t.stat {
	case StatImpossible:
		return errors.Impossible(errors.PhaseCall, t.want.Name(), t.detail)
	case StatWrongNumber:
		return errors.WrongNumber(t.received, t.expected)
	case StatWrongType:
		return errors.WrongType(t.arg, "", t.argWant.String())
	case StatWrongReturn:
		return errors.WrongReturn(t.result.String(), t.detail)
	case StatOutOfMemory:
		return ErrOutOfMemory
	case StatException:
		return errors.Exception(t.exc)
	}
	return nil
}
