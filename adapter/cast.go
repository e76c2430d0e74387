package adapter

import (
	"context"
	"reflect"
	"unsafe"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/index"
)

// Const is a parameter or result bound to a read-only reference to a T.
type Const[T any] struct {
	p *T
}

// ConstOf returns a read-only reference to *p, for use as a result.
func ConstOf[T any](p *T) Const[T] { return Const[T]{p: p} }

// Get returns a copy of the referent.
func (c Const[T]) Get() T { return *c.p }

// Ref returns the referent as a const erased reference.
func (c Const[T]) Ref() erased.Ref { return erased.RefOf(c.p, index.Const) }

func (Const[T]) elemType() reflect.Type    { return reflect.TypeFor[T]() }
func (Const[T]) category() category        { return constRef }
func (c Const[T]) pointer() unsafe.Pointer { return unsafe.Pointer(c.p) }
func (c *Const[T]) bind(p unsafe.Pointer)  { c.p = (*T)(p) }

// Move is a parameter bound to a T the callee may take ownership of.
type Move[T any] struct {
	p *T
}

// Take moves the referent out, leaving the zero value behind.
func (m Move[T]) Take() T {
	v := *m.p
	var zero T
	*m.p = zero
	return v
}

// Get returns the referent in place.
func (m Move[T]) Get() *T { return m.p }

func (Move[T]) elemType() reflect.Type   { return reflect.TypeFor[T]() }
func (Move[T]) category() category       { return rvalueRef }
func (m *Move[T]) bind(p unsafe.Pointer) { m.p = (*T)(p) }

type category uint8

const (
	byValue category = iota
	mutableRef
	constRef
	rvalueRef
)

var categoryQualifiers = [...]index.Qualifier{
	byValue:    index.Value,
	mutableRef: index.Mutable,
	constRef:   index.Const,
	rvalueRef:  index.Rvalue,
}

type refParam interface {
	elemType() reflect.Type
	category() category
}

type binder interface {
	bind(p unsafe.Pointer)
}

type constPointer interface {
	pointer() unsafe.Pointer
}

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	indexType   = reflect.TypeFor[index.Index]()
)

// param describes how one Go parameter is cast from an erased reference.
type param struct {
	goType reflect.Type
	elem   reflect.Type
	index  index.Index
	cat    category
}

func classify(t reflect.Type) param {
	if m, ok := reflect.Zero(t).Interface().(refParam); ok {
		elem := m.elemType()
		return param{goType: t, elem: elem, index: index.Of(elem), cat: m.category()}
	}
	if t.Kind() == reflect.Pointer {
		return param{goType: t, elem: t.Elem(), index: index.Of(t.Elem()), cat: mutableRef}
	}
	return param{goType: t, elem: t, index: index.Of(t), cat: byValue}
}

// want is the tagged index reported when the cast fails.
func (p *param) want() index.Tagged {
	return index.Tag(p.index, categoryQualifiers[p.cat])
}

// cast produces the reflect.Value to pass for ref. Temporaries created
// along the way are owned by s.
func cast(r *erased.Registry, ref erased.Ref, p *param, s *erased.Scope) (reflect.Value, bool) {
	if ref.IsZero() {
		return reflect.Value{}, false
	}
	switch p.cat {
	case mutableRef:
		if ref.Index() == index.Of(p.goType) {
			return loadValue(r, ref, p.goType, s)
		}
		ptr, err := r.Bind(ref, p.index, index.Mutable, s.MoveFromMutable)
		if err != nil {
			s.Fail(err)
			return reflect.Value{}, false
		}
		return reflect.NewAt(p.elem, ptr), true

	case constRef, rvalueRef:
		q := categoryQualifiers[p.cat]
		ptr, err := r.Bind(ref, p.index, q, s.MoveFromMutable)
		if err != nil {
			v, ok := r.LoadValue(ref, p.index, s)
			if !ok {
				return reflect.Value{}, false
			}
			s.Keep(v)
			ptr = v.Pointer()
		}
		w := reflect.New(p.goType)
		w.Interface().(binder).bind(ptr)
		return w.Elem(), true

	default:
		return loadValue(r, ref, p.goType, s)
	}
}

func loadValue(r *erased.Registry, ref erased.Ref, t reflect.Type, s *erased.Scope) (reflect.Value, bool) {
	v, ok := r.LoadValue(ref, index.Of(t), s)
	if !ok {
		return reflect.Value{}, false
	}
	s.Keep(v)
	return reflect.NewAt(t, v.Pointer()).Elem(), true
}
