package erased

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/wippyai/typebridge/index"
)

// Ref is a non-owning typed pointer: a tagged index plus the address of the
// referent. The zero Ref refers to nothing.
type Ref struct {
	tag index.Tagged
	ptr unsafe.Pointer
}

// MakeRef builds a Ref from raw parts. The caller guarantees p points at a
// live value of type i and that q does not overstate the access it has.
func MakeRef(i index.Index, q index.Qualifier, p unsafe.Pointer) Ref {
	if p == nil {
		return Ref{}
	}
	return Ref{tag: index.Tag(i, q), ptr: p}
}

// RefOf returns a Ref to *p qualified as q.
func RefOf[T any](p *T, q index.Qualifier) Ref {
	return MakeRef(index.For[T](), q, unsafe.Pointer(p))
}

func (r Ref) Index() index.Index         { return r.tag.Index() }
func (r Ref) Qualifier() index.Qualifier { return r.tag.Qualifier() }
func (r Ref) Tagged() index.Tagged       { return r.tag }
func (r Ref) Pointer() unsafe.Pointer    { return r.ptr }
func (r Ref) IsZero() bool               { return r.ptr == nil }
func (r Ref) Name() string               { return r.tag.Index().Name() }

// With returns r requalified as q. It fails when q would grant access r
// does not have.
func (r Ref) With(q index.Qualifier) (Ref, bool) {
	if r.IsZero() || !r.Qualifier().Satisfies(q) {
		return r, false
	}
	return Ref{tag: index.Tag(r.Index(), q), ptr: r.ptr}, true
}

// Const returns r as a read-only reference.
func (r Ref) Const() Ref {
	if r.IsZero() {
		return r
	}
	return Ref{tag: index.Tag(r.Index(), index.Const), ptr: r.ptr}
}

// Reflect returns an addressable reflect.Value aliasing the referent.
func (r Ref) Reflect() reflect.Value {
	t := r.Index().Type()
	if r.IsZero() || t == nil {
		return reflect.Value{}
	}
	return reflect.NewAt(t, r.ptr).Elem()
}

// Interface returns a copy of the referent as an interface value.
func (r Ref) Interface() any {
	v := r.Reflect()
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func (r Ref) String() string {
	if r.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%p", r.tag, r.ptr)
}

func (r Ref) ptrTo(i index.Index) (unsafe.Pointer, bool) {
	if r.IsZero() || r.Index() != i {
		return nil, false
	}
	return r.ptr, true
}
