package erased

import (
	"unsafe"

	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

// moveOrCopy constructs a tbl value at dst from src, moving when src allows
// it and copying otherwise.
func moveOrCopy(tbl *Table, dst unsafe.Pointer, src Ref, moveMutable bool) bool {
	q := src.Qualifier()
	if q.CanMove() || (moveMutable && q == index.Mutable) {
		tbl.Relocate(dst, src.ptr)
		return true
	}
	if tbl.Copy != nil {
		tbl.Copy(dst, src.ptr)
		return true
	}
	return false
}

// LoadInto builds a value of want at dst from src. dst must be zeroed
// storage for want. Candidates are tried in order: exact match, the
// source's own conversions, the registered conversion graph, and finally
// the destination's Load fallback. Failures are recorded in s.
func (r *Registry) LoadInto(src Ref, want *Table, dst unsafe.Pointer, s *Scope) bool {
	if src.IsZero() {
		s.Fail(errors.NilPointer(errors.PhaseLoad, nil, want.Name()))
		return false
	}
	if src.Index() == want.Index {
		if moveOrCopy(want, dst, src, s != nil && s.MoveFromMutable) {
			return true
		}
		s.Fail(errors.NotCopyable(want.Name()))
		return false
	}
	if r.convert(src, want, dst, s) {
		return true
	}
	s.Fail(errors.NoRoute(errors.PhaseLoad, src.Name(), want.Name()))
	return false
}

func (r *Registry) convert(src Ref, want *Table, dst unsafe.Pointer, s *Scope) bool {
	if from := r.Table(src.Index()); from != nil {
		if from.ToValue != nil && from.ToValue(src, want, dst, s) {
			return true
		}
		if from.ToRef != nil {
			if base, ok := from.ToRef(src, want.Index); ok {
				return moveOrCopy(want, dst, base, s != nil && s.MoveFromMutable)
			}
		}
	}
	if path := r.route(src.Index(), want.Index); path != nil {
		if r.follow(path, src, dst, s) {
			return true
		}
	}
	return want.Load != nil && want.Load(src, dst, s)
}

// follow applies a conversion path, holding intermediates in s.
func (r *Registry) follow(path []edge, src Ref, dst unsafe.Pointer, s *Scope) bool {
	cur := src
	for i, e := range path {
		if i == len(path)-1 {
			return e.fn(cur, dst)
		}
		tmp := &Value{}
		p, err := tmp.prepare(r.Table(e.to), r.Allocator())
		if err != nil {
			s.Fail(err)
			return false
		}
		s.Keep(tmp)
		if !e.fn(cur, p) {
			return false
		}
		cur = tmp.Temporary()
	}
	return false
}

// LoadValue loads src into a new Value of index want.
func (r *Registry) LoadValue(src Ref, want index.Index, s *Scope) (*Value, bool) {
	tbl := r.Table(want)
	if tbl == nil {
		s.Fail(errors.Impossible(errors.PhaseLoad, want.Name(), "no table for index"))
		return nil, false
	}
	v := &Value{}
	p, err := v.prepare(tbl, r.Allocator())
	if err != nil {
		s.Fail(err)
		return nil, false
	}
	if !r.LoadInto(src, tbl, p, s) {
		v.abandon()
		return nil, false
	}
	return v, true
}

// Load converts the referent of src into a T.
func Load[T any](src Ref, s *Scope) (T, bool) {
	var out T
	r := s.registry()
	ok := r.LoadInto(src, TableOf[T](r), unsafe.Pointer(&out), s)
	return out, ok
}

// Cast is Load that panics on failure.
func Cast[T any](src Ref) T {
	s := NewScope(nil)
	defer s.Close()
	out, ok := Load[T](src, s)
	if !ok {
		panic(s.Err())
	}
	return out
}

// LoadRef returns a pointer to the referent of src as a T, without
// conversion. Embedded base structs are reachable. The reference must
// carry at least the access q requires.
func LoadRef[T any](src Ref, q index.Qualifier, s *Scope) (*T, bool) {
	p, err := s.registry().Bind(src, index.For[T](), q, s != nil && s.MoveFromMutable)
	if err != nil {
		s.Fail(err)
		return nil, false
	}
	return (*T)(p), true
}

// Bind resolves src to the address of a value of index want, following
// embedded bases, and checks that src carries the access q requires.
func (r *Registry) Bind(src Ref, want index.Index, q index.Qualifier, moveMutable bool) (unsafe.Pointer, error) {
	if src.IsZero() {
		return nil, errors.NilPointer(errors.PhaseLoad, nil, want.Name())
	}
	if src.Index() != want {
		tbl := r.Table(src.Index())
		if tbl == nil || tbl.ToRef == nil {
			return nil, errors.TypeMismatch(errors.PhaseLoad, nil, src.Name(), want.Name())
		}
		base, ok := tbl.ToRef(src, want)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseLoad, nil, src.Name(), want.Name())
		}
		src = base
	}
	if !Binds(src.Qualifier(), q, moveMutable) {
		return nil, errors.Qualifier(errors.PhaseLoad, want.Name(), src.Qualifier().String(), q.String())
	}
	return src.ptr, nil
}

// Binds reports whether a reference held as have can bind where want is
// required. A Const reference never binds as Mutable or Rvalue; a Mutable
// one binds as Rvalue only when moveMutable is set.
func Binds(have, want index.Qualifier, moveMutable bool) bool {
	if have.Satisfies(want) {
		return true
	}
	return moveMutable && want == index.Rvalue && have == index.Mutable
}

// Assign replaces the referent of dst with a value loaded from src.
func (r *Registry) Assign(dst, src Ref, s *Scope) bool {
	if dst.IsZero() {
		s.Fail(errors.NilPointer(errors.PhaseLoad, nil, src.Name()))
		return false
	}
	if !dst.Qualifier().CanWrite() {
		s.Fail(errors.Qualifier(errors.PhaseLoad, dst.Name(), dst.Qualifier().String(), index.Mutable.String()))
		return false
	}
	tbl := r.Table(dst.Index())
	if tbl.Assign != nil {
		return tbl.Assign(dst.ptr, src, s)
	}
	tmp, ok := r.LoadValue(src, dst.Index(), s)
	if !ok {
		return false
	}
	defer tmp.Reset()
	tbl.Destruct(dst.ptr)
	tbl.Relocate(dst.ptr, tmp.Pointer())
	return true
}
