package erased

import (
	"unsafe"

	"github.com/wippyai/typebridge/index"
)

// Dump writes src into t using the first form t accepts: a reference when
// src is stable, then inline storage, then the heap. When t wants another
// type, src is converted first. It reports whether t was written; an
// allocation failure is written as StatOutOfMemory.
func (r *Registry) Dump(t *Target, src Ref, stable bool) bool {
	if src.IsZero() {
		return false
	}
	if t.accept == ShapeNone {
		t.SetNone()
		return true
	}
	if !t.wants(src.Index()) {
		return r.dumpConverted(t, src, stable)
	}

	tbl := r.Table(src.Index())
	q := src.Qualifier()

	if stable {
		if t.accept.Has(ShapeWrite) && q.CanWrite() {
			t.bind(src, index.Mutable)
			return true
		}
		if t.accept.Has(ShapeRead) {
			t.bind(src, index.Const)
			return true
		}
	}

	if !q.CanMove() && tbl.Copy == nil {
		return false
	}

	if t.accept.Has(ShapeStack) && tbl.Info.Fits(t.capacity) {
		p := unsafe.Pointer(&t.store.inline)
		moveOrCopy(tbl, p, src, false)
		t.own(tbl, p, StatStack)
		return true
	}

	if t.accept.Has(ShapeHeap) {
		alloc := t.allocator(r)
		p, err := alloc.Alloc(tbl.Type)
		if err != nil {
			Logger().Debug("heap placement failed", zapIndex(tbl.Index))
			t.SetOutOfMemory()
			return true
		}
		t.store.heap = p
		moveOrCopy(tbl, p, src, false)
		t.own(tbl, p, StatHeap)
		return true
	}
	return false
}

func (r *Registry) dumpConverted(t *Target, src Ref, stable bool) bool {
	if from := r.Table(src.Index()); from != nil && from.ToRef != nil {
		if base, ok := from.ToRef(src, t.want); ok {
			return r.Dump(t, base, stable)
		}
	}
	if !t.accept.Has(ShapeValue) {
		return false
	}

	s := NewScope(r)
	defer s.Close()
	v, ok := r.LoadValue(src, t.want, s)
	if !ok {
		return false
	}
	defer v.Reset()
	return r.Dump(t, v.Temporary(), false)
}

// Dump writes src into t using the default registry.
func Dump(t *Target, src Ref, stable bool) bool {
	return defaultRegistry.Dump(t, src, stable)
}
