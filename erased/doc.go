// Package erased implements type-erased values and the operations generic
// code performs on them.
//
// # Tables
//
// Every type gets a Table of operation slots compiled from its reflect.Type
// and the hooks its pointer type implements (Init, Destroy, MoveFrom, Clone,
// Compare). A Registry maps type indices to tables and holds the
// conversion graph used by Load.
//
// # Values and References
//
// A Value owns one object. Pointer-free values that fit 24 bytes live
// inline; the rest live on the heap:
//
//	v := erased.New(42)
//	defer v.Reset()
//
//	n, _ := erased.Get[int](v)
//
// A Ref is a non-owning pointer with a qualifier. Const references never
// bind where mutation or moving is required.
//
// # Load and Dump
//
// Load converts a Ref into a native value, trying an exact match, the
// source's conversions, the conversion graph, and the destination's
// fallback in that order. Dump writes a value into a Target in the first
// shape the Target accepts.
//
// # Calls
//
// Call dispatches to a table's Call slot and always leaves the Target in
// exactly one outcome (see Stat):
//
//	t := erased.NewTarget(index.Zero, erased.ShapeAny)
//	defer t.Release()
//
//	switch erased.Call(fn, erased.Args(a, b), t) {
//	case erased.StatStack, erased.StatHeap:
//	    result := t.Interface()
//	case erased.StatException:
//	    t.Exception().Rethrow()
//	}
package erased
