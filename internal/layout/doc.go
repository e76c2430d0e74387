// Package layout decides how a Go type is physically held by a type-erased
// container.
//
// The decision is made once per type from its static traits and never per
// value:
//
//	Kind         Traits                                            Move
//	─────────────────────────────────────────────────────────────────────────
//	Trivial      pointer-free, fits inline, copyable, no hooks     byte copy
//	Relocatable  pointer-free, fits inline, not copyable           byte copy
//	Stack        pointer-free, fits inline, move or destroy hook   relocate op
//	Heap         everything else                                   pointer steal
//
// Types that carry pointers always go to the heap: the inline buffer is plain
// memory the garbage collector does not scan.
//
// This package is internal to typebridge.
package layout
