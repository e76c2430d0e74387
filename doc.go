// Package typebridge lets values of arbitrary Go types cross a language or
// ABI boundary without the boundary knowing their static types.
//
// Every value is addressed through a type-erased handle: a small type index
// paired with a qualifier (value, const, mutable, rvalue) and a pointer. A
// per-type table of operations (construct, destruct, copy, relocate, compare,
// hash, convert, call) lets generic code manipulate the value.
//
// # Architecture Overview
//
//	typebridge/          Root package with the caller lock bracket
//	├── index/           Type indices, qualifiers and tagged indices
//	├── erased/          Tables, registry, Value/Ref, load/dump, Target and Call
//	├── adapter/         Reflection-based function, method and module adapters
//	├── buffer/          Flat buffer descriptors for numeric arrays and slices
//	├── resource/        Handle table for values owned across an ABI boundary
//	├── wasmhost/        Binds adapter modules as wazero host modules
//	├── errors/          Structured error types for debugging
//	└── cmd/bridge/      Command-line tool for calling exported functions
//
// # Quick Start
//
// Expose a Go function and call it through the erased interface:
//
//	fn := adapter.Func(func(a int, b float32) float32 {
//	    return float32(a) + b
//	})
//
//	a, b := 3, float32(2.5)
//	t := erased.NewTarget(index.For[float32](), erased.ShapeValue)
//	defer t.Release()
//
//	stat := erased.Call(fn.Ref(), erased.Args(erased.RefOf(&a, index.Const), erased.RefOf(&b, index.Const)), t)
//	// stat == erased.StatStack, result 5.5
//
// # Caller Lock
//
// Callers that hold a lock around calls into Go (an interpreter lock, a
// runtime mutex) pass it in the ArgView. Long-running functions marked as
// blocking release it for the duration of the call through Unlocked.
package typebridge
