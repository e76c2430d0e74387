// Package wasmhost exposes an adapter.Module to WebAssembly guests as a
// wazero host module.
//
// Every function member becomes a host function of the same name. Go
// parameter and result types are described as WIT types and lowered to
// core wasm values:
//
//	bool, ints, floats   i32, i64, f32 or f64
//	string (param)       i32 pointer and i32 length into the caller's memory
//	anything else        u32 handle into a resource.Table
//
// Non-scalar results are stored in the table and returned as handles. A
// handle passed back as a parameter is borrowed for the duration of the
// call and bound to the function's parameter like any other reference.
// The exported function "drop" releases a handle.
//
// A failed call traps; the trap message is the error the call reported.
package wasmhost
