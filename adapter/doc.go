// Package adapter turns ordinary Go functions, methods and values into
// erased callables.
//
// Parameter types select how each argument is cast:
//
//	T          a value loaded (and converted if needed) from the argument
//	*T         a mutable reference; const arguments are rejected
//	Const[T]   a read-only reference, or a temporary when conversion is needed
//	Move[T]    a reference the callee may move from
//
// Results are placed into the caller's Target. A *T result is offered as a
// writable reference, Const[T] as a read-only one, an index.Index as a bare
// index, and anything else as an owned value.
//
// A Module groups callables and values under names and is itself callable
// with the member name in tag 0:
//
//	m := adapter.NewModule("demo")
//	m.Func("add", func(a int, b float32) float32 { return float32(a) + b })
//
//	out, err := m.Call(ctx, "add", 3, float32(2.5))
//
// Adding another function under the same name makes an Overloads set,
// tried in order until one accepts the arguments.
package adapter
