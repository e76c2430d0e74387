package erased

import (
	"fmt"
	"runtime/debug"
)

// Exception is a panic or error raised by a callee, captured so the caller
// can inspect or rethrow it.
type Exception struct {
	Value any
	Stack []byte
}

func capture(v any) *Exception {
	return &Exception{Value: v, Stack: debug.Stack()}
}

func (e *Exception) Error() string {
	switch v := e.Value.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (e *Exception) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Rethrow re-raises the captured value as a panic.
func (e *Exception) Rethrow() {
	panic(e.Value)
}
