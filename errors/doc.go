// Package errors provides structured error types for the typebridge module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: argument path, Go type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCast, errors.KindWrongType).
//		Path("arg1").
//		GoType("string").
//		Expected("float32").
//		Detail("cannot convert string to float").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.WrongNumber(1, 2)
//	err := errors.NoRoute(errors.PhaseLoad, "string", "int")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
