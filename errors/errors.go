package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // type and conversion registration
	PhaseLoad     Phase = "load"     // Ref to native value
	PhaseDump     Phase = "dump"     // native value into a Target
	PhaseCall     Phase = "call"     // dispatch through a Call slot
	PhaseCast     Phase = "cast"     // argument casting
	PhaseExport   Phase = "export"   // buffer/array view export
	PhaseHost     Phase = "host"     // host adapter binding
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindWrongNumber  Kind = "wrong_number"
	KindWrongType    Kind = "wrong_type"
	KindWrongReturn  Kind = "wrong_return"
	KindImpossible   Kind = "impossible"
	KindAllocation   Kind = "allocation"
	KindException    Kind = "exception"
	KindNotFound     Kind = "not_found"
	KindRegistration Kind = "registration"
	KindCycle        Kind = "cycle"
	KindNotCopyable  Kind = "not_copyable"
	KindQualifier    Kind = "qualifier"
	KindInvalidInput Kind = "invalid_input"
	KindUnsupported  Kind = "unsupported"
	KindTypeMismatch Kind = "type_mismatch"
	KindNilPointer   Kind = "nil_pointer"
	KindOutOfBounds  Kind = "out_of_bounds"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	Expected string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Expected != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Expected != "" {
			b.WriteString("type ")
			b.WriteString(e.GoType)
			b.WriteString(", expected ")
			b.WriteString(e.Expected)
		} else if e.GoType != "" {
			b.WriteString("type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("expected ")
			b.WriteString(e.Expected)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Expected != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the argument or field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name of the offending value
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Expected sets the name of the type that was required
func (b *Builder) Expected(t string) *Builder {
	b.err.Expected = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, expected string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		Expected: expected,
	}
}

// NoRoute reports that no conversion leads from one type to another
func NoRoute(phase Phase, from, to string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		GoType:   from,
		Expected: to,
		Detail:   fmt.Sprintf("no convertible route from %s to %s", from, to),
	}
}

// WrongNumber creates an argument count mismatch error
func WrongNumber(received, expected int) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindWrongNumber,
		Detail: fmt.Sprintf("wrong number of arguments: received %d, expected %d", received, expected),
		Value:  received,
	}
}

// WrongType creates an argument type mismatch error for argument arg
func WrongType(arg int, goType, expected string) *Error {
	return &Error{
		Phase:    PhaseCast,
		Kind:     KindWrongType,
		Path:     []string{fmt.Sprintf("arg%d", arg)},
		GoType:   goType,
		Expected: expected,
		Value:    arg,
	}
}

// WrongReturn creates a return type mismatch error
func WrongReturn(goType, detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindWrongReturn,
		GoType: goType,
		Detail: detail,
	}
}

// Impossible reports a callee that exists but cannot produce an acceptable result
func Impossible(phase Phase, goType, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindImpossible,
		GoType: goType,
		Detail: detail,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// Exception wraps a failure raised by a native callee
func Exception(cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindException,
		Detail: "native callee raised",
		Cause:  cause,
	}
}

// NotCopyable creates a not-copyable error
func NotCopyable(goType string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotCopyable,
		GoType: goType,
		Detail: "type is not copy constructible",
	}
}

// Qualifier reports a reference whose qualifier does not permit the access
func Qualifier(phase Phase, goType, have, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindQualifier,
		GoType: goType,
		Detail: fmt.Sprintf("%s reference cannot bind as %s", have, want),
	}
}

// Cycle reports a conversion edge that would close a cycle
func Cycle(from, to string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindCycle,
		Detail: fmt.Sprintf("conversion %s -> %s closes a cycle", from, to),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(goType string, cause error, detail string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		GoType: goType,
		Detail: detail,
		Cause:  cause,
	}
}

// Join combines several errors collected during one operation into one.
// Returns nil for an empty list and the sole error for a single entry.
func Join(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &MultiError{Errors: append([]error(nil), errs...)}
}

// MultiError carries every failure recorded by a load scope.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is/As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
