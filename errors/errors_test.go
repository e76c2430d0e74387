package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseCast,
				Kind:     KindWrongType,
				Path:     []string{"arg1"},
				GoType:   "string",
				Expected: "float32",
				Detail:   "cannot convert",
			},
			contains: []string{"[cast]", "wrong_type", "arg1", "string", "float32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLoad,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[load]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCall,
				Kind:   KindAllocation,
				Detail: "budget exhausted",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[call]", "allocation", "budget exhausted", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Exception(cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through the chain")
	}
}

func TestError_Is(t *testing.T) {
	err := WrongType(0, "string", "int")

	if !err.Is(&Error{Phase: PhaseCast, Kind: KindWrongType}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseLoad, Kind: KindWrongType}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseCast, Kind: KindWrongNumber}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Phase: PhaseCast, Kind: KindWrongType}) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCast, KindWrongType).
		Path("arg1").
		GoType("string").
		Expected("float32").
		Value(1).
		Cause(cause).
		Detail("expected %s, got %s", "float32", "string").
		Build()

	if err.Phase != PhaseCast {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCast)
	}
	if err.Kind != KindWrongType {
		t.Errorf("Kind = %v, want %v", err.Kind, KindWrongType)
	}
	if len(err.Path) != 1 || err.Path[0] != "arg1" {
		t.Errorf("Path = %v, want [arg1]", err.Path)
	}
	if err.GoType != "string" || err.Expected != "float32" {
		t.Errorf("GoType=%v Expected=%v", err.GoType, err.Expected)
	}
	if err.Value != 1 {
		t.Errorf("Value = %v, want 1", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected float32, got string" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("WrongNumber", func(t *testing.T) {
		err := WrongNumber(1, 2)
		if err.Kind != KindWrongNumber {
			t.Errorf("Kind = %v, want %v", err.Kind, KindWrongNumber)
		}
		if !strings.Contains(err.Detail, "received 1, expected 2") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		err := WrongType(3, "bool", "int")
		if err.Value != 3 || err.Path[0] != "arg3" {
			t.Errorf("Value=%v Path=%v", err.Value, err.Path)
		}
	})

	t.Run("NoRoute", func(t *testing.T) {
		err := NoRoute(PhaseLoad, "string", "int")
		if !strings.Contains(err.Error(), "no convertible route from string to int") {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseDump, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		err := Cycle("a", "b")
		if err.Kind != KindCycle || err.Phase != PhaseRegister {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("Qualifier", func(t *testing.T) {
		err := Qualifier(PhaseCast, "int", "const", "mutable")
		if !strings.Contains(err.Error(), "const reference cannot bind as mutable") {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseLoad, []string{"list"}, 10, 5)
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseCall, "function", "missing")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"missing"`) {
			t.Errorf("got %+v", err)
		}
	})
}

func TestJoin(t *testing.T) {
	if Join(nil) != nil {
		t.Fatal("empty join should be nil")
	}

	one := errors.New("one")
	if Join([]error{one}) != one {
		t.Fatal("single join should return the error itself")
	}

	two := NotCopyable("sync.Mutex")
	joined := Join([]error{one, two})
	if !errors.Is(joined, one) {
		t.Error("joined error should contain first error")
	}
	if !errors.Is(joined, &Error{Phase: PhaseLoad, Kind: KindNotCopyable}) {
		t.Error("joined error should contain second error")
	}
	if !strings.HasPrefix(joined.Error(), "2 errors:") {
		t.Errorf("message = %q", joined.Error())
	}
}
