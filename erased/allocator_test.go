package erased

import (
	"fmt"
	"testing"

	"github.com/wippyai/typebridge/errors"
)

func TestIsOutOfMemory(t *testing.T) {
	oom := errors.AllocationFailed(errors.PhaseDump, 8, 8)
	missing := errors.NotFound(errors.PhaseLoad, "member", "x")

	tests := []struct {
		name string
		errs []error
		want bool
	}{
		{"none", nil, false},
		{"allocation only", []error{oom}, true},
		{"other only", []error{missing}, false},
		{"allocation after other", []error{missing, oom}, true},
		{"wrapped allocation", []error{missing, fmt.Errorf("load: %w", oom)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScope(nil)
			defer s.Close()
			for _, err := range tt.errs {
				s.Fail(err)
			}
			if got := IsOutOfMemory(s.Err()); got != tt.want {
				t.Fatalf("IsOutOfMemory(%v) = %v, want %v", s.Err(), got, tt.want)
			}
		})
	}
}

func TestBudget_Accounting(t *testing.T) {
	b := NewBudget(16)
	v := &Value{}
	if err := v.Construct(TableOf[[2]uint64](Default()), b); err != nil {
		t.Fatal(err)
	}
	if b.Used() != 0 {
		t.Fatalf("inline value used %d budget bytes", b.Used())
	}
	v.Reset()

	s := &Value{}
	if err := s.Construct(TableOf[string](Default()), b); err != nil {
		t.Fatal(err)
	}
	if b.Used() != 16 || b.Peak() != 16 {
		t.Fatalf("used = %d, peak = %d", b.Used(), b.Peak())
	}
	err := (&Value{}).Construct(TableOf[string](Default()), b)
	if !IsOutOfMemory(err) {
		t.Fatalf("err = %v, want allocation failure", err)
	}
	s.Reset()
	if b.Used() != 0 {
		t.Fatalf("used = %d after Reset", b.Used())
	}
}