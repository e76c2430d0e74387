package index

import (
	"reflect"
	"testing"
)

type widget struct{ n int }

func TestOf_Identity(t *testing.T) {
	a := Of(reflect.TypeOf(widget{}))
	b := For[widget]()
	if a != b {
		t.Fatalf("same type produced different indices: %d vs %d", a, b)
	}
	if a.IsZero() {
		t.Fatal("registered type must not map to Zero")
	}
	if For[int]() == a {
		t.Fatal("distinct types must not share an index")
	}
	if Of(nil) != Zero {
		t.Fatal("nil type must map to Zero")
	}
}

func TestIndex_NameAndType(t *testing.T) {
	i := For[widget]()
	if i.Name() != "index.widget" {
		t.Fatalf("Name() = %q", i.Name())
	}
	if i.Type() != reflect.TypeOf(widget{}) {
		t.Fatalf("Type() = %v", i.Type())
	}
	if Zero.Type() != nil {
		t.Fatal("Zero has no type")
	}
	if got, ok := ByName("index.widget"); !ok || got != i {
		t.Fatalf("ByName = %v, %v", got, ok)
	}
	if _, ok := ByName("no.such.Type"); ok {
		t.Fatal("unknown name should not resolve")
	}
	if Index(1<<29).Name() != "<unknown>" {
		t.Fatal("out of range index should be unknown")
	}
}

func TestIs(t *testing.T) {
	if !Is[widget](For[widget]()) {
		t.Fatal("Is should match")
	}
	if Is[int](For[widget]()) {
		t.Fatal("Is should not match a different type")
	}
	if Is[int](Zero) {
		t.Fatal("Zero matches nothing")
	}
}

func TestTag_RoundTrip(t *testing.T) {
	indices := []Index{Zero, 1, For[widget](), For[string](), maxIndex}
	quals := []Qualifier{Value, Const, Mutable, Rvalue}

	for _, i := range indices {
		for _, q := range quals {
			gi, gq := Tag(i, q).Untag()
			if gi != i || gq != q {
				t.Fatalf("Tag(%d,%v).Untag() = (%d,%v)", i, q, gi, gq)
			}
			tg := Tag(i, q)
			if tg.Index() != i || tg.Qualifier() != q {
				t.Fatalf("accessors disagree for (%d,%v)", i, q)
			}
		}
	}
}

func TestQualifier_Rules(t *testing.T) {
	tests := []struct {
		q                    Qualifier
		read, write, canMove bool
	}{
		{Value, true, true, true},
		{Const, true, false, false},
		{Mutable, true, true, false},
		{Rvalue, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.q.String(), func(t *testing.T) {
			if tt.q.CanRead() != tt.read || tt.q.CanWrite() != tt.write || tt.q.CanMove() != tt.canMove {
				t.Fatalf("rules for %v: read=%v write=%v move=%v", tt.q, tt.q.CanRead(), tt.q.CanWrite(), tt.q.CanMove())
			}
		})
	}

	if Const.Satisfies(Mutable) {
		t.Fatal("const must never satisfy mutable")
	}
	if !Rvalue.Satisfies(Mutable) || !Mutable.Satisfies(Const) {
		t.Fatal("writable qualifiers satisfy weaker ones")
	}
	if Mutable.Satisfies(Rvalue) {
		t.Fatal("mutable does not license a move")
	}
	if Qualifier(7).String() != "invalid" {
		t.Fatal("unexpected name for invalid qualifier")
	}
}
