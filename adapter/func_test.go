package adapter

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/typebridge"
	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

func add(a int, b float32) float32 { return float32(a) + b }

func TestFunc_Add(t *testing.T) {
	fn := MustFunc(add)
	a, b := 3, float32(2.5)

	target := erased.NewTarget(index.For[float32](), erased.ShapeValue)
	defer target.Release()

	stat := erased.Call(fn.Ref(), erased.Args(erased.RefOf(&a, index.Const), erased.RefOf(&b, index.Const)), target)
	if stat != erased.StatStack {
		t.Fatalf("stat = %v (%v)", stat, target.Err())
	}
	if got := target.Interface(); got != float32(5.5) {
		t.Fatalf("result = %v, want 5.5", got)
	}
}

func TestFunc_WrongNumber(t *testing.T) {
	fn := MustFunc(add)
	a := 3

	target := erased.NewTarget(index.Zero, erased.ShapeValue)
	stat := fn.Invoke(context.Background(), target, erased.RefOf(&a, index.Const))
	if stat != erased.StatWrongNumber {
		t.Fatalf("stat = %v", stat)
	}
	received, expected := target.WrongNumber()
	if received != 1 || expected != 2 {
		t.Fatalf("WrongNumber() = %d, %d; want 1, 2", received, expected)
	}
}

func TestFunc_WrongType(t *testing.T) {
	fn := MustFunc(add)
	s, b := "three", float32(1)

	target := erased.NewTarget(index.Zero, erased.ShapeValue)
	if stat := fn.Invoke(context.Background(), target, erased.RefOf(&s, index.Const), erased.RefOf(&b, index.Const)); stat != erased.StatWrongType {
		t.Fatalf("stat = %v", stat)
	}
	arg, want := target.WrongType()
	if arg != 0 || want != index.Tag(index.For[int](), index.Value) {
		t.Fatalf("WrongType() = %d, %v", arg, want)
	}
}

func TestFunc_Conversions(t *testing.T) {
	fn := MustFunc(func(x float64) float64 { return x * 2 })
	n := int32(4)

	target := erased.NewTarget(index.Zero, erased.ShapeValue)
	defer target.Release()
	fn.Invoke(context.Background(), target, erased.RefOf(&n, index.Const))
	if got := target.Interface(); got != 8.0 {
		t.Fatalf("result = %v", got)
	}
}

func TestFunc_Qualifiers(t *testing.T) {
	incr := MustFunc(func(p *int) { *p++ })
	peek := MustFunc(func(c Const[int]) int { return c.Get() })

	n := 1
	ctx := context.Background()

	target := erased.NewTarget(index.Zero, erased.ShapeNone)
	if stat := incr.Invoke(ctx, target, erased.RefOf(&n, index.Const)); stat != erased.StatWrongType {
		t.Fatalf("const into *int: stat = %v", stat)
	}
	if _, want := target.WrongType(); want.Qualifier() != index.Mutable {
		t.Fatalf("wanted qualifier = %v", want.Qualifier())
	}
	if n != 1 {
		t.Fatal("const argument was modified")
	}

	target = erased.NewTarget(index.Zero, erased.ShapeNone)
	if stat := incr.Invoke(ctx, target, erased.RefOf(&n, index.Mutable)); stat != erased.StatNone {
		t.Fatalf("mutable into *int: stat = %v", stat)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}

	target = erased.NewTarget(index.Zero, erased.ShapeValue)
	defer target.Release()
	if stat := peek.Invoke(ctx, target, erased.RefOf(&n, index.Const)); stat != erased.StatStack {
		t.Fatalf("const into Const[int]: stat = %v", stat)
	}
}

func TestFunc_Move(t *testing.T) {
	take := func(m Move[[]int]) int { return len(m.Take()) }
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      []Option
		q         index.Qualifier
		wantEmpty bool
	}{
		{"mutable is copied", nil, index.Mutable, false},
		{"mutable moved with permission", []Option{MoveFromMutable()}, index.Mutable, true},
		{"rvalue is moved", nil, index.Rvalue, true},
		{"const is copied", []Option{MoveFromMutable()}, index.Const, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := MustFunc(take, tt.opts...)
			xs := []int{1, 2, 3}
			target := erased.NewTarget(index.Zero, erased.ShapeValue)
			defer target.Release()

			if stat := fn.Invoke(ctx, target, erased.RefOf(&xs, tt.q)); stat != erased.StatStack {
				t.Fatalf("stat = %v (%v)", stat, target.Err())
			}
			if got := target.Interface(); got != 3 {
				t.Fatalf("len = %v", got)
			}
			if (xs == nil) != tt.wantEmpty {
				t.Fatalf("source emptied = %v, want %v", xs == nil, tt.wantEmpty)
			}
		})
	}
}

func TestFunc_Errors(t *testing.T) {
	errBad := stderrors.New("bad input")
	ctx := context.Background()

	failing := MustFunc(func(n int) (int, error) {
		if n < 0 {
			return 0, errBad
		}
		return n, nil
	})
	panicking := MustFunc(func() { panic("kaboom") })

	n := -1
	target := erased.NewTarget(index.Zero, erased.ShapeValue)
	if stat := failing.Invoke(ctx, target, erased.RefOf(&n, index.Const)); stat != erased.StatException {
		t.Fatalf("stat = %v", stat)
	}
	if !stderrors.Is(target.Err(), errBad) {
		t.Fatalf("Err() = %v", target.Err())
	}
	if !errors.Is(target.Err(), &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindException}) {
		t.Fatalf("Err() kind = %v", target.Err())
	}

	target = erased.NewTarget(index.Zero, erased.ShapeValue)
	if stat := panicking.Invoke(ctx, target); stat != erased.StatException {
		t.Fatalf("panic stat = %v", stat)
	}
	if target.Exception().Value != "kaboom" {
		t.Fatalf("exception = %v", target.Exception().Value)
	}
}

type ctxKey struct{}

func TestFunc_Context(t *testing.T) {
	fn := MustFunc(func(ctx context.Context, suffix string) string {
		return ctx.Value(ctxKey{}).(string) + suffix
	})
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-")

	got, err := fn.Call(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "req-1" {
		t.Fatalf("got %v", got)
	}
	if fn.Arity() != 1 {
		t.Fatalf("Arity() = %d", fn.Arity())
	}
}

func TestFunc_Blocking(t *testing.T) {
	var lock typebridge.HostLock
	held := true
	fn := MustFunc(func() { held = lock.Held() }, Blocking())

	lock.Lock()
	target := erased.NewTarget(index.Zero, erased.ShapeNone)
	stat := erased.Call(fn.Ref(), &erased.ArgView{Caller: &lock}, target)
	if !lock.Held() {
		t.Fatal("lock not reacquired")
	}
	lock.Unlock()

	if stat != erased.StatNone {
		t.Fatalf("stat = %v", stat)
	}
	if held {
		t.Fatal("lock held during blocking call")
	}
}

func TestFunc_Results(t *testing.T) {
	stored := 10
	ctx := context.Background()

	tests := []struct {
		name   string
		fn     any
		accept erased.Shape
		stat   erased.Stat
	}{
		{"pointer is writable", func() *int { return &stored }, erased.ShapeAny, erased.StatWrite},
		{"const is readable", func() Const[int] { return ConstOf(&stored) }, erased.ShapeAny, erased.StatRead},
		{"pointer copied when refs refused", func() *int { return &stored }, erased.ShapeValue, erased.StatStack},
		{"index", func() index.Index { return index.For[int]() }, erased.ShapeAny, erased.StatIndex},
		{"index refused", func() index.Index { return index.For[int]() }, erased.ShapeValue, erased.StatWrongReturn},
		{"nil pointer", func() *int { return nil }, erased.ShapeAny, erased.StatWrongReturn},
		{"void", func() {}, erased.ShapeAny, erased.StatNone},
		{"discarded", func() int { return 1 }, erased.ShapeNone, erased.StatNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := MustFunc(tt.fn)
			target := erased.NewTarget(index.Zero, tt.accept)
			defer target.Release()
			if stat := fn.Invoke(ctx, target); stat != tt.stat {
				t.Fatalf("stat = %v, want %v", stat, tt.stat)
			}
		})
	}

	fn := MustFunc(func() *int { return &stored })
	target := erased.NewTarget(index.Zero, erased.ShapeWrite)
	fn.Invoke(ctx, target)
	*(*int)(target.Pointer()) = 11
	if stored != 11 {
		t.Fatal("writable result does not alias")
	}
}

func TestFunc_Invalid(t *testing.T) {
	if _, err := Func(42); err == nil {
		t.Fatal("Func accepted a non-function")
	}
	if _, err := Func(func(xs ...int) {}); err == nil {
		t.Fatal("Func accepted a variadic function")
	}
	if _, err := Func(func() (int, int) { return 0, 0 }); err == nil {
		t.Fatal("Func accepted two results")
	}
}
