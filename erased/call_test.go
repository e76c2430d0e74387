package erased

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/typebridge"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

// adder is a callable whose behavior is selected by mode.
type adder struct {
	mode string
}

var errBoom = stderrors.New("boom")

func adderCall(self Ref, args *ArgView, t *Target) Stat {
	a := (*adder)(self.Pointer())
	switch a.mode {
	case "panic":
		panic(errBoom)
	case "oom":
		panic(ErrOutOfMemory)
	case "silent":
		return StatNone
	case "liar":
		return StatStack
	case "blocking":
		held := false
		args.Unlocked(func() {
			held = args.Caller.(*typebridge.HostLock).Held()
		})
		if held {
			return t.SetImpossible("caller lock held during blocking call")
		}
		return t.SetNone()
	}

	if len(args.Args) != 2 {
		return t.SetWrongNumber(len(args.Args), 2)
	}
	s := NewScope(nil)
	defer s.Close()
	x, ok := Load[int](args.Args[0], s)
	if !ok {
		return t.SetWrongType(0, index.Tag(index.For[int](), index.Value))
	}
	y, ok := Load[float32](args.Args[1], s)
	if !ok {
		return t.SetWrongType(1, index.Tag(index.For[float32](), index.Value))
	}
	sum := float32(x) + y
	if !Dump(t, RefOf(&sum, index.Rvalue), false) {
		return t.SetWrongReturn(index.Tag(index.For[float32](), index.Value))
	}
	return t.Stat()
}

func newCallRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.Register(CompileFor[adder](WithCall(adderCall))); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestCall_Outcomes(t *testing.T) {
	r := newCallRegistry(t)

	three, half := 3, float32(2.5)
	word := "x"

	tests := []struct {
		name   string
		mode   string
		args   []Ref
		accept Shape
		stat   Stat
	}{
		{"value", "", []Ref{RefOf(&three, index.Const), RefOf(&half, index.Const)}, ShapeValue, StatStack},
		{"discarded", "", []Ref{RefOf(&three, index.Const), RefOf(&half, index.Const)}, ShapeNone, StatNone},
		{"wrong number", "", []Ref{RefOf(&three, index.Const)}, ShapeValue, StatWrongNumber},
		{"wrong type", "", []Ref{RefOf(&word, index.Const), RefOf(&half, index.Const)}, ShapeValue, StatWrongType},
		{"wrong return", "", []Ref{RefOf(&three, index.Const), RefOf(&half, index.Const)}, ShapeIndex, StatWrongReturn},
		{"exception", "panic", nil, ShapeAny, StatException},
		{"out of memory", "oom", nil, ShapeAny, StatOutOfMemory},
		{"silent none", "silent", nil, ShapeAny, StatNone},
		{"inconsistent callee", "liar", nil, ShapeAny, StatImpossible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := adder{mode: tt.mode}
			target := NewTarget(index.Zero, tt.accept)
			defer target.Release()

			stat := r.Call(RefOf(&fn, index.Const), Args(tt.args...), target)
			if stat != tt.stat {
				t.Fatalf("stat = %v, want %v (%v)", stat, tt.stat, target.Err())
			}
			if !target.Done() {
				t.Fatal("target left unwritten")
			}
			if stat.OK() && target.Err() != nil {
				t.Fatalf("Err() = %v on success", target.Err())
			}
			if !stat.OK() && target.Err() == nil {
				t.Fatal("Err() = nil on failure")
			}
		})
	}
}

func TestCall_Result(t *testing.T) {
	r := newCallRegistry(t)
	fn := adder{}
	three, half := 3, float32(2.5)

	target := NewTarget(index.For[float32](), ShapeValue)
	defer target.Release()
	r.Call(RefOf(&fn, index.Const), Args(RefOf(&three, index.Const), RefOf(&half, index.Const)), target)

	if got := target.Interface(); got != float32(5.5) {
		t.Fatalf("result = %v, want 5.5", got)
	}
}

func TestCall_WrongNumberDetail(t *testing.T) {
	r := newCallRegistry(t)
	fn := adder{}
	three := 3

	target := NewTarget(index.Zero, ShapeValue)
	r.Call(RefOf(&fn, index.Const), Args(RefOf(&three, index.Const)), target)

	received, expected := target.WrongNumber()
	if received != 1 || expected != 2 {
		t.Fatalf("WrongNumber() = %d, %d", received, expected)
	}
	if !errors.Is(target.Err(), &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindWrongNumber}) {
		t.Fatalf("Err() = %v", target.Err())
	}
}

func TestCall_Exception(t *testing.T) {
	r := newCallRegistry(t)
	fn := adder{mode: "panic"}
	target := NewTarget(index.Zero, ShapeAny)
	r.Call(RefOf(&fn, index.Const), Args(), target)

	exc := target.Exception()
	if exc == nil || len(exc.Stack) == 0 {
		t.Fatal("exception not captured")
	}
	if !stderrors.Is(target.Err(), errBoom) {
		t.Fatalf("Err() = %v does not wrap the raised error", target.Err())
	}

	defer func() {
		if p := recover(); p != errBoom {
			t.Fatalf("rethrown %v", p)
		}
	}()
	exc.Rethrow()
}

func TestCall_NotCallable(t *testing.T) {
	n := 1
	target := NewTarget(index.Zero, ShapeAny)
	if st := Call(RefOf(&n, index.Const), Args(), target); st != StatImpossible {
		t.Fatalf("stat = %v", st)
	}
}

func TestCall_BlockingReleasesLock(t *testing.T) {
	r := newCallRegistry(t)
	fn := adder{mode: "blocking"}

	var lock typebridge.HostLock
	lock.Lock()
	defer lock.Unlock()

	target := NewTarget(index.Zero, ShapeNone)
	args := &ArgView{Ctx: context.Background(), Caller: &lock}
	if st := r.Call(RefOf(&fn, index.Const), args, target); st != StatNone {
		t.Fatalf("stat = %v (%s)", st, target.Detail())
	}
	if !lock.Held() {
		t.Fatal("lock not reacquired")
	}
}

func TestArgView_Name(t *testing.T) {
	a := Named("run")
	name, ok := a.Name()
	if !ok || name != "run" {
		t.Fatalf("Name() = %q, %v", name, ok)
	}
	if _, ok := a.Shift().Name(); ok {
		t.Fatal("Shift kept the name tag")
	}
	if _, ok := Args().Name(); ok {
		t.Fatal("unnamed view reported a name")
	}
}
