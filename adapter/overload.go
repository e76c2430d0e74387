package adapter

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

// Overloads is an ordered set of callables sharing one name. A call tries
// them in turn, moving on while the outcome is a recoverable mismatch
// (wrong number, wrong type, impossible), and returns the first other
// outcome. Overloads whose first parameter has exactly the type of the
// first argument are tried before the rest.
//
// When every overload rejects the call the most specific failure is
// written: impossible, then wrong type (the latest failing argument wins),
// then wrong number.
type Overloads struct {
	mu   sync.RWMutex
	name string
	reg  *erased.Registry
	fns  []*Callable
}

var overloadsTable = erased.CompileFor[Overloads](erased.NotCopyable(), erased.WithCall(callOverloads))

func init() {
	erased.Default().MustRegister(overloadsTable)
}

func callOverloads(self erased.Ref, args *erased.ArgView, t *erased.Target) erased.Stat {
	return (*Overloads)(self.Pointer()).invoke(args, t)
}

// NewOverloads returns an overload set named name holding fns in order.
func NewOverloads(name string, fns ...*Callable) (*Overloads, error) {
	o := &Overloads{name: name, reg: erased.Default()}
	for _, c := range fns {
		if err := o.Add(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Overloads) Name() string { return o.name }

// Add appends c. All overloads must share one registry.
func (o *Overloads) Add(c *Callable) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.fns) == 0 && c.reg != erased.Default() {
		if err := c.reg.Register(overloadsTable); err != nil {
			return err
		}
		o.reg = c.reg
	}
	if c.reg != o.reg {
		return errors.Registration(o.name, nil, "overload "+c.Name()+" uses a different registry")
	}
	o.fns = append(o.fns, c)
	return nil
}

func (o *Overloads) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.fns)
}

// Callables returns the overloads in the order they are tried when no
// argument type is preferred.
func (o *Overloads) Callables() []*Callable {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]*Callable(nil), o.fns...)
}

// Select returns overload i for explicit dispatch. Negative i counts from
// the end.
func (o *Overloads) Select(i int) (*Callable, error) {
	fns := o.Callables()
	if i < 0 {
		i += len(fns)
	}
	if i < 0 || i >= len(fns) {
		return nil, errors.New(errors.PhaseCall, errors.KindOutOfBounds).
			GoType(o.name).
			Detail("overload %d of %d", i, len(fns)).
			Build()
	}
	return fns[i], nil
}

// Ref returns a const reference to the set, callable through erased.Call.
func (o *Overloads) Ref() erased.Ref { return erased.RefOf(o, index.Const) }

// Invoke dispatches erased arguments to the first overload that accepts them.
func (o *Overloads) Invoke(ctx context.Context, t *erased.Target, args ...erased.Ref) erased.Stat {
	return o.reg.Call(o.Ref(), &erased.ArgView{Ctx: ctx, Args: args}, t)
}

// Call boxes args, dispatches them and returns a copy of the result.
func (o *Overloads) Call(ctx context.Context, args ...any) (any, error) {
	return callBoxed(o.reg, args, func(refs []erased.Ref, t *erased.Target) erased.Stat {
		return o.Invoke(ctx, t, refs...)
	})
}

// ordered puts overloads whose first parameter matches the first argument
// exactly ahead of the others, keeping insertion order within each group.
func (o *Overloads) ordered(args *erased.ArgView) []*Callable {
	fns := o.Callables()
	if len(fns) < 2 || len(args.Args) == 0 {
		return fns
	}
	first := args.Args[0].Index()
	out := make([]*Callable, 0, len(fns))
	for _, exact := range [...]bool{true, false} {
		for _, c := range fns {
			match := len(c.params) == 0 || c.params[0].index == first
			if match == exact {
				out = append(out, c)
			}
		}
	}
	return out
}

func (o *Overloads) invoke(args *erased.ArgView, t *erased.Target) erased.Stat {
	fns := o.ordered(args)
	if len(fns) == 0 {
		return t.SetImpossible(fmt.Sprintf("%s: no overloads", o.name))
	}

	var best mismatch
	for _, c := range fns {
		stat := c.invoke(erased.Ref{}, args, t)
		if !stat.Recoverable() {
			return stat
		}
		m := mismatchOf(t)
		Logger().Debug("overload rejected",
			zap.String("name", o.name),
			zap.String("overload", c.Name()),
			zap.Stringer("stat", stat))
		if m.beats(best) {
			best = m
		}
		t.Retry()
	}
	return best.write(t)
}

// mismatch is a recoverable failure copied out of a Target.
type mismatch struct {
	stat               erased.Stat
	received, expected int
	arg                int
	want               index.Tagged
	detail             string
}

func mismatchOf(t *erased.Target) mismatch {
	m := mismatch{stat: t.Stat(), detail: t.Detail()}
	m.received, m.expected = t.WrongNumber()
	m.arg, m.want = t.WrongType()
	return m
}

func (m mismatch) rank() int {
	switch m.stat {
	case erased.StatImpossible:
		return 3
	case erased.StatWrongType:
		return 2
	case erased.StatWrongNumber:
		return 1
	}
	return 0
}

func (m mismatch) beats(o mismatch) bool {
	if m.rank() != o.rank() {
		return m.rank() > o.rank()
	}
	return m.stat == erased.StatWrongType && m.arg > o.arg
}

func (m mismatch) write(t *erased.Target) erased.Stat {
	switch m.stat {
	case erased.StatImpossible:
		return t.SetImpossible(m.detail)
	case erased.StatWrongType:
		return t.SetWrongType(m.arg, m.want)
	default:
		return t.SetWrongNumber(m.received, m.expected)
	}
}