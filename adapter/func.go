package adapter

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

type resultKind uint8

const (
	resultNone resultKind = iota
	resultValue
	resultPointer
	resultConst
	resultIndex
)

// receiver describes the self argument of a method.
type receiver struct {
	typ   reflect.Type
	index index.Index
	q     index.Qualifier
}

// Callable wraps a Go function so it can be invoked through erased.Call.
//
// Parameters are cast by their declared type: T loads a value, *T binds a
// mutable reference, Const[T] a read-only one and Move[T] one the callee
// may move from. An optional leading context.Context receives the call
// context. Results may be (), (R), (error) or (R, error); a non-nil error
// is reported as an exception.
type Callable struct {
	argsPool    sync.Pool
	name        string
	fn          reflect.Value
	typ         reflect.Type
	reg         *erased.Registry
	recv        *receiver
	params      []param
	resultType  reflect.Type
	numIn       int
	result      resultKind
	hasCtx      bool
	hasErr      bool
	blocking    bool
	moveMutable bool
}

// Option configures a Callable.
type Option func(*Callable)

// Blocking releases the caller lock while the function runs.
func Blocking() Option {
	return func(c *Callable) { c.blocking = true }
}

// MoveFromMutable lets Move[T] parameters bind mutable references.
func MoveFromMutable() Option {
	return func(c *Callable) { c.moveMutable = true }
}

// Named sets the name used in diagnostics.
func Named(name string) Option {
	return func(c *Callable) { c.name = name }
}

// WithRegistry resolves tables and conversions in r instead of the default
// registry.
func WithRegistry(r *erased.Registry) Option {
	return func(c *Callable) { c.reg = r }
}

var callableTable = erased.CompileFor[Callable](erased.NotCopyable(), erased.WithCall(callCallable))

func init() {
	erased.Default().MustRegister(callableTable)
}

func callCallable(self erased.Ref, args *erased.ArgView, t *erased.Target) erased.Stat {
	c := (*Callable)(self.Pointer())
	return c.invoke(erased.Ref{}, args, t)
}

// Func wraps fn, which must be a non-variadic function.
func Func(fn any, opts ...Option) (*Callable, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", fn)).
			Detail("handler must be a function").
			Build()
	}
	return newCallable(rv, nil, opts)
}

// MustFunc is Func that panics on error.
func MustFunc(fn any, opts ...Option) *Callable {
	c, err := Func(fn, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func newCallable(rv reflect.Value, recv *receiver, opts []Option) (*Callable, error) {
	ft := rv.Type()
	if ft.IsVariadic() {
		return nil, errors.Unsupported(errors.PhaseRegister, "variadic function "+ft.String())
	}

	c := &Callable{
		name:  ft.String(),
		fn:    rv,
		typ:   ft,
		reg:   erased.Default(),
		recv:  recv,
		numIn: ft.NumIn(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reg != erased.Default() {
		if err := c.reg.Register(callableTable); err != nil {
			return nil, err
		}
	}

	start := 0
	if recv != nil {
		start = 1
	}
	if start < c.numIn && ft.In(start) == contextType {
		c.hasCtx = true
		start++
	}
	for i := start; i < c.numIn; i++ {
		c.params = append(c.params, classify(ft.In(i)))
	}

	if err := c.classifyResults(ft); err != nil {
		return nil, err
	}

	numIn := c.numIn
	c.argsPool.New = func() any {
		s := make([]reflect.Value, numIn)
		return &s
	}

	Logger().Debug("compiled callable",
		zap.String("name", c.name),
		zap.Int("params", len(c.params)),
		zap.Bool("blocking", c.blocking))
	return c, nil
}

func (c *Callable) classifyResults(ft reflect.Type) error {
	out := ft.NumOut()
	if out > 0 && ft.Out(out-1) == errorType {
		c.hasErr = true
		out--
	}
	switch out {
	case 0:
		c.result = resultNone
		return nil
	case 1:
	default:
		return errors.Unsupported(errors.PhaseRegister, "multiple results in "+ft.String())
	}

	rt := ft.Out(0)
	c.resultType = rt
	switch {
	case rt == indexType:
		c.result = resultIndex
	case reflect.PointerTo(rt).Implements(reflect.TypeFor[binder]()) && rt.Implements(reflect.TypeFor[constPointer]()):
		c.result = resultConst
	case rt.Kind() == reflect.Pointer:
		c.result = resultPointer
	default:
		c.result = resultValue
	}
	return nil
}

func (c *Callable) Name() string { return c.name }

// Arity returns the number of arguments the function takes, excluding
// the receiver and context.
func (c *Callable) Arity() int { return len(c.params) }

// Type returns the wrapped function type.
func (c *Callable) Type() reflect.Type { return c.typ }

// Params returns the referent type of each parameter, excluding the
// receiver and context.
func (c *Callable) Params() []reflect.Type {
	out := make([]reflect.Type, len(c.params))
	for i := range c.params {
		out[i] = c.params[i].elem
	}
	return out
}

// Result returns the type the result refers to, or nil when the function
// returns nothing but an optional error.
func (c *Callable) Result() reflect.Type {
	switch c.result {
	case resultNone:
		return nil
	case resultPointer:
		return c.resultType.Elem()
	case resultConst:
		return reflect.Zero(c.resultType).Interface().(refParam).elemType()
	}
	return c.resultType
}

// Ref returns a const reference to c, callable through erased.Call.
func (c *Callable) Ref() erased.Ref { return erased.RefOf(c, index.Const) }

// Invoke calls c with already erased arguments.
func (c *Callable) Invoke(ctx context.Context, t *erased.Target, args ...erased.Ref) erased.Stat {
	return c.reg.Call(c.Ref(), &erased.ArgView{Ctx: ctx, Args: args}, t)
}

// Call boxes args, invokes c and returns a copy of the result.
func (c *Callable) Call(ctx context.Context, args ...any) (any, error) {
	return callBoxed(c.reg, args, func(refs []erased.Ref, t *erased.Target) erased.Stat {
		return c.Invoke(ctx, t, refs...)
	})
}

func callBoxed(r *erased.Registry, args []any, call func([]erased.Ref, *erased.Target) erased.Stat) (any, error) {
	refs := make([]erased.Ref, len(args))
	for i, a := range args {
		v, err := r.Box(a)
		if err != nil {
			return nil, err
		}
		defer v.Reset()
		refs[i] = v.Temporary()
	}

	t := erased.NewTarget(index.Zero, erased.ShapeAny)
	defer t.Release()
	if stat := call(refs, t); !stat.OK() {
		return nil, t.Err()
	}
	return t.Interface(), nil
}

func (c *Callable) invoke(self erased.Ref, args *erased.ArgView, t *erased.Target) erased.Stat {
	if n := len(args.Args); n != len(c.params) {
		return t.SetWrongNumber(n, len(c.params))
	}

	s := erased.NewScope(c.reg)
	s.MoveFromMutable = c.moveMutable
	defer s.Close()

	inPtr := c.argsPool.Get().(*[]reflect.Value)
	in := *inPtr
	defer func() {
		clear(in)
		c.argsPool.Put(inPtr)
	}()

	next := 0
	if c.recv != nil {
		ptr, err := c.reg.Bind(self, c.recv.index, c.recv.q, c.moveMutable)
		if err != nil {
			return t.SetWrongType(-1, index.Tag(c.recv.index, c.recv.q))
		}
		in[0] = reflect.NewAt(c.recv.typ, ptr)
		next = 1
	}
	if c.hasCtx {
		in[next] = reflect.ValueOf(args.Context())
		next++
	}
	for i := range c.params {
		v, ok := cast(c.reg, args.Args[i], &c.params[i], s)
		if !ok {
			if erased.IsOutOfMemory(s.Err()) {
				return t.SetOutOfMemory()
			}
			return t.SetWrongType(i, c.params[i].want())
		}
		in[next+i] = v
	}

	var out []reflect.Value
	call := func() { out = c.fn.Call(in) }
	if c.blocking {
		args.Unlocked(call)
	} else {
		call()
	}
	return c.finish(out, t)
}

func (c *Callable) finish(out []reflect.Value, t *erased.Target) erased.Stat {
	if c.hasErr {
		if e := out[len(out)-1]; !e.IsNil() {
			return t.SetException(e.Interface().(error))
		}
		out = out[:len(out)-1]
	}

	if c.result == resultNone {
		if t.Want() != index.Zero {
			return t.SetWrongReturn(index.Tag(index.Zero, index.Value))
		}
		return t.SetNone()
	}
	if t.Accept() == erased.ShapeNone {
		return t.SetNone()
	}

	r := out[0]
	switch c.result {
	case resultIndex:
		if !t.Accept().Has(erased.ShapeIndex) {
			return t.SetWrongReturn(index.Tag(index.Of(indexType), index.Value))
		}
		return t.SetIndex(r.Interface().(index.Index))

	case resultPointer:
		if t.Want() == index.Of(c.resultType) {
			break
		}
		if r.IsNil() {
			return t.SetWrongReturn(index.Tag(index.Of(c.resultType), index.Value))
		}
		elem := c.resultType.Elem()
		ref := erased.MakeRef(index.Of(elem), index.Mutable, r.UnsafePointer())
		if c.reg.Dump(t, ref, true) {
			return t.Stat()
		}
		return t.SetWrongReturn(ref.Tagged())

	case resultConst:
		p := r.Interface().(constPointer).pointer()
		elem := r.Interface().(refParam).elemType()
		if p == nil {
			return t.SetWrongReturn(index.Tag(index.Of(elem), index.Const))
		}
		ref := erased.MakeRef(index.Of(elem), index.Const, p)
		if c.reg.Dump(t, ref, true) {
			return t.Stat()
		}
		return t.SetWrongReturn(ref.Tagged())
	}

	tmp := reflect.New(c.resultType)
	tmp.Elem().Set(r)
	ref := erased.MakeRef(index.Of(c.resultType), index.Rvalue, tmp.UnsafePointer())
	if c.reg.Dump(t, ref, false) {
		return t.Stat()
	}
	return t.SetWrongReturn(index.Tag(index.Of(c.resultType), index.Value))
}
