package adapter

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

// Entry is one named member of a Module: a function, an overload set or
// a value.
type Entry struct {
	Name string
	// Callable is the first function added under Name.
	Callable  *Callable
	overloads *Overloads
	value     *erased.Value
}

// Ref returns a const reference to the entry's callable or value.
func (e *Entry) Ref() erased.Ref {
	switch {
	case e.overloads != nil:
		return e.overloads.Ref()
	case e.Callable != nil:
		return e.Callable.Ref()
	}
	return e.value.Const()
}

// IsFunc reports whether the entry is callable.
func (e *Entry) IsFunc() bool { return e.Callable != nil }

// Overloads returns the functions under the entry in the order they were
// added, or nil for a value.
func (e *Entry) Overloads() []*Callable {
	switch {
	case e.overloads != nil:
		return e.overloads.Callables()
	case e.Callable != nil:
		return []*Callable{e.Callable}
	}
	return nil
}

// Overloaded reports whether more than one function shares the entry's name.
func (e *Entry) Overloaded() bool { return e.overloads != nil }

// Module is a named collection of functions and values. A Module is itself
// callable: tag 0 of the call names the member to invoke.
type Module struct {
	lock    sync.Locker
	reg     *erased.Registry
	entries map[string]*Entry
	name    string
	mu      sync.RWMutex
}

var moduleTable = erased.CompileFor[Module](erased.NotCopyable(), erased.WithCall(callModule))

func init() {
	erased.Default().MustRegister(moduleTable)
}

func callModule(self erased.Ref, args *erased.ArgView, t *erased.Target) erased.Stat {
	m := (*Module)(self.Pointer())
	name, ok := args.Name()
	if !ok {
		return t.SetImpossible(fmt.Sprintf("module %s: call requires a member name", m.name))
	}
	return m.invoke(name, args.Shift(), t)
}

func NewModule(name string) *Module {
	return &Module{
		name:    name,
		reg:     erased.Default(),
		entries: make(map[string]*Entry),
	}
}

func (m *Module) Name() string { return m.name }

// Registry returns the registry calls are resolved in.
func (m *Module) Registry() *erased.Registry { return m.reg }

// Ref returns a const reference to the module itself.
func (m *Module) Ref() erased.Ref { return erased.RefOf(m, index.Const) }

// SetLock sets the caller lock Call holds while dispatching. Blocking
// functions release it while they run.
func (m *Module) SetLock(l sync.Locker) {
	m.mu.Lock()
	m.lock = l
	m.mu.Unlock()
}

// Func wraps fn and adds it under name. Adding a function under the name
// of another function makes the two an overload set.
func (m *Module) Func(name string, fn any, opts ...Option) error {
	c, err := Func(fn, append([]Option{Named(m.name + "." + name)}, opts...)...)
	if err != nil {
		return err
	}
	return m.Add(name, c)
}

// Add adds an already wrapped callable under name, extending the overload
// set when name already holds a function.
func (m *Module) Add(name string, c *Callable) error {
	m.mu.Lock()
	if e, ok := m.entries[name]; ok && e.Callable != nil {
		defer m.mu.Unlock()
		return m.overload(e, c)
	}
	m.mu.Unlock()
	return m.insert(&Entry{Name: name, Callable: c})
}

// overload adds c to e's overload set. m.mu must be held.
func (m *Module) overload(e *Entry, c *Callable) error {
	if e.overloads == nil {
		o, err := NewOverloads(m.name+"."+e.Name, e.Callable)
		if err != nil {
			return err
		}
		e.overloads = o
	}
	if err := e.overloads.Add(c); err != nil {
		return err
	}
	Logger().Debug("module overload added",
		zap.String("module", m.name),
		zap.String("name", e.Name),
		zap.Int("overloads", e.overloads.Len()))
	return nil
}

// Value adds a copy of x under name.
func (m *Module) Value(name string, x any) error {
	v, err := m.reg.Box(x)
	if err != nil {
		return err
	}
	if err := m.insert(&Entry{Name: name, value: v}); err != nil {
		v.Reset()
		return err
	}
	return nil
}

// Host adds every exported method of h, bound to h, under its kebab-case
// name with prefix prepended.
func (m *Module) Host(prefix string, h any, opts ...Option) error {
	rv := reflect.ValueOf(h)
	rt := rv.Type()
	for i := range rt.NumMethod() {
		method := rt.Method(i)
		if !method.IsExported() || isHook(method.Name) {
			continue
		}
		name := prefix + toKebabCase(method.Name)
		c, err := newCallable(rv.Method(i), nil, append([]Option{Named(m.name + "." + name)}, opts...))
		if err != nil {
			return errors.Registration(rt.String(), err, "method "+method.Name)
		}
		if err := m.Add(name, c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) insert(e *Entry) error {
	if e.Name == "" {
		return errors.InvalidInput(errors.PhaseRegister, "member name cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[e.Name]; exists {
		return errors.Registration(m.name, nil, fmt.Sprintf("member %q already defined", e.Name))
	}
	m.entries[e.Name] = e
	Logger().Debug("module member added",
		zap.String("module", m.name),
		zap.String("name", e.Name),
		zap.Bool("func", e.IsFunc()))
	return nil
}

// Lookup returns the member called name.
func (m *Module) Lookup(name string) (*Entry, error) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseCall, "member", name)
	}
	return e, nil
}

// Names returns the member names in sorted order.
func (m *Module) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches to member name with erased arguments.
func (m *Module) Invoke(ctx context.Context, name string, t *erased.Target, args ...erased.Ref) erased.Stat {
	return m.reg.Call(m.Ref(), &erased.ArgView{
		Ctx:  ctx,
		Tags: erased.Named(name).Tags,
		Args: args,
	}, t)
}

func (m *Module) invoke(name string, args *erased.ArgView, t *erased.Target) erased.Stat {
	e, err := m.Lookup(name)
	if err != nil {
		return t.SetImpossible(err.Error())
	}
	if e.overloads != nil {
		return e.overloads.invoke(args, t)
	}
	if e.Callable != nil {
		return e.Callable.invoke(erased.Ref{}, args, t)
	}
	if n := len(args.Args); n != 0 {
		return t.SetWrongNumber(n, 0)
	}
	ref := e.value.Const()
	if !m.reg.Dump(t, ref, true) {
		return t.SetWrongReturn(ref.Tagged())
	}
	return t.Stat()
}

// Call boxes args, dispatches to member name under the module lock and
// returns a copy of the result.
func (m *Module) Call(ctx context.Context, name string, args ...any) (any, error) {
	m.mu.RLock()
	lock := m.lock
	m.mu.RUnlock()

	return callBoxed(m.reg, args, func(refs []erased.Ref, t *erased.Target) erased.Stat {
		if lock == nil {
			return m.Invoke(ctx, name, t, refs...)
		}
		lock.Lock()
		defer lock.Unlock()
		return m.reg.Call(m.Ref(), &erased.ArgView{
			Ctx:    ctx,
			Caller: lock,
			Tags:   erased.Named(name).Tags,
			Args:   refs,
		}, t)
	})
}

// Close destroys the values held by the module.
func (m *Module) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.value != nil {
			e.value.Reset()
		}
	}
	m.entries = make(map[string]*Entry)
}
