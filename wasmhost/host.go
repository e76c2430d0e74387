package wasmhost

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/typebridge/adapter"
	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
	"github.com/wippyai/typebridge/resource"
)

// DropFunc is the name of the exported function that releases a handle.
const DropFunc = "drop"

// Options configures a host module.
type Options struct {
	// Table holds non-scalar results. A new table is created when nil.
	Table *resource.Table
	// Lock is the lock the guest holds while running. Blocking callables
	// release it while they run.
	Lock sync.Locker
}

// Option configures Bind.
type Option func(*Options)

// WithTable stores handles in t.
func WithTable(t *resource.Table) Option {
	return func(o *Options) { o.Table = t }
}

// WithLock sets the lock blocking callables release.
func WithLock(l sync.Locker) Option {
	return func(o *Options) { o.Lock = l }
}

// Host is an adapter.Module prepared for export to wasm.
type Host struct {
	module *adapter.Module
	reg    *erased.Registry
	table  *resource.Table
	lock   sync.Locker
	sigs   []*Signature
}

// New describes every member of m as a host function.
func New(m *adapter.Module, opts ...Option) (*Host, error) {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Table == nil {
		o.Table = resource.NewTable()
	}

	h := &Host{
		module: m,
		reg:    m.Registry(),
		table:  o.Table,
		lock:   o.Lock,
	}
	for _, name := range m.Names() {
		if name == DropFunc {
			return nil, errors.Registration(m.Name(), nil, fmt.Sprintf("member %q is reserved", DropFunc))
		}
		e, err := m.Lookup(name)
		if err != nil {
			return nil, err
		}
		if e.Overloaded() {
			return nil, errors.Registration(m.Name(), nil, fmt.Sprintf("member %q is overloaded", name))
		}
		if e.IsFunc() {
			h.sigs = append(h.sigs, NewSignature(name, e.Callable.Params(), e.Callable.Result()))
			continue
		}
		h.sigs = append(h.sigs, NewSignature(name, nil, e.Ref().Index().Type()))
	}
	return h, nil
}

// Signatures returns the host functions in name order, excluding drop.
func (h *Host) Signatures() []*Signature { return h.sigs }

// Table returns the table handles refer to.
func (h *Host) Table() *resource.Table { return h.table }

// Instantiate builds the host module into rt under name.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime, name string) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(name)
	for _, sig := range h.sigs {
		params, results := sig.Flat()
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.handler(sig), params, results).
			WithName(sig.Name).
			Export(sig.Name)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.drop), []api.ValueType{api.ValueTypeI32}, nil).
		Export(DropFunc)

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	Logger().Debug("host module instantiated",
		zap.String("name", name),
		zap.Int("funcs", len(h.sigs)))
	return mod, nil
}

// Bind describes m and instantiates it into rt under name.
func Bind(ctx context.Context, rt wazero.Runtime, name string, m *adapter.Module, opts ...Option) (api.Module, error) {
	h, err := New(m, opts...)
	if err != nil {
		return nil, err
	}
	return h.Instantiate(ctx, rt, name)
}

func (h *Host) drop(_ context.Context, _ api.Module, stack []uint64) {
	if err := h.table.Remove(resource.Handle(api.DecodeU32(stack[0]))); err != nil {
		panic(err)
	}
}

func (h *Host) handler(sig *Signature) api.GoModuleFunc {
	return func(ctx context.Context, caller api.Module, stack []uint64) {
		if err := h.call(ctx, caller, sig, stack); err != nil {
			Logger().Debug("host call failed",
				zap.String("func", sig.Name),
				zap.Error(err))
			panic(err)
		}
	}
}

func (h *Host) call(ctx context.Context, caller api.Module, sig *Signature, stack []uint64) error {
	s := erased.NewScope(h.reg)
	defer s.Close()

	refs := make([]erased.Ref, len(sig.params))
	pos := 0
	for i, pt := range sig.params {
		switch sig.Params[i].(type) {
		case Handle:
			handle := resource.Handle(api.DecodeU32(stack[pos]))
			pos++
			v, ok := h.table.Get(handle)
			if !ok || !h.table.Borrow(handle) {
				return errors.New(errors.PhaseHost, errors.KindNotFound).
					Path(fmt.Sprintf("arg[%d]", i)).
					Detail("invalid handle %d", handle).
					Build()
			}
			defer h.table.ReturnBorrow(handle)
			refs[i] = v.Ref()
		case wit.String:
			str, err := readString(caller, stack[pos], stack[pos+1])
			pos += 2
			if err != nil {
				return err
			}
			v, err := h.reg.Box(str)
			if err != nil {
				return err
			}
			s.Keep(v)
			refs[i] = v.Temporary()
		default:
			v, err := h.reg.Box(lift(pt, stack[pos]).Interface())
			pos++
			if err != nil {
				return err
			}
			s.Keep(v)
			refs[i] = v.Temporary()
		}
	}

	want := index.Zero
	if sig.result != nil {
		want = index.Of(sig.result)
	}
	t := erased.NewTarget(want, erased.ShapeAny)
	defer t.Release()

	args := erased.Named(sig.Name, refs...)
	args.Ctx = ctx
	args.Caller = h.lock
	if stat := h.reg.Call(h.module.Ref(), args, t); !stat.OK() {
		return t.Err()
	}
	if sig.result == nil {
		return nil
	}

	if _, ok := sig.Results[0].(Handle); ok {
		v := &erased.Value{}
		if !t.Take(v) {
			return errors.New(errors.PhaseHost, errors.KindWrongReturn).
				GoType(sig.result.String()).
				Detail("result cannot be stored").
				Build()
		}
		handle := h.table.Insert(v)
		if handle == 0 {
			v.Reset()
			return errors.New(errors.PhaseHost, errors.KindUnsupported).Detail("table closed").Build()
		}
		stack[0] = api.EncodeU32(uint32(handle))
		return nil
	}

	switch {
	case t.Stat() == erased.StatIndex:
		stack[0] = api.EncodeU32(uint32(t.Index()))
	case t.Pointer() == nil:
		return errors.WrongReturn(sig.result.String(), "call produced no value")
	default:
		stack[0] = lower(reflect.NewAt(sig.result, t.Pointer()).Elem())
	}
	return nil
}

func readString(caller api.Module, ptr, size uint64) (string, error) {
	mem := caller.Memory()
	if mem == nil {
		return "", errors.Unsupported(errors.PhaseHost, "string argument without guest memory")
	}
	b, ok := mem.Read(api.DecodeU32(ptr), api.DecodeU32(size))
	if !ok {
		return "", errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Detail("string at %d+%d", ptr, size).
			Build()
	}
	return string(b), nil
}

// lift decodes one core value into a Go value of type t.
func lift(t reflect.Type, raw uint64) reflect.Value {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(api.DecodeI32(raw) != 0)
	case reflect.Int8, reflect.Int16, reflect.Int32:
		v.SetInt(int64(api.DecodeI32(raw)))
	case reflect.Int, reflect.Int64:
		v.SetInt(int64(raw))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		v.SetUint(uint64(api.DecodeU32(raw)))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		v.SetUint(raw)
	case reflect.Float32:
		v.SetFloat(float64(api.DecodeF32(raw)))
	case reflect.Float64:
		v.SetFloat(api.DecodeF64(raw))
	}
	return v
}

// lower encodes a scalar Go value as one core value.
func lower(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return api.EncodeI32(int32(v.Int()))
	case reflect.Int, reflect.Int64:
		return api.EncodeI64(v.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return api.EncodeU32(uint32(v.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32:
		return api.EncodeF32(float32(v.Float()))
	case reflect.Float64:
		return math.Float64bits(v.Float())
	}
	return 0
}
