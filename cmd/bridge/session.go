package main

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/typebridge"
	"github.com/wippyai/typebridge/adapter"
	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
	"github.com/wippyai/typebridge/resource"
	"github.com/wippyai/typebridge/wasmhost"
)

// session holds a module, its signatures and the values calls produced.
type session struct {
	module *adapter.Module
	host   *wasmhost.Host
	table  *resource.Table
	lock   *typebridge.HostLock
	log    *zap.Logger
	sigs   map[string]*wasmhost.Signature
}

func newSession(m *adapter.Module, log *zap.Logger) (*session, error) {
	table := resource.NewTable()
	lock := &typebridge.HostLock{}
	host, err := wasmhost.New(m, wasmhost.WithTable(table), wasmhost.WithLock(lock))
	if err != nil {
		return nil, err
	}
	s := &session{
		module: m,
		host:   host,
		table:  table,
		lock:   lock,
		log:    log,
		sigs:   make(map[string]*wasmhost.Signature),
	}
	for _, sig := range host.Signatures() {
		s.sigs[sig.Name] = sig
	}
	return s, nil
}

func (s *session) signatures() []*wasmhost.Signature { return s.host.Signatures() }

// call parses args by the parameter types of name, invokes it and formats
// the result. Non-scalar results are kept and shown as "#handle".
func (s *session) call(ctx context.Context, name string, args []string) (string, error) {
	e, err := s.module.Lookup(name)
	if err != nil {
		return "", err
	}
	var params []reflect.Type
	var result reflect.Type
	if e.IsFunc() {
		params = e.Callable.Params()
		result = e.Callable.Result()
	} else {
		result = e.Ref().Index().Type()
	}
	if len(args) != len(params) {
		return "", errors.WrongNumber(len(args), len(params))
	}

	scope := erased.NewScope(s.module.Registry())
	defer scope.Close()

	refs := make([]erased.Ref, len(args))
	for i, raw := range args {
		ref, release, err := s.parseArg(raw, params[i], scope)
		if err != nil {
			return "", errors.New(errors.PhaseCast, errors.KindInvalidInput).
				Path(fmt.Sprintf("arg[%d]", i)).
				Cause(err).
				Build()
		}
		if release != nil {
			defer release()
		}
		refs[i] = ref
	}

	t := erased.NewTarget(index.Zero, erased.ShapeAny)
	defer t.Release()

	s.lock.Lock()
	av := erased.Named(name, refs...)
	av.Ctx = ctx
	av.Caller = s.lock
	stat := s.module.Registry().Call(s.module.Ref(), av, t)
	s.lock.Unlock()

	s.log.Debug("call",
		zap.String("func", name),
		zap.Strings("args", args),
		zap.Stringer("stat", stat))
	if !stat.OK() {
		return "", t.Err()
	}
	return s.format(t, result)
}

func (s *session) format(t *erased.Target, result reflect.Type) (string, error) {
	switch t.Stat() {
	case erased.StatNone:
		return "()", nil
	case erased.StatIndex:
		return t.Index().Name(), nil
	}
	if result == nil || isScalar(result) || result.Kind() == reflect.String {
		return fmt.Sprint(t.Interface()), nil
	}
	v := &erased.Value{}
	if !t.Take(v) {
		return "", errors.WrongReturn(result.String(), "result cannot be stored")
	}
	h := s.table.Insert(v)
	if h == 0 {
		v.Reset()
		return "", errors.Unsupported(errors.PhaseHost, "session closed")
	}
	stored, _ := s.table.Get(h)
	return fmt.Sprintf("#%d = %v", h, stored.Interface()), nil
}

// parseArg builds a reference for raw. "#N" borrows handle N; anything else
// is parsed as a value of type t owned by scope.
func (s *session) parseArg(raw string, t reflect.Type, scope *erased.Scope) (erased.Ref, func(), error) {
	if rest, ok := strings.CutPrefix(raw, "#"); ok {
		n, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return erased.Ref{}, nil, fmt.Errorf("bad handle %q", raw)
		}
		h := resource.Handle(n)
		v, ok := s.table.Get(h)
		if !ok || !s.table.Borrow(h) {
			return erased.Ref{}, nil, resource.ErrInvalidHandle
		}
		return v.Ref(), func() { s.table.ReturnBorrow(h) }, nil
	}

	rv, err := parseValue(raw, t)
	if err != nil {
		return erased.Ref{}, nil, err
	}
	v, err := s.module.Registry().Box(rv.Interface())
	if err != nil {
		return erased.Ref{}, nil, err
	}
	scope.Keep(v)
	return v.Temporary(), nil, nil
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// parseValue converts raw to a value of type t by its kind.
func parseValue(raw string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	default:
		return v, fmt.Errorf("%s arguments must be passed as #handle", t)
	}
	return v, nil
}

func (s *session) close() {
	if err := s.table.Close(); err != nil {
		s.log.Warn("close table", zap.Error(err))
	}
	s.module.Close()
}
