package erased

import (
	"cmp"
	"hash/maphash"
	"reflect"
	"strings"
	"sync"
	"unsafe"

	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
	"github.com/wippyai/typebridge/internal/layout"
)

// Initializer is implemented by *T to finish default construction.
type Initializer interface {
	Init()
}

// Destroyer is implemented by *T to release what a value owns. Destroy must
// tolerate the zero value, which is what a moved-from value holds.
type Destroyer interface {
	Destroy()
}

// Table is the per-type operation table. Slots left nil are operations the
// type does not support. Pointers passed to slots address storage of Type.
//
// Besides Init and Destroy, Compile recognizes these methods on *T:
//
//	MoveFrom(src *T)   relocate, transferring ownership out of src
//	Clone() T          copy
//	Compare(T) int     ordering
type Table struct {
	Index index.Index
	Type  reflect.Type
	Info  layout.Info

	Construct func(p unsafe.Pointer)
	Destruct  func(p unsafe.Pointer)
	Copy      func(dst, src unsafe.Pointer)
	Relocate  func(dst, src unsafe.Pointer)
	Compare   func(a, b unsafe.Pointer) int
	Equal     func(a, b unsafe.Pointer) bool
	Hash      func(p unsafe.Pointer, seed maphash.Seed) uint64

	// ToValue builds a value of want at dst from src.
	ToValue func(src Ref, want *Table, dst unsafe.Pointer, s *Scope) bool
	// ToRef returns a reference to a part of src with index want.
	ToRef func(src Ref, want index.Index) (Ref, bool)
	// Assign replaces the value at dst with one loaded from src.
	Assign func(dst unsafe.Pointer, src Ref, s *Scope) bool
	// Load is the last-resort conversion into this type, tried after exact
	// match and every conversion the source offers.
	Load func(src Ref, dst unsafe.Pointer, s *Scope) bool

	Attr    func(self Ref, name string, t *Target) Stat
	Element func(self Ref, i int, t *Target) Stat
	Call    func(self Ref, args *ArgView, t *Target) Stat

	reg *Registry
}

func (t *Table) Name() string { return t.Index.Name() }

// Copyable reports whether values of the type can be duplicated.
func (t *Table) Copyable() bool { return t.Copy != nil }

func (t *Table) registry() *Registry {
	if t.reg != nil {
		return t.reg
	}
	return defaultRegistry
}

type config struct {
	notCopyable bool
	slots       []func(*Table)
}

// Option customizes a compiled Table.
type Option func(*config)

// NotCopyable removes the copy slot. Values can only be moved.
func NotCopyable() Option {
	return func(c *config) { c.notCopyable = true }
}

func WithCall(fn func(self Ref, args *ArgView, t *Target) Stat) Option {
	return slot(func(t *Table) { t.Call = fn })
}

func WithLoad(fn func(src Ref, dst unsafe.Pointer, s *Scope) bool) Option {
	return slot(func(t *Table) { t.Load = fn })
}

func WithToValue(fn func(src Ref, want *Table, dst unsafe.Pointer, s *Scope) bool) Option {
	return slot(func(t *Table) { t.ToValue = fn })
}

func WithToRef(fn func(src Ref, want index.Index) (Ref, bool)) Option {
	return slot(func(t *Table) { t.ToRef = fn })
}

func WithAttr(fn func(self Ref, name string, t *Target) Stat) Option {
	return slot(func(t *Table) { t.Attr = fn })
}

func WithElement(fn func(self Ref, i int, t *Target) Stat) Option {
	return slot(func(t *Table) { t.Element = fn })
}

func slot(fn func(*Table)) Option {
	return func(c *config) { c.slots = append(c.slots, fn) }
}

var (
	initializerType = reflect.TypeFor[Initializer]()
	destroyerType   = reflect.TypeFor[Destroyer]()
	lockerType      = reflect.TypeFor[sync.Locker]()
)

var calculator = layout.NewCalculator()

// CompileFor compiles the default table for T.
func CompileFor[T any](opts ...Option) *Table {
	return Compile(reflect.TypeFor[T](), opts...)
}

// Compile builds the table for t from its kind and the hooks *t implements.
func Compile(t reflect.Type, opts ...Option) *Table {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	pt := reflect.PointerTo(t)
	hasInit := pt.Implements(initializerType)
	hasDestroy := pt.Implements(destroyerType)
	move, hasMove := hookMethod(pt, "MoveFrom", []reflect.Type{pt}, nil)
	clone, hasClone := hookMethod(pt, "Clone", nil, []reflect.Type{t})
	compare, hasCompare := hookMethod(pt, "Compare", []reflect.Type{t}, []reflect.Type{reflect.TypeFor[int]()})

	notCopyable := cfg.notCopyable || pt.Implements(lockerType)
	info := calculator.Calculate(t, layout.Traits{
		NotCopyable: notCopyable,
		HasMove:     hasMove,
		HasDestroy:  hasDestroy,
	})

	tbl := &Table{
		Index: index.Of(t),
		Type:  t,
		Info:  info,
	}

	tbl.Construct = func(p unsafe.Pointer) {
		v := reflect.NewAt(t, p)
		v.Elem().SetZero()
		if hasInit {
			v.Interface().(Initializer).Init()
		}
	}

	tbl.Destruct = func(p unsafe.Pointer) {
		v := reflect.NewAt(t, p)
		if hasDestroy {
			v.Interface().(Destroyer).Destroy()
		}
		v.Elem().SetZero()
	}

	assign := bitwise(t, info.PointerFree)

	if !notCopyable {
		if hasClone {
			tbl.Copy = func(dst, src unsafe.Pointer) {
				out := clone.Func.Call([]reflect.Value{reflect.NewAt(t, src)})[0]
				reflect.NewAt(t, dst).Elem().Set(out)
			}
		} else {
			tbl.Copy = assign
		}
	}

	tbl.Relocate = func(dst, src unsafe.Pointer) {
		if hasMove {
			move.Func.Call([]reflect.Value{reflect.NewAt(t, dst), reflect.NewAt(t, src)})
		} else {
			assign(dst, src)
		}
		reflect.NewAt(t, src).Elem().SetZero()
	}

	switch {
	case hasCompare:
		tbl.Compare = func(a, b unsafe.Pointer) int {
			out := compare.Func.Call([]reflect.Value{reflect.NewAt(t, a), reflect.NewAt(t, b).Elem()})
			return int(out[0].Int())
		}
	default:
		tbl.Compare = orderedCompare(t)
	}

	switch {
	case t.Comparable():
		tbl.Equal = func(a, b unsafe.Pointer) bool {
			x, y := reflect.NewAt(t, a).Elem(), reflect.NewAt(t, b).Elem()
			// Interfaces may hold dynamic values that are not comparable.
			if !x.Comparable() || !y.Comparable() {
				return false
			}
			return x.Equal(y)
		}
		tbl.Hash = func(p unsafe.Pointer, seed maphash.Seed) uint64 {
			var h maphash.Hash
			h.SetSeed(seed)
			hashValue(&h, reflect.NewAt(t, p).Elem())
			return h.Sum64()
		}
	case tbl.Compare != nil:
		cmpFn := tbl.Compare
		tbl.Equal = func(a, b unsafe.Pointer) bool { return cmpFn(a, b) == 0 }
	}

	switch t.Kind() {
	case reflect.Struct:
		tbl.Attr = func(self Ref, name string, out *Target) Stat {
			return structAttr(tbl, self, name, out)
		}
		if hasEmbedded(t) {
			tbl.ToRef = func(src Ref, want index.Index) (Ref, bool) {
				return embeddedRef(t, src, want)
			}
		}
	case reflect.Slice, reflect.Array, reflect.String:
		tbl.Element = func(self Ref, i int, out *Target) Stat {
			return sequenceElement(tbl, self, i, out)
		}
	}

	switch t.Kind() {
	case reflect.String:
		tbl.Load = func(src Ref, dst unsafe.Pointer, _ *Scope) bool {
			return loadString(t, src, dst)
		}
	case reflect.Interface:
		tbl.Load = func(src Ref, dst unsafe.Pointer, _ *Scope) bool {
			v := src.Reflect()
			if !v.IsValid() || !v.Type().Implements(t) {
				return false
			}
			reflect.NewAt(t, dst).Elem().Set(v)
			return true
		}
	}

	for _, fn := range cfg.slots {
		fn(tbl)
	}
	return tbl
}

func hookMethod(pt reflect.Type, name string, in, out []reflect.Type) (reflect.Method, bool) {
	m, ok := pt.MethodByName(name)
	if !ok {
		return m, false
	}
	ft := m.Type
	if ft.NumIn() != len(in)+1 || ft.NumOut() != len(out) {
		return m, false
	}
	for i, want := range in {
		if ft.In(i+1) != want {
			return m, false
		}
	}
	for i, want := range out {
		if ft.Out(i) != want {
			return m, false
		}
	}
	return m, true
}

// bitwise returns the plain assignment for t. Pointer-free values are copied
// as raw bytes; others go through reflect so write barriers apply.
func bitwise(t reflect.Type, pointerFree bool) func(dst, src unsafe.Pointer) {
	if pointerFree {
		size := t.Size()
		return func(dst, src unsafe.Pointer) {
			if size == 0 {
				return
			}
			copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
		}
	}
	return func(dst, src unsafe.Pointer) {
		reflect.NewAt(t, dst).Elem().Set(reflect.NewAt(t, src).Elem())
	}
}

func orderedCompare(t reflect.Type) func(a, b unsafe.Pointer) int {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b unsafe.Pointer) int {
			return cmp.Compare(reflect.NewAt(t, a).Elem().Int(), reflect.NewAt(t, b).Elem().Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b unsafe.Pointer) int {
			return cmp.Compare(reflect.NewAt(t, a).Elem().Uint(), reflect.NewAt(t, b).Elem().Uint())
		}
	case reflect.Float32, reflect.Float64:
		return func(a, b unsafe.Pointer) int {
			return cmp.Compare(reflect.NewAt(t, a).Elem().Float(), reflect.NewAt(t, b).Elem().Float())
		}
	case reflect.String:
		return func(a, b unsafe.Pointer) int {
			return strings.Compare(reflect.NewAt(t, a).Elem().String(), reflect.NewAt(t, b).Elem().String())
		}
	case reflect.Bool:
		return func(a, b unsafe.Pointer) int {
			x, y := reflect.NewAt(t, a).Elem().Bool(), reflect.NewAt(t, b).Elem().Bool()
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return nil
}

func hasEmbedded(t reflect.Type) bool {
	for i := range t.NumField() {
		if t.Field(i).Anonymous {
			return true
		}
	}
	return false
}

// embeddedRef walks embedded fields depth-first looking for one of index
// want. Embedded pointers are followed when non-nil.
func embeddedRef(t reflect.Type, src Ref, want index.Index) (Ref, bool) {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		p := unsafe.Add(src.ptr, f.Offset)
		ft := f.Type
		if ft.Kind() == reflect.Pointer && index.Of(ft) != want {
			p = *(*unsafe.Pointer)(p)
			if p == nil {
				continue
			}
			ft = ft.Elem()
		}
		if index.Of(ft) == want {
			return MakeRef(want, src.Qualifier(), p), true
		}
		if ft.Kind() == reflect.Struct {
			if r, ok := embeddedRef(ft, MakeRef(index.Of(ft), src.Qualifier(), p), want); ok {
				return r, true
			}
		}
	}
	return Ref{}, false
}

func partQualifier(q index.Qualifier) index.Qualifier {
	if q == index.Const {
		return index.Const
	}
	return index.Mutable
}

func structAttr(tbl *Table, self Ref, name string, out *Target) Stat {
	f, ok := tbl.Type.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
	if !ok || !f.IsExported() || len(f.Index) != 1 {
		return out.SetImpossible(errors.NotFound(errors.PhaseDump, "attribute", name).Error())
	}
	ref := MakeRef(index.Of(f.Type), partQualifier(self.Qualifier()), unsafe.Add(self.ptr, f.Offset))
	if !tbl.registry().Dump(out, ref, true) {
		return out.SetWrongReturn(ref.Tagged())
	}
	return out.Stat()
}

func sequenceElement(tbl *Table, self Ref, i int, out *Target) Stat {
	v := self.Reflect()
	n := v.Len()
	if i < 0 || i >= n {
		err := errors.OutOfBounds(errors.PhaseDump, nil, i, n)
		return out.SetImpossible(err.Error())
	}

	if tbl.Type.Kind() == reflect.String {
		b := v.String()[i]
		if !tbl.registry().Dump(out, RefOf(&b, index.Rvalue), false) {
			return out.SetWrongReturn(index.Tag(index.For[byte](), index.Value))
		}
		return out.Stat()
	}

	elem := v.Index(i)
	ref := MakeRef(index.Of(elem.Type()), partQualifier(self.Qualifier()), elem.Addr().UnsafePointer())
	if !tbl.registry().Dump(out, ref, true) {
		return out.SetWrongReturn(ref.Tagged())
	}
	return out.Stat()
}

type byteser interface {
	Bytes() []byte
}

// loadString builds a string from []byte, byte arrays, or anything with a
// Bytes method.
func loadString(t reflect.Type, src Ref, dst unsafe.Pointer) bool {
	v := src.Reflect()
	if !v.IsValid() {
		return false
	}
	var text string
	switch {
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		text = string(v.Bytes())
	case v.Kind() == reflect.Array && v.Type().Elem().Kind() == reflect.Uint8:
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		text = string(b)
	case v.Kind() == reflect.String:
		text = v.String()
	default:
		bs, ok := v.Addr().Interface().(byteser)
		if !ok {
			return false
		}
		text = string(bs.Bytes())
	}
	reflect.NewAt(t, dst).Elem().SetString(text)
	return true
}
