// Package buffer exports numeric arrays and slices as flat buffer
// descriptors that foreign code can read without knowing Go types.
package buffer

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/index"
)

// View describes a strided block of scalars. Strides are in bytes and
// row-major for exported Go arrays.
type View struct {
	Data     unsafe.Pointer
	Elem     index.Index
	ItemSize uintptr
	Format   string
	Shape    []int
	Strides  []int
	ReadOnly bool
}

// Exporter is implemented by types that describe their own buffer.
type Exporter interface {
	BufferView() View
}

var viewTable = erased.CompileFor[View](erased.WithLoad(loadView))

func init() {
	erased.Default().MustRegister(viewTable)
}

// Export describes the referent of src as a View. Slices, arrays, nested
// arrays, strings and Exporter implementations are supported; the element
// type must be a numeric or bool scalar.
func Export(src erased.Ref, s *erased.Scope) (View, bool) {
	return erased.Load[View](src, s)
}

func loadView(src erased.Ref, dst unsafe.Pointer, _ *erased.Scope) bool {
	v, ok := describe(src)
	if !ok {
		return false
	}
	*(*View)(dst) = v
	return true
}

func describe(src erased.Ref) (View, bool) {
	rv := src.Reflect()
	if !rv.IsValid() {
		return View{}, false
	}
	readOnly := src.Qualifier() == index.Const

	if e, ok := rv.Addr().Interface().(Exporter); ok {
		v := e.BufferView()
		v.ReadOnly = v.ReadOnly || readOnly
		return v, true
	}

	t := rv.Type()
	p := src.Pointer()
	var shape []int

	if t.Kind() == reflect.String {
		str := rv.String()
		return newView(unsafe.Pointer(unsafe.StringData(str)), reflect.TypeFor[byte](), []int{len(str)}, true), true
	}
	if t.Kind() == reflect.Slice {
		shape = append(shape, rv.Len())
		p = rv.UnsafePointer()
		t = t.Elem()
	}
	for t.Kind() == reflect.Array {
		shape = append(shape, t.Len())
		t = t.Elem()
	}
	if len(shape) == 0 || format(t) == "" {
		return View{}, false
	}
	return newView(p, t, shape, readOnly), true
}

func newView(p unsafe.Pointer, elem reflect.Type, shape []int, readOnly bool) View {
	strides := make([]int, len(shape))
	stride := int(elem.Size())
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return View{
		Data:     p,
		Elem:     index.Of(elem),
		ItemSize: elem.Size(),
		Format:   format(elem),
		Shape:    shape,
		Strides:  strides,
		ReadOnly: readOnly,
	}
}

// format returns the struct-module style format code of a scalar kind.
func format(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "?"
	case reflect.Int8:
		return "b"
	case reflect.Uint8:
		return "B"
	case reflect.Int16:
		return "h"
	case reflect.Uint16:
		return "H"
	case reflect.Int32:
		return "i"
	case reflect.Uint32:
		return "I"
	case reflect.Int, reflect.Int64:
		return "q"
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return "Q"
	case reflect.Float32:
		return "f"
	case reflect.Float64:
		return "d"
	case reflect.Complex64:
		return "Zf"
	case reflect.Complex128:
		return "Zd"
	}
	return ""
}

// NDim returns the number of dimensions.
func (v View) NDim() int { return len(v.Shape) }

// Len returns the total number of elements.
func (v View) Len() int {
	if len(v.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range v.Shape {
		n *= d
	}
	return n
}

// Contiguous reports whether the elements are densely packed in row-major
// order.
func (v View) Contiguous() bool {
	stride := int(v.ItemSize)
	for i := len(v.Shape) - 1; i >= 0; i-- {
		if v.Strides[i] != stride {
			return false
		}
		stride *= v.Shape[i]
	}
	return true
}

// Bytes returns the underlying memory of a contiguous view.
func (v View) Bytes() []byte {
	n := v.Len() * int(v.ItemSize)
	if v.Data == nil || n == 0 || !v.Contiguous() {
		return nil
	}
	return unsafe.Slice((*byte)(v.Data), n)
}

// Slice returns the elements of a contiguous view as a []T aliasing the
// exported memory. It fails when T is not the element type. Callers must
// not write through the slice of a ReadOnly view.
func Slice[T any](v View) ([]T, bool) {
	if v.Elem != index.For[T]() || !v.Contiguous() {
		return nil, false
	}
	n := v.Len()
	if n == 0 || v.Data == nil {
		return []T{}, true
	}
	return unsafe.Slice((*T)(v.Data), n), true
}

// Writable is Slice restricted to views that permit writes.
func Writable[T any](v View) ([]T, bool) {
	if v.ReadOnly {
		return nil, false
	}
	return Slice[T](v)
}
