package wasmhost

import (
	"reflect"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// Handle marks a parameter or result passed as a resource table handle.
type Handle struct{ wit.U32 }

// Signature is the WIT view of one host function.
type Signature struct {
	Name    string
	Params  []wit.Type
	Results []wit.Type
	params  []reflect.Type
	result  reflect.Type
}

// String renders the signature in WIT function syntax.
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString(": func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(TypeName(p))
	}
	b.WriteString(")")
	if len(s.Results) == 1 {
		b.WriteString(" -> ")
		b.WriteString(TypeName(s.Results[0]))
	}
	return b.String()
}

// Flat returns the core wasm parameter and result types.
func (s *Signature) Flat() (params, results []api.ValueType) {
	for _, p := range s.Params {
		params = append(params, Flatten(p)...)
	}
	for _, r := range s.Results {
		results = append(results, Flatten(r)...)
	}
	return params, results
}

// NewSignature describes a function taking params and returning result,
// which is nil for no result.
func NewSignature(name string, params []reflect.Type, result reflect.Type) *Signature {
	s := &Signature{Name: name, params: params, result: result}
	for _, p := range params {
		s.Params = append(s.Params, paramType(p))
	}
	if result != nil {
		s.Results = []wit.Type{resultType(result)}
	}
	return s
}

// scalarType maps Go kinds with a direct core representation.
func scalarType(t reflect.Type) (wit.Type, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return wit.Bool{}, true
	case reflect.Int8:
		return wit.S8{}, true
	case reflect.Uint8:
		return wit.U8{}, true
	case reflect.Int16:
		return wit.S16{}, true
	case reflect.Uint16:
		return wit.U16{}, true
	case reflect.Int32:
		return wit.S32{}, true
	case reflect.Uint32:
		return wit.U32{}, true
	case reflect.Int, reflect.Int64:
		return wit.S64{}, true
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return wit.U64{}, true
	case reflect.Float32:
		return wit.F32{}, true
	case reflect.Float64:
		return wit.F64{}, true
	}
	return nil, false
}

func paramType(t reflect.Type) wit.Type {
	if w, ok := scalarType(t); ok {
		return w
	}
	if t.Kind() == reflect.String {
		return wit.String{}
	}
	return Handle{}
}

// Strings cannot be written into guest memory, so string results are
// handles.
func resultType(t reflect.Type) wit.Type {
	if w, ok := scalarType(t); ok {
		return w
	}
	return Handle{}
}

// Flatten lowers a WIT type to core wasm value types.
func Flatten(t wit.Type) []api.ValueType {
	switch t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char, Handle:
		return []api.ValueType{api.ValueTypeI32}
	case wit.U64, wit.S64:
		return []api.ValueType{api.ValueTypeI64}
	case wit.F32:
		return []api.ValueType{api.ValueTypeF32}
	case wit.F64:
		return []api.ValueType{api.ValueTypeF64}
	case wit.String:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	}
	return nil
}

// TypeName returns the WIT spelling of t.
func TypeName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case Handle:
		return "handle"
	}
	return "unknown"
}
