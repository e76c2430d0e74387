package erased

import (
	"encoding/binary"
	"hash/maphash"
	"math"
	"reflect"

	"github.com/wippyai/typebridge/index"
)

// hashValue feeds a comparable value into h such that values equal under ==
// produce the same bytes.
func hashValue(h *maphash.Hash, v reflect.Value) {
	var buf [8]byte
	putUint := func(u uint64) {
		binary.LittleEndian.PutUint64(buf[:], u)
		h.Write(buf[:])
	}
	putFloat := func(f float64) {
		if f == 0 {
			f = 0 // -0 == +0
		}
		putUint(math.Float64bits(f))
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		putUint(uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		putUint(v.Uint())
	case reflect.Float32, reflect.Float64:
		putFloat(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		putFloat(real(c))
		putFloat(imag(c))
	case reflect.String:
		h.WriteString(v.String())
	case reflect.Array:
		for i := range v.Len() {
			hashValue(h, v.Index(i))
		}
	case reflect.Struct:
		for i := range v.NumField() {
			hashValue(h, v.Field(i))
		}
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		putUint(uint64(v.Pointer()))
	case reflect.Interface:
		if v.IsNil() {
			putUint(0)
			return
		}
		e := v.Elem()
		putUint(uint64(index.Of(e.Type())))
		hashValue(h, e)
	}
}
