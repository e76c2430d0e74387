package layout

import (
	"reflect"
	"sync"
)

// InlineSize is the capacity of the inline buffer in bytes.
const InlineSize = 24

// InlineAlign is the alignment guaranteed by the inline buffer.
const InlineAlign = 8

// Kind is the storage discriminant of a type-erased value.
type Kind uint8

const (
	Trivial Kind = iota
	Relocatable
	Stack
	Heap
)

var kindNames = [...]string{"trivial", "relocatable", "stack", "heap"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Inline reports whether values of this kind live in the inline buffer.
func (k Kind) Inline() bool {
	return k != Heap
}

// Traits are the lifecycle properties that influence placement.
type Traits struct {
	// NotCopyable marks types that must never be duplicated.
	NotCopyable bool
	// HasMove marks types with a relocate hook.
	HasMove bool
	// HasDestroy marks types with a destroy hook.
	HasDestroy bool
}

// Info is the computed placement of a type.
type Info struct {
	Size        uintptr
	Align       uintptr
	Kind        Kind
	PointerFree bool
}

// Fits reports whether a value with this info can be placed into capacity bytes
// of InlineAlign-aligned storage.
func (i Info) Fits(capacity uintptr) bool {
	return i.PointerFree && i.Size <= capacity && i.Align <= InlineAlign
}

type cacheKey struct {
	t      reflect.Type
	traits Traits
}

// Calculator classifies types and caches the result.
type Calculator struct {
	cache sync.Map // cacheKey -> Info
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate returns the placement of t under the given traits.
func (c *Calculator) Calculate(t reflect.Type, traits Traits) Info {
	key := cacheKey{t: t, traits: traits}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(Info)
	}
	info := Classify(t, traits)
	c.cache.Store(key, info)
	return info
}

// Classify computes the placement of t without caching.
func Classify(t reflect.Type, traits Traits) Info {
	info := Info{
		Size:        t.Size(),
		Align:       uintptr(t.Align()),
		PointerFree: PointerFree(t),
	}

	if !info.Fits(InlineSize) {
		info.Kind = Heap
		return info
	}

	switch {
	case traits.HasMove || traits.HasDestroy:
		info.Kind = Stack
	case traits.NotCopyable:
		info.Kind = Relocatable
	default:
		info.Kind = Trivial
	}
	return info
}

// PointerFree reports whether t contains no memory the garbage collector must trace.
func PointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || PointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !PointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
