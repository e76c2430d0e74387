package adapter

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/errors"
	"github.com/wippyai/typebridge/index"
)

// MethodSet dispatches named calls on a value to its exported methods.
type MethodSet struct {
	typ     reflect.Type
	methods map[string]*Callable
	names   []string
}

// Methods compiles the exported methods of T and registers a table for T
// whose Call slot dispatches on the name in tag 0. Methods are reachable by
// their Go name and its kebab-case form. Methods with value receivers
// accept const references; pointer-receiver methods need a mutable one.
//
// Methods must run before the default table for T is compiled.
func Methods[T any](opts ...Option) (*MethodSet, error) {
	t := reflect.TypeFor[T]()
	pt := reflect.PointerTo(t)
	ms := &MethodSet{typ: t, methods: make(map[string]*Callable)}

	for i := range pt.NumMethod() {
		m := pt.Method(i)
		if !m.IsExported() || isHook(m.Name) {
			continue
		}
		q := index.Mutable
		if _, ok := t.MethodByName(m.Name); ok {
			q = index.Const
		}
		recv := &receiver{typ: t, index: index.Of(t), q: q}
		c, err := newCallable(m.Func, recv, append([]Option{Named(t.String() + "." + m.Name)}, opts...))
		if err != nil {
			return nil, errors.Registration(t.String(), err, "method "+m.Name)
		}
		ms.methods[m.Name] = c
		if kebab := toKebabCase(m.Name); kebab != m.Name {
			ms.methods[kebab] = c
		}
		ms.names = append(ms.names, toKebabCase(m.Name))
	}
	sort.Strings(ms.names)

	settings := &Callable{reg: erased.Default()}
	for _, opt := range opts {
		opt(settings)
	}
	tbl := erased.Compile(t, erased.WithCall(ms.dispatch))
	if err := settings.reg.Register(tbl); err != nil {
		return nil, err
	}
	return ms, nil
}

// Names returns the kebab-case method names in sorted order.
func (ms *MethodSet) Names() []string { return ms.names }

// Method returns the callable for name.
func (ms *MethodSet) Method(name string) (*Callable, bool) {
	c, ok := ms.methods[name]
	return c, ok
}

func (ms *MethodSet) dispatch(self erased.Ref, args *erased.ArgView, t *erased.Target) erased.Stat {
	name, ok := args.Name()
	if !ok {
		return t.SetImpossible(fmt.Sprintf("%s: call requires a method name", ms.typ))
	}
	c, ok := ms.methods[name]
	if !ok {
		return t.SetImpossible(errors.NotFound(errors.PhaseCall, "method", name).Error())
	}
	return c.invoke(self, args.Shift(), t)
}

// hook methods belong to the erased table, not the callable surface.
func isHook(name string) bool {
	switch name {
	case "Init", "Destroy", "MoveFrom", "Clone", "Compare":
		return true
	}
	return false
}

// initialisms are split out of upper-case runs, longest match first.
var initialisms = []string{
	"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP",
	"HTTPS", "ID", "IO", "IP", "JSON", "RAM", "RPC", "SQL", "SSH", "TCP",
	"TLS", "TTL", "UDP", "UI", "UID", "UTF", "UUID", "URI", "URL", "VM",
	"WASI", "WASM", "WIT", "XML",
}

// toKebabCase converts PascalCase to kebab-case.
// Handles acronyms: GetHTTPURL -> get-http-url
func toKebabCase(s string) string {
	runes := []rune(s)
	var words []string

	for i := 0; i < len(runes); {
		j := i + 1
		if unicode.IsUpper(runes[i]) {
			for j < len(runes) && (unicode.IsUpper(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			// Last uppercase before lowercase starts next word
			if j-i > 1 && j < len(runes) && unicode.IsLower(runes[j]) {
				j--
			}
			if j-i > 1 {
				words = append(words, splitInitialisms(string(runes[i:j]))...)
				i = j
				continue
			}
		}
		for j < len(runes) && !unicode.IsUpper(runes[j]) {
			j++
		}
		words = append(words, string(runes[i:j]))
		i = j
	}
	return strings.ToLower(strings.Join(words, "-"))
}

// splitInitialisms breaks an upper-case run such as HTTPURL into the known
// initialisms it starts with. Digits stay with the word before them.
func splitInitialisms(run string) []string {
	var words []string
	for run != "" {
		n := initialismAt(run)
		if n == 0 {
			return append(words, run)
		}
		for n < len(run) && run[n] >= '0' && run[n] <= '9' {
			n++
		}
		words = append(words, run[:n])
		run = run[n:]
	}
	return words
}

func initialismAt(s string) int {
	n := 0
	for _, w := range initialisms {
		if len(w) > n && strings.HasPrefix(s, w) {
			n = len(w)
		}
	}
	return n
}
