package wasmhost

import (
	"github.com/tetratelabs/wazero/api"
)

// guestFunc is a host import the guest re-exports under the same name.
type guestFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

// guestImports lists every function h exports, drop included.
func guestImports(h *Host) []guestFunc {
	fns := make([]guestFunc, 0, len(h.Signatures())+1)
	for _, sig := range h.Signatures() {
		params, results := sig.Flat()
		fns = append(fns, guestFunc{name: sig.Name, params: params, results: results})
	}
	return append(fns, guestFunc{name: DropFunc, params: []api.ValueType{api.ValueTypeI32}})
}

// guestModule assembles a core wasm module that imports each of fns from
// host and exports a function of the same name forwarding its parameters
// to the import. When data is non-nil the module also exports one page of
// memory named "memory" holding data at offset 0.
func guestModule(host string, fns []guestFunc, data []byte) []byte {
	n := len(fns)

	var types, imports, funcs, exports, code []byte
	types = appendU32(types, uint32(n))
	imports = appendU32(imports, uint32(n))
	funcs = appendU32(funcs, uint32(n))
	for i, fn := range fns {
		types = append(types, 0x60)
		types = appendValueTypes(types, fn.params)
		types = appendValueTypes(types, fn.results)

		imports = appendName(imports, host)
		imports = appendName(imports, fn.name)
		imports = append(imports, 0x00)
		imports = appendU32(imports, uint32(i))

		funcs = appendU32(funcs, uint32(i))
	}

	exportCount := n
	if data != nil {
		exportCount++
	}
	exports = appendU32(exports, uint32(exportCount))
	for i, fn := range fns {
		exports = appendName(exports, fn.name)
		exports = append(exports, 0x00)
		exports = appendU32(exports, uint32(n+i))
	}
	if data != nil {
		exports = appendName(exports, "memory")
		exports = append(exports, 0x02, 0x00)
	}

	code = appendU32(code, uint32(n))
	for i, fn := range fns {
		body := []byte{0x00} // no locals
		for p := range fn.params {
			body = append(body, 0x20) // local.get
			body = appendU32(body, uint32(p))
		}
		body = append(body, 0x10) // call
		body = appendU32(body, uint32(i))
		body = append(body, 0x0b)
		code = appendU32(code, uint32(len(body)))
		code = append(code, body...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = appendSection(out, 1, types)
	out = appendSection(out, 2, imports)
	out = appendSection(out, 3, funcs)
	if data != nil {
		out = appendSection(out, 5, []byte{0x01, 0x00, 0x01})
	}
	out = appendSection(out, 7, exports)
	out = appendSection(out, 10, code)
	if data != nil {
		seg := []byte{0x01, 0x00, 0x41, 0x00, 0x0b} // one active segment at i32.const 0
		seg = appendU32(seg, uint32(len(data)))
		seg = append(seg, data...)
		out = appendSection(out, 11, seg)
	}
	return out
}

func appendSection(b []byte, id byte, contents []byte) []byte {
	b = append(b, id)
	b = appendU32(b, uint32(len(contents)))
	return append(b, contents...)
}

func appendValueTypes(b []byte, vts []api.ValueType) []byte {
	b = appendU32(b, uint32(len(vts)))
	for _, vt := range vts {
		b = append(b, byte(vt))
	}
	return b
}

func appendName(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}

// appendU32 appends v as unsigned LEB128.
func appendU32(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}