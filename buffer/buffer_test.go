package buffer

import (
	"testing"
	"unsafe"

	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/index"
)

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExport(t *testing.T) {
	floats := []float32{1, 2, 3}
	grid := [2][3]int32{{1, 2, 3}, {4, 5, 6}}
	rows := [][2]float64{{1, 2}, {3, 4}, {5, 6}}
	text := "abc"

	tests := []struct {
		name     string
		src      erased.Ref
		format   string
		shape    []int
		strides  []int
		readOnly bool
	}{
		{"slice", erased.RefOf(&floats, index.Mutable), "f", []int{3}, []int{4}, false},
		{"nested array", erased.RefOf(&grid, index.Mutable), "i", []int{2, 3}, []int{12, 4}, false},
		{"slice of arrays", erased.RefOf(&rows, index.Const), "d", []int{3, 2}, []int{16, 8}, true},
		{"string", erased.RefOf(&text, index.Mutable), "B", []int{3}, []int{1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := erased.NewScope(nil)
			defer s.Close()
			v, ok := Export(tt.src, s)
			if !ok {
				t.Fatalf("Export failed: %v", s.Err())
			}
			if v.Format != tt.format {
				t.Errorf("Format = %q, want %q", v.Format, tt.format)
			}
			if !equalInts(v.Shape, tt.shape) {
				t.Errorf("Shape = %v, want %v", v.Shape, tt.shape)
			}
			if !equalInts(v.Strides, tt.strides) {
				t.Errorf("Strides = %v, want %v", v.Strides, tt.strides)
			}
			if v.ReadOnly != tt.readOnly {
				t.Errorf("ReadOnly = %v, want %v", v.ReadOnly, tt.readOnly)
			}
			if !v.Contiguous() {
				t.Error("exported view not contiguous")
			}
		})
	}
}

func TestExport_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		src  func() erased.Ref
	}{
		{"strings", func() erased.Ref { xs := []string{"a"}; return erased.RefOf(&xs, index.Const) }},
		{"ragged", func() erased.Ref { xs := [][]int{{1}}; return erased.RefOf(&xs, index.Const) }},
		{"scalar", func() erased.Ref { n := 1; return erased.RefOf(&n, index.Const) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := erased.NewScope(nil)
			defer s.Close()
			if _, ok := Export(tt.src(), s); ok {
				t.Fatal("Export succeeded")
			}
		})
	}
}

func TestSlice_Aliases(t *testing.T) {
	grid := [2][2]float64{{1, 2}, {3, 4}}
	s := erased.NewScope(nil)
	v, ok := Export(erased.RefOf(&grid, index.Mutable), s)
	if !ok {
		t.Fatal(s.Err())
	}

	flat, ok := Writable[float64](v)
	if !ok || len(flat) != 4 {
		t.Fatalf("Writable = %v, %v", flat, ok)
	}
	flat[3] = 40
	if grid[1][1] != 40 {
		t.Fatal("slice does not alias source")
	}

	if _, ok := Slice[float32](v); ok {
		t.Fatal("Slice with wrong element type succeeded")
	}
	if len(v.Bytes()) != 32 {
		t.Fatalf("Bytes() len = %d", len(v.Bytes()))
	}
}

func TestSlice_ReadOnly(t *testing.T) {
	xs := []int16{1, 2}
	s := erased.NewScope(nil)
	v, _ := Export(erased.RefOf(&xs, index.Const), s)
	if _, ok := Writable[int16](v); ok {
		t.Fatal("Writable on read-only view succeeded")
	}
	got, ok := Slice[int16](v)
	if !ok || got[1] != 2 {
		t.Fatalf("Slice = %v, %v", got, ok)
	}
}

type matrix struct {
	cells [6]float32
	cols  int
}

func (m *matrix) BufferView() View {
	return View{
		Data:     unsafe.Pointer(&m.cells[0]),
		Elem:     index.For[float32](),
		ItemSize: 4,
		Format:   "f",
		Shape:    []int{len(m.cells) / m.cols, m.cols},
		Strides:  []int{m.cols * 4, 4},
	}
}

func TestExport_Exporter(t *testing.T) {
	m := matrix{cols: 3}
	s := erased.NewScope(nil)
	v, ok := Export(erased.RefOf(&m, index.Const), s)
	if !ok {
		t.Fatal(s.Err())
	}
	if v.NDim() != 2 || v.Len() != 6 || !v.ReadOnly {
		t.Fatalf("view = %+v", v)
	}
}

func TestDump_AsView(t *testing.T) {
	xs := []uint8{9, 8, 7}
	target := erased.NewTarget(index.For[View](), erased.ShapeValue)
	defer target.Release()
	if !erased.Dump(target, erased.RefOf(&xs, index.Mutable), false) {
		t.Fatal("Dump into View target failed")
	}
	v := target.Interface().(View)
	got, ok := Slice[uint8](v)
	if !ok || got[2] != 7 {
		t.Fatalf("Slice = %v, %v", got, ok)
	}
}
