package erased

import (
	"unsafe"

	"github.com/wippyai/typebridge/internal/layout"
)

// storage is the placement area shared by Value and Target: an inline
// buffer for pointer-free values and a heap pointer for everything else.
// The inline words are never scanned by the garbage collector.
type storage struct {
	inline [layout.InlineSize / 8]uint64
	heap   unsafe.Pointer
}

func (s *storage) addr(kind layout.Kind) unsafe.Pointer {
	if kind == layout.Heap {
		return s.heap
	}
	return unsafe.Pointer(&s.inline)
}

func (s *storage) clear() {
	s.inline = [layout.InlineSize / 8]uint64{}
	s.heap = nil
}
