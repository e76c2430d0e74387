package erased

import (
	"sync/atomic"
)

// live counts tracked and heapTracked objects that have been created and
// not yet destroyed.
var live atomic.Int64

type tracked struct {
	id int64
}

func newTracked(id int64) tracked {
	live.Add(1)
	return tracked{id: id}
}

func (t tracked) Clone() tracked {
	live.Add(1)
	return t
}

func (t *tracked) Destroy() {
	if t.id != 0 {
		live.Add(-1)
		t.id = 0
	}
}

type heapTracked struct {
	name string
	id   int64
}

func newHeapTracked(name string, id int64) heapTracked {
	live.Add(1)
	return heapTracked{name: name, id: id}
}

func (h heapTracked) Clone() heapTracked {
	live.Add(1)
	return h
}

func (h *heapTracked) Destroy() {
	if h.id != 0 {
		live.Add(-1)
		h.id = 0
	}
}

type locked struct {
	n int64
}

func (*locked) Lock()   {}
func (*locked) Unlock() {}

var moves atomic.Int64

type moveCounted struct {
	v int64
}

func (m *moveCounted) MoveFrom(src *moveCounted) {
	m.v = src.v
	moves.Add(1)
}

type version struct {
	major, minor int
}

func (v version) Compare(o version) int {
	if v.major != o.major {
		return v.major - o.major
	}
	return v.minor - o.minor
}

type base struct {
	ID int
}

type derived struct {
	base
	Name string
}

type payload struct {
	data []byte
}

func (p *payload) Bytes() []byte { return p.data }

type initialized struct {
	ready bool
}

func (i *initialized) Init() { i.ready = true }
