package erased

import (
	"fmt"
)

// Call invokes the Call slot of self's table. Every path through Call
// leaves t in exactly one outcome: missing slots are StatImpossible, panics
// are captured as StatException, and allocation failures become
// StatOutOfMemory.
func (r *Registry) Call(self Ref, args *ArgView, t *Target) (stat Stat) {
	if t.done {
		panic("erased: target reused")
	}
	if args == nil {
		args = &ArgView{}
	}
	tbl := r.Table(self.Index())
	if self.IsZero() || tbl == nil || tbl.Call == nil {
		return t.SetImpossible(fmt.Sprintf("%s is not callable", self.Name()))
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		t.abandon()
		if isAllocation(p) {
			stat = t.SetOutOfMemory()
		} else {
			stat = t.SetException(capture(p))
		}
		Logger().Debug("call raised", zapIndex(tbl.Index), zapStat(stat))
	}()

	stat = tbl.Call(self, args, t)
	if !t.done {
		if stat != StatNone {
			return t.SetImpossible(fmt.Sprintf("%s returned %s without writing its target", tbl.Name(), stat))
		}
		t.SetNone()
	}
	return t.stat
}

// Call invokes self through the default registry.
func Call(self Ref, args *ArgView, t *Target) Stat {
	return defaultRegistry.Call(self, args, t)
}

// Attr dumps the named attribute of self into t.
func (r *Registry) Attr(self Ref, name string, t *Target) Stat {
	tbl := r.Table(self.Index())
	if self.IsZero() || tbl == nil || tbl.Attr == nil {
		return t.SetImpossible(fmt.Sprintf("%s has no attributes", self.Name()))
	}
	return tbl.Attr(self, name, t)
}

// Element dumps element i of self into t.
func (r *Registry) Element(self Ref, i int, t *Target) Stat {
	tbl := r.Table(self.Index())
	if self.IsZero() || tbl == nil || tbl.Element == nil {
		return t.SetImpossible(fmt.Sprintf("%s has no elements", self.Name()))
	}
	return tbl.Element(self, i, t)
}
