package erased

import (
	"context"
	"sync"

	"github.com/wippyai/typebridge"
	"github.com/wippyai/typebridge/index"
)

// ArgView is the argument list of a call. Tags carry out-of-band values;
// tag 0, when it is a string, names the operation for named dispatch.
// Caller is the lock the caller holds, released by blocking callees.
type ArgView struct {
	Ctx    context.Context
	Caller sync.Locker
	Tags   []Ref
	Args   []Ref
}

// Args returns a view over refs with no tags.
func Args(refs ...Ref) *ArgView {
	return &ArgView{Args: refs}
}

// Named returns a view whose first tag is name.
func Named(name string, refs ...Ref) *ArgView {
	n := name
	return &ArgView{Tags: []Ref{RefOf(&n, index.Const)}, Args: refs}
}

func (a *ArgView) Len() int { return len(a.Args) }

// Context returns the call context, never nil.
func (a *ArgView) Context() context.Context {
	if a.Ctx == nil {
		return context.Background()
	}
	return a.Ctx
}

// Name returns the operation name carried in tag 0.
func (a *ArgView) Name() (string, bool) {
	if len(a.Tags) == 0 {
		return "", false
	}
	p, ok := a.Tags[0].ptrTo(index.For[string]())
	if !ok {
		return "", false
	}
	return *(*string)(p), true
}

// Shift returns a view with tag 0 removed, for forwarding a named call to
// the function it names.
func (a *ArgView) Shift() *ArgView {
	out := *a
	if len(out.Tags) > 0 {
		out.Tags = out.Tags[1:]
	}
	return &out
}

// Unlocked runs fn with the caller lock released.
func (a *ArgView) Unlocked(fn func()) {
	typebridge.Unlocked(a.Caller, fn)
}
