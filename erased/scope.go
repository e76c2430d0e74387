package erased

import (
	"github.com/wippyai/typebridge/errors"
)

// Scope carries the state of one load or call: collected errors, the
// temporaries materialized along the way, and permission to move out of
// mutable references. Close destroys the temporaries in reverse order.
type Scope struct {
	// MoveFromMutable lets loads move out of Mutable references as if they
	// were Rvalues.
	MoveFromMutable bool

	reg   *Registry
	errs  []error
	temps []*Value
}

// NewScope returns a scope over r. A nil r uses the default registry.
func NewScope(r *Registry) *Scope {
	if r == nil {
		r = defaultRegistry
	}
	return &Scope{reg: r}
}

func (s *Scope) registry() *Registry {
	if s == nil || s.reg == nil {
		return defaultRegistry
	}
	return s.reg
}

// Registry returns the registry the scope resolves tables in.
func (s *Scope) Registry() *Registry { return s.registry() }

// Fail records err. A nil scope drops it.
func (s *Scope) Fail(err error) {
	if s == nil || err == nil {
		return
	}
	s.errs = append(s.errs, err)
}

// Errors returns the recorded errors in order.
func (s *Scope) Errors() []error {
	if s == nil {
		return nil
	}
	return s.errs
}

// Err joins the recorded errors, or returns nil when there are none.
func (s *Scope) Err() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.errs)
}

// Temporary default-constructs a value of tbl owned by the scope.
func (s *Scope) Temporary(tbl *Table) (*Value, error) {
	v := &Value{}
	if err := v.Construct(tbl, s.registry().Allocator()); err != nil {
		return nil, err
	}
	s.Keep(v)
	return v, nil
}

// Keep hands ownership of v to the scope.
func (s *Scope) Keep(v *Value) {
	if s != nil {
		s.temps = append(s.temps, v)
	}
}

// Close destroys every temporary. The scope can be reused afterwards.
func (s *Scope) Close() {
	if s == nil {
		return
	}
	for i := len(s.temps) - 1; i >= 0; i-- {
		s.temps[i].Reset()
	}
	s.temps = nil
}
