package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wippyai/typebridge/adapter"
)

// Point is a non-scalar demo value; calls returning one hand out a handle.
type Point struct {
	X, Y float64
}

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Counter is exposed through its bound methods.
type Counter struct {
	n int64
}

func (c *Counter) Add(d int64) int64 {
	c.n += d
	return c.n
}

func (c *Counter) Value() int64 { return c.n }

func (c *Counter) Reset() { c.n = 0 }

// newDemoModule builds the module the command explores.
func newDemoModule() (*adapter.Module, error) {
	m := adapter.NewModule("demo")

	funcs := []struct {
		name string
		fn   any
		opts []adapter.Option
	}{
		{"add", func(a int, b float32) float32 { return float32(a) + b }, nil},
		{"greet", func(name string) string { return "hello, " + name }, nil},
		{"new-point", func(x, y float64) Point { return Point{X: x, Y: y} }, nil},
		{"point-len", func(p adapter.Const[Point]) float64 {
			v := p.Get()
			return math.Hypot(v.X, v.Y)
		}, nil},
		{"point-scale", func(p *Point, k float64) {
			p.X *= k
			p.Y *= k
		}, nil},
		{"sleep", func(ctx context.Context, ms int) error {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, []adapter.Option{adapter.Blocking()}},
		{"fail", func() error { return errors.New("demo failure") }, nil},
	}
	for _, f := range funcs {
		if err := m.Func(f.name, f.fn, f.opts...); err != nil {
			return nil, err
		}
	}
	if err := m.Host("counter-", &Counter{}); err != nil {
		return nil, err
	}
	if err := m.Value("version", version); err != nil {
		return nil, err
	}
	return m, nil
}
