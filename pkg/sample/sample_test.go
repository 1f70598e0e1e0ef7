package sample

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/waterline/pkg/cutter"
	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/kernel"
)

func sphere(c geom.Point, r float64) kernel.Func {
	return kernel.Func{
		F:   func(p geom.Point) float64 { return p.Sub(c).Norm() - r },
		Min: c.Sub(geom.Point{X: r, Y: r, Z: r}),
		Max: c.Add(geom.Point{X: r, Y: r, Z: r}),
	}
}

// box is an exact distance function for an axis-aligned box with half
// extents h centred on the origin.
func box(h geom.Point) kernel.Func {
	return kernel.Func{
		F: func(p geom.Point) float64 {
			q := geom.Point{X: math.Abs(p.X) - h.X, Y: math.Abs(p.Y) - h.Y, Z: math.Abs(p.Z) - h.Z}
			out := geom.Point{X: math.Max(q.X, 0), Y: math.Max(q.Y, 0), Z: math.Max(q.Z, 0)}
			return out.Norm() + math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
		},
		Min: h.Scale(-1),
		Max: h,
	}
}

func newPushCutter(t *testing.T, s kernel.Solid, c cutter.Cutter, err error) *PushCutter {
	t.Helper()
	if err != nil {
		t.Fatalf("cutter: %v", err)
	}
	pc, err := New(s, c, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pc
}

func xFiber(y, x0, x1 float64) *fiber.Fiber {
	return fiber.New(geom.Point{X: x0, Y: y}, geom.Point{X: x1, Y: y})
}

func TestBallAgainstSphere(t *testing.T) {
	c, err := cutter.NewBall(4, 10)
	pc := newPushCutter(t, sphere(geom.Point{}, 10), c, err)

	f := xFiber(0, -20, 20)
	if err := pc.Fiber(context.Background(), f); err != nil {
		t.Fatalf("Fiber: %v", err)
	}
	ints := f.Intervals()
	if len(ints) != 1 {
		t.Fatalf("got %d intervals, want 1: %v", len(ints), f)
	}
	// Ball centre at height 2 touches the sphere at |x| = sqrt(140).
	want := math.Sqrt(140)
	lo, hi := f.Point(ints[0].Lower).X, f.Point(ints[0].Upper).X
	tol := DefaultConfig().Tolerance * 2
	if math.Abs(lo+want) > tol || math.Abs(hi-want) > tol {
		t.Errorf("interval spans x in [%g, %g], want +-%g", lo, hi, want)
	}
	if ints[0].LowerContact.Kind == geom.ContactNone {
		t.Error("interval bound has no contact point")
	}
	if pc.Calls() == 0 {
		t.Error("call counter not incremented")
	}
}

func TestFiberMissingPart(t *testing.T) {
	c, err := cutter.NewBall(4, 10)
	pc := newPushCutter(t, sphere(geom.Point{}, 10), c, err)
	f := xFiber(15, -20, 20)
	if err := pc.Fiber(context.Background(), f); err != nil {
		t.Fatalf("Fiber: %v", err)
	}
	if f.NumIntervals() != 0 {
		t.Errorf("fiber clear of the part got intervals: %v", f)
	}
}

func TestTwoIntervals(t *testing.T) {
	a, b := sphere(geom.Point{X: -10}, 3), sphere(geom.Point{X: 10}, 3)
	both := kernel.Func{
		F:   func(p geom.Point) float64 { return math.Min(a.F(p), b.F(p)) },
		Min: a.Min,
		Max: b.Max,
	}
	c, err := cutter.NewBall(2, 10)
	pc := newPushCutter(t, both, c, err)

	f := xFiber(0, -20, 20)
	if err := pc.Fiber(context.Background(), f); err != nil {
		t.Fatalf("Fiber: %v", err)
	}
	if n := f.NumIntervals(); n != 2 {
		t.Fatalf("got %d intervals, want 2: %v", n, f)
	}
	half := math.Sqrt(15)
	for i, centre := range []float64{-10, 10} {
		iv := f.Interval(i)
		mid := f.Point((iv.Lower + iv.Upper) / 2).X
		if math.Abs(mid-centre) > 1e-3 || math.Abs(iv.Length()-2*half) > 1e-3 {
			t.Errorf("interval %d = %v, want centred on %g with length %g", i, iv, centre, 2*half)
		}
	}
}

func TestFiberStartingInside(t *testing.T) {
	c, err := cutter.NewBall(4, 10)
	pc := newPushCutter(t, sphere(geom.Point{}, 10), c, err)
	f := xFiber(0, 0, 20)
	if err := pc.Fiber(context.Background(), f); err != nil {
		t.Fatalf("Fiber: %v", err)
	}
	if f.NumIntervals() != 1 || f.Interval(0).Lower != 0 {
		t.Fatalf("interval should start at the fiber start: %v", f)
	}
}

func TestCylindricalAgainstBox(t *testing.T) {
	c, err := cutter.NewCylindrical(4, 10)
	pc := newPushCutter(t, box(geom.Point{X: 5, Y: 5, Z: 5}), c, err)
	f := xFiber(0, -10, 10)
	if err := pc.Fiber(context.Background(), f); err != nil {
		t.Fatalf("Fiber: %v", err)
	}
	if f.NumIntervals() != 1 {
		t.Fatalf("got %d intervals, want 1", f.NumIntervals())
	}
	// The rim of the flat bottom reaches 2 past the tip on either side.
	lo, hi := f.Point(f.Interval(0).Lower).X, f.Point(f.Interval(0).Upper).X
	if math.Abs(lo+7) > 1e-3 || math.Abs(hi-7) > 1e-3 {
		t.Errorf("interval spans x in [%g, %g], want [-7, 7]", lo, hi)
	}
}

func TestRunParallel(t *testing.T) {
	c, err := cutter.NewBall(4, 10)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Workers = 4
	pc, err := New(sphere(geom.Point{}, 10), c, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var fibers []*fiber.Fiber
	for i := -10; i <= 10; i++ {
		fibers = append(fibers, xFiber(float64(i), -20, 20))
	}
	if err := pc.Run(context.Background(), fibers); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, f := range fibers {
		y := f.P1.Y
		if f.NumIntervals() != 1 {
			t.Fatalf("fiber at y=%g has %d intervals", y, f.NumIntervals())
		}
		want := math.Sqrt(140 - y*y)
		hi := f.Point(f.Interval(0).Upper).X
		if math.Abs(hi-want) > 2*cfg.Tolerance {
			t.Errorf("fiber at y=%g ends at %g, want %g", y, hi, want)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	c, err := cutter.NewBall(4, 10)
	pc := newPushCutter(t, sphere(geom.Point{}, 10), c, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fibers := []*fiber.Fiber{xFiber(0, -20, 20), xFiber(1, -20, 20)}
	if err := pc.Run(ctx, fibers); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if pc.Calls() != 0 {
		t.Errorf("cancelled run tested %d positions", pc.Calls())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	ball, _ := cutter.NewBall(4, 10)
	s := sphere(geom.Point{}, 1)
	tests := []struct {
		name string
		s    kernel.Solid
		c    cutter.Cutter
		mod  func(*Config)
	}{
		{"nil solid", nil, ball, func(*Config) {}},
		{"bad cutter", s, cutter.Cutter{Kind: cutter.Ball}, func(*Config) {}},
		{"zero step", s, ball, func(c *Config) { c.Step = 0 }},
		{"tolerance above step", s, ball, func(c *Config) { c.Tolerance = 1 }},
		{"negative workers", s, ball, func(c *Config) { c.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if _, err := New(tt.s, tt.c, cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
