package waterline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/chazu/waterline/pkg/cutter"
	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/kernel"
	"github.com/chazu/waterline/pkg/kernel/sdfx"
)

func sphereJob(t *testing.T) Job {
	t.Helper()
	s, err := sdfx.New().Sphere(10)
	if err != nil {
		t.Fatalf("sphere: %v", err)
	}
	c, err := cutter.NewBall(4, 20)
	if err != nil {
		t.Fatalf("cutter: %v", err)
	}
	return Job{Name: "sphere", Solid: s, Cutter: c, Config: DefaultConfig()}
}

func quiet() Option { return WithLogger(nil) }

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func TestBallAroundSphere(t *testing.T) {
	job := sphereJob(t)
	res, err := Run(context.Background(), job, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(res.Loops))
	}

	// The ball centre rides 2 above the tip, so the tip stays sqrt(12^2-2^2)
	// from the sphere's axis.
	want := math.Sqrt(140)
	loop := res.Loops[0]
	for _, p := range loop {
		if r := p.XYNorm(); math.Abs(r-want) > 0.01 {
			t.Fatalf("point %v at radius %g, want %g", p, r, want)
		}
		if p.Z != 0 {
			t.Fatalf("point %v not at the cutting height", p)
		}
	}
	if loop.Area() >= 0 {
		t.Errorf("waterline area %g, want material on the right (clockwise)", loop.Area())
	}
	if a, disk := -loop.Area(), math.Pi*140; a < 0.9*disk || a > disk {
		t.Errorf("waterline encloses %g, want just under %g", a, disk)
	}
	if res.Stats.CLVertices != len(loop) {
		t.Errorf("%d cl vertices but the waterline has %d points", res.Stats.CLVertices, len(loop))
	}
	if len(res.Faces) == 0 || res.Calls == 0 {
		t.Errorf("missing faces or call count: %+v", res.Stats)
	}
}

func TestFlatCutterAroundBox(t *testing.T) {
	s, err := sdfx.New().Box(10, 10, 10)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	c, err := cutter.NewCylindrical(2, 20)
	if err != nil {
		t.Fatalf("cutter: %v", err)
	}
	res, err := Run(context.Background(), Job{Name: "box", Solid: s, Cutter: c, Config: DefaultConfig()}, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(res.Loops))
	}
	for _, p := range res.Loops[0] {
		d := math.Max(math.Abs(p.X), math.Abs(p.Y))
		if d < 5 || d > 6+1e-3 {
			t.Fatalf("point %v outside the offset band", p)
		}
	}
}

func TestAboveThePart(t *testing.T) {
	job := sphereJob(t)
	job.Config.Z = 20
	res, err := Run(context.Background(), job, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Loops) != 0 || res.Stats.Vertices != 0 {
		t.Errorf("cutter clear of the part produced %d loops, %d vertices", len(res.Loops), res.Stats.Vertices)
	}
}

func TestMinLoopPoints(t *testing.T) {
	job := sphereJob(t)
	job.Config.MinLoopPoints = 1 << 20
	res, err := Run(context.Background(), job, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Loops) != 0 {
		t.Errorf("short loops not dropped: %d left", len(res.Loops))
	}
	if res.Stats.Waterlines != 1 {
		t.Errorf("stats should still count the weave's waterlines, got %d", res.Stats.Waterlines)
	}
}

func TestLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Run(context.Background(), sphereJob(t), WithLogger(log.New(&buf, "", 0))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"sphere: sampling", "1 loops"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestCancelledRunFailsSampling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, sphereJob(t), quiet())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageSampling {
		t.Fatalf("expected sampling StageError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestBadCutterFailsSampling(t *testing.T) {
	job := sphereJob(t)
	job.Cutter = cutter.Cutter{Kind: cutter.Ball}
	_, err := Run(context.Background(), job, quiet())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageSampling {
		t.Fatalf("expected sampling StageError, got %v", err)
	}
}

func TestRejectsBadJob(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Job)
	}{
		{"zero sampling", func(j *Job) { j.Config.Sampling = 0 }},
		{"negative min points", func(j *Job) { j.Config.MinLoopPoints = -1 }},
		{"no solid", func(j *Job) { j.Solid = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := sphereJob(t)
			tt.mod(&job)
			if _, err := Run(context.Background(), job, quiet()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStageErrorFormat(t *testing.T) {
	err := &StageError{Stage: StageWeaving, Err: errors.New("boom")}
	if got := err.Error(); got != "waterline: weaving: boom" {
		t.Errorf("Error() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Fiber layout
// ---------------------------------------------------------------------------

func TestFibersCoverThePart(t *testing.T) {
	s := kernel.Func{
		F:   func(p geom.Point) float64 { return 1 },
		Min: geom.Point{X: -2, Y: -1},
		Max: geom.Point{X: 2, Y: 1},
	}
	c, _ := cutter.NewBall(2, 10)
	cfg := DefaultConfig()
	cfg.Z = 3
	xs, ys := Fibers(s, c, cfg)

	// Padding is radius 1 plus spacing 1.
	if len(xs) != 6 || len(ys) != 8 {
		t.Fatalf("got %d x-fibers and %d y-fibers, want 6 and 8", len(xs), len(ys))
	}
	if xs[0].P1.Y != -2.5 || ys[0].P1.X != -3.5 {
		t.Errorf("first fibers at y=%g x=%g", xs[0].P1.Y, ys[0].P1.X)
	}
	for _, f := range append(xs, ys...) {
		if f.P1.Z != 3 {
			t.Fatalf("fiber %v not at z=3", f)
		}
	}
	for _, f := range xs {
		if f.Axis() != fiber.AxisX || f.P1.X != -4 || f.P2.X != 4 {
			t.Fatalf("x-fiber %v does not span the padded box", f)
		}
	}
}

func TestPositions(t *testing.T) {
	tests := []struct {
		lo, hi, step float64
		want         []float64
	}{
		{-1, 1, 1, []float64{-0.5, 0.5}},
		{-0.5, 0.5, 1, nil},
		{0, 2, 0.5, []float64{0.25, 0.75, 1.25, 1.75}},
	}
	for _, tt := range tests {
		got := positions(tt.lo, tt.hi, tt.step)
		if len(got) != len(tt.want) {
			t.Errorf("positions(%g, %g, %g) = %v, want %v", tt.lo, tt.hi, tt.step, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("positions(%g, %g, %g) = %v, want %v", tt.lo, tt.hi, tt.step, got, tt.want)
				break
			}
		}
	}
}
