// Package waterline runs the complete pipeline for one cutter height:
// lay out a grid of fibers around the part, push the cutter along each
// fiber, weave the sampled fibers into a planar graph and walk its faces
// for the cutter-location loops.
package waterline

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/chazu/waterline/pkg/cutter"
	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/kernel"
	"github.com/chazu/waterline/pkg/sample"
	"github.com/chazu/waterline/pkg/weave"
)

// Config controls fiber layout and sampling for one job.
type Config struct {
	// Z is the height of the cutter tip.
	Z float64 `json:"z"`
	// Sampling is the spacing between neighbouring fibers.
	Sampling float64 `json:"sampling"`
	// Step and Tolerance are passed through to the push-cutter.
	Step      float64 `json:"step"`
	Tolerance float64 `json:"tolerance"`
	// Workers limits concurrent fibers; zero means one per CPU.
	Workers int `json:"workers"`
	// MinLoopPoints drops waterlines with fewer points.
	MinLoopPoints int `json:"min_loop_points"`
}

// DefaultConfig returns the configuration used for jobs that set nothing.
func DefaultConfig() Config {
	sc := sample.DefaultConfig()
	return Config{
		Sampling:      1,
		Step:          sc.Step,
		Tolerance:     sc.Tolerance,
		MinLoopPoints: 3,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !(c.Sampling > 0) {
		return fmt.Errorf("waterline: sampling %g must be positive", c.Sampling)
	}
	if c.MinLoopPoints < 0 {
		return fmt.Errorf("waterline: negative min_loop_points %d", c.MinLoopPoints)
	}
	return nil
}

// Job is one waterline request: a part, a cutter and where to cut.
type Job struct {
	Name   string
	Solid  kernel.Solid
	Cutter cutter.Cutter
	Config Config
}

// Result holds the output of a successful Run.
type Result struct {
	// Loops are the waterlines, material on the right of each.
	Loops []weave.Loop
	// Faces are the bounded faces of the weave.
	Faces []weave.Loop
	Stats weave.Stats
	// Calls is the number of cutter positions tested.
	Calls int64
}

// Stage names a step of the pipeline.
type Stage string

const (
	StageSampling  Stage = "sampling"
	StageWeaving   Stage = "weaving"
	StageTraversal Stage = "traversal"
)

// StageError reports which pipeline stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("waterline: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Option adjusts a Run.
type Option func(*runner)

// WithLogger sends progress and validation warnings to l. A nil logger
// silences them.
func WithLogger(l *log.Logger) Option {
	return func(r *runner) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		r.log = l
	}
}

type runner struct {
	log *log.Logger
}

// Run computes the waterlines for job. Nothing is returned unless every
// stage succeeds.
func Run(ctx context.Context, job Job, opts ...Option) (*Result, error) {
	r := &runner{log: log.Default()}
	for _, o := range opts {
		o(r)
	}
	cfg := job.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if job.Solid == nil {
		return nil, fmt.Errorf("waterline: job %q has no solid", job.Name)
	}

	pc, err := sample.New(job.Solid, job.Cutter, sample.Config{
		Step:      cfg.Step,
		Tolerance: cfg.Tolerance,
		Workers:   cfg.Workers,
		ProbeRing: sample.DefaultConfig().ProbeRing,
	})
	if err != nil {
		return nil, &StageError{Stage: StageSampling, Err: err}
	}

	xs, ys := Fibers(job.Solid, job.Cutter, cfg)
	r.log.Printf("waterline: %s: sampling %d x-fibers and %d y-fibers at z=%g with %s",
		job.Name, len(xs), len(ys), cfg.Z, job.Cutter)
	all := append(append([]*fiber.Fiber(nil), xs...), ys...)
	if err := pc.Run(ctx, all); err != nil {
		return nil, &StageError{Stage: StageSampling, Err: err}
	}

	findings := weave.ValidateFibers(all)
	for _, f := range findings {
		if f.Severity == weave.SeverityWarning {
			r.log.Printf("waterline: %s: %v", job.Name, f)
		}
	}
	if weave.HasErrors(findings) {
		return nil, &StageError{Stage: StageWeaving, Err: firstError(findings)}
	}

	w := weave.New()
	for _, f := range all {
		if err := w.AddFiber(f); err != nil {
			return nil, &StageError{Stage: StageWeaving, Err: err}
		}
	}
	if err := w.Build(); err != nil {
		return nil, &StageError{Stage: StageWeaving, Err: err}
	}
	if err := w.FaceTraverse(); err != nil {
		return nil, &StageError{Stage: StageTraversal, Err: err}
	}

	res := &Result{Faces: w.Loops(), Stats: w.Stats(), Calls: pc.Calls()}
	for _, l := range w.Waterlines() {
		if len(l) >= cfg.MinLoopPoints {
			res.Loops = append(res.Loops, l)
		}
	}
	r.log.Printf("waterline: %s: %d loops from %d vertices, %d cutter positions",
		job.Name, len(res.Loops), res.Stats.Vertices, res.Calls)
	return res, nil
}

func firstError(findings []weave.ValidationError) error {
	for _, f := range findings {
		if f.Severity == weave.SeverityError {
			return f
		}
	}
	return nil
}

// Fibers lays out X and Y fibers at height cfg.Z covering the solid's
// bounding box grown by the cutter radius plus one fiber spacing. Fiber
// positions sit on half multiples of the spacing so that grids for
// different jobs line up.
func Fibers(s kernel.Solid, c cutter.Cutter, cfg Config) (xs, ys []*fiber.Fiber) {
	lo, hi := s.BoundingBox()
	pad := c.Radius() + cfg.Sampling
	minX, maxX := lo.X-pad, hi.X+pad
	minY, maxY := lo.Y-pad, hi.Y+pad

	for _, y := range positions(minY, maxY, cfg.Sampling) {
		xs = append(xs, fiber.New(geom.Point{X: minX, Y: y, Z: cfg.Z}, geom.Point{X: maxX, Y: y, Z: cfg.Z}))
	}
	for _, x := range positions(minX, maxX, cfg.Sampling) {
		ys = append(ys, fiber.New(geom.Point{X: x, Y: minY, Z: cfg.Z}, geom.Point{X: x, Y: maxY, Z: cfg.Z}))
	}
	return xs, ys
}

// positions returns (k+1/2)*step for every k with the value strictly
// inside (lo, hi).
func positions(lo, hi, step float64) []float64 {
	var out []float64
	for k := math.Floor(lo/step - 0.5); ; k++ {
		v := (k + 0.5) * step
		if v >= hi {
			break
		}
		if v > lo {
			out = append(out, v)
		}
	}
	return out
}
