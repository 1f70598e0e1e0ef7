// Package sample fills fibers with intervals by pushing a cutter along them
// against a solid. Fibers are independent, so they are sampled in
// parallel.
package sample

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/chazu/waterline/pkg/cutter"
	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/kernel"
	"golang.org/x/sync/errgroup"
)

// Config controls the push-cutter.
type Config struct {
	// Step is the marching distance between samples along a fiber.
	Step float64 `json:"step"`
	// Tolerance is the bisection tolerance on interval bounds.
	Tolerance float64 `json:"tolerance"`
	// Workers limits concurrent fibers; zero means runtime.NumCPU().
	Workers int `json:"workers"`
	// ProbeRing is the number of probes around each cutter ring.
	ProbeRing int `json:"probe_ring"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Step:      0.25,
		Tolerance: 1e-4,
		ProbeRing: 16,
	}
}

// PushCutter samples fibers against a solid with one cutter. It is safe
// for concurrent use.
type PushCutter struct {
	solid  kernel.Solid
	cutter cutter.Cutter
	cfg    Config
	probes []cutter.Probe
	calls  atomic.Int64
}

// New validates the cutter and configuration and returns a PushCutter.
func New(s kernel.Solid, c cutter.Cutter, cfg Config) (*PushCutter, error) {
	if s == nil {
		return nil, fmt.Errorf("sample: nil solid")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	if !(cfg.Step > 0) {
		return nil, fmt.Errorf("sample: step %g must be positive", cfg.Step)
	}
	if !(cfg.Tolerance > 0) || cfg.Tolerance > cfg.Step {
		return nil, fmt.Errorf("sample: tolerance %g must be in (0, step]", cfg.Tolerance)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("sample: negative worker count %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &PushCutter{solid: s, cutter: c, cfg: cfg, probes: c.Probes(cfg.ProbeRing)}, nil
}

// Calls returns how many cutter positions have been tested.
func (pc *PushCutter) Calls() int64 {
	return pc.calls.Load()
}

// Interferes reports whether the cutter with its tip at tip overlaps the
// solid, and the contact point of the first probe that does.
func (pc *PushCutter) Interferes(tip geom.Point) (bool, geom.ContactPoint) {
	pc.calls.Add(1)
	for _, p := range pc.probes {
		c := tip.Add(p.Offset)
		if pc.solid.Evaluate(c) < p.Radius {
			return true, geom.NewContactPoint(c, p.Kind)
		}
	}
	return false, geom.ContactPoint{}
}

// Run samples every fiber, Workers at a time. The first error cancels the
// remaining fibers and is returned.
func (pc *PushCutter) Run(ctx context.Context, fibers []*fiber.Fiber) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pc.cfg.Workers)
	for _, f := range fibers {
		g.Go(func() error {
			return pc.Fiber(ctx, f)
		})
	}
	return g.Wait()
}

// Fiber marches the cutter along f at Step and records every run of
// interfering positions as an interval, with bounds refined by bisection.
func (pc *PushCutter) Fiber(ctx context.Context, f *fiber.Fiber) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	length := f.Length()
	if length == 0 {
		return fmt.Errorf("sample: fiber %v -> %v has zero length", f.P1, f.P2)
	}
	n := int(math.Ceil(length / pc.cfg.Step))
	tAt := func(i int) float64 { return length * float64(i) / float64(n) }

	var (
		iv      fiber.Interval
		inside  bool
		prevT   float64
		prevHit geom.ContactPoint
	)
	for i := 0; i <= n; i++ {
		t := tAt(i)
		hit, cc := pc.Interferes(f.Point(t))
		switch {
		case hit && !inside:
			lo, lc := t, cc
			if i > 0 {
				lo, lc = pc.bisect(f, prevT, t, cc)
			}
			iv = fiber.Interval{}
			iv.Update(lo, lc)
		case !hit && inside:
			up, uc := pc.bisect(f, t, prevT, prevHit)
			iv.Update(up, uc)
			if err := f.AddInterval(iv); err != nil {
				return err
			}
		}
		inside, prevT, prevHit = hit, t, cc
	}
	if inside {
		iv.Update(length, prevHit)
		if err := f.AddInterval(iv); err != nil {
			return err
		}
	}
	return nil
}

// bisect narrows the boundary between out (no interference) and in
// (interference) to Tolerance and returns the interfering side. cc is the
// contact found at in.
func (pc *PushCutter) bisect(f *fiber.Fiber, out, in float64, cc geom.ContactPoint) (float64, geom.ContactPoint) {
	for math.Abs(in-out) > pc.cfg.Tolerance {
		mid := (in + out) / 2
		if hit, c := pc.Interferes(f.Point(mid)); hit {
			in, cc = mid, c
		} else {
			out = mid
		}
	}
	return in, cc
}
