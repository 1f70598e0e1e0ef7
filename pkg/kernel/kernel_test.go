package kernel

import (
	"math"
	"testing"

	"github.com/chazu/waterline/pkg/geom"
)

func TestFuncSolid(t *testing.T) {
	ball := Func{
		F:   func(p geom.Point) float64 { return p.Norm() - 1 },
		Min: geom.Point{X: -1, Y: -1, Z: -1},
		Max: geom.Point{X: 1, Y: 1, Z: 1},
	}
	var s Solid = ball

	tests := []struct {
		name   string
		p      geom.Point
		inside bool
	}{
		{"centre", geom.Point{}, true},
		{"near surface", geom.Point{X: 0.99}, true},
		{"on surface", geom.Point{Y: 1}, false},
		{"outside", geom.Point{X: 1, Y: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inside(s, tt.p); got != tt.inside {
				t.Errorf("Inside(%v) = %v, want %v", tt.p, got, tt.inside)
			}
		})
	}

	if d := s.Evaluate(geom.Point{X: 3}); math.Abs(d-2) > 1e-12 {
		t.Errorf("Evaluate = %g, want 2", d)
	}
	min, max := s.BoundingBox()
	if min.X != -1 || max.Z != 1 {
		t.Errorf("BoundingBox = %v, %v", min, max)
	}
}
