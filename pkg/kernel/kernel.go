// Package kernel defines the solid-model interface the push-cutter samples.
// Implementations (sdfx) provide primitives and boolean operations behind
// it, so the sampling and pipeline code never see a backend type.
package kernel

import "github.com/chazu/waterline/pkg/geom"

// Solid is a closed region of space described by a signed distance.
type Solid interface {
	// Evaluate returns the signed distance from p to the surface:
	// negative inside, positive outside. Implementations may
	// underestimate the magnitude but must keep the sign.
	Evaluate(p geom.Point) float64

	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Point)
}

// Kernel builds solids. Primitives are centred on the origin; cylinders
// and cones stand along the z axis.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)
	Cone(height, r0, r1 float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
}

// Func adapts a distance function and fixed bounds to a Solid.
type Func struct {
	F        func(p geom.Point) float64
	Min, Max geom.Point
}

// Evaluate calls F.
func (f Func) Evaluate(p geom.Point) float64 { return f.F(p) }

// BoundingBox returns Min and Max.
func (f Func) BoundingBox() (min, max geom.Point) { return f.Min, f.Max }

// Inside reports whether p lies strictly inside s.
func Inside(s Solid, p geom.Point) bool {
	return s.Evaluate(p) < 0
}
