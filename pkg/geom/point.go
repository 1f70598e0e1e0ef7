// Package geom defines the small value types shared by the fiber, weave and
// sampling packages: points in 3-D space and cutter contact points.
package geom

import (
	"fmt"
	"math"
)

// Tolerance is the absolute tolerance used when two parameter values are
// compared for "practically equal".
const Tolerance = 1e-7

// Point is an immutable 3-D point or vector.
type Point struct {
	X, Y, Z float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Scale returns s * p.
func (p Point) Scale(s float64) Point {
	return Point{s * p.X, s * p.Y, s * p.Z}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Cross returns the cross product p x q.
func (p Point) Cross(q Point) Point {
	return Point{
		p.Y*q.Z - p.Z*q.Y,
		p.Z*q.X - p.X*q.Z,
		p.X*q.Y - p.Y*q.X,
	}
}

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// XYNorm returns the length of p projected onto the XY plane.
func (p Point) XYNorm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Normalize returns p scaled to unit length. The zero vector is returned
// unchanged.
func (p Point) Normalize() Point {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Scale(1 / n)
}

// Equal reports whether p and q are exactly equal. There is no tolerance:
// callers rely on this only for axis-aligned fiber coordinates.
func (p Point) Equal(q Point) bool {
	return p.X == q.X && p.Y == q.Y && p.Z == q.Z
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// IsZero reports whether |v| <= Tolerance.
func IsZero(v float64) bool {
	return math.Abs(v) <= Tolerance
}
