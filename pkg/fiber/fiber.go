package fiber

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/waterline/pkg/geom"
)

// ErrEmptyInterval is returned when an interval that was never updated is
// offered where a non-empty one is required.
var ErrEmptyInterval = errors.New("fiber: empty interval")

// Axis is the coordinate axis a fiber runs along.
type Axis int

const (
	AxisNone Axis = iota // not axis-aligned in X or Y
	AxisX                // varies in x, constant y and z
	AxisY                // varies in y, constant x and z
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "none"
	}
}

// Fiber is a directed sampling line from P1 to P2. Dir is the unit vector
// (P2-P1)/|P2-P1|, so the parameter t measures distance from P1.
type Fiber struct {
	P1  geom.Point
	P2  geom.Point
	Dir geom.Point

	ints []Interval
}

// New returns a fiber from p1 to p2 with no intervals.
func New(p1, p2 geom.Point) *Fiber {
	return &Fiber{P1: p1, P2: p2, Dir: p2.Sub(p1).Normalize()}
}

// Axis classifies the fiber by which coordinates stay constant between P1
// and P2. The comparison is exact.
func (f *Fiber) Axis() Axis {
	switch {
	case f.P1.X != f.P2.X && f.P1.Y == f.P2.Y && f.P1.Z == f.P2.Z:
		return AxisX
	case f.P1.Y != f.P2.Y && f.P1.X == f.P2.X && f.P1.Z == f.P2.Z:
		return AxisY
	default:
		return AxisNone
	}
}

// Length returns |P2-P1|.
func (f *Fiber) Length() float64 {
	return f.P2.Sub(f.P1).Norm()
}

// AddInterval appends i. Overlapping intervals are not merged here; see
// Condense.
func (f *Fiber) AddInterval(i Interval) error {
	if i.IsEmpty() {
		return ErrEmptyInterval
	}
	f.ints = append(f.ints, i)
	return nil
}

// Intervals returns a copy of the fiber's intervals.
func (f *Fiber) Intervals() []Interval {
	out := make([]Interval, len(f.ints))
	copy(out, f.ints)
	return out
}

// NumIntervals returns the number of intervals on the fiber.
func (f *Fiber) NumIntervals() int {
	return len(f.ints)
}

// Interval returns a pointer to the n-th interval for in-place
// bookkeeping by the weave.
func (f *Fiber) Interval(n int) *Interval {
	return &f.ints[n]
}

// Contains reports whether the fiber already holds an interval with the
// same bounds as i, within geom.Tolerance.
func (f *Fiber) Contains(i Interval) bool {
	for n := range f.ints {
		fi := &f.ints[n]
		if geom.IsZero(i.Upper-fi.Upper) && geom.IsZero(i.Lower-fi.Lower) {
			return true
		}
	}
	return false
}

// Missing reports whether i overlaps none of the fiber's intervals.
func (f *Fiber) Missing(i Interval) bool {
	for n := range f.ints {
		if !i.Outside(&f.ints[n]) {
			return false
		}
	}
	return true
}

// Condense replaces the fiber's intervals with their condensed form.
func (f *Fiber) Condense() {
	f.ints = Condense(f.ints)
}

// TVal returns the parameter of p, which must already lie on the fiber.
func (f *Fiber) TVal(p geom.Point) float64 {
	return p.Sub(f.P1).Dot(f.Dir)
}

// Point returns the point at parameter t.
func (f *Fiber) Point(t float64) geom.Point {
	return f.P1.Add(f.Dir.Scale(t))
}

// Clone returns a deep copy of the fiber.
func (f *Fiber) Clone() *Fiber {
	c := &Fiber{P1: f.P1, P2: f.P2, Dir: f.Dir}
	c.ints = make([]Interval, len(f.ints))
	for n, iv := range f.ints {
		iv.crossings = append([]Crossing(nil), iv.crossings...)
		c.ints[n] = iv
	}
	return c
}

// Canonical returns a clone oriented along the positive direction of its
// axis, with Dir set to the exact unit axis vector. Intervals of a reversed
// fiber are re-parameterised so that they cover the same points.
func (f *Fiber) Canonical() *Fiber {
	c := f.Clone()
	reversed := false
	switch f.Axis() {
	case AxisX:
		reversed = f.P2.X < f.P1.X
		c.Dir = geom.Point{X: 1}
	case AxisY:
		reversed = f.P2.Y < f.P1.Y
		c.Dir = geom.Point{Y: 1}
	}
	if !reversed {
		return c
	}
	length := f.Length()
	c.P1, c.P2 = f.P2, f.P1
	for n := range c.ints {
		iv := &c.ints[n]
		iv.Lower, iv.Upper = length-iv.Upper, length-iv.Lower
		iv.LowerContact, iv.UpperContact = iv.UpperContact, iv.LowerContact
		for k := range iv.crossings {
			iv.crossings[k].T = length - iv.crossings[k].T
		}
	}
	return c
}

// SameLine reports whether f and g are canonical fibers lying on the same
// axis-aligned line, compared exactly.
func (f *Fiber) SameLine(g *Fiber) bool {
	a := f.Axis()
	if a == AxisNone || a != g.Axis() {
		return false
	}
	if a == AxisX {
		return f.P1.Y == g.P1.Y && f.P1.Z == g.P1.Z
	}
	return f.P1.X == g.P1.X && f.P1.Z == g.P1.Z
}

// Merge joins canonical fibers lying on one line into a single fiber
// spanning all of them, with condensed intervals.
func Merge(fibers ...*Fiber) (*Fiber, error) {
	if len(fibers) == 0 {
		return nil, errors.New("fiber: merge of no fibers")
	}
	first := fibers[0]
	p1, p2 := first.P1, first.P2
	for _, g := range fibers[1:] {
		if !first.SameLine(g) {
			return nil, fmt.Errorf("fiber: merge: %v-%v is not on the line of %v-%v", g.P1, g.P2, first.P1, first.P2)
		}
		if g.P1.Sub(p1).Dot(first.Dir) < 0 {
			p1 = g.P1
		}
		if g.P2.Sub(p2).Dot(first.Dir) > 0 {
			p2 = g.P2
		}
	}
	merged := &Fiber{P1: p1, P2: p2, Dir: first.Dir}
	for _, g := range fibers {
		offset := g.P1.Sub(p1).Dot(first.Dir)
		for _, iv := range g.ints {
			iv.Lower += offset
			iv.Upper += offset
			merged.ints = append(merged.ints, iv)
		}
	}
	merged.Condense()
	return merged, nil
}

func (f *Fiber) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fiber %v -> %v (%s)", f.P1, f.P2, f.Axis())
	for _, iv := range f.ints {
		sb.WriteString(" ")
		sb.WriteString(iv.String())
	}
	return sb.String()
}
