// Package cutter describes milling cutter shapes. A Cutter is a closed sum
// over four profiles selected by Kind; functions that depend on the shape
// switch on it.
package cutter

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/waterline/pkg/geom"
)

// Kind selects the cutter profile.
type Kind int

const (
	Cylindrical Kind = iota // flat end mill
	Ball                    // ball-nose end mill
	Bull                    // flat end mill with a corner radius (toroidal)
	Cone                    // conical tip, e.g. a V-bit
)

func (k Kind) String() string {
	switch k {
	case Cylindrical:
		return "cylindrical"
	case Ball:
		return "ball"
	case Bull:
		return "bull"
	case Cone:
		return "cone"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("cutter: invalid")

// Cutter is a rotationally symmetric milling cutter standing on its tip.
// CornerRadius applies to Bull cutters and Angle, the half-angle of the
// tip in radians, to Cone cutters.
type Cutter struct {
	Kind         Kind    `json:"kind"`
	Diameter     float64 `json:"diameter"`
	Length       float64 `json:"length"`
	CornerRadius float64 `json:"corner_radius,omitempty"`
	Angle        float64 `json:"angle,omitempty"`
}

// NewCylindrical returns a validated flat end mill.
func NewCylindrical(diameter, length float64) (Cutter, error) {
	c := Cutter{Kind: Cylindrical, Diameter: diameter, Length: length}
	return c, c.Validate()
}

// NewBall returns a validated ball-nose cutter.
func NewBall(diameter, length float64) (Cutter, error) {
	c := Cutter{Kind: Ball, Diameter: diameter, Length: length}
	return c, c.Validate()
}

// NewBull returns a validated toroidal cutter with the given corner radius.
func NewBull(diameter, cornerRadius, length float64) (Cutter, error) {
	c := Cutter{Kind: Bull, Diameter: diameter, CornerRadius: cornerRadius, Length: length}
	return c, c.Validate()
}

// NewCone returns a validated conical cutter with half-angle angle.
func NewCone(diameter, angle, length float64) (Cutter, error) {
	c := Cutter{Kind: Cone, Diameter: diameter, Angle: angle, Length: length}
	return c, c.Validate()
}

// Validate checks that the dimensions describe a real cutter.
func (c Cutter) Validate() error {
	if !(c.Diameter > 0) {
		return fmt.Errorf("%w: diameter %g must be positive", ErrInvalid, c.Diameter)
	}
	if !(c.Length > 0) {
		return fmt.Errorf("%w: length %g must be positive", ErrInvalid, c.Length)
	}
	switch c.Kind {
	case Cylindrical, Ball:
	case Bull:
		if !(c.CornerRadius > 0) || c.CornerRadius > c.Radius() {
			return fmt.Errorf("%w: corner radius %g must be in (0, %g]", ErrInvalid, c.CornerRadius, c.Radius())
		}
	case Cone:
		if !(c.Angle > 0) || c.Angle >= math.Pi/2 {
			return fmt.Errorf("%w: half-angle %g must be in (0, pi/2)", ErrInvalid, c.Angle)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalid, int(c.Kind))
	}
	return nil
}

// Radius returns half the diameter.
func (c Cutter) Radius() float64 {
	return c.Diameter / 2
}

// CenterHeight is the height above the tip of the centre of the curved
// part of the profile.
func (c Cutter) CenterHeight() float64 {
	switch c.Kind {
	case Ball:
		return c.Radius()
	case Bull:
		return c.CornerRadius
	case Cone:
		return c.coneHeight()
	default:
		return 0
	}
}

func (c Cutter) coneHeight() float64 {
	return c.Radius() / math.Tan(c.Angle)
}

// Height returns the height of the cutter surface above the tip at radial
// distance r. It is +Inf beyond the cutter radius.
func (c Cutter) Height(r float64) float64 {
	r = math.Abs(r)
	R := c.Radius()
	if r > R {
		return math.Inf(1)
	}
	switch c.Kind {
	case Ball:
		return R - math.Sqrt(R*R-r*r)
	case Bull:
		flat := R - c.CornerRadius
		if r <= flat {
			return 0
		}
		d := r - flat
		return c.CornerRadius - math.Sqrt(c.CornerRadius*c.CornerRadius-d*d)
	case Cone:
		return r / math.Tan(c.Angle)
	default:
		return 0
	}
}

// Width returns the radius of the cutter at height h above the tip.
func (c Cutter) Width(h float64) float64 {
	R := c.Radius()
	if h <= 0 {
		if c.Kind == Cylindrical {
			return R
		}
		if c.Kind == Bull {
			return R - c.CornerRadius
		}
		return 0
	}
	switch c.Kind {
	case Ball:
		if h >= R {
			return R
		}
		return math.Sqrt(R*R - (R-h)*(R-h))
	case Bull:
		rc := c.CornerRadius
		if h >= rc {
			return R
		}
		return R - rc + math.Sqrt(rc*rc-(rc-h)*(rc-h))
	case Cone:
		if h >= c.coneHeight() {
			return R
		}
		return h * math.Tan(c.Angle)
	default:
		return R
	}
}

// Offset returns the cutter grown by d in every direction. A cylindrical
// cutter grows into a bull cutter with corner radius d.
func (c Cutter) Offset(d float64) Cutter {
	o := c
	o.Diameter = c.Diameter + 2*d
	o.Length = c.Length + d
	switch c.Kind {
	case Cylindrical:
		if d > 0 {
			o.Kind = Bull
			o.CornerRadius = d
		}
	case Bull:
		o.CornerRadius = c.CornerRadius + d
	}
	return o
}

func (c Cutter) String() string {
	switch c.Kind {
	case Bull:
		return fmt.Sprintf("%s(d=%g, r=%g, l=%g)", c.Kind, c.Diameter, c.CornerRadius, c.Length)
	case Cone:
		return fmt.Sprintf("%s(d=%g, angle=%g, l=%g)", c.Kind, c.Diameter, c.Angle, c.Length)
	default:
		return fmt.Sprintf("%s(d=%g, l=%g)", c.Kind, c.Diameter, c.Length)
	}
}

// Probe is a ball inside the cutter, placed relative to the tip. The
// cutter interferes with a solid wherever the solid's signed distance at
// tip+Offset is below Radius. Kind labels the part of the cutter the
// probe stands for.
type Probe struct {
	Offset geom.Point
	Radius float64
	Kind   geom.ContactKind
}

// Probes returns balls covering the cutter's lower surface and shaft
// with n samples around each ring. A ball cutter is represented exactly
// by a single probe.
func (c Cutter) Probes(n int) []Probe {
	if n < 3 {
		n = 3
	}
	R := c.Radius()
	var ps []Probe
	ring := func(r, z, radius float64, kind geom.ContactKind) {
		if r == 0 {
			ps = append(ps, Probe{Offset: geom.Point{Z: z}, Radius: radius, Kind: kind})
			return
		}
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			ps = append(ps, Probe{
				Offset: geom.Point{X: r * math.Cos(a), Y: r * math.Sin(a), Z: z},
				Radius: radius,
				Kind:   kind,
			})
		}
	}

	switch c.Kind {
	case Ball:
		return []Probe{{Offset: geom.Point{Z: R}, Radius: R, Kind: geom.ContactFacet}}
	case Bull:
		rc := c.CornerRadius
		ring(R-rc, rc, rc, geom.ContactEdge)
		ring(0, 0, 0, geom.ContactVertex)
		if flat := R - rc; flat > 0 {
			ring(flat/2, 0, 0, geom.ContactFacet)
		}
	case Cone:
		h := c.coneHeight()
		ring(0, 0, 0, geom.ContactVertex)
		for k := 1; k <= 4; k++ {
			z := h * float64(k) / 4
			ring(c.Width(z), z, 0, geom.ContactEdge)
		}
	default:
		ring(0, 0, 0, geom.ContactVertex)
		ring(R/2, 0, 0, geom.ContactFacet)
		ring(R, 0, 0, geom.ContactEdge)
	}

	// Shaft above the profile, sampled every radius.
	top := c.CenterHeight()
	for z := top + R; z < c.Length; z += R {
		ring(R, z, 0, geom.ContactEdgeCylinder)
	}
	return ps
}
