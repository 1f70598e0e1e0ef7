// Package fiber defines Fibers, the axis-aligned sampling lines pushed
// through a part by the push-cutter, and the Intervals of cutter contact
// recorded along them.
package fiber

import (
	"fmt"
	"sort"

	"github.com/chazu/waterline/pkg/geom"
)

// IntervalID names an interval by the index of its fiber within a weave
// and its index within that fiber.
type IntervalID struct {
	Fiber int
	Index int
}

// Crossing records that an orthogonal fiber's covered interval crosses
// this interval at parameter T.
type Crossing struct {
	T       float64
	Partner IntervalID
}

// Interval is a contiguous parameter range [Lower, Upper] along a Fiber
// where the cutter interferes with material. The contact points that
// produced each bound are kept alongside.
type Interval struct {
	Lower        float64
	Upper        float64
	LowerContact geom.ContactPoint
	UpperContact geom.ContactPoint

	// InWeave is set once the interval has been linked into a weave graph.
	InWeave bool

	set       bool
	crossings []Crossing
}

// NewInterval returns a non-empty interval [lower, upper] without contact
// information. lower and upper are swapped if given in the wrong order.
func NewInterval(lower, upper float64) Interval {
	if lower > upper {
		lower, upper = upper, lower
	}
	return Interval{Lower: lower, Upper: upper, set: true}
}

// Update widens the interval to include t. If t becomes a new bound, cc is
// stored as that bound's contact point. An empty interval collapses to
// [t, t] with cc at both ends.
func (i *Interval) Update(t float64, cc geom.ContactPoint) {
	if !i.set {
		i.Lower, i.Upper = t, t
		i.LowerContact, i.UpperContact = cc, cc
		i.set = true
		return
	}
	if t > i.Upper {
		i.Upper = t
		i.UpperContact = cc
	} else if t < i.Lower {
		i.Lower = t
		i.LowerContact = cc
	}
}

// IsEmpty reports whether the interval was never updated.
func (i *Interval) IsEmpty() bool {
	return !i.set
}

// Outside reports whether i and other do not overlap at all.
func (i *Interval) Outside(other *Interval) bool {
	return i.Lower > other.Upper || i.Upper < other.Lower
}

// Inside reports whether i lies strictly inside other.
func (i *Interval) Inside(other *Interval) bool {
	return i.Lower > other.Lower && i.Upper < other.Upper
}

// Covers reports whether t lies in [Lower, Upper], bounds included.
func (i *Interval) Covers(t float64) bool {
	p := Interval{Lower: t, Upper: t, set: true}
	return !p.Outside(i)
}

// IsBound reports whether t is exactly one of the interval bounds.
func (i *Interval) IsBound(t float64) bool {
	return t == i.Lower || t == i.Upper
}

// Length returns Upper - Lower.
func (i *Interval) Length() float64 {
	return i.Upper - i.Lower
}

// AddCrossing records a crossing with partner at parameter t. A second
// crossing at the same t is ignored.
func (i *Interval) AddCrossing(t float64, partner IntervalID) {
	for _, c := range i.crossings {
		if c.T == t {
			return
		}
	}
	i.crossings = append(i.crossings, Crossing{T: t, Partner: partner})
}

// Crossings returns the recorded crossings ordered by parameter.
func (i *Interval) Crossings() []Crossing {
	out := make([]Crossing, len(i.crossings))
	copy(out, i.crossings)
	sort.Slice(out, func(a, b int) bool { return out[a].T < out[b].T })
	return out
}

// ResetCrossings drops the crossing bookkeeping and the InWeave flag.
func (i *Interval) ResetCrossings() {
	i.crossings = nil
	i.InWeave = false
}

func (i Interval) String() string {
	if !i.set {
		return "[empty]"
	}
	return fmt.Sprintf("[%g, %g]", i.Lower, i.Upper)
}
