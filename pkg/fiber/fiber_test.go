package fiber

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chazu/waterline/pkg/geom"
)

// ---------------------------------------------------------------------------
// Interval
// ---------------------------------------------------------------------------

func TestIntervalUpdate(t *testing.T) {
	var iv Interval
	if !iv.IsEmpty() {
		t.Fatal("zero interval should be empty")
	}

	a := geom.NewContactPoint(geom.Point{X: 1}, geom.ContactFacet)
	iv.Update(1, a)
	if iv.IsEmpty() {
		t.Fatal("interval should not be empty after update")
	}
	if iv.Lower != 1 || iv.Upper != 1 {
		t.Fatalf("got %v, want [1, 1]", iv)
	}
	if iv.LowerContact != a || iv.UpperContact != a {
		t.Error("first update should set both contacts")
	}

	b := geom.NewContactPoint(geom.Point{X: 3}, geom.ContactEdge)
	iv.Update(3, b)
	c := geom.NewContactPoint(geom.Point{X: -2}, geom.ContactVertex)
	iv.Update(-2, c)
	iv.Update(0.5, geom.NewContactPoint(geom.Point{}, geom.ContactFacet))

	if iv.Lower != -2 || iv.Upper != 3 {
		t.Fatalf("got %v, want [-2, 3]", iv)
	}
	if iv.UpperContact != b {
		t.Errorf("upper contact = %v, want %v", iv.UpperContact, b)
	}
	if iv.LowerContact != c {
		t.Errorf("lower contact = %v, want %v", iv.LowerContact, c)
	}
}

func TestIntervalContainment(t *testing.T) {
	outer := NewInterval(0, 10)
	tests := []struct {
		name        string
		iv          Interval
		wantInside  bool
		wantOutside bool
	}{
		{"strictly inside", NewInterval(2, 5), true, false},
		{"sharing lower bound", NewInterval(0, 5), false, false},
		{"overlapping", NewInterval(8, 12), false, false},
		{"touching upper", NewInterval(10, 11), false, false},
		{"beyond upper", NewInterval(11, 12), false, true},
		{"below lower", NewInterval(-3, -1), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.iv.Inside(&outer); got != tt.wantInside {
				t.Errorf("Inside = %v, want %v", got, tt.wantInside)
			}
			if got := tt.iv.Outside(&outer); got != tt.wantOutside {
				t.Errorf("Outside = %v, want %v", got, tt.wantOutside)
			}
		})
	}
}

func TestIntervalCovers(t *testing.T) {
	iv := NewInterval(1, 2)
	for _, tc := range []struct {
		t    float64
		want bool
	}{{0.5, false}, {1, true}, {1.5, true}, {2, true}, {2.5, false}} {
		if got := iv.Covers(tc.t); got != tc.want {
			t.Errorf("Covers(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
	if !iv.IsBound(1) || !iv.IsBound(2) || iv.IsBound(1.5) {
		t.Error("IsBound misreports bounds")
	}
}

func TestIntervalCrossings(t *testing.T) {
	iv := NewInterval(0, 4)
	iv.AddCrossing(3, IntervalID{Fiber: 1})
	iv.AddCrossing(1, IntervalID{Fiber: 2})
	iv.AddCrossing(3, IntervalID{Fiber: 5})

	cs := iv.Crossings()
	if len(cs) != 2 {
		t.Fatalf("got %d crossings, want 2 (duplicate t ignored)", len(cs))
	}
	if cs[0].T != 1 || cs[1].T != 3 {
		t.Errorf("crossings not ordered by t: %v", cs)
	}
	if cs[1].Partner.Fiber != 1 {
		t.Errorf("first crossing at t=3 should win, got partner %v", cs[1].Partner)
	}
}

// ---------------------------------------------------------------------------
// Fiber
// ---------------------------------------------------------------------------

func TestAddIntervalRejectsEmpty(t *testing.T) {
	f := New(geom.Point{}, geom.Point{X: 10})
	if err := f.AddInterval(Interval{}); !errors.Is(err, ErrEmptyInterval) {
		t.Fatalf("expected ErrEmptyInterval, got %v", err)
	}
	if f.NumIntervals() != 0 {
		t.Fatalf("empty interval was stored")
	}
	if err := f.AddInterval(NewInterval(1, 2)); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}
	if err := f.AddInterval(NewInterval(1.5, 3)); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}
	if f.NumIntervals() != 2 {
		t.Errorf("intervals must not merge on insertion, got %d", f.NumIntervals())
	}
}

func TestAxis(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 geom.Point
		want   Axis
	}{
		{"x fiber", geom.Point{X: 0, Y: 1, Z: 2}, geom.Point{X: 5, Y: 1, Z: 2}, AxisX},
		{"reversed x fiber", geom.Point{X: 5, Y: 1, Z: 2}, geom.Point{X: 0, Y: 1, Z: 2}, AxisX},
		{"y fiber", geom.Point{X: 3, Y: 0, Z: 2}, geom.Point{X: 3, Y: 7, Z: 2}, AxisY},
		{"diagonal", geom.Point{X: 0, Y: 0, Z: 0}, geom.Point{X: 1, Y: 1, Z: 0}, AxisNone},
		{"z fiber", geom.Point{X: 0, Y: 0, Z: 0}, geom.Point{X: 0, Y: 0, Z: 1}, AxisNone},
		{"degenerate", geom.Point{X: 1, Y: 1, Z: 1}, geom.Point{X: 1, Y: 1, Z: 1}, AxisNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.p1, tt.p2).Axis(); got != tt.want {
				t.Errorf("Axis() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTValPointRoundTrip(t *testing.T) {
	f := New(geom.Point{X: -2, Y: 1}, geom.Point{X: 8, Y: 1})
	for _, tv := range []float64{0, 0.25, 3, 10} {
		p := f.Point(tv)
		if got := f.TVal(p); got != tv {
			t.Errorf("TVal(Point(%v)) = %v", tv, got)
		}
	}
	if p := f.Point(2); !p.Equal(geom.Point{X: 0, Y: 1}) {
		t.Errorf("Point(2) = %v", p)
	}
}

func TestContainsAndMissing(t *testing.T) {
	f := New(geom.Point{}, geom.Point{X: 10})
	_ = f.AddInterval(NewInterval(1, 3))
	_ = f.AddInterval(NewInterval(6, 8))

	if !f.Contains(NewInterval(1, 3)) {
		t.Error("Contains should find an identical interval")
	}
	if f.Contains(NewInterval(1, 4)) {
		t.Error("Contains should not match a different interval")
	}
	if !f.Missing(NewInterval(4, 5)) {
		t.Error("interval in the gap should be missing")
	}
	if f.Missing(NewInterval(2.5, 6.5)) {
		t.Error("interval overlapping both should not be missing")
	}
}

func TestCanonicalReversesIntervals(t *testing.T) {
	f := New(geom.Point{X: 10, Y: 2}, geom.Point{X: 0, Y: 2})
	lo := geom.NewContactPoint(geom.Point{X: 9}, geom.ContactEdge)
	hi := geom.NewContactPoint(geom.Point{X: 7}, geom.ContactFacet)
	var iv Interval
	iv.Update(1, lo)
	iv.Update(3, hi)
	_ = f.AddInterval(iv)

	c := f.Canonical()
	if !c.P1.Equal(geom.Point{X: 0, Y: 2}) || !c.Dir.Equal(geom.Point{X: 1}) {
		t.Fatalf("canonical fiber not along +x: %v", c)
	}
	got := c.Interval(0)
	if got.Lower != 7 || got.Upper != 9 {
		t.Fatalf("got %v, want [7, 9]", got)
	}
	if got.LowerContact != hi || got.UpperContact != lo {
		t.Error("contacts not swapped with the bounds")
	}
	// Same points in space.
	if !c.Point(got.Lower).Equal(f.Point(3)) {
		t.Errorf("lower bound moved: %v vs %v", c.Point(got.Lower), f.Point(3))
	}
	if f.Interval(0).Lower != 1 {
		t.Error("Canonical must not mutate the receiver")
	}
}

func TestMerge(t *testing.T) {
	a := New(geom.Point{X: 0}, geom.Point{X: 4})
	_ = a.AddInterval(NewInterval(1, 2))
	b := New(geom.Point{X: -2}, geom.Point{X: 3})
	_ = b.AddInterval(NewInterval(0, 1))   // x in [-2, -1]
	_ = b.AddInterval(NewInterval(3.5, 4)) // x in [1.5, 2], overlaps a

	m, err := Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if m.P1.X != -2 || m.P2.X != 4 {
		t.Fatalf("merged span = %v..%v", m.P1, m.P2)
	}
	ints := m.Intervals()
	if len(ints) != 2 {
		t.Fatalf("got %d intervals, want 2: %v", len(ints), m)
	}
	if ints[0].Lower != 0 || ints[0].Upper != 1 || ints[1].Lower != 3 || ints[1].Upper != 4 {
		t.Errorf("unexpected merged intervals %v", m)
	}

	c := New(geom.Point{Y: 1}, geom.Point{X: 4, Y: 1})
	if _, err := Merge(a, c); err == nil {
		t.Error("expected error merging fibers on different lines")
	}
}

// ---------------------------------------------------------------------------
// Condense
// ---------------------------------------------------------------------------

func TestCondenseKeepsExtremeContacts(t *testing.T) {
	cpA := geom.NewContactPoint(geom.Point{X: 1}, geom.ContactVertex)
	cpB := geom.NewContactPoint(geom.Point{X: 5}, geom.ContactEdge)
	var a, b Interval
	a.Update(1, cpA)
	a.Update(3, geom.NewContactPoint(geom.Point{X: 3}, geom.ContactFacet))
	b.Update(2, geom.NewContactPoint(geom.Point{X: 2}, geom.ContactFacet))
	b.Update(5, cpB)

	out := Condense([]Interval{b, a, {}})
	if len(out) != 1 {
		t.Fatalf("got %d intervals, want 1", len(out))
	}
	if out[0].Lower != 1 || out[0].Upper != 5 {
		t.Fatalf("got %v, want [1, 5]", out[0])
	}
	if out[0].LowerContact != cpA || out[0].UpperContact != cpB {
		t.Error("merged interval lost the extreme contact points")
	}
}

func TestCondenseTouchingIntervalsMerge(t *testing.T) {
	out := Condense([]Interval{NewInterval(0, 1), NewInterval(1, 2), NewInterval(3, 4)})
	if len(out) != 2 {
		t.Fatalf("got %v, want two intervals", out)
	}
}

// covered reports whether t lies in any of the intervals.
func covered(ints []Interval, t float64) bool {
	for i := range ints {
		if ints[i].Covers(t) {
			return true
		}
	}
	return false
}

func TestCondenseIdempotentAndUnionPreserving(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(8)
		ints := make([]Interval, 0, n)
		for k := 0; k < n; k++ {
			lo := float64(rng.Intn(40)) / 2
			ints = append(ints, NewInterval(lo, lo+float64(rng.Intn(10))/2))
		}

		once := Condense(ints)
		twice := Condense(once)
		if len(once) != len(twice) {
			t.Fatalf("trial %d: condense not idempotent: %v vs %v", trial, once, twice)
		}
		for k := range once {
			if once[k].Lower != twice[k].Lower || once[k].Upper != twice[k].Upper {
				t.Fatalf("trial %d: condense not idempotent: %v vs %v", trial, once, twice)
			}
		}
		for k := 1; k < len(once); k++ {
			if once[k-1].Upper >= once[k].Lower {
				t.Fatalf("trial %d: result not disjoint: %v", trial, once)
			}
		}
		for s := -1.0; s <= 26; s += 0.25 {
			if covered(ints, s) != covered(once, s) {
				t.Fatalf("trial %d: union differs at t=%v: %v vs %v", trial, s, ints, once)
			}
		}
	}
}
