package voronoi

import (
	"math/rand"
	"testing"

	"github.com/chazu/waterline/pkg/hedi"
	"github.com/paulmach/orb"
)

func randomIndex(t *testing.T, rng *rand.Rand, far float64, nbins, n int) *FaceIndex {
	t.Helper()
	fi, err := NewFaceIndex(far, nbins)
	if err != nil {
		t.Fatalf("NewFaceIndex: %v", err)
	}
	for i := 0; i < n; i++ {
		fi.Add(hedi.FaceID(i), orb.Point{(rng.Float64()*2 - 1) * far, (rng.Float64()*2 - 1) * far})
	}
	return fi
}

func TestNewFaceIndexRejectsBadGrid(t *testing.T) {
	tests := []struct {
		name  string
		far   float64
		nbins int
	}{
		{"zero radius", 0, 10},
		{"negative radius", -1, 10},
		{"no bins", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFaceIndex(tt.far, tt.nbins); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFindClosestEmpty(t *testing.T) {
	fi, _ := NewFaceIndex(1, 4)
	if _, ok := fi.FindClosest(orb.Point{}); ok {
		t.Fatal("empty index should find nothing")
	}
	if _, ok := fi.FindClosestBrute(orb.Point{}); ok {
		t.Fatal("empty index should find nothing by brute force")
	}
}

func TestFindClosestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, tc := range []struct {
		nbins, n int
	}{
		{1, 10}, {4, 3}, {10, 50}, {25, 400}, {50, 20},
	} {
		const far = 10.0
		fi := randomIndex(t, rng, far, tc.nbins, tc.n)
		for q := 0; q < 500; q++ {
			p := orb.Point{(rng.Float64()*2 - 1) * far, (rng.Float64()*2 - 1) * far}
			got, _ := fi.FindClosest(p)
			want, _ := fi.FindClosestBrute(p)
			if got != want {
				t.Fatalf("nbins=%d n=%d: FindClosest(%v) = %d, brute force %d", tc.nbins, tc.n, p, got, want)
			}
		}
	}
}

func TestFindClosestOnBucketBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const far, nbins = 8.0, 8
	fi := randomIndex(t, rng, far, nbins, 60)
	width := 2 * far / nbins
	for i := 0; i <= nbins; i++ {
		for j := 0; j <= nbins; j++ {
			p := orb.Point{-far + float64(i)*width, -far + float64(j)*width}
			got, _ := fi.FindClosest(p)
			want, _ := fi.FindClosestBrute(p)
			if got != want {
				t.Fatalf("FindClosest(%v) = %d, brute force %d", p, got, want)
			}
		}
	}
}

func TestFindClosestTiesPreferLowestFace(t *testing.T) {
	fi, _ := NewFaceIndex(4, 4)
	// Two generators equidistant from the origin, in different buckets.
	fi.Add(7, orb.Point{1, 0})
	fi.Add(3, orb.Point{-1, 0})
	fi.Add(5, orb.Point{0, 1})
	for _, find := range []func(orb.Point) (hedi.FaceID, bool){fi.FindClosest, fi.FindClosestBrute} {
		if got, _ := find(orb.Point{}); got != 3 {
			t.Errorf("tie resolved to face %d, want 3", got)
		}
	}
}

func TestFindClosestOutsideGrid(t *testing.T) {
	fi, _ := NewFaceIndex(1, 4)
	fi.Add(0, orb.Point{0.5, 0.5})
	fi.Add(1, orb.Point{50, 0})
	if got, _ := fi.FindClosest(orb.Point{40, 0}); got != 1 {
		t.Errorf("query outside the grid: got face %d, want 1", got)
	}
	// A generator outside the grid is still found from inside.
	if got, _ := fi.FindClosest(orb.Point{1, -0.9}); got != 0 {
		t.Errorf("got face %d, want 0", got)
	}
	if fi.Len() != 2 {
		t.Errorf("Len = %d, want 2", fi.Len())
	}
}
