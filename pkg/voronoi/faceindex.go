// Package voronoi holds the point-classification diagram built on the
// half-edge engine and FaceIndex, the bucket grid that finds the face whose
// generator is closest to a query point.
package voronoi

import (
	"fmt"
	"math"

	"github.com/chazu/waterline/pkg/hedi"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type entry struct {
	face hedi.FaceID
	gen  orb.Point
}

// FaceIndex buckets faces by generator on a regular nbins x nbins grid
// over the square [-far, far]^2. Generators outside the square go to the
// nearest border bucket.
type FaceIndex struct {
	far   float64
	nbins int
	width float64
	bound orb.Bound
	bins  [][]entry
	all   []entry
}

// NewFaceIndex returns an empty index. far must be positive and nbins at
// least 1.
func NewFaceIndex(far float64, nbins int) (*FaceIndex, error) {
	if !(far > 0) {
		return nil, fmt.Errorf("voronoi: far radius must be positive, got %g", far)
	}
	if nbins < 1 {
		return nil, fmt.Errorf("voronoi: need at least one bin, got %d", nbins)
	}
	return &FaceIndex{
		far:   far,
		nbins: nbins,
		width: 2 * far / float64(nbins),
		bound: orb.Bound{Min: orb.Point{-far, -far}, Max: orb.Point{far, far}},
		bins:  make([][]entry, nbins*nbins),
	}, nil
}

// Bound returns the square the grid covers.
func (fi *FaceIndex) Bound() orb.Bound { return fi.bound }

// Len returns the number of indexed faces.
func (fi *FaceIndex) Len() int { return len(fi.all) }

func (fi *FaceIndex) cell(c float64) int {
	i := int(math.Floor((c + fi.far) / fi.width))
	if i < 0 {
		return 0
	}
	if i >= fi.nbins {
		return fi.nbins - 1
	}
	return i
}

// Add indexes face f under its generator point.
func (fi *FaceIndex) Add(f hedi.FaceID, gen orb.Point) {
	e := entry{face: f, gen: gen}
	i, j := fi.cell(gen.X()), fi.cell(gen.Y())
	fi.bins[j*fi.nbins+i] = append(fi.bins[j*fi.nbins+i], e)
	fi.all = append(fi.all, e)
}

// closer orders candidates by distance, then by face id.
func closer(d float64, f hedi.FaceID, bestD float64, best hedi.FaceID) bool {
	return best == hedi.NoFace || d < bestD || (d == bestD && f < best)
}

// FindClosestBrute scans every generator. Ties go to the lowest face id.
// ok is false when the index is empty.
func (fi *FaceIndex) FindClosestBrute(p orb.Point) (f hedi.FaceID, ok bool) {
	best, bestD := hedi.NoFace, 0.0
	for _, e := range fi.all {
		if d := planar.DistanceSquared(p, e.gen); closer(d, e.face, bestD, best) {
			best, bestD = e.face, d
		}
	}
	return best, best != hedi.NoFace
}

// FindClosest returns the face whose generator is nearest p, with the same
// tie rule as FindClosestBrute. It searches rings of buckets around p's
// bucket and stops once no unsearched ring can hold anything closer.
// Points outside the grid are answered by brute force.
func (fi *FaceIndex) FindClosest(p orb.Point) (f hedi.FaceID, ok bool) {
	if !fi.bound.Contains(p) {
		return fi.FindClosestBrute(p)
	}
	qi, qj := fi.cell(p.X()), fi.cell(p.Y())
	best, bestD := hedi.NoFace, 0.0
	for k := 0; k <= fi.nbins; k++ {
		if best != hedi.NoFace && k > 1 {
			// Every generator in ring k is at least (k-1) bin widths away.
			lb := float64(k-1) * fi.width
			if lb*lb > bestD*(1+1e-9) {
				break
			}
		}
		fi.ring(qi, qj, k, func(e entry) {
			if d := planar.DistanceSquared(p, e.gen); closer(d, e.face, bestD, best) {
				best, bestD = e.face, d
			}
		})
	}
	return best, best != hedi.NoFace
}

// ring calls visit for every entry in the buckets at Chebyshev distance k
// from bucket (qi, qj).
func (fi *FaceIndex) ring(qi, qj, k int, visit func(entry)) {
	for j := qj - k; j <= qj+k; j++ {
		if j < 0 || j >= fi.nbins {
			continue
		}
		step := 1
		if j != qj-k && j != qj+k {
			step = 2 * k
		}
		for i := qi - k; i <= qi+k; i += step {
			if i < 0 || i >= fi.nbins {
				continue
			}
			for _, e := range fi.bins[j*fi.nbins+i] {
				visit(e)
			}
		}
	}
}
