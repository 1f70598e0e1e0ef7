package weave

import (
	"fmt"
	"sort"

	"github.com/chazu/waterline/pkg/hedi"
)

// FaceTraverse walks every face of the built graph once. Each bounded face
// yields a Loop; the outer face of each component is skipped. Waterlines
// are collected in the same pass. Calling it again recomputes the same
// result.
func (w *Weave) FaceTraverse() error {
	switch w.state {
	case StateBuilt, StateTraversed:
	case StateFailed:
		return fmt.Errorf("weave: build failed: %w", ErrNotBuilt)
	default:
		return ErrNotBuilt
	}

	chosen, err := w.waterlineEdges()
	if err != nil {
		return err
	}

	w.loops, w.waterlines = nil, nil
	for _, f := range w.g.Faces() {
		if !w.g.Face(f).Outer {
			w.loops = append(w.loops, w.faceLoop(f))
		}
		var wl Loop
		for _, e := range w.g.FaceEdges(f) {
			if chosen[e] {
				wl = append(wl, w.g.Vertex(w.g.Source(e)).Position)
			}
		}
		if len(wl) > 0 {
			w.waterlines = append(w.waterlines, wl)
		}
	}
	w.state = StateTraversed
	return nil
}

// waterlineEdges picks, for every CL vertex, the out-edge whose left face
// contains the vertex's outward direction. That face is free of material,
// so walking it visits the CL vertex with material on the right.
func (w *Weave) waterlineEdges() (map[hedi.EdgeID]bool, error) {
	chosen := make(map[hedi.EdgeID]bool)
	for _, v := range w.g.Vertices() {
		p := w.g.Vertex(v)
		if p.Kind != CL || p.Outward.XYNorm() == 0 {
			continue
		}
		sp, err := w.spokes(v)
		if err != nil {
			return nil, err
		}
		theta := angleOf(p.Outward)
		// Largest spoke angle below theta; wraps to the last spoke.
		i := sort.Search(len(sp), func(k int) bool { return sp[k].angle >= theta }) - 1
		if i < 0 {
			i = len(sp) - 1
		}
		chosen[sp[i].e] = true
	}
	return chosen, nil
}
