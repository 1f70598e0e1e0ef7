package weave

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/hedi"
)

// chain is one interval of a coalesced fiber together with the vertices
// placed on it, keyed by fiber parameter.
type chain struct {
	f     *fiber.Fiber
	index int
	axis  fiber.Axis
	slots map[float64]hedi.VertexID
}

func (c *chain) interval() *fiber.Interval {
	return c.f.Interval(c.index)
}

// Build weaves the stored fibers into the graph. On success the stored
// fibers are replaced by their coalesced form, one fiber per line, and
// every linked interval is marked InWeave and records its crossings. A
// crossing's Partner indexes YFibers for an X interval and XFibers for a
// Y interval.
//
// On failure the graph is discarded, the weave enters StateFailed and the
// error is returned; a *BuildInconsistency names the offending position.
func (w *Weave) Build() error {
	if w.state != StateEmpty && w.state != StateFibersAdded {
		return fmt.Errorf("weave: build in state %s: %w", w.state, ErrState)
	}
	if err := w.build(); err != nil {
		w.g.Reset()
		w.components = nil
		w.seq = 0
		w.state = StateFailed
		return err
	}
	w.state = StateBuilt
	return nil
}

func (w *Weave) build() error {
	xs, err := coalesce(w.xfibers, fiber.AxisX)
	if err != nil {
		return err
	}
	ys, err := coalesce(w.yfibers, fiber.AxisY)
	if err != nil {
		return err
	}

	xchains := chainsOf(xs, fiber.AxisX)
	ychains := chainsOf(ys, fiber.AxisY)

	if err := w.placeCrossings(xs, ys, xchains, ychains); err != nil {
		return err
	}
	for _, cs := range [][][]*chain{xchains, ychains} {
		for _, fc := range cs {
			for _, c := range fc {
				w.placeBounds(c)
			}
		}
	}
	for _, cs := range [][][]*chain{xchains, ychains} {
		for _, fc := range cs {
			for _, c := range fc {
				w.link(c)
			}
		}
	}
	if err := w.wireNext(); err != nil {
		return err
	}
	if err := w.assignFaces(); err != nil {
		return err
	}
	w.markComponents()
	w.xfibers, w.yfibers = xs, ys
	return nil
}

type lineKey struct{ a, b float64 }

// coalesce merges canonical fibers lying on the same line so that a
// crossing shared by several of them becomes a single vertex. Intervals
// of zero length are dropped: they bound no edge.
func coalesce(fibers []*fiber.Fiber, axis fiber.Axis) ([]*fiber.Fiber, error) {
	var order []lineKey
	groups := make(map[lineKey][]*fiber.Fiber)
	for _, f := range fibers {
		k := lineKey{f.P1.Y, f.P1.Z}
		if axis == fiber.AxisY {
			k = lineKey{f.P1.X, f.P1.Z}
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	out := make([]*fiber.Fiber, 0, len(order))
	for _, k := range order {
		merged, err := fiber.Merge(groups[k]...)
		if err != nil {
			return nil, fmt.Errorf("weave: coalesce %s fibers: %w", axis, err)
		}
		f := fiber.New(merged.P1, merged.P2)
		f.Dir = merged.Dir
		for _, iv := range merged.Intervals() {
			if iv.Length() <= geom.Tolerance {
				continue
			}
			iv.ResetCrossings()
			if err := f.AddInterval(iv); err != nil {
				return nil, fmt.Errorf("weave: coalesce %s fibers: %w", axis, err)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func chainsOf(fibers []*fiber.Fiber, axis fiber.Axis) [][]*chain {
	out := make([][]*chain, len(fibers))
	for i, f := range fibers {
		out[i] = make([]*chain, f.NumIntervals())
		for n := range out[i] {
			out[i][n] = &chain{f: f, index: n, axis: axis, slots: make(map[float64]hedi.VertexID)}
		}
	}
	return out
}

// covering returns the index of the interval of f covering t, or -1.
// Intervals are disjoint after coalescing so at most one matches.
func covering(f *fiber.Fiber, t float64) int {
	for n := 0; n < f.NumIntervals(); n++ {
		if f.Interval(n).Covers(t) {
			return n
		}
	}
	return -1
}

func (w *Weave) addVertex(p geom.Point, kind VertexKind) hedi.VertexID {
	v := w.g.AddVertex(Vertex{Position: p, Kind: kind, Index: w.seq})
	w.seq++
	return v
}

// placeCrossings puts a vertex at every X/Y crossing covered by an interval
// of both fibers.
func (w *Weave) placeCrossings(xs, ys []*fiber.Fiber, xchains, ychains [][]*chain) error {
	for i, xf := range xs {
		for j, yf := range ys {
			x, y := yf.P1.X, xf.P1.Y
			tx, ty := x-xf.P1.X, y-yf.P1.Y
			n := covering(xf, tx)
			if n < 0 {
				continue
			}
			m := covering(yf, ty)
			if m < 0 {
				continue
			}
			zx, zy := xf.P1.Z, yf.P1.Z
			pos := geom.Point{X: x, Y: y, Z: math.Max(zx, zy)}
			if math.Abs(zx-zy) > HeightTolerance {
				return &BuildInconsistency{
					Position: pos,
					Reason:   fmt.Sprintf("x fiber at z=%g and y fiber at z=%g disagree", zx, zy),
				}
			}

			xc, yc := xchains[i][n], ychains[j][m]
			xiv, yiv := xc.interval(), yc.interval()
			v, ok := xc.slots[tx]
			if !ok {
				kind := Internal
				if xiv.IsBound(tx) || yiv.IsBound(ty) {
					kind = CL
				}
				v = w.addVertex(pos, kind)
				xc.slots[tx] = v
			}
			yc.slots[ty] = v
			xiv.AddCrossing(tx, fiber.IntervalID{Fiber: j, Index: m})
			yiv.AddCrossing(ty, fiber.IntervalID{Fiber: i, Index: n})
		}
	}
	return nil
}

// placeBounds makes sure both bounds of c carry a CL vertex and records
// the outward direction there.
func (w *Weave) placeBounds(c *chain) {
	iv := c.interval()
	for _, end := range []struct {
		t   float64
		out geom.Point
	}{
		{iv.Lower, c.f.Dir.Scale(-1)},
		{iv.Upper, c.f.Dir},
	} {
		v, ok := c.slots[end.t]
		if !ok {
			v = w.addVertex(c.f.Point(end.t), CL)
			c.slots[end.t] = v
		}
		p := w.g.Vertex(v)
		p.Outward = p.Outward.Add(end.out)
	}
}

// link turns the interval into a chain of twinned half-edges from its lower
// to its upper bound, splitting at every crossing vertex in order.
func (w *Weave) link(c *chain) {
	ts := make([]float64, 0, len(c.slots))
	for t := range c.slots {
		ts = append(ts, t)
	}
	sort.Float64s(ts)

	lo, hi := c.slots[ts[0]], c.slots[ts[len(ts)-1]]
	e := w.g.AddEdge(lo, hi, Edge{Axis: c.axis})
	w.g.SetTwin(e, w.g.AddEdge(hi, lo, Edge{Axis: c.axis}))
	for _, t := range ts[1 : len(ts)-1] {
		e = w.g.InsertVertexInEdge(c.slots[t], e)
	}
	c.interval().InWeave = true
}

type spoke struct {
	e     hedi.EdgeID
	angle float64
}

// angleOf returns the direction of p in [0, 2pi).
func angleOf(p geom.Point) float64 {
	a := math.Atan2(p.Y, p.X)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// spokes returns the out-edges of v ordered counter-clockwise from +x.
func (w *Weave) spokes(v hedi.VertexID) ([]spoke, error) {
	origin := w.g.Vertex(v).Position
	outs := w.g.OutEdges(v)
	sp := make([]spoke, len(outs))
	for i, e := range outs {
		d := w.g.Vertex(w.g.Target(e)).Position.Sub(origin)
		if d.XYNorm() == 0 {
			return nil, &BuildInconsistency{Position: origin, Reason: "zero-length edge"}
		}
		sp[i] = spoke{e: e, angle: angleOf(d)}
	}
	sort.Slice(sp, func(a, b int) bool { return sp[a].angle < sp[b].angle })
	for i := 1; i < len(sp); i++ {
		if sp[i].angle == sp[i-1].angle {
			return nil, &BuildInconsistency{Position: origin, Reason: "collinear edges cannot be ordered"}
		}
	}
	return sp, nil
}

// wireNext links, at every vertex, each incoming half-edge to the outgoing
// half-edge immediately clockwise of it, so every face lies to the left of
// its boundary.
func (w *Weave) wireNext() error {
	for _, v := range w.g.Vertices() {
		sp, err := w.spokes(v)
		if err != nil {
			return err
		}
		k := len(sp)
		for i := range sp {
			w.g.SetNext(w.g.Twin(sp[i].e), sp[(i-1+k)%k].e)
		}
	}
	return nil
}

// assignFaces creates one face per next-cycle.
func (w *Weave) assignFaces() error {
	done := make(map[hedi.EdgeID]bool, w.g.NumEdges())
	for _, e := range w.g.Edges() {
		if done[e] {
			continue
		}
		f := w.g.AddFace(Face{})
		w.g.SetFaceEdge(f, e)
		cur := e
		for {
			done[cur] = true
			w.g.SetFace(cur, f)
			cur = w.g.Next(cur)
			if cur == e {
				break
			}
			if done[cur] {
				pos := w.g.Vertex(w.g.Source(cur)).Position
				return &BuildInconsistency{Position: pos, Reason: "face cycle does not close"}
			}
		}
	}
	return nil
}

// markComponents groups vertices into connected components and marks the
// face of least signed area in each as its outer face.
func (w *Weave) markComponents() {
	verts := w.g.Vertices()
	parent := make(map[hedi.VertexID]hedi.VertexID, len(verts))
	var find func(hedi.VertexID) hedi.VertexID
	find = func(v hedi.VertexID) hedi.VertexID {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}
	for _, v := range verts {
		parent[v] = v
	}
	for _, e := range w.g.Edges() {
		a, b := find(w.g.Source(e)), find(w.g.Target(e))
		if a != b {
			parent[a] = b
		}
	}

	index := make(map[hedi.VertexID]int)
	w.components = nil
	for _, v := range verts {
		r := find(v)
		c, ok := index[r]
		if !ok {
			c = len(w.components)
			index[r] = c
			w.components = append(w.components, nil)
		}
		w.components[c] = append(w.components[c], v)
	}

	outer := make([]hedi.FaceID, len(w.components))
	least := make([]float64, len(w.components))
	for i := range outer {
		outer[i] = hedi.NoFace
	}
	for _, f := range w.g.Faces() {
		c := index[find(w.g.Source(w.g.FaceEdge(f)))]
		w.g.Face(f).Component = c
		a := w.faceLoop(f).Area()
		if outer[c] == hedi.NoFace || a < least[c] {
			outer[c], least[c] = f, a
		}
	}
	for _, f := range outer {
		if f != hedi.NoFace {
			w.g.Face(f).Outer = true
		}
	}
}

func (w *Weave) faceLoop(f hedi.FaceID) Loop {
	vs := w.g.FaceVertices(f)
	l := make(Loop, len(vs))
	for i, v := range vs {
		l[i] = w.g.Vertex(v).Position
	}
	return l
}
