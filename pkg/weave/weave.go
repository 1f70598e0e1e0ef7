// Package weave assembles X and Y fibers into a planar half-edge graph and
// walks its faces to produce closed loops.
//
// A Weave moves through Empty, FibersAdded, Built and Traversed. Build
// intersects every X fiber with every Y fiber, places a vertex wherever
// both fibers are covered by an interval and links each interval into a
// chain of half-edges. FaceTraverse then reads the faces: Loops returns the
// boundary of every bounded face and Waterlines returns the cutter-location
// contours, with material on the right.
package weave

import (
	"fmt"
	"strings"

	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/hedi"
)

// HeightTolerance is the largest height difference tolerated between an X
// fiber and a Y fiber at a shared crossing.
const HeightTolerance = 1e-6

// VertexKind distinguishes cutter-location vertices from stitching ones.
type VertexKind int

const (
	// CL vertices sit exactly on an interval bound.
	CL VertexKind = iota
	// Internal vertices sit at a crossing strictly inside both intervals.
	Internal
)

func (k VertexKind) String() string {
	switch k {
	case CL:
		return "cl"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("VertexKind(%d)", int(k))
	}
}

// Vertex is the payload of a weave graph vertex.
type Vertex struct {
	Position geom.Point
	Kind     VertexKind
	// Index is the creation sequence number within this weave.
	Index uint64
	// Outward points away from the material at a CL vertex: the sum of the
	// fiber directions leaving the intervals it bounds.
	Outward geom.Point
}

// Edge is the payload of a weave half-edge.
type Edge struct {
	Axis fiber.Axis
}

// Face is the payload of a weave face.
type Face struct {
	// Outer marks the unbounded face of a connected component.
	Outer     bool
	Component int
}

// Graph is the half-edge diagram a weave builds.
type Graph = hedi.Diagram[Vertex, Edge, Face]

// Loop is one closed contour. The last point connects back to the first.
type Loop []geom.Point

// Area returns the signed area of the loop projected onto the XY plane,
// positive for counter-clockwise loops.
func (l Loop) Area() float64 {
	var a float64
	for i := range l {
		p, q := l[i], l[(i+1)%len(l)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// State is the lifecycle stage of a Weave.
type State int

const (
	StateEmpty State = iota
	StateFibersAdded
	StateBuilt
	StateTraversed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFibersAdded:
		return "fibers-added"
	case StateBuilt:
		return "built"
	case StateTraversed:
		return "traversed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Weave owns its fibers, its graph and the loops derived from them. It is
// not safe for concurrent use.
type Weave struct {
	xfibers []*fiber.Fiber
	yfibers []*fiber.Fiber

	g          *Graph
	seq        uint64
	components [][]hedi.VertexID
	loops      []Loop
	waterlines []Loop
	state      State
}

// New returns an empty weave.
func New() *Weave {
	return &Weave{g: hedi.New[Vertex, Edge, Face]()}
}

// State returns the weave's lifecycle stage.
func (w *Weave) State() State {
	return w.state
}

// AddFiber classifies f as an X or Y fiber and stores a canonical copy of
// it. Fibers that are not axis-aligned or have zero length are rejected
// with an *InputError.
func (w *Weave) AddFiber(f *fiber.Fiber) error {
	if w.state != StateEmpty && w.state != StateFibersAdded {
		return fmt.Errorf("weave: add fiber in state %s: %w", w.state, ErrState)
	}
	if f.Length() == 0 {
		return &InputError{P1: f.P1, P2: f.P2, Reason: "zero length"}
	}
	switch f.Axis() {
	case fiber.AxisX:
		w.xfibers = append(w.xfibers, f.Canonical())
	case fiber.AxisY:
		w.yfibers = append(w.yfibers, f.Canonical())
	default:
		return &InputError{P1: f.P1, P2: f.P2, Reason: "direction is neither x nor y"}
	}
	w.state = StateFibersAdded
	return nil
}

// XFibers returns the stored X fibers. After Build they are the coalesced
// fibers the graph was built from.
func (w *Weave) XFibers() []*fiber.Fiber { return w.xfibers }

// YFibers returns the stored Y fibers, coalesced after Build.
func (w *Weave) YFibers() []*fiber.Fiber { return w.yfibers }

// Graph returns the built graph. It must not be modified. Before a
// successful Build the graph is empty.
func (w *Weave) Graph() *Graph {
	return w.g
}

// Components returns the vertex sets of the graph's connected components.
func (w *Weave) Components() [][]hedi.VertexID {
	out := make([][]hedi.VertexID, len(w.components))
	for i, c := range w.components {
		out[i] = append([]hedi.VertexID(nil), c...)
	}
	return out
}

// Loops returns the boundary of every bounded face, counter-clockwise.
// It is empty until FaceTraverse has run.
func (w *Weave) Loops() []Loop {
	return copyLoops(w.loops)
}

// Waterlines returns the cutter-location contours, each visiting CL
// vertices only, with material on the right. It is empty until
// FaceTraverse has run.
func (w *Weave) Waterlines() []Loop {
	return copyLoops(w.waterlines)
}

func copyLoops(loops []Loop) []Loop {
	out := make([]Loop, len(loops))
	for i, l := range loops {
		out[i] = append(Loop(nil), l...)
	}
	return out
}

// Stats summarises the weave.
type Stats struct {
	XFibers          int `json:"x_fibers"`
	YFibers          int `json:"y_fibers"`
	Vertices         int `json:"vertices"`
	CLVertices       int `json:"cl_vertices"`
	InternalVertices int `json:"internal_vertices"`
	HalfEdges        int `json:"half_edges"`
	Faces            int `json:"faces"`
	Components       int `json:"components"`
	Loops            int `json:"loops"`
	Waterlines       int `json:"waterlines"`
}

// Stats counts fibers, graph elements and output loops.
func (w *Weave) Stats() Stats {
	s := Stats{
		XFibers:    len(w.xfibers),
		YFibers:    len(w.yfibers),
		Vertices:   w.g.NumVertices(),
		HalfEdges:  w.g.NumEdges(),
		Faces:      w.g.NumFaces(),
		Components: len(w.components),
		Loops:      len(w.loops),
		Waterlines: len(w.waterlines),
	}
	for _, v := range w.g.Vertices() {
		if w.g.Vertex(v).Kind == CL {
			s.CLVertices++
		} else {
			s.InternalVertices++
		}
	}
	return s
}

func (w *Weave) String() string {
	s := w.Stats()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weave (%s)\n", w.state)
	fmt.Fprintf(&sb, "  %d X-fibers\n", s.XFibers)
	fmt.Fprintf(&sb, "  %d Y-fibers\n", s.YFibers)
	if w.state == StateBuilt || w.state == StateTraversed {
		fmt.Fprintf(&sb, "  %d vertices (%d cl, %d internal)\n", s.Vertices, s.CLVertices, s.InternalVertices)
		fmt.Fprintf(&sb, "  %d half-edges, %d faces, %d components\n", s.HalfEdges, s.Faces, s.Components)
	}
	if w.state == StateTraversed {
		fmt.Fprintf(&sb, "  %d loops, %d waterlines\n", s.Loops, s.Waterlines)
	}
	return sb.String()
}
