package voronoi

import (
	"fmt"

	"github.com/chazu/waterline/pkg/hedi"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// VertexType is the classification state of a diagram vertex during
// generator insertion.
type VertexType int

const (
	Undecided VertexType = iota
	In                   // claimed by the generator being inserted
	Out                  // kept by an existing generator
	NewVertex            // created on an edge between an In and an Out vertex
)

func (t VertexType) String() string {
	switch t {
	case Undecided:
		return "undecided"
	case In:
		return "in"
	case Out:
		return "out"
	case NewVertex:
		return "new"
	default:
		return fmt.Sprintf("VertexType(%d)", int(t))
	}
}

// FaceType marks whether a face touches the current insertion.
type FaceType int

const (
	NonIncident FaceType = iota
	Incident
)

func (t FaceType) String() string {
	if t == Incident {
		return "incident"
	}
	return "nonincident"
}

// VertexProps is the vertex payload.
type VertexProps struct {
	Position orb.Point
	Type     VertexType
}

// FaceProps is the face payload.
type FaceProps struct {
	Generator orb.Point
	Type      FaceType
}

// Graph is the half-edge diagram underneath a Diagram.
type Graph = hedi.Diagram[VertexProps, struct{}, FaceProps]

// Diagram is a planar subdivision in which every face belongs to a
// generator point, with a FaceIndex for nearest-face lookups.
type Diagram struct {
	g     *Graph
	index *FaceIndex
}

// NewDiagram returns an empty diagram whose face index covers
// [-far, far]^2 with nbins x nbins buckets.
func NewDiagram(far float64, nbins int) (*Diagram, error) {
	idx, err := NewFaceIndex(far, nbins)
	if err != nil {
		return nil, err
	}
	return &Diagram{g: hedi.New[VertexProps, struct{}, FaceProps](), index: idx}, nil
}

// Graph exposes the underlying half-edge diagram.
func (d *Diagram) Graph() *Graph { return d.g }

// Index exposes the face index.
func (d *Diagram) Index() *FaceIndex { return d.index }

// AddFace adds and indexes a face owned by gen.
func (d *Diagram) AddFace(gen orb.Point) hedi.FaceID {
	f := d.g.AddFace(FaceProps{Generator: gen})
	d.index.Add(f, gen)
	return f
}

// AddVertex adds an undecided vertex at p.
func (d *Diagram) AddVertex(p orb.Point) hedi.VertexID {
	return d.g.AddVertex(VertexProps{Position: p})
}

// AddEdge joins a and b with a twinned pair of half-edges: a->b with left
// on its left, b->a with right on its left. Either face may be NoFace.
func (d *Diagram) AddEdge(a, b hedi.VertexID, left, right hedi.FaceID) (hedi.EdgeID, hedi.EdgeID) {
	e := d.g.AddEdge(a, b, struct{}{})
	te := d.g.AddEdge(b, a, struct{}{})
	d.g.SetTwin(e, te)
	d.g.SetFace(e, left)
	d.g.SetFace(te, right)
	if left != hedi.NoFace && d.g.FaceEdge(left) == hedi.NoEdge {
		d.g.SetFaceEdge(left, e)
	}
	if right != hedi.NoFace && d.g.FaceEdge(right) == hedi.NoEdge {
		d.g.SetFaceEdge(right, te)
	}
	return e, te
}

// FindClosestFace returns the face whose generator is nearest p.
func (d *Diagram) FindClosestFace(p orb.Point) (hedi.FaceID, bool) {
	return d.index.FindClosest(p)
}

func (d *Diagram) Generator(f hedi.FaceID) orb.Point           { return d.g.Face(f).Generator }
func (d *Diagram) FaceType(f hedi.FaceID) FaceType             { return d.g.Face(f).Type }
func (d *Diagram) SetFaceType(f hedi.FaceID, t FaceType)       { d.g.Face(f).Type = t }
func (d *Diagram) VertexType(v hedi.VertexID) VertexType       { return d.g.Vertex(v).Type }
func (d *Diagram) SetVertexType(v hedi.VertexID, t VertexType) { d.g.Vertex(v).Type = t }

// AdjacentFaces returns the faces around v.
func (d *Diagram) AdjacentFaces(v hedi.VertexID) []hedi.FaceID {
	return d.g.AdjacentFaces(v)
}

// Reset marks every vertex Undecided and every face NonIncident.
func (d *Diagram) Reset() {
	for _, v := range d.g.Vertices() {
		d.g.Vertex(v).Type = Undecided
	}
	for _, f := range d.g.Faces() {
		d.g.Face(f).Type = NonIncident
	}
}

// Classify finds the vertices a new generator at p would claim. A vertex
// is In when p is strictly closer to it than the generator of every face
// around it. The search starts on the boundary of the closest existing
// face and spreads along edges through In vertices; vertices it reaches
// but does not claim become Out. Faces around In vertices are marked
// Incident. The In vertices are returned in the order found.
func (d *Diagram) Classify(p orb.Point) []hedi.VertexID {
	d.Reset()
	seed, ok := d.FindClosestFace(p)
	if !ok {
		return nil
	}

	var queue []hedi.VertexID
	for _, e := range d.g.Edges() {
		if d.g.FaceOf(e) == seed {
			queue = append(queue, d.g.Source(e))
		}
	}

	var in []hedi.VertexID
	visited := make(map[hedi.VertexID]bool)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if visited[v] {
			continue
		}
		visited[v] = true
		if !d.claims(p, v) {
			d.SetVertexType(v, Out)
			continue
		}
		d.SetVertexType(v, In)
		in = append(in, v)
		for _, f := range d.g.AdjacentFaces(v) {
			d.SetFaceType(f, Incident)
		}
		for _, e := range d.g.OutEdges(v) {
			queue = append(queue, d.g.Target(e))
		}
	}
	return in
}

func (d *Diagram) claims(p orb.Point, v hedi.VertexID) bool {
	pos := d.g.Vertex(v).Position
	faces := d.g.AdjacentFaces(v)
	if len(faces) == 0 {
		return false
	}
	dp := planar.DistanceSquared(pos, p)
	for _, f := range faces {
		if dp >= planar.DistanceSquared(pos, d.Generator(f)) {
			return false
		}
	}
	return true
}
