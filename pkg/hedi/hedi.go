// Package hedi implements a half-edge diagram for planar graphs. Vertices,
// half-edges and faces live in arenas owned by the Diagram and are addressed
// by stable integer ids; every record carries a user payload.
//
// Misuse that would corrupt the structure (joining half-edges that do not
// meet, removing a vertex that still has edges) panics with an
// *InvariantViolation. Check audits the whole structure and returns an
// error instead.
package hedi

import "fmt"

// VertexID addresses a vertex record.
type VertexID int

// EdgeID addresses a half-edge record.
type EdgeID int

// FaceID addresses a face record.
type FaceID int

// Sentinels for unset links.
const (
	NoVertex VertexID = -1
	NoEdge   EdgeID   = -1
	NoFace   FaceID   = -1
)

// InvariantViolation is the panic value raised when an operation would
// break the half-edge invariants.
type InvariantViolation struct {
	Op  string
	Msg string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("hedi: %s: %s", e.Op, e.Msg)
}

func violation(op, format string, args ...any) {
	panic(&InvariantViolation{Op: op, Msg: fmt.Sprintf(format, args...)})
}

type vertexRec[V any] struct {
	data  V
	out   []EdgeID
	in    []EdgeID
	alive bool
}

type edgeRec[E any] struct {
	src, dst VertexID
	next     EdgeID
	prev     EdgeID
	twin     EdgeID
	face     FaceID
	data     E
	alive    bool
}

type faceRec[F any] struct {
	edge EdgeID
	data F
}

// Diagram is a half-edge diagram with vertex payload V, edge payload E and
// face payload F. The zero value is an empty diagram ready to use.
type Diagram[V, E, F any] struct {
	verts []vertexRec[V]
	edges []edgeRec[E]
	faces []faceRec[F]

	nv, ne int
}

// New returns an empty diagram.
func New[V, E, F any]() *Diagram[V, E, F] {
	return &Diagram[V, E, F]{}
}

// Reset discards every record. Ids handed out before Reset are invalid.
func (d *Diagram[V, E, F]) Reset() {
	d.verts = nil
	d.edges = nil
	d.faces = nil
	d.nv, d.ne = 0, 0
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

// AddVertex adds an isolated vertex carrying data.
func (d *Diagram[V, E, F]) AddVertex(data V) VertexID {
	d.verts = append(d.verts, vertexRec[V]{data: data, alive: true})
	d.nv++
	return VertexID(len(d.verts) - 1)
}

// AddEdge adds a half-edge from v1 to v2. Twin, next, prev and face are
// left unset.
func (d *Diagram[V, E, F]) AddEdge(v1, v2 VertexID, data E) EdgeID {
	d.mustVertex("AddEdge", v1)
	d.mustVertex("AddEdge", v2)
	e := EdgeID(len(d.edges))
	d.edges = append(d.edges, edgeRec[E]{
		src: v1, dst: v2,
		next: NoEdge, prev: NoEdge, twin: NoEdge,
		face: NoFace, data: data, alive: true,
	})
	d.verts[v1].out = append(d.verts[v1].out, e)
	d.verts[v2].in = append(d.verts[v2].in, e)
	d.ne++
	return e
}

// AddFace adds a face carrying data with no boundary edge yet.
func (d *Diagram[V, E, F]) AddFace(data F) FaceID {
	d.faces = append(d.faces, faceRec[F]{edge: NoEdge, data: data})
	return FaceID(len(d.faces) - 1)
}

// ---------------------------------------------------------------------------
// Payload access
// ---------------------------------------------------------------------------

// Vertex returns a pointer to the payload of v.
func (d *Diagram[V, E, F]) Vertex(v VertexID) *V {
	d.mustVertex("Vertex", v)
	return &d.verts[v].data
}

// Edge returns a pointer to the payload of e.
func (d *Diagram[V, E, F]) Edge(e EdgeID) *E {
	d.mustEdge("Edge", e)
	return &d.edges[e].data
}

// Face returns a pointer to the payload of f.
func (d *Diagram[V, E, F]) Face(f FaceID) *F {
	d.mustFace("Face", f)
	return &d.faces[f].data
}

// ---------------------------------------------------------------------------
// Topology
// ---------------------------------------------------------------------------

// Source, Target, Next, Prev, Twin and FaceOf read the links of e. Unset
// links are NoEdge or NoFace.
func (d *Diagram[V, E, F]) Source(e EdgeID) VertexID { d.mustEdge("Source", e); return d.edges[e].src }
func (d *Diagram[V, E, F]) Target(e EdgeID) VertexID { d.mustEdge("Target", e); return d.edges[e].dst }
func (d *Diagram[V, E, F]) Next(e EdgeID) EdgeID     { d.mustEdge("Next", e); return d.edges[e].next }
func (d *Diagram[V, E, F]) Prev(e EdgeID) EdgeID     { d.mustEdge("Prev", e); return d.edges[e].prev }
func (d *Diagram[V, E, F]) Twin(e EdgeID) EdgeID     { d.mustEdge("Twin", e); return d.edges[e].twin }
func (d *Diagram[V, E, F]) FaceOf(e EdgeID) FaceID   { d.mustEdge("FaceOf", e); return d.edges[e].face }

// FaceEdge returns the representative boundary edge of f, or NoEdge.
func (d *Diagram[V, E, F]) FaceEdge(f FaceID) EdgeID {
	d.mustFace("FaceEdge", f)
	return d.faces[f].edge
}

// SetNext sets next(e) = n and prev(n) = e. The target of e must be the
// source of n.
func (d *Diagram[V, E, F]) SetNext(e, n EdgeID) {
	d.mustEdge("SetNext", e)
	d.mustEdge("SetNext", n)
	if d.edges[e].dst != d.edges[n].src {
		violation("SetNext", "edge %d ends at %d but edge %d starts at %d",
			e, d.edges[e].dst, n, d.edges[n].src)
	}
	d.edges[e].next = n
	d.edges[n].prev = e
}

// SetTwin pairs e1 and e2. They must join the same vertices in opposite
// directions.
func (d *Diagram[V, E, F]) SetTwin(e1, e2 EdgeID) {
	d.mustEdge("SetTwin", e1)
	d.mustEdge("SetTwin", e2)
	a, b := &d.edges[e1], &d.edges[e2]
	if a.src != b.dst || a.dst != b.src {
		violation("SetTwin", "edges %d (%d->%d) and %d (%d->%d) are not opposite",
			e1, a.src, a.dst, e2, b.src, b.dst)
	}
	a.twin = e2
	b.twin = e1
}

// SetFace sets the face on the left of e.
func (d *Diagram[V, E, F]) SetFace(e EdgeID, f FaceID) {
	d.mustEdge("SetFace", e)
	if f != NoFace {
		d.mustFace("SetFace", f)
	}
	d.edges[e].face = f
}

// SetFaceEdge sets the representative boundary edge of f.
func (d *Diagram[V, E, F]) SetFaceEdge(f FaceID, e EdgeID) {
	d.mustFace("SetFaceEdge", f)
	if e != NoEdge {
		d.mustEdge("SetFaceEdge", e)
	}
	d.faces[f].edge = e
}

// ---------------------------------------------------------------------------
// Enumeration
// ---------------------------------------------------------------------------

// Vertices returns the live vertices in creation order.
func (d *Diagram[V, E, F]) Vertices() []VertexID {
	out := make([]VertexID, 0, d.nv)
	for i := range d.verts {
		if d.verts[i].alive {
			out = append(out, VertexID(i))
		}
	}
	return out
}

// Edges returns the live half-edges in creation order.
func (d *Diagram[V, E, F]) Edges() []EdgeID {
	out := make([]EdgeID, 0, d.ne)
	for i := range d.edges {
		if d.edges[i].alive {
			out = append(out, EdgeID(i))
		}
	}
	return out
}

// Faces returns every face in creation order.
func (d *Diagram[V, E, F]) Faces() []FaceID {
	out := make([]FaceID, len(d.faces))
	for i := range out {
		out[i] = FaceID(i)
	}
	return out
}

// OutEdges returns the half-edges leaving v.
func (d *Diagram[V, E, F]) OutEdges(v VertexID) []EdgeID {
	d.mustVertex("OutEdges", v)
	return append([]EdgeID(nil), d.verts[v].out...)
}

// InEdges returns the half-edges arriving at v.
func (d *Diagram[V, E, F]) InEdges(v VertexID) []EdgeID {
	d.mustVertex("InEdges", v)
	return append([]EdgeID(nil), d.verts[v].in...)
}

// Degree returns the number of half-edges touching v, in plus out.
func (d *Diagram[V, E, F]) Degree(v VertexID) int {
	d.mustVertex("Degree", v)
	return len(d.verts[v].out) + len(d.verts[v].in)
}

// NumVertices, NumEdges and NumFaces count live records.
func (d *Diagram[V, E, F]) NumVertices() int { return d.nv }
func (d *Diagram[V, E, F]) NumEdges() int    { return d.ne }
func (d *Diagram[V, E, F]) NumFaces() int    { return len(d.faces) }

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

// ClearVertex removes every half-edge touching v, unlinking them from their
// twins and from next/prev neighbours. v itself remains.
func (d *Diagram[V, E, F]) ClearVertex(v VertexID) {
	d.mustVertex("ClearVertex", v)
	var doomed []EdgeID
	doomed = append(doomed, d.verts[v].out...)
	doomed = append(doomed, d.verts[v].in...)
	for _, e := range doomed {
		if d.edges[e].alive {
			d.removeEdge(e)
		}
	}
}

func (d *Diagram[V, E, F]) removeEdge(e EdgeID) {
	r := &d.edges[e]
	if r.twin != NoEdge && d.edges[r.twin].twin == e {
		d.edges[r.twin].twin = NoEdge
	}
	if r.next != NoEdge && d.edges[r.next].prev == e {
		d.edges[r.next].prev = NoEdge
	}
	if r.prev != NoEdge && d.edges[r.prev].next == e {
		d.edges[r.prev].next = NoEdge
	}
	if r.face != NoFace && d.faces[r.face].edge == e {
		d.faces[r.face].edge = NoEdge
	}
	d.verts[r.src].out = without(d.verts[r.src].out, e)
	d.verts[r.dst].in = without(d.verts[r.dst].in, e)
	r.alive = false
	r.twin, r.next, r.prev, r.face = NoEdge, NoEdge, NoEdge, NoFace
	d.ne--
}

// RemoveVertex deletes v. It panics if v still has edges; call ClearVertex
// first.
func (d *Diagram[V, E, F]) RemoveVertex(v VertexID) {
	d.mustVertex("RemoveVertex", v)
	if n := d.Degree(v); n != 0 {
		violation("RemoveVertex", "vertex %d still has %d edges", v, n)
	}
	d.verts[v].alive = false
	d.nv--
}

// InsertVertexInEdge splits e and its twin at v, which must not be an
// endpoint of e. With e = lo->hi and twin te = hi->lo the result is
//
//	e:   lo->v   e2:  v->hi
//	te:  hi->v   te2: v->lo
//
// with twins e/te2 and e2/te. Next, prev and face are carried over so both
// face cycles stay closed; edges v already had are left alone. The new
// half-edge e2 leaving v is returned.
func (d *Diagram[V, E, F]) InsertVertexInEdge(v VertexID, e EdgeID) EdgeID {
	d.mustVertex("InsertVertexInEdge", v)
	d.mustEdge("InsertVertexInEdge", e)
	te := d.edges[e].twin
	if te == NoEdge {
		violation("InsertVertexInEdge", "edge %d has no twin", e)
	}
	lo, hi := d.edges[e].src, d.edges[e].dst
	if v == lo || v == hi {
		violation("InsertVertexInEdge", "vertex %d is an endpoint of edge %d", v, e)
	}
	eNext, teNext := d.edges[e].next, d.edges[te].next
	eData, teData := d.edges[e].data, d.edges[te].data

	// Shorten e and te to end at v.
	d.verts[hi].in = without(d.verts[hi].in, e)
	d.verts[lo].in = without(d.verts[lo].in, te)
	d.edges[e].dst = v
	d.edges[te].dst = v
	d.verts[v].in = append(d.verts[v].in, e, te)

	e2 := d.AddEdge(v, hi, eData)
	te2 := d.AddEdge(v, lo, teData)
	d.edges[e2].face = d.edges[e].face
	d.edges[te2].face = d.edges[te].face

	d.SetTwin(e, te2)
	d.SetTwin(e2, te)

	d.SetNext(e, e2)
	if eNext != NoEdge {
		d.SetNext(e2, eNext)
	}
	d.SetNext(te, te2)
	if teNext != NoEdge {
		d.SetNext(te2, teNext)
	}
	return e2
}

// ---------------------------------------------------------------------------
// Face queries
// ---------------------------------------------------------------------------

// FaceEdges returns the boundary of f starting at its representative edge
// and following next. It panics if the cycle is open or longer than the
// number of edges in the diagram.
func (d *Diagram[V, E, F]) FaceEdges(f FaceID) []EdgeID {
	start := d.FaceEdge(f)
	if start == NoEdge {
		return nil
	}
	var out []EdgeID
	e := start
	for {
		out = append(out, e)
		e = d.edges[e].next
		if e == start {
			return out
		}
		if e == NoEdge || len(out) > d.ne {
			violation("FaceEdges", "boundary of face %d is not a closed cycle", f)
		}
	}
}

// FaceVertices returns the source vertices of FaceEdges(f), in order.
func (d *Diagram[V, E, F]) FaceVertices(f FaceID) []VertexID {
	edges := d.FaceEdges(f)
	out := make([]VertexID, len(edges))
	for i, e := range edges {
		out[i] = d.edges[e].src
	}
	return out
}

// PreviousEdge finds the edge before e by walking next around its face.
// Unlike Prev it does not rely on the stored prev pointer.
func (d *Diagram[V, E, F]) PreviousEdge(e EdgeID) EdgeID {
	d.mustEdge("PreviousEdge", e)
	cur := e
	for steps := 0; steps <= d.ne; steps++ {
		n := d.edges[cur].next
		if n == NoEdge {
			break
		}
		if n == e {
			return cur
		}
		cur = n
	}
	violation("PreviousEdge", "edge %d is not on a closed cycle", e)
	return NoEdge
}

// AdjacentFaces returns the distinct faces on the left of the edges
// leaving or entering v, outgoing edges first. It does not need next links.
func (d *Diagram[V, E, F]) AdjacentFaces(v VertexID) []FaceID {
	d.mustVertex("AdjacentFaces", v)
	var out []FaceID
	seen := make(map[FaceID]bool)
	for _, es := range [][]EdgeID{d.verts[v].out, d.verts[v].in} {
		for _, e := range es {
			f := d.edges[e].face
			if f != NoFace && !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (d *Diagram[V, E, F]) mustVertex(op string, v VertexID) {
	if v < 0 || int(v) >= len(d.verts) || !d.verts[v].alive {
		violation(op, "no vertex %d", v)
	}
}

func (d *Diagram[V, E, F]) mustEdge(op string, e EdgeID) {
	if e < 0 || int(e) >= len(d.edges) || !d.edges[e].alive {
		violation(op, "no edge %d", e)
	}
}

func (d *Diagram[V, E, F]) mustFace(op string, f FaceID) {
	if f < 0 || int(f) >= len(d.faces) {
		violation(op, "no face %d", f)
	}
}

func without(s []EdgeID, e EdgeID) []EdgeID {
	for i, x := range s {
		if x == e {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
