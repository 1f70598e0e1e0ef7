package hedi

import (
	"errors"
	"fmt"
)

// Check audits the diagram and returns every broken invariant joined into
// one error, or nil. Pointers that were never set are not reported; a
// diagram under construction passes as long as what is set agrees.
func (d *Diagram[V, E, F]) Check() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("hedi: "+format, args...))
	}

	for i := range d.edges {
		r := &d.edges[i]
		if !r.alive {
			continue
		}
		e := EdgeID(i)
		if !d.verts[r.src].alive || !d.verts[r.dst].alive {
			bad("edge %d joins a removed vertex", e)
		}
		if r.twin != NoEdge {
			t := &d.edges[r.twin]
			switch {
			case !t.alive:
				bad("edge %d: twin %d was removed", e, r.twin)
			case t.twin != e:
				bad("edge %d: twin(twin) = %d", e, t.twin)
			case t.src != r.dst || t.dst != r.src:
				bad("edge %d: twin %d is not reversed", e, r.twin)
			}
		}
		if r.next != NoEdge {
			n := &d.edges[r.next]
			switch {
			case !n.alive:
				bad("edge %d: next %d was removed", e, r.next)
			case n.prev != e:
				bad("edge %d: prev(next) = %d", e, n.prev)
			case n.src != r.dst:
				bad("edge %d: next %d does not start at target %d", e, r.next, r.dst)
			}
			if r.face != n.face {
				bad("edge %d: face %d differs from next's face %d", e, r.face, n.face)
			}
		}
		if r.prev != NoEdge && d.edges[r.prev].next != e {
			bad("edge %d: next(prev) = %d", e, d.edges[r.prev].next)
		}
	}

	for i := range d.verts {
		if !d.verts[i].alive {
			continue
		}
		v := VertexID(i)
		for _, e := range d.verts[i].out {
			if d.edges[e].src != v {
				bad("vertex %d: out-edge %d starts at %d", v, e, d.edges[e].src)
			}
		}
		for _, e := range d.verts[i].in {
			if d.edges[e].dst != v {
				bad("vertex %d: in-edge %d ends at %d", v, e, d.edges[e].dst)
			}
		}
	}

	for i := range d.faces {
		start := d.faces[i].edge
		if start == NoEdge {
			continue
		}
		f := FaceID(i)
		if !d.edges[start].alive || d.edges[start].face != f {
			bad("face %d: representative edge %d is not on it", f, start)
			continue
		}
		e, steps := start, 0
		for {
			e = d.edges[e].next
			steps++
			if e == start {
				break
			}
			if e == NoEdge || steps > len(d.edges) {
				bad("face %d: boundary is not a closed cycle", f)
				break
			}
		}
	}
	return errors.Join(errs...)
}
