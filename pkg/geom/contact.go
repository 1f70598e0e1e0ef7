package geom

// ContactKind records which triangle feature a cutter touched.
type ContactKind int

const (
	ContactNone         ContactKind = iota // unset
	ContactVertex                          // cutter touches a mesh vertex
	ContactEdge                            // cutter touches an edge
	ContactEdgeCylinder                    // edge contact on the cylindrical shaft
	ContactFacet                           // cutter touches a facet interior
)

func (k ContactKind) String() string {
	switch k {
	case ContactNone:
		return "none"
	case ContactVertex:
		return "vertex"
	case ContactEdge:
		return "edge"
	case ContactEdgeCylinder:
		return "edge-cylinder"
	case ContactFacet:
		return "facet"
	default:
		return "unknown"
	}
}

// ContactPoint is a point on the part surface tagged with the kind of
// feature the cutter touched there.
type ContactPoint struct {
	Point
	Kind ContactKind
}

// NewContactPoint returns a ContactPoint at p of kind k.
func NewContactPoint(p Point, k ContactKind) ContactPoint {
	return ContactPoint{Point: p, Kind: k}
}
