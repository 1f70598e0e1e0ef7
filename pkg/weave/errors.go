package weave

import (
	"errors"
	"fmt"

	"github.com/chazu/waterline/pkg/geom"
)

// ErrNotBuilt is returned by FaceTraverse before a successful Build.
var ErrNotBuilt = errors.New("weave: face traversal before build")

// ErrState is returned when an operation is not valid in the weave's
// current state, for example AddFiber after Build.
var ErrState = errors.New("weave: invalid state")

// InputError rejects a fiber at the AddFiber boundary.
type InputError struct {
	P1, P2 geom.Point
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("weave: fiber %v -> %v: %s", e.P1, e.P2, e.Reason)
}

// BuildInconsistency reports that the fibers cannot be woven into a valid
// planar graph: two fibers disagree on height at a crossing, or the edges
// around a vertex cannot be ordered by angle.
type BuildInconsistency struct {
	Position geom.Point
	Reason   string
}

func (e *BuildInconsistency) Error() string {
	return fmt.Sprintf("weave: build inconsistency at %v: %s", e.Position, e.Reason)
}
