package weave

import (
	"fmt"
	"sort"

	"github.com/chazu/waterline/pkg/fiber"
	"github.com/chazu/waterline/pkg/geom"
)

// ValidationSeverity indicates whether a finding blocks weaving or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks weaving
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single finding about a fiber set.
type ValidationError struct {
	Fiber    int    // index into the validated slice, -1 for set-level findings
	Message  string // human-readable description
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.Fiber < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] fiber %d: %s", e.Severity, e.Fiber, e.Message)
}

// ValidateFibers checks a fiber set before weaving. Errors mark fibers
// AddFiber would reject or intervals that leave their fiber; warnings mark
// input Build will silently normalise. It never mutates the fibers.
func ValidateFibers(fibers []*fiber.Fiber) []ValidationError {
	var errs []ValidationError
	var nx, ny int
	heights := make(map[float64]bool)

	for i, f := range fibers {
		length := f.Length()
		if length == 0 {
			errs = append(errs, ValidationError{Fiber: i, Message: "zero length", Severity: SeverityError})
			continue
		}
		switch f.Axis() {
		case fiber.AxisX:
			nx++
		case fiber.AxisY:
			ny++
		default:
			errs = append(errs, ValidationError{
				Fiber:    i,
				Message:  fmt.Sprintf("direction %v is neither x nor y", f.Dir),
				Severity: SeverityError,
			})
			continue
		}
		heights[f.P1.Z] = true

		ints := f.Intervals()
		for n, iv := range ints {
			if iv.Lower < -geom.Tolerance || iv.Upper > length+geom.Tolerance {
				errs = append(errs, ValidationError{
					Fiber:    i,
					Message:  fmt.Sprintf("interval %d %v leaves the fiber [0, %g]", n, iv, length),
					Severity: SeverityError,
				})
			}
			if iv.Length() <= geom.Tolerance {
				errs = append(errs, ValidationError{
					Fiber:    i,
					Message:  fmt.Sprintf("interval %d %v has zero length and will be dropped", n, iv),
					Severity: SeverityWarning,
				})
			}
		}
		if overlapping(ints) {
			errs = append(errs, ValidationError{
				Fiber:    i,
				Message:  "intervals overlap and will be condensed",
				Severity: SeverityWarning,
			})
		}
	}

	if len(heights) > 1 {
		errs = append(errs, ValidationError{
			Fiber:    -1,
			Message:  fmt.Sprintf("fibers lie at %d different heights", len(heights)),
			Severity: SeverityWarning,
		})
	}
	if (nx == 0) != (ny == 0) {
		errs = append(errs, ValidationError{
			Fiber:    -1,
			Message:  fmt.Sprintf("%d x fibers and %d y fibers: no crossings possible", nx, ny),
			Severity: SeverityWarning,
		})
	}
	return errs
}

func overlapping(ints []fiber.Interval) bool {
	sort.Slice(ints, func(a, b int) bool { return ints[a].Lower < ints[b].Lower })
	for k := 1; k < len(ints); k++ {
		if ints[k-1].Upper >= ints[k].Lower {
			return true
		}
	}
	return false
}

// HasErrors reports whether any finding has SeverityError.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
