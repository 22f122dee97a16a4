// Package chain converts closed 4-connected point cycles to Freeman chain
// codes and back.
package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// ErrInvalidDisplacement reports a step that is not a unit axis move.
var ErrInvalidDisplacement = errors.New("chain: invalid displacement")

// InvalidDisplacementError locates the offending step.
type InvalidDisplacementError struct {
	Index        int // index of the step's origin point
	Displacement grid.Point
}

func (e *InvalidDisplacementError) Error() string {
	return fmt.Sprintf("chain: step %d has displacement %v, want a unit axis move", e.Index, e.Displacement)
}

func (e *InvalidDisplacementError) Unwrap() error { return ErrInvalidDisplacement }

// Code is a closed Freeman chain: Start followed by one direction per step.
// Applying every step returns to Start.
type Code struct {
	Start grid.Point
	Steps []grid.Direction
}

// Encode returns the chain of the cycle pts, including the closing step from
// the last point back to the first.
func Encode(pts []grid.Point) (Code, error) {
	if len(pts) == 0 {
		return Code{}, nil
	}
	steps := make([]grid.Direction, len(pts))
	for i, p := range pts {
		next := pts[(i+1)%len(pts)]
		d, ok := grid.DirectionOf(next.Sub(p))
		if !ok {
			return Code{}, &InvalidDisplacementError{Index: i, Displacement: next.Sub(p)}
		}
		steps[i] = d
	}
	return Code{Start: pts[0], Steps: steps}, nil
}

// Decode rebuilds the absolute points of a chain from start. The result has
// one point per step; the point reached by the final step is not repeated.
func Decode(start grid.Point, steps []grid.Direction) []grid.Point {
	if len(steps) == 0 {
		return nil
	}
	pts := make([]grid.Point, len(steps))
	p := start
	for i, d := range steps {
		pts[i] = p
		p = p.Add(d.Vector())
	}
	return pts
}

// Len returns the number of steps.
func (c Code) Len() int { return len(c.Steps) }

// Points decodes c back to its cycle of points.
func (c Code) Points() []grid.Point { return Decode(c.Start, c.Steps) }

// Path returns the open point sequence P0..Pn visited by the steps, so
// Path()[n] is the point reached by the last step.
func (c Code) Path() []grid.Point {
	pts := make([]grid.Point, len(c.Steps)+1)
	pts[0] = c.Start
	for i, d := range c.Steps {
		pts[i+1] = pts[i].Add(d.Vector())
	}
	return pts
}

// Closed reports whether the steps return to Start.
func (c Code) Closed() bool {
	var sum grid.Point
	for _, d := range c.Steps {
		sum = sum.Add(d.Vector())
	}
	return sum == grid.Point{}
}

// String renders the steps as Freeman digits, e.g. "0011223".
func (c Code) String() string {
	var b strings.Builder
	b.Grow(len(c.Steps))
	for _, d := range c.Steps {
		b.WriteByte('0' + byte(d))
	}
	return b.String()
}

// Parse reads a string of Freeman digits 0-3.
func Parse(start grid.Point, digits string) (Code, error) {
	steps := make([]grid.Direction, len(digits))
	for i := range len(digits) {
		ch := digits[i]
		if ch < '0' || ch > '3' {
			return Code{}, fmt.Errorf("chain: invalid symbol %q at %d", ch, i)
		}
		steps[i] = grid.Direction(ch - '0')
	}
	return Code{Start: start, Steps: steps}, nil
}
