package boundary

import (
	"fmt"

	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// DefaultMaxSeedSteps bounds the seed scan.
const DefaultMaxSeedSteps = 10000

// Tracer follows boundaries under the (4,8) topology: foreground pixels are
// 4-connected and background pixels 8-connected.
type Tracer struct {
	// MaxSeedSteps caps the number of unit moves of the seed scan.
	MaxSeedSteps int
}

// DefaultTracer returns a tracer with the default seed bound.
func DefaultTracer() Tracer {
	return Tracer{MaxSeedSteps: DefaultMaxSeedSteps}
}

// Trace returns the outer boundary of c using the default tracer.
func Trace(c grid.Component, d grid.Domain) (Contour, error) {
	return DefaultTracer().Trace(c, d)
}

// Trace returns the outer boundary of c embedded in d padded by one cell.
// The walk starts on the bottom edge of the lowest, leftmost pixel, which is
// always a corner of the outer boundary. Holes are not traced.
func (t Tracer) Trace(c grid.Component, d grid.Domain) (Contour, error) {
	set := c.Set
	start, ok := set.First()
	if !ok {
		return Contour{}, fmt.Errorf("component %d: empty point set: %w", c.ID, ErrDegenerateComponent)
	}
	space := d.Padded()
	b := set.Bounds()
	if !space.Contains(b.Lower) || !space.Contains(b.Upper) {
		return Contour{}, fmt.Errorf("component %d: bounds %v exceed tracing space %v: %w",
			c.ID, b, space, ErrDegenerateComponent)
	}

	// Everything below the padded space is background.
	seed, err := FindSeed(set, start, grid.Pt(start.X, space.Lower.Y-1), t.MaxSeedSteps)
	if err != nil {
		return Contour{}, fmt.Errorf("component %d: %w", c.ID, err)
	}

	limit := 4*set.Len() + 4
	surfels := []Surfel{seed}
	for cur := nextSurfel(set, seed); cur != seed; cur = nextSurfel(set, cur) {
		if len(surfels) >= limit {
			return Contour{}, fmt.Errorf("component %d: walk did not close after %d steps: %w",
				c.ID, limit, ErrDegenerateComponent)
		}
		surfels = append(surfels, cur)
	}
	return Contour{Surfels: surfels}, nil
}

// FindSeed scans from a foreground point towards a background point one axis
// step at a time (x first, then y) and returns the surfel at the first
// foreground to background transition.
func FindSeed(set grid.PointSet, from, to grid.Point, maxSteps int) (Surfel, error) {
	if !set.Contains(from) {
		return Surfel{}, fmt.Errorf("scan origin %v is not foreground: %w", from, ErrDegenerateComponent)
	}
	if set.Contains(to) {
		return Surfel{}, fmt.Errorf("scan target %v is not background: %w", to, ErrDegenerateComponent)
	}

	cur := from
	for steps := 0; cur != to; steps++ {
		if steps >= maxSteps {
			return Surfel{}, fmt.Errorf("no transition within %d steps from %v towards %v: %w",
				maxSteps, from, to, ErrBoundaryNotFound)
		}
		dir := stepTowards(cur, to)
		next := cur.Add(dir.Vector())
		if !set.Contains(next) {
			return Surfel{Pixel: cur, Normal: dir}, nil
		}
		cur = next
	}
	// Unreachable: to is background, so the loop returns before reaching it.
	return Surfel{}, ErrBoundaryNotFound
}

func stepTowards(p, q grid.Point) grid.Direction {
	switch {
	case q.X > p.X:
		return grid.East
	case q.X < p.X:
		return grid.West
	case q.Y > p.Y:
		return grid.North
	default:
		return grid.South
	}
}

// nextSurfel applies the interior adjacency rule at the end corner of s.
// ahead is the pixel in front of s.Pixel, diag the pixel in front of the
// background pixel.
func nextSurfel(set grid.PointSet, s Surfel) Surfel {
	t := s.Tangent()
	ahead := s.Pixel.Add(t.Vector())
	if !set.Contains(ahead) {
		return Surfel{Pixel: s.Pixel, Normal: t}
	}
	diag := s.Outer().Add(t.Vector())
	if set.Contains(diag) {
		return Surfel{Pixel: diag, Normal: t.Opposite()}
	}
	return Surfel{Pixel: ahead, Normal: s.Normal}
}
