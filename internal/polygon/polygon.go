// Package polygon builds closed polygons from digital straight segments.
package polygon

import (
	"errors"

	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// ErrEmptySegmentation reports a polygon requested from zero segments.
var ErrEmptySegmentation = errors.New("polygon: empty segmentation")

// Polygon is a closed vertex sequence: the first vertex is repeated at the end.
type Polygon struct {
	Vertices []grid.Point `json:"vertices"`
}

// Build takes one anchor per segment, the last lower leaning point, which is
// the corner on the background side of the walk, and closes the ring.
// Standard segments can share an anchor with their neighbour; such repeats
// are collapsed so consecutive vertices stay distinct.
func Build(segs []dss.Segment) (Polygon, error) {
	if len(segs) == 0 {
		return Polygon{}, ErrEmptySegmentation
	}
	vs := make([]grid.Point, 0, len(segs)+1)
	for _, s := range segs {
		if n := len(vs); n > 0 && vs[n-1] == s.Ll {
			continue
		}
		vs = append(vs, s.Ll)
	}
	if n := len(vs); n > 1 && vs[n-1] == vs[0] {
		vs = vs[:n-1]
	}
	vs = append(vs, vs[0])
	return Polygon{Vertices: vs}, nil
}

// Len returns the number of vertices without the closing repeat.
func (p Polygon) Len() int {
	if len(p.Vertices) == 0 {
		return 0
	}
	return len(p.Vertices) - 1
}

// Ring returns the vertices without the closing repeat.
func (p Polygon) Ring() []grid.Point {
	if len(p.Vertices) == 0 {
		return nil
	}
	return p.Vertices[:len(p.Vertices)-1]
}

// Edges calls fn for every edge, including the closing one.
func (p Polygon) Edges(fn func(a, b grid.Point)) {
	for i := 0; i+1 < len(p.Vertices); i++ {
		fn(p.Vertices[i], p.Vertices[i+1])
	}
}
