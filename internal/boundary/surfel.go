// Package boundary traces the oriented outer boundary of a component as a
// closed cycle of surfels on the pixel grid.
//
// Pixel (x, y) is the unit cell [x, x+1] x [y, y+1]. A surfel is the cell
// edge between a foreground pixel and a background pixel. Surfels are
// directed so the foreground stays on the left of the walk, which makes the
// outer boundary run counter-clockwise in (x, y) coordinates.
package boundary

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/grainscan/internal/grid"
)

var (
	// ErrDegenerateComponent reports a component without a traceable boundary.
	ErrDegenerateComponent = errors.New("boundary: degenerate component")
	// ErrBoundaryNotFound reports a seed scan that exceeded its step bound.
	ErrBoundaryNotFound = errors.New("boundary: boundary element not found")
)

// cornerOffsets lists the corners of a pixel counter-clockwise starting at
// its lower-left corner.
var cornerOffsets = [4]grid.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// Surfel is a boundary element: the edge of Pixel facing Normal.
type Surfel struct {
	Pixel  grid.Point     `json:"pixel"`
	Normal grid.Direction `json:"normal"`
}

// Outer returns the background pixel on the other side of s.
func (s Surfel) Outer() grid.Point { return s.Pixel.Add(s.Normal.Vector()) }

// Tangent is the walking direction along s.
func (s Surfel) Tangent() grid.Direction { return s.Normal.Left() }

// Start returns the pixel corner where the directed edge begins.
func (s Surfel) Start() grid.Point {
	return s.Pixel.Add(cornerOffsets[s.Normal.Left()])
}

// End returns the pixel corner where the directed edge ends.
func (s Surfel) End() grid.Point { return s.Start().Add(s.Tangent().Vector()) }

func (s Surfel) String() string { return fmt.Sprintf("%v|%v", s.Pixel, s.Normal) }

// Contour is a closed cycle of surfels. Consecutive surfels share a corner
// and the last surfel ends where the first begins.
type Contour struct {
	Surfels []Surfel `json:"surfels"`
}

// Len returns the number of boundary elements.
func (c Contour) Len() int { return len(c.Surfels) }

// Points returns the starting corner of every surfel in walk order.
func (c Contour) Points() []grid.Point {
	pts := make([]grid.Point, len(c.Surfels))
	for i, s := range c.Surfels {
		pts[i] = s.Start()
	}
	return pts
}
