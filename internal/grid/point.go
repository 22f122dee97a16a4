// Package grid holds the integer lattice model shared by the tracing,
// encoding and segmentation stages: points, unit directions, domains,
// point sets and labelled components.
package grid

import "fmt"

// Point is an integer position on the square grid.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Less orders points row by row (y first, then x).
func (p Point) Less(q Point) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Direction is one of the four unit axis moves. The numeric values are the
// Freeman symbols used by chain codes.
type Direction uint8

const (
	East Direction = iota
	North
	West
	South
)

var directionVectors = [4]Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Directions lists the four directions in symbol order.
var Directions = [4]Direction{East, North, West, South}

// Vector returns the unit displacement of d.
func (d Direction) Vector() Point { return directionVectors[d&3] }

// Left returns d rotated a quarter turn counter-clockwise.
func (d Direction) Left() Direction { return (d + 1) & 3 }

// Right returns d rotated a quarter turn clockwise.
func (d Direction) Right() Direction { return (d + 3) & 3 }

// Opposite returns the reverse of d.
func (d Direction) Opposite() Direction { return (d + 2) & 3 }

// Horizontal reports whether d moves along the x axis.
func (d Direction) Horizontal() bool { return d == East || d == West }

func (d Direction) String() string {
	switch d {
	case East:
		return "E"
	case North:
		return "N"
	case West:
		return "W"
	case South:
		return "S"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// DirectionOf returns the direction whose vector equals v.
func DirectionOf(v Point) (Direction, bool) {
	for _, d := range Directions {
		if directionVectors[d] == v {
			return d, true
		}
	}
	return 0, false
}
