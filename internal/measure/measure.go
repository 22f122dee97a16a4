// Package measure computes area, perimeter and circularity of traced
// components and aggregates them per image.
package measure

import (
	"math"

	"github.com/MeKo-Tech/grainscan/internal/boundary"
	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/polygon"
)

// PixelArea is the number of pixels of the set.
func PixelArea(set grid.PointSet) int { return set.Len() }

// ShoelaceArea is the unsigned area enclosed by the polygon.
func ShoelaceArea(p polygon.Polygon) float64 {
	var twice int64
	p.Edges(func(a, b grid.Point) {
		twice += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	})
	if twice < 0 {
		twice = -twice
	}
	return float64(twice) / 2
}

// CellPerimeter is the number of boundary elements of the contour.
func CellPerimeter(c boundary.Contour) int { return c.Len() }

// PolygonPerimeter is the sum of the Euclidean edge lengths.
func PolygonPerimeter(p polygon.Polygon) float64 {
	var sum float64
	p.Edges(func(a, b grid.Point) {
		d := b.Sub(a)
		sum += math.Hypot(float64(d.X), float64(d.Y))
	})
	return sum
}

// Circularity returns 4*pi*area/perimeter^2. ok is false when the perimeter
// is zero and the value is undefined.
func Circularity(area, perimeter float64) (float64, bool) {
	if perimeter == 0 {
		return 0, false
	}
	return 4 * math.Pi * area / (perimeter * perimeter), true
}

// Measures holds the shape descriptors of one component.
type Measures struct {
	PixelArea        int     `json:"pixel_area" yaml:"pixel_area"`
	ShoelaceArea     float64 `json:"shoelace_area" yaml:"shoelace_area"`
	CellPerimeter    int     `json:"cell_perimeter" yaml:"cell_perimeter"`
	PolygonPerimeter float64 `json:"polygon_perimeter" yaml:"polygon_perimeter"`
	// Circularity is nil when the polygon perimeter is zero.
	Circularity *float64 `json:"circularity" yaml:"circularity"`
	ConvexArea  float64  `json:"convex_area" yaml:"convex_area"`
	// Solidity is the polygon area over its convex hull area, nil for
	// degenerate hulls.
	Solidity *float64 `json:"solidity" yaml:"solidity"`
}

// Measure computes all descriptors. Circularity uses the polygon area and
// polygon perimeter.
func Measure(set grid.PointSet, c boundary.Contour, p polygon.Polygon) Measures {
	m := Measures{
		PixelArea:        PixelArea(set),
		ShoelaceArea:     ShoelaceArea(p),
		CellPerimeter:    CellPerimeter(c),
		PolygonPerimeter: PolygonPerimeter(p),
	}
	if v, ok := Circularity(m.ShoelaceArea, m.PolygonPerimeter); ok {
		m.Circularity = &v
	}
	m.ConvexArea = ConvexArea(p)
	if m.ConvexArea > 0 {
		v := m.ShoelaceArea / m.ConvexArea
		m.Solidity = &v
	}
	return m
}
