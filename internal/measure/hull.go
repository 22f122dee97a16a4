package measure

import (
	"sort"

	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/polygon"
)

// ConvexHull computes the convex hull of pts with the monotone chain
// algorithm. The hull is counter-clockwise and not closed. Collinear points
// are dropped.
func ConvexHull(pts []grid.Point) []grid.Point {
	p := append([]grid.Point(nil), pts...)
	sort.Slice(p, func(i, j int) bool {
		if p[i].X != p[j].X {
			return p[i].X < p[j].X
		}
		return p[i].Y < p[j].Y
	})
	p = dedupe(p)
	if len(p) <= 2 {
		return p
	}

	lower := halfHull(p)
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	upper := halfHull(p)

	hull := make([]grid.Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	return append(hull, upper[:len(upper)-1]...)
}

func halfHull(p []grid.Point) []grid.Point {
	h := make([]grid.Point, 0, len(p))
	for _, pt := range p {
		for len(h) >= 2 && cross(h[len(h)-2], h[len(h)-1], pt) <= 0 {
			h = h[:len(h)-1]
		}
		h = append(h, pt)
	}
	return h
}

func dedupe(p []grid.Point) []grid.Point {
	out := p[:0]
	for i, pt := range p {
		if i == 0 || pt != p[i-1] {
			out = append(out, pt)
		}
	}
	return out
}

func cross(o, a, b grid.Point) int64 {
	return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
}

// ConvexArea is the area of the convex hull of the polygon's vertices.
func ConvexArea(p polygon.Polygon) float64 {
	hull := ConvexHull(p.Ring())
	if len(hull) < 3 {
		return 0
	}
	return ShoelaceArea(polygon.Polygon{Vertices: append(hull, hull[0])})
}
