package testutil

import (
	"math/rand"

	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// Rect returns the filled w x h rectangle with lower-left pixel (x0, y0).
func Rect(x0, y0, w, h int) []grid.Point {
	pts := make([]grid.Point, 0, w*h)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			pts = append(pts, grid.Pt(x, y))
		}
	}
	return pts
}

// Frame returns the one pixel thick outline of the w x h rectangle at (x0, y0).
func Frame(x0, y0, w, h int) []grid.Point {
	var pts []grid.Point
	for _, p := range Rect(x0, y0, w, h) {
		if p.X == x0 || p.X == x0+w-1 || p.Y == y0 || p.Y == y0+h-1 {
			pts = append(pts, p)
		}
	}
	return pts
}

// Disk returns the pixels within distance r of (cx, cy).
func Disk(cx, cy, r int) []grid.Point {
	var pts []grid.Point
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				pts = append(pts, grid.Pt(x, y))
			}
		}
	}
	return pts
}

// Union concatenates point lists. Duplicates are left for PointSet to merge.
func Union(parts ...[]grid.Point) []grid.Point {
	var pts []grid.Point
	for _, p := range parts {
		pts = append(pts, p...)
	}
	return pts
}

// Translate shifts every point by (dx, dy).
func Translate(pts []grid.Point, dx, dy int) []grid.Point {
	out := make([]grid.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Add(grid.Pt(dx, dy))
	}
	return out
}

// RandomBlob returns the pixels visited by a random 4-connected walk of the
// given length starting at the origin. The result is always 4-connected.
func RandomBlob(r *rand.Rand, steps int) []grid.Point {
	p := grid.Pt(0, 0)
	pts := []grid.Point{p}
	for range steps {
		p = p.Add(grid.Directions[r.Intn(4)].Vector())
		pts = append(pts, p)
	}
	return pts
}
