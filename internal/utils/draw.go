package utils

import (
	"image"
	"image/color"
	"image/draw"
)

// DrawPolyline draws connected line segments through pts. When closed is
// true the last point is joined back to the first.
func DrawPolyline(dst draw.Image, pts []image.Point, col color.Color, thickness int, closed bool) {
	if len(pts) < 2 {
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		DrawLine(dst, pts[i], pts[i+1], col, thickness)
	}
	if closed {
		DrawLine(dst, pts[len(pts)-1], pts[0], col, thickness)
	}
}

// DrawLine draws a line between two points using Bresenham's algorithm.
func DrawLine(dst draw.Image, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// FillPoints paints single pixels.
func FillPoints(dst draw.Image, pts []image.Point, col color.Color) {
	b := dst.Bounds()
	for _, p := range pts {
		if p.In(b) {
			dst.Set(p.X, p.Y, col)
		}
	}
}

func drawThickPoint(dst draw.Image, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := (thickness - 1) / 2
	b := dst.Bounds()
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(b) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
