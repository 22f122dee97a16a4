// Package dss decomposes chain codes into maximal digital straight segments.
//
// A digital straight segment is a run of grid points satisfying
//
//	mu <= a*x - b*y < mu + omega
//
// for a direction (b, a) with gcd(a, b) = 1. The thickness omega is
// max(|a|,|b|) for naive lines and |a|+|b| for standard (4-connected) lines.
// Recognition is incremental and uses integer arithmetic only.
package dss

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// Thickness selects the arithmetic line model.
type Thickness int

const (
	// Naive lines have thickness max(|a|,|b|). On 4-connected chains every
	// naive segment is a run of identical steps.
	Naive Thickness = iota
	// Standard lines have thickness |a|+|b| and accept slanted 4-connected
	// staircases.
	Standard
)

func (t Thickness) String() string {
	switch t {
	case Naive:
		return "naive"
	case Standard:
		return "standard"
	}
	return fmt.Sprintf("Thickness(%d)", int(t))
}

// ParseThickness maps "naive" or "standard" to a Thickness.
func ParseThickness(s string) (Thickness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "naive":
		return Naive, nil
	case "standard":
		return Standard, nil
	}
	return Naive, fmt.Errorf("dss: unknown thickness %q", s)
}

func (t Thickness) omega(a, b int) int {
	a, b = abs(a), abs(b)
	if t == Standard {
		return a + b
	}
	return max(a, b)
}

// Recognizer holds the state of one segment under construction. Points are
// mapped into a local frame where every step is (1,0) or (0,1); the frame is
// fixed by the signs of the first horizontal and vertical steps seen.
//
// Leaning points are kept in image coordinates. uf/ul have remainder mu,
// lf/ll have remainder mu+omega-1, both in the local frame.
type Recognizer struct {
	thickness Thickness
	origin    grid.Point
	sx, sy    int // 0 until a step along that axis is seen
	first     grid.Direction
	last      grid.Point

	a, b, mu       int
	uf, ul, lf, ll grid.Point
}

// NewRecognizer starts a segment with the two points p0 and p1, which must
// be one axis step apart.
func NewRecognizer(t Thickness, p0, p1 grid.Point) (*Recognizer, error) {
	d, ok := grid.DirectionOf(p1.Sub(p0))
	if !ok {
		return nil, fmt.Errorf("dss: %v to %v is not a unit step", p0, p1)
	}
	r := &Recognizer{thickness: t, origin: p0, first: d, last: p1}
	r.sx, r.sy, _ = r.frameFor(d)
	if d.Horizontal() {
		r.a, r.b = 0, 1
	} else {
		r.a, r.b = 1, 0
	}
	r.uf, r.lf = p0, p0
	r.ul, r.ll = p1, p1
	return r, nil
}

// Extend tries to append p. It reports false, leaving the recognizer
// unchanged, when p would break straightness.
func (r *Recognizer) Extend(p grid.Point) bool {
	d, ok := grid.DirectionOf(p.Sub(r.last))
	if !ok {
		return false
	}
	if r.thickness == Naive && d != r.first {
		return false
	}
	sx, sy, ok := r.frameFor(d)
	if !ok {
		return false
	}

	x, y := local(r.origin, sx, sy, p)
	rem := r.a*x - r.b*y
	omega := r.thickness.omega(r.a, r.b)

	switch {
	case rem >= r.mu && rem < r.mu+omega:
		if rem == r.mu {
			r.ul = p
		}
		if rem == r.mu+omega-1 {
			r.ll = p
		}
	case rem == r.mu-1:
		ux, uy := local(r.origin, sx, sy, r.uf)
		r.ul = p
		r.lf = r.ll
		r.b, r.a = x-ux, y-uy
		r.mu = r.a*ux - r.b*uy
	case rem == r.mu+omega:
		lx, ly := local(r.origin, sx, sy, r.lf)
		r.ll = p
		r.uf = r.ul
		r.b, r.a = x-lx, y-ly
		r.mu = r.a*x - r.b*y - r.thickness.omega(r.a, r.b) + 1
	default:
		return false
	}

	r.sx, r.sy = sx, sy
	r.last = p
	return true
}

// Segment converts the recognizer state to image coordinates. start and end
// are the path indices of the first and last point.
func (r *Recognizer) Segment(start, end int) Segment {
	sx, sy := unit(r.sx), unit(r.sy)
	a, b := sy*r.a, sx*r.b
	omega := r.thickness.omega(a, b)
	c0 := a*r.origin.X - b*r.origin.Y

	s := Segment{Start: start, End: end, A: a, B: b, Omega: omega}
	if sx*sy > 0 {
		s.Mu = r.mu + c0
		s.Uf, s.Ul, s.Lf, s.Ll = r.uf, r.ul, r.lf, r.ll
	} else {
		// A mirrored frame swaps the sides of the line.
		s.Mu = c0 - (r.mu + omega - 1)
		s.Uf, s.Ul, s.Lf, s.Ll = r.lf, r.ll, r.uf, r.ul
	}
	return s
}

// frameFor returns the axis signs after a step along d. ok is false when d
// reverses a sign already fixed.
func (r *Recognizer) frameFor(d grid.Direction) (sx, sy int, ok bool) {
	v := d.Vector()
	sx, sy = r.sx, r.sy
	if d.Horizontal() {
		if sx != 0 && sx != v.X {
			return 0, 0, false
		}
		sx = v.X
	} else {
		if sy != 0 && sy != v.Y {
			return 0, 0, false
		}
		sy = v.Y
	}
	return sx, sy, true
}

func local(o grid.Point, sx, sy int, p grid.Point) (int, int) {
	return unit(sx) * (p.X - o.X), unit(sy) * (p.Y - o.Y)
}

func unit(s int) int {
	if s < 0 {
		return -1
	}
	return 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
