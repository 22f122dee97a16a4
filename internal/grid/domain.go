package grid

import "fmt"

// Domain is an inclusive axis-aligned box of valid coordinates.
type Domain struct {
	Lower Point `json:"lower" yaml:"lower"`
	Upper Point `json:"upper" yaml:"upper"`
}

// NewDomain returns the domain spanned by the two corners in any order.
func NewDomain(a, b Point) Domain {
	if a.X > b.X {
		a.X, b.X = b.X, a.X
	}
	if a.Y > b.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	return Domain{Lower: a, Upper: b}
}

// DomainOfSize returns the domain [0,w-1]x[0,h-1].
func DomainOfSize(w, h int) Domain {
	return Domain{Lower: Pt(0, 0), Upper: Pt(w-1, h-1)}
}

// Width is the number of columns.
func (d Domain) Width() int { return d.Upper.X - d.Lower.X + 1 }

// Height is the number of rows.
func (d Domain) Height() int { return d.Upper.Y - d.Lower.Y + 1 }

// Empty reports whether the domain holds no points.
func (d Domain) Empty() bool { return d.Width() <= 0 || d.Height() <= 0 }

// Contains reports whether p lies inside d.
func (d Domain) Contains(p Point) bool {
	return p.X >= d.Lower.X && p.X <= d.Upper.X && p.Y >= d.Lower.Y && p.Y <= d.Upper.Y
}

// Padded returns d grown by one cell on every side.
func (d Domain) Padded() Domain {
	return Domain{Lower: d.Lower.Sub(Pt(1, 1)), Upper: d.Upper.Add(Pt(1, 1))}
}

func (d Domain) String() string { return fmt.Sprintf("[%v..%v]", d.Lower, d.Upper) }
