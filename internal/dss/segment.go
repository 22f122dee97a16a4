package dss

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/grainscan/internal/chain"
	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// ErrChainTooShort reports a chain with fewer than two steps.
var ErrChainTooShort = errors.New("dss: chain code too short")

// Segment is a digital straight segment of a chain path.
//
// Start and End index the open path P0..Pn of the chain (see chain.Code.Path);
// for a closed chain index n denotes the contour's first point again. Upper
// leaning points (remainder Mu) lie on the left of the walk, which is the
// foreground side of a counter-clockwise contour; lower leaning points
// (remainder Mu+Omega-1) lie on the right.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`

	A     int `json:"a"`
	B     int `json:"b"`
	Mu    int `json:"mu"`
	Omega int `json:"omega"`

	Uf grid.Point `json:"upper_first"`
	Ul grid.Point `json:"upper_last"`
	Lf grid.Point `json:"lower_first"`
	Ll grid.Point `json:"lower_last"`
}

// Steps returns the number of chain steps covered by s.
func (s Segment) Steps() int { return s.End - s.Start }

// Remainder returns a*x - b*y for p.
func (s Segment) Remainder(p grid.Point) int { return s.A*p.X - s.B*p.Y }

// Contains reports whether p satisfies the line inequality of s.
func (s Segment) Contains(p grid.Point) bool {
	r := s.Remainder(p)
	return r >= s.Mu && r < s.Mu+s.Omega
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d,%d] a=%d b=%d mu=%d", s.Start, s.End, s.A, s.B, s.Mu)
}

// Segmenter performs greedy decomposition into maximal segments.
type Segmenter struct {
	Thickness Thickness
}

// Decompose splits code into maximal segments with naive thickness.
func Decompose(code chain.Code) ([]Segment, error) {
	return Segmenter{Thickness: Naive}.Segment(code)
}

// Segment walks the chain path once. Each segment is extended while the next
// point keeps it straight; the following segment starts at the last point of
// the previous one. The closing step of the chain is part of the path, and
// the last segment ends on the path's final point.
func (g Segmenter) Segment(code chain.Code) ([]Segment, error) {
	n := code.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d steps", ErrChainTooShort, n)
	}
	path := code.Path()

	var segs []Segment
	for start := 0; start < n; {
		rec, err := NewRecognizer(g.Thickness, path[start], path[start+1])
		if err != nil {
			return nil, err
		}
		end := start + 1
		for end < n && rec.Extend(path[end+1]) {
			end++
		}
		segs = append(segs, rec.Segment(start, end))
		start = end
	}
	return segs, nil
}
