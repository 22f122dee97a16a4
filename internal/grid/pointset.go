package grid

import "sort"

// PointSet is an immutable set of unique points.
type PointSet struct {
	members map[Point]struct{}
	points  []Point // sorted by Less
	bounds  Domain
}

// NewPointSet builds a set from pts; duplicates are collapsed.
func NewPointSet(pts []Point) PointSet {
	members := make(map[Point]struct{}, len(pts))
	sorted := make([]Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := members[p]; ok {
			continue
		}
		members[p] = struct{}{}
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	s := PointSet{members: members, points: sorted}
	if len(sorted) > 0 {
		lo, hi := sorted[0], sorted[0]
		for _, p := range sorted[1:] {
			lo.X = min(lo.X, p.X)
			lo.Y = min(lo.Y, p.Y)
			hi.X = max(hi.X, p.X)
			hi.Y = max(hi.Y, p.Y)
		}
		s.bounds = Domain{Lower: lo, Upper: hi}
	}
	return s
}

// Len returns the number of points.
func (s PointSet) Len() int { return len(s.points) }

// Empty reports whether the set has no points.
func (s PointSet) Empty() bool { return len(s.points) == 0 }

// Contains reports membership of p.
func (s PointSet) Contains(p Point) bool {
	_, ok := s.members[p]
	return ok
}

// Points returns the members ordered by Less. The slice must not be modified.
func (s PointSet) Points() []Point { return s.points }

// First returns the lowest, then leftmost point. ok is false for an empty set.
func (s PointSet) First() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Bounds returns the bounding box of the set. It is the zero Domain when empty.
func (s PointSet) Bounds() Domain { return s.bounds }
