package grid

// Component is a maximal 4-connected set of foreground points. ID is the
// discovery index assigned by labeling and survives filtering.
type Component struct {
	ID  int
	Set PointSet
}

// NewComponent wraps pts as a component with the given discovery index.
func NewComponent(id int, pts []Point) Component {
	return Component{ID: id, Set: NewPointSet(pts)}
}

// Size returns the number of pixels in c.
func (c Component) Size() int { return c.Set.Len() }

// TouchesBorder reports whether c reaches the frame of d. The frame is eroded
// by one cell: a coordinate equal to or beyond either bound on either axis
// counts as touching.
func TouchesBorder(c Component, d Domain) bool {
	if c.Set.Empty() {
		return false
	}
	b := c.Set.Bounds()
	return b.Lower.X <= d.Lower.X || b.Upper.X >= d.Upper.X ||
		b.Lower.Y <= d.Lower.Y || b.Upper.Y >= d.Upper.Y
}

// RemoveBorderComponents returns the components of cs that do not touch the
// border of d, in their original order, and the number discarded.
func RemoveBorderComponents(cs []Component, d Domain) ([]Component, int) {
	kept := make([]Component, 0, len(cs))
	for _, c := range cs {
		if TouchesBorder(c, d) {
			continue
		}
		kept = append(kept, c)
	}
	return kept, len(cs) - len(kept)
}
