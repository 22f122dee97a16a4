package grid

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, w, h int) []Point {
	pts := make([]Point, 0, w*h)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			pts = append(pts, Pt(x, y))
		}
	}
	return pts
}

func TestDirectionVectorsAndTurns(t *testing.T) {
	assert.Equal(t, Pt(1, 0), East.Vector())
	assert.Equal(t, Pt(0, 1), North.Vector())
	assert.Equal(t, Pt(-1, 0), West.Vector())
	assert.Equal(t, Pt(0, -1), South.Vector())

	for _, d := range Directions {
		assert.Equal(t, d, d.Left().Right())
		assert.Equal(t, d.Opposite(), d.Left().Left())
		got, ok := DirectionOf(d.Vector())
		require.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := DirectionOf(Pt(1, 1))
	assert.False(t, ok)
	assert.Equal(t, "ENWS", East.String()+North.String()+West.String()+South.String())
}

func TestPointSet(t *testing.T) {
	s := NewPointSet([]Point{Pt(2, 1), Pt(0, 3), Pt(2, 1), Pt(1, 1)})
	require.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(Pt(0, 3)))
	assert.False(t, s.Contains(Pt(3, 3)))
	assert.Equal(t, []Point{Pt(1, 1), Pt(2, 1), Pt(0, 3)}, s.Points())

	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, Pt(1, 1), first)
	assert.Equal(t, Domain{Lower: Pt(0, 1), Upper: Pt(2, 3)}, s.Bounds())

	_, ok = NewPointSet(nil).First()
	assert.False(t, ok)
}

func TestDomain(t *testing.T) {
	d := NewDomain(Pt(4, 9), Pt(0, 0))
	assert.Equal(t, DomainOfSize(5, 10), d)
	assert.Equal(t, 5, d.Width())
	assert.Equal(t, 10, d.Height())
	assert.True(t, d.Contains(Pt(4, 9)))
	assert.False(t, d.Contains(Pt(5, 9)))

	p := d.Padded()
	assert.Equal(t, Pt(-1, -1), p.Lower)
	assert.Equal(t, Pt(5, 10), p.Upper)
	assert.True(t, DomainOfSize(0, 3).Empty())
}

func TestTouchesBorder(t *testing.T) {
	d := DomainOfSize(20, 20)

	tests := []struct {
		name string
		pts  []Point
		want bool
	}{
		{"interior", square(5, 5, 5, 5), false},
		{"one cell from frame", square(1, 1, 18, 18), false},
		{"on lower x", square(0, 5, 3, 3), true},
		{"on upper x", square(17, 5, 3, 3), true},
		{"on lower y", square(5, 0, 3, 3), true},
		{"on upper y", square(5, 17, 3, 3), true},
		{"beyond upper x", []Point{Pt(20, 10)}, true},
		{"empty set", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TouchesBorder(NewComponent(0, tt.pts), d))
		})
	}
}

func TestRemoveBorderComponents_KeepsOrder(t *testing.T) {
	d := DomainOfSize(30, 30)
	cs := []Component{
		NewComponent(0, square(0, 0, 4, 4)),
		NewComponent(1, square(5, 5, 3, 3)),
		NewComponent(2, square(26, 10, 4, 4)),
		NewComponent(3, square(12, 12, 2, 2)),
	}
	kept, discarded := RemoveBorderComponents(cs, d)
	assert.Equal(t, 2, discarded)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].ID)
	assert.Equal(t, 3, kept[1].ID)
}

func TestTouchesBorder_UpperXAlwaysDiscarded(t *testing.T) {
	properties := gopter.NewProperties(nil)
	d := DomainOfSize(40, 40)

	properties.Property("any shape reaching upper x is discarded", prop.ForAll(
		func(w, h, y int) bool {
			c := NewComponent(0, square(d.Upper.X-w+1, y, w, h))
			return TouchesBorder(c, d)
		},
		gen.IntRange(1, 10),
		gen.IntRange(1, 10),
		gen.IntRange(2, 25),
	))

	properties.Property("shapes strictly inside the eroded frame are kept", prop.ForAll(
		func(x, y, w, h int) bool {
			c := NewComponent(0, square(x, y, w, h))
			return !TouchesBorder(c, d)
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 20),
		gen.IntRange(1, 18),
		gen.IntRange(1, 18),
	))

	properties.TestingRun(t)
}
