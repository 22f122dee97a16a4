package polygon

import (
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/boundary"
	"github.com/MeKo-Tech/grainscan/internal/chain"
	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segments(t *testing.T, digits string) []dss.Segment {
	t.Helper()
	code, err := chain.Parse(grid.Pt(0, 0), digits)
	require.NoError(t, err)
	segs, err := dss.Decompose(code)
	require.NoError(t, err)
	return segs
}

func TestBuild_Rectangle(t *testing.T) {
	p, err := Build(segments(t, "000111222333"))
	require.NoError(t, err)

	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []grid.Point{
		grid.Pt(3, 0), grid.Pt(3, 3), grid.Pt(0, 3), grid.Pt(0, 0), grid.Pt(3, 0),
	}, p.Vertices)
	assert.Equal(t, p.Vertices[:4], p.Ring())

	edges := 0
	p.Edges(func(a, b grid.Point) { edges++ })
	assert.Equal(t, 4, edges)
}

func TestBuild_StraightRunIsBigon(t *testing.T) {
	p, err := Build(segments(t, "0000"))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
	require.Len(t, p.Vertices, 2)
	assert.Equal(t, p.Vertices[0], p.Vertices[1])
}

func TestBuild_CollapsesSharedAnchors(t *testing.T) {
	segs := []dss.Segment{
		{Ll: grid.Pt(0, 0)},
		{Ll: grid.Pt(0, 0)},
		{Ll: grid.Pt(3, 0)},
		{Ll: grid.Pt(3, 3)},
		{Ll: grid.Pt(0, 0)},
	}
	p, err := Build(segs)
	require.NoError(t, err)
	assert.Equal(t, []grid.Point{grid.Pt(0, 0), grid.Pt(3, 0), grid.Pt(3, 3), grid.Pt(0, 0)}, p.Vertices)
	assert.Equal(t, 3, p.Len())

	p, err = Build([]dss.Segment{{Ll: grid.Pt(2, 2)}, {Ll: grid.Pt(2, 2)}})
	require.NoError(t, err)
	assert.Equal(t, []grid.Point{grid.Pt(2, 2), grid.Pt(2, 2)}, p.Vertices)
}

func TestBuild_TracedBlobsHaveDistinctConsecutiveVertices(t *testing.T) {
	properties := gopter.NewProperties(nil)

	for _, th := range []dss.Thickness{dss.Naive, dss.Standard} {
		properties.Property(th.String()+" polygons never repeat a vertex in a row", prop.ForAll(
			func(seed int64, steps int) bool {
				r := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
				pts := testutil.Translate(testutil.RandomBlob(r, steps), 64, 64)
				c, err := boundary.Trace(grid.NewComponent(0, pts), grid.DomainOfSize(128, 128))
				if err != nil {
					return false
				}
				code, err := chain.Encode(c.Points())
				if err != nil {
					return false
				}
				segs, err := dss.Segmenter{Thickness: th}.Segment(code)
				if err != nil {
					return false
				}
				p, err := Build(segs)
				if err != nil {
					return false
				}

				vs := p.Vertices
				if vs[0] != vs[len(vs)-1] || p.Len() > len(segs) {
					return false
				}
				if th == dss.Naive && p.Len() != len(segs) {
					return false
				}
				if p.Len() == 1 {
					return true
				}
				for i := 1; i < len(vs); i++ {
					if vs[i] == vs[i-1] {
						return false
					}
				}
				return true
			},
			gen.Int64(),
			gen.IntRange(0, 40),
		))
	}

	properties.TestingRun(t)
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(nil)
	require.ErrorIs(t, err, ErrEmptySegmentation)

	var p Polygon
	assert.Equal(t, 0, p.Len())
	assert.Nil(t, p.Ring())
}
