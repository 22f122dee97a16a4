package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/boundary"
	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grainScene() testutil.Scene {
	return testutil.DefaultScene().With(
		testutil.Rect(2, 2, 5, 5),
		testutil.Rect(60, 10, 4, 4), // touches the right edge
		testutil.Disk(30, 30, 5),
	)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dss.Naive, cfg.Thickness)
	assert.Equal(t, boundary.DefaultMaxSeedSteps, cfg.MaxSeedSteps)
	assert.False(t, cfg.KeepBorder)
	assert.Positive(t, cfg.Parallel.MaxWorkers)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero seed steps", func(c *Config) { c.MaxSeedSteps = 0 }},
		{"negative min pixels", func(c *Config) { c.Labeling.MinPixels = -1 }},
		{"unknown thickness", func(c *Config) { c.Thickness = dss.Thickness(7) }},
		{"negative workers", func(c *Config) { c.Parallel.MaxWorkers = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			require.Error(t, cfg.Validate())
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestBuilder(t *testing.T) {
	p, err := NewBuilder().
		WithThreshold(128).
		WithInvert(true).
		WithMinPixels(3).
		WithKeepBorder(true).
		WithThickness(dss.Standard).
		WithMaxSeedSteps(50).
		WithGeometry(true).
		WithWorkers(2).
		Build()
	require.NoError(t, err)

	cfg := p.Config()
	assert.Equal(t, uint8(128), cfg.Labeling.Level)
	assert.True(t, cfg.Labeling.Invert)
	assert.Equal(t, 3, cfg.Labeling.MinPixels)
	assert.True(t, cfg.KeepBorder)
	assert.Equal(t, dss.Standard, cfg.Thickness)
	assert.Equal(t, 50, cfg.MaxSeedSteps)
	assert.True(t, cfg.KeepGeometry)
	assert.Equal(t, 2, cfg.Parallel.MaxWorkers)
}

func TestAnalyzeComponent_Square(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeepGeometry = true
	res := AnalyzeComponent(grid.NewComponent(4, testutil.Rect(2, 2, 5, 5)), grid.DomainOfSize(10, 10), cfg)

	require.True(t, res.OK(), res.Error)
	assert.Equal(t, 4, res.ID)
	assert.Equal(t, 4, res.Segments)
	m := res.Measures
	assert.Equal(t, 25, m.PixelArea)
	assert.Equal(t, 20, m.CellPerimeter)
	assert.InDelta(t, 25.0, m.ShoelaceArea, 1e-9)
	assert.InDelta(t, 20.0, m.PolygonPerimeter, 1e-9)
	require.NotNil(t, m.Circularity)
	assert.InDelta(t, math.Pi/4, *m.Circularity, 1e-9)

	require.NotNil(t, res.Geometry)
	assert.Equal(t, "00000111112222233333", res.Geometry.Chain)
	assert.Equal(t, grid.Pt(2, 2), res.Geometry.ChainStart)
	assert.Len(t, res.Geometry.Contour, 20)
	assert.Len(t, res.Geometry.Segments, 4)
	assert.Len(t, res.Geometry.Polygon, 4)
}

func TestAnalyzeComponent_WithoutGeometry(t *testing.T) {
	res := AnalyzeComponent(grid.NewComponent(0, testutil.Rect(1, 1, 3, 2)), grid.DomainOfSize(8, 8), DefaultConfig())
	require.True(t, res.OK())
	assert.Nil(t, res.Geometry)
}

func TestAnalyzeComponent_Failure(t *testing.T) {
	res := AnalyzeComponent(grid.NewComponent(9, testutil.Rect(50, 50, 2, 2)), grid.DomainOfSize(10, 10), DefaultConfig())

	assert.False(t, res.OK())
	assert.Nil(t, res.Measures)
	require.ErrorIs(t, res.Err, boundary.ErrDegenerateComponent)
	var ce *ComponentError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, 9, ce.ComponentID)
	assert.Equal(t, StageTrace, ce.Stage)
	assert.Contains(t, res.Error, "component 9: trace")
}

func TestAnalyzeImage(t *testing.T) {
	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.Parallel.MaxWorkers = workers

		res, err := AnalyzeImage(context.Background(), grainScene().Render(), cfg)
		require.NoError(t, err)

		assert.Equal(t, 64, res.Width)
		assert.Equal(t, 64, res.Height)
		assert.Equal(t, 3, res.Labelled)
		assert.Equal(t, 1, res.Discarded)
		assert.Equal(t, 2, res.Measured)
		assert.Equal(t, 0, res.Failed)
		assert.Len(t, res.Labels, 3)

		require.Len(t, res.Components, 2)
		assert.Equal(t, 0, res.Components[0].ID)
		assert.Equal(t, 2, res.Components[1].ID)
		assert.Equal(t, 25, res.Components[0].Measures.PixelArea)

		assert.Equal(t, 2, res.Summary.Components)
		assert.Equal(t, 2, res.Summary.PixelArea.Count)
		assert.InDelta(t, 25.0, res.Summary.PixelArea.Min, 1e-9)
		assert.Positive(t, res.Processing.TotalNs)
	}
}

func TestAnalyzeImage_KeepBorder(t *testing.T) {
	p, err := NewBuilder().WithKeepBorder(true).Build()
	require.NoError(t, err)

	res, err := p.AnalyzeImage(context.Background(), grainScene().Render())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Discarded)
	assert.Equal(t, 3, res.Measured)
	assert.Equal(t, 16, res.Components[1].Measures.PixelArea)
}

func TestAnalyzeImage_Empty(t *testing.T) {
	res, err := AnalyzeImage(context.Background(), testutil.DefaultScene().Render(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Labelled)
	assert.Empty(t, res.Components)
	assert.Equal(t, 0, res.Summary.Components)
	assert.Zero(t, res.Summary.PixelArea.Mean)
}

func TestAnalyzeImage_MeasuredComponents(t *testing.T) {
	res, err := AnalyzeImage(context.Background(), grainScene().Render(), DefaultConfig())
	require.NoError(t, err)
	res.Components = append(res.Components, ComponentResult{ID: 99, Err: assert.AnError})
	assert.Len(t, res.MeasuredComponents(), 2)
}

func TestAnalyzeImage_Errors(t *testing.T) {
	_, err := AnalyzeImage(context.Background(), nil, DefaultConfig())
	require.ErrorIs(t, err, ErrNilImage)

	cfg := DefaultConfig()
	cfg.MaxSeedSteps = -1
	_, err = AnalyzeImage(context.Background(), grainScene().Render(), cfg)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 3} {
		cfg := DefaultConfig()
		cfg.Parallel.MaxWorkers = workers
		_, err = AnalyzeImage(ctx, grainScene().Render(), cfg)
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestProcessComponents_PreservesOrder(t *testing.T) {
	p, err := NewBuilder().WithWorkers(3).Build()
	require.NoError(t, err)

	d := grid.DomainOfSize(100, 100)
	var cs []grid.Component
	for i := range 12 {
		cs = append(cs, grid.NewComponent(i, testutil.Rect(2+7*i, 2+i, 2+i%4, 3)))
	}
	results, err := p.ProcessComponents(context.Background(), cs, d)
	require.NoError(t, err)
	require.Len(t, results, len(cs))
	for i, r := range results {
		assert.Equal(t, i, r.ID)
		require.True(t, r.OK())
		assert.Equal(t, cs[i].Size(), r.Measures.PixelArea)
	}

	empty, err := p.ProcessComponents(context.Background(), nil, d)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
