// Package pipeline runs grain analysis end to end: binarization, labeling,
// border filtering, boundary tracing, chain coding, straight-segment
// decomposition, polygon building and measurement.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/boundary"
	"github.com/MeKo-Tech/grainscan/internal/chain"
	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/labeling"
	"github.com/MeKo-Tech/grainscan/internal/measure"
	"github.com/MeKo-Tech/grainscan/internal/polygon"
)

// Pipeline analyzes images with a fixed configuration. It is safe for
// concurrent use.
type Pipeline struct {
	cfg       Config
	tracer    boundary.Tracer
	segmenter dss.Segmenter
	logger    *slog.Logger
}

// New validates cfg and returns a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		tracer:    boundary.Tracer{MaxSeedSteps: cfg.MaxSeedSteps},
		segmenter: dss.Segmenter{Thickness: cfg.Thickness},
		logger:    logger,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// AnalyzeComponent analyzes one component with cfg.
func AnalyzeComponent(c grid.Component, d grid.Domain, cfg Config) ComponentResult {
	p, err := New(cfg)
	if err != nil {
		return ComponentResult{ID: c.ID, Component: c, Err: err, Error: err.Error()}
	}
	return p.AnalyzeComponent(c, d)
}

// AnalyzeImage analyzes img with cfg.
func AnalyzeImage(ctx context.Context, img image.Image, cfg Config) (*ImageResult, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeImage(ctx, img)
}

// AnalyzeComponent traces, encodes, segments and measures c. Failures are
// recorded on the result as a *ComponentError.
func (p *Pipeline) AnalyzeComponent(c grid.Component, d grid.Domain) ComponentResult {
	res := ComponentResult{ID: c.ID, Bounds: c.Set.Bounds(), Component: c}

	contour, err := p.tracer.Trace(c, d)
	if err != nil {
		return res.fail(StageTrace, err)
	}
	code, err := chain.Encode(contour.Points())
	if err != nil {
		return res.fail(StageEncode, err)
	}
	segs, err := p.segmenter.Segment(code)
	if err != nil {
		return res.fail(StageSegment, err)
	}
	poly, err := polygon.Build(segs)
	if err != nil {
		return res.fail(StagePolygon, err)
	}

	m := measure.Measure(c.Set, contour, poly)
	res.Measures = &m
	res.Segments = len(segs)
	if p.cfg.KeepGeometry {
		res.Geometry = &Geometry{
			Contour:    contour.Points(),
			ChainStart: code.Start,
			Chain:      code.String(),
			Segments:   segs,
			Polygon:    poly.Ring(),
		}
	}
	return res
}

func (r ComponentResult) fail(stage Stage, err error) ComponentResult {
	r.Err = &ComponentError{ComponentID: r.ID, Stage: stage, Err: err}
	r.Error = r.Err.Error()
	return r
}

// AnalyzeImage labels img, drops border components unless configured
// otherwise, analyzes the remaining components in parallel and summarizes
// the measured ones. Component failures do not fail the image.
func (p *Pipeline) AnalyzeImage(ctx context.Context, img image.Image) (*ImageResult, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	start := time.Now()

	d, labels := labeling.LabelImage(img, p.cfg.Labeling)
	labeled := time.Now()

	kept, discarded := labels, 0
	if !p.cfg.KeepBorder {
		kept, discarded = grid.RemoveBorderComponents(labels, d)
	}

	results, err := p.ProcessComponents(ctx, kept, d)
	if err != nil {
		imagesTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}

	res := &ImageResult{
		Width:      d.Width(),
		Height:     d.Height(),
		Labelled:   len(labels),
		Discarded:  discarded,
		Components: results,
		Labels:     labels,
	}
	ms := make([]measure.Measures, 0, len(results))
	for _, r := range results {
		if !r.OK() {
			res.Failed++
			componentsTotal.WithLabelValues("failed").Inc()
			p.logger.Warn("component analysis failed", "component", r.ID, "error", r.Err)
			continue
		}
		res.Measured++
		ms = append(ms, *r.Measures)
		componentsTotal.WithLabelValues("measured").Inc()
		segmentsPerComponent.Observe(float64(r.Segments))
	}
	componentsTotal.WithLabelValues("discarded").Add(float64(discarded))
	res.Summary = measure.Summarize(ms)

	end := time.Now()
	res.Processing.LabelingNs = labeled.Sub(start).Nanoseconds()
	res.Processing.AnalysisNs = end.Sub(labeled).Nanoseconds()
	res.Processing.TotalNs = end.Sub(start).Nanoseconds()
	imagesTotal.WithLabelValues("ok").Inc()
	imageDuration.Observe(end.Sub(start).Seconds())

	p.logger.Debug("image analyzed",
		"width", res.Width,
		"height", res.Height,
		"labelled", res.Labelled,
		"discarded", res.Discarded,
		"measured", res.Measured,
		"failed", res.Failed,
		"duration", end.Sub(start).Round(time.Microsecond),
	)
	return res, nil
}
