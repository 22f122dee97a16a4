package pipeline

import (
	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/measure"
)

// Geometry carries the intermediate shapes of one component.
type Geometry struct {
	// Contour holds the corner points of the boundary, counter-clockwise.
	Contour    []grid.Point  `json:"contour" yaml:"contour"`
	ChainStart grid.Point    `json:"chain_start" yaml:"chain_start"`
	Chain      string        `json:"chain" yaml:"chain"`
	Segments   []dss.Segment `json:"segments" yaml:"segments"`
	Polygon    []grid.Point  `json:"polygon" yaml:"polygon"` // open ring
}

// ComponentResult is the analysis output for one component.
type ComponentResult struct {
	ID       int               `json:"id" yaml:"id"`
	Bounds   grid.Domain       `json:"bounds" yaml:"bounds"`
	Segments int               `json:"segments" yaml:"segments"`
	Measures *measure.Measures `json:"measures,omitempty" yaml:"measures,omitempty"`
	Geometry *Geometry         `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`

	Err       error          `json:"-" yaml:"-"`
	Component grid.Component `json:"-" yaml:"-"`
}

// OK reports whether the component was measured.
func (r ComponentResult) OK() bool { return r.Err == nil && r.Measures != nil }

// ImageResult is the per-image output.
type ImageResult struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`

	Labelled  int `json:"labelled" yaml:"labelled"`
	Discarded int `json:"discarded" yaml:"discarded"`
	Measured  int `json:"measured" yaml:"measured"`
	Failed    int `json:"failed" yaml:"failed"`

	Components []ComponentResult `json:"components" yaml:"components"`
	Summary    measure.Summary   `json:"summary" yaml:"summary"`

	Processing struct {
		LabelingNs int64 `json:"labeling_ns" yaml:"labeling_ns"`
		AnalysisNs int64 `json:"analysis_ns" yaml:"analysis_ns"`
		TotalNs    int64 `json:"total_ns" yaml:"total_ns"`
	} `json:"processing" yaml:"processing"`

	// Labels holds every labelled component, including discarded ones.
	Labels []grid.Component `json:"-" yaml:"-"`
}

// MeasuredComponents returns the results that carry measures.
func (r *ImageResult) MeasuredComponents() []ComponentResult {
	out := make([]ComponentResult, 0, r.Measured)
	for _, c := range r.Components {
		if c.OK() {
			out = append(out, c)
		}
	}
	return out
}
