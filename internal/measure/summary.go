package measure

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes one metric over the components of an image. All fields are
// zero when Count is zero.
type Stats struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summary aggregates the measures of the components of one image.
type Summary struct {
	Components       int   `json:"components" yaml:"components"`
	PixelArea        Stats `json:"pixel_area" yaml:"pixel_area"`
	ShoelaceArea     Stats `json:"shoelace_area" yaml:"shoelace_area"`
	CellPerimeter    Stats `json:"cell_perimeter" yaml:"cell_perimeter"`
	PolygonPerimeter Stats `json:"polygon_perimeter" yaml:"polygon_perimeter"`
	// Circularity only covers components where it is defined.
	Circularity Stats `json:"circularity" yaml:"circularity"`
}

// Summarize computes per-metric statistics. Undefined circularities are
// skipped rather than counted as zero.
func Summarize(ms []Measures) Summary {
	n := len(ms)
	area := make([]float64, 0, n)
	shoelace := make([]float64, 0, n)
	cells := make([]float64, 0, n)
	perim := make([]float64, 0, n)
	circ := make([]float64, 0, n)
	for _, m := range ms {
		area = append(area, float64(m.PixelArea))
		shoelace = append(shoelace, m.ShoelaceArea)
		cells = append(cells, float64(m.CellPerimeter))
		perim = append(perim, m.PolygonPerimeter)
		if m.Circularity != nil {
			circ = append(circ, *m.Circularity)
		}
	}
	return Summary{
		Components:       n,
		PixelArea:        Describe(area),
		ShoelaceArea:     Describe(shoelace),
		CellPerimeter:    Describe(cells),
		PolygonPerimeter: Describe(perim),
		Circularity:      Describe(circ),
	}
}

// Describe returns the statistics of xs. The standard deviation is the
// sample deviation and is zero for fewer than two values.
func Describe(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	s := Stats{
		Count: len(xs),
		Mean:  stat.Mean(xs, nil),
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s
}
