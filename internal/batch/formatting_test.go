package batch

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/measure"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReports() []ImageReport {
	circ := 0.785
	ok := pipeline.ComponentResult{
		ID:       0,
		Bounds:   grid.NewDomain(grid.Pt(2, 2), grid.Pt(6, 6)),
		Segments: 4,
		Measures: &measure.Measures{
			PixelArea: 25, ShoelaceArea: 25, CellPerimeter: 20, PolygonPerimeter: 20,
			Circularity: &circ, ConvexArea: 25,
		},
	}
	failed := pipeline.ComponentResult{ID: 1, Error: "component 1: trace: boom"}
	big := pipeline.ComponentResult{
		ID:       2,
		Measures: &measure.Measures{PixelArea: 12345, ShoelaceArea: 12000.5},
	}
	res := &pipeline.ImageResult{
		Width: 64, Height: 64, Labelled: 4, Discarded: 1, Measured: 2, Failed: 1,
		Components: []pipeline.ComponentResult{ok, failed, big},
		Summary:    measure.Summarize([]measure.Measures{*ok.Measures, *big.Measures}),
	}
	return []ImageReport{
		{File: "a.png", Result: res},
		{File: "b.png", Error: "decode failed"},
	}
}

func TestFormatReports_CSV(t *testing.T) {
	out, err := FormatReports(sampleReports(), nil, "csv", "")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"a.png", "0", "25", "25.0000", "20", "20.0000", "0.7850", "25.0000", "", "4", "2", "2", "6", "6", "",
	}, rows[1])
	assert.Equal(t, "component 1: trace: boom", rows[2][14])
	assert.Empty(t, rows[2][2])
	assert.Equal(t, "", rows[3][6], "undefined circularity is empty")
	assert.Equal(t, "b.png", rows[4][0])
	assert.Equal(t, "decode failed", rows[4][14])
}

func TestFormatReports_JSON(t *testing.T) {
	s := measure.Summary{Components: 2}
	out, err := FormatReports(sampleReports(), &s, "json", "")
	require.NoError(t, err)

	var decoded struct {
		Images []struct {
			File   string `json:"file"`
			Error  string `json:"error"`
			Result *struct {
				Measured   int `json:"measured"`
				Components []struct {
					Measures *struct {
						Circularity *float64 `json:"circularity"`
					} `json:"measures"`
				} `json:"components"`
			} `json:"result"`
		} `json:"images"`
		Summary struct {
			Components int `json:"components"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Images, 2)
	assert.Equal(t, 2, decoded.Images[0].Result.Measured)
	assert.Nil(t, decoded.Images[0].Result.Components[2].Measures.Circularity)
	assert.Nil(t, decoded.Images[1].Result)
	assert.Equal(t, 2, decoded.Summary.Components)
}

func TestFormatReports_YAML(t *testing.T) {
	out, err := FormatReports(sampleReports(), nil, "yaml", "")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	images, ok := decoded["images"].([]any)
	require.True(t, ok)
	assert.Len(t, images, 2)
	assert.NotContains(t, decoded, "summary")
	assert.Contains(t, out, "pixel_area: 25")
}

func TestFormatReports_Text(t *testing.T) {
	s := measure.Summary{Components: 2}
	out, err := FormatReports(sampleReports(), &s, "text", "en")
	require.NoError(t, err)

	assert.Contains(t, out, "# a.png")
	assert.Contains(t, out, "image 64x64: 4 labelled, 1 discarded, 2 measured, 1 failed")
	assert.Contains(t, out, "0.785")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "error: component 1: trace: boom")
	assert.Contains(t, out, "error: decode failed")
	assert.Contains(t, out, "all images: 2 components")

	de, err := FormatReports(sampleReports(), nil, "text", "de")
	require.NoError(t, err)
	assert.Contains(t, de, "12.345")

	_, err = FormatReports(sampleReports(), nil, "text", "??")
	require.Error(t, err)
	_, err = FormatReports(sampleReports(), nil, "xml", "")
	require.Error(t, err)
}
