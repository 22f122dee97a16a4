package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/grainscan/internal/measure"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "csv", "yaml"}

type report struct {
	Images  []ImageReport    `json:"images" yaml:"images"`
	Summary *measure.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// FormatReports renders reports in format. summary may be nil for a single
// image. locale only affects the text format.
func FormatReports(reports []ImageReport, summary *measure.Summary, format, locale string) (string, error) {
	switch format {
	case "json":
		bts, err := json.MarshalIndent(report{Images: reports, Summary: summary}, "", "  ")
		return string(bts) + "\n", err
	case "yaml":
		bts, err := yaml.Marshal(report{Images: reports, Summary: summary})
		return string(bts), err
	case "csv":
		return formatCSV(reports)
	case "text", "":
		return formatText(reports, summary, locale)
	}
	return "", fmt.Errorf("unsupported format: %s", format)
}

var csvHeader = []string{
	"file", "component", "pixel_area", "shoelace_area", "cell_perimeter", "polygon_perimeter",
	"circularity", "convex_area", "solidity", "segments", "min_x", "min_y", "max_x", "max_y", "error",
}

// formatCSV writes one row per component. Images without components get a
// single row with an empty component column.
func formatCSV(reports []ImageReport) (string, error) {
	var out strings.Builder
	w := csv.NewWriter(&out)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, im := range reports {
		if im.Result == nil || len(im.Result.Components) == 0 {
			row := make([]string, len(csvHeader))
			row[0] = im.File
			row[len(row)-1] = im.Error
			if err := w.Write(row); err != nil {
				return "", err
			}
			continue
		}
		for _, c := range im.Result.Components {
			if err := w.Write(componentRow(im.File, c)); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return out.String(), w.Error()
}

func componentRow(file string, c pipeline.ComponentResult) []string {
	row := []string{
		file, strconv.Itoa(c.ID), "", "", "", "", "", "", "", strconv.Itoa(c.Segments),
		strconv.Itoa(c.Bounds.Lower.X), strconv.Itoa(c.Bounds.Lower.Y),
		strconv.Itoa(c.Bounds.Upper.X), strconv.Itoa(c.Bounds.Upper.Y),
		c.Error,
	}
	if m := c.Measures; m != nil {
		row[2] = strconv.Itoa(m.PixelArea)
		row[3] = formatFloat(m.ShoelaceArea)
		row[4] = strconv.Itoa(m.CellPerimeter)
		row[5] = formatFloat(m.PolygonPerimeter)
		row[6] = formatOptional(m.Circularity)
		row[7] = formatFloat(m.ConvexArea)
		row[8] = formatOptional(m.Solidity)
	}
	return row
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// formatText renders a human-readable table per image with locale-aware
// number grouping.
func formatText(reports []ImageReport, summary *measure.Summary, locale string) (string, error) {
	tag := language.English
	if locale != "" {
		t, err := language.Parse(locale)
		if err != nil {
			return "", fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		tag = t
	}
	p := message.NewPrinter(tag)

	var out strings.Builder
	for i, im := range reports {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(p.Sprintf("# %s\n", im.File))
		if im.Result == nil {
			out.WriteString(p.Sprintf("error: %s\n", im.Error))
			continue
		}
		r := im.Result
		out.WriteString(p.Sprintf("image %dx%d: %d labelled, %d discarded, %d measured, %d failed\n",
			r.Width, r.Height, r.Labelled, r.Discarded, r.Measured, r.Failed))
		if len(r.Components) > 0 {
			out.WriteString(p.Sprintf("%6s %10s %12s %8s %12s %12s %5s\n",
				"id", "pixels", "area", "cells", "perimeter", "circularity", "segs"))
		}
		for _, c := range r.Components {
			if !c.OK() {
				out.WriteString(p.Sprintf("%6d error: %s\n", c.ID, c.Error))
				continue
			}
			m := c.Measures
			circ := "-"
			if m.Circularity != nil {
				circ = p.Sprintf("%.3f", *m.Circularity)
			}
			out.WriteString(p.Sprintf("%6d %10d %12.2f %8d %12.2f %12s %5d\n",
				c.ID, m.PixelArea, m.ShoelaceArea, m.CellPerimeter, m.PolygonPerimeter, circ, c.Segments))
		}
		writeSummary(&out, p, "summary", &r.Summary)
	}
	if summary != nil && len(reports) > 1 {
		out.WriteString("\n")
		writeSummary(&out, p, "all images", summary)
	}
	return out.String(), nil
}

func writeSummary(out *strings.Builder, p *message.Printer, title string, s *measure.Summary) {
	out.WriteString(p.Sprintf("%s: %d components\n", title, s.Components))
	if s.Components == 0 {
		return
	}
	rows := []struct {
		name string
		st   measure.Stats
	}{
		{"pixel area", s.PixelArea},
		{"shoelace area", s.ShoelaceArea},
		{"cell perimeter", s.CellPerimeter},
		{"polygon perimeter", s.PolygonPerimeter},
		{"circularity", s.Circularity},
	}
	for _, r := range rows {
		out.WriteString(p.Sprintf("  %-18s n=%d mean=%.3f sd=%.3f min=%.3f max=%.3f\n",
			r.name, r.st.Count, r.st.Mean, r.st.StdDev, r.st.Min, r.st.Max))
	}
}
