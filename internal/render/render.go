// Package render draws analysis results over the source image.
package render

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/MeKo-Tech/grainscan/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls the overlay.
type Options struct {
	// Scale enlarges every source pixel to a Scale x Scale block so cell
	// corners and polygon vertices fall between pixels.
	Scale    int
	Alpha    float64 // fill opacity, 0..1
	Contours bool
	Polygons bool
	Labels   bool
}

// DefaultOptions returns a 4x overlay with every layer enabled.
func DefaultOptions() Options {
	return Options{Scale: 4, Alpha: 0.45, Contours: true, Polygons: true, Labels: true}
}

var (
	discardedColor = colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	failedColor    = colorful.Color{R: 0.9, G: 0.1, B: 0.1}
	polygonColor   = color.NRGBA{R: 255, G: 230, B: 0, A: 255}
	labelColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Palette returns n visually distinct colours. Hues step by the golden angle
// so neighbouring IDs differ strongly; the result is deterministic.
func Palette(n int) []colorful.Color {
	const golden = 137.50776405003785
	out := make([]colorful.Color, n)
	for i := range out {
		h := math.Mod(float64(i)*golden, 360)
		out[i] = colorful.Hcl(h, 0.6, 0.7).Clamped()
	}
	return out
}

// Overlay renders res over a grayscale copy of img. Measured components are
// tinted with palette colours, discarded ones in gray and failed ones in
// red. Contours and polygons are drawn only for results carrying geometry.
func Overlay(img image.Image, res *pipeline.ImageResult, opts Options) *image.NRGBA {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	base := imaging.Grayscale(img)
	if opts.Scale > 1 {
		b := base.Bounds()
		base = imaging.Resize(base, b.Dx()*opts.Scale, b.Dy()*opts.Scale, imaging.NearestNeighbor)
	}
	if res == nil {
		return base
	}

	byID := make(map[int]pipeline.ComponentResult, len(res.Components))
	for _, c := range res.Components {
		byID[c.ID] = c
	}
	palette := Palette(len(res.Labels))

	for i, l := range res.Labels {
		col := discardedColor
		if r, ok := byID[l.ID]; ok {
			col = palette[i]
			if !r.OK() {
				col = failedColor
			}
		}
		tint(base, l.Set.Points(), col, opts)
	}

	for _, c := range res.Components {
		g := c.Geometry
		if g == nil {
			continue
		}
		if opts.Contours {
			utils.DrawPolyline(base, scaled(g.Contour, opts.Scale), contourColor(palette, res.Labels, c.ID), 1, true)
		}
		if opts.Polygons {
			utils.DrawPolyline(base, scaled(g.Polygon, opts.Scale), polygonColor, max(1, opts.Scale/2), true)
		}
	}

	if opts.Labels {
		for _, c := range res.Components {
			// Baseline on the top edge of the bounding box.
			at := c.Bounds.Lower
			drawLabel(base, strconv.Itoa(c.ID), image.Pt(at.X*opts.Scale, at.Y*opts.Scale))
		}
	}
	return base
}

// SaveOverlay writes img to path; the format follows the extension.
func SaveOverlay(path string, img image.Image) error {
	return imaging.Save(img, path)
}

func tint(dst *image.NRGBA, pts []grid.Point, col colorful.Color, opts Options) {
	s := opts.Scale
	b := dst.Bounds()
	for _, p := range pts {
		for dy := range s {
			for dx := range s {
				x, y := p.X*s+dx, p.Y*s+dy
				if !image.Pt(x, y).In(b) {
					continue
				}
				under, _ := colorful.MakeColor(dst.NRGBAAt(x, y))
				r, g, bl := under.BlendRgb(col, opts.Alpha).Clamped().RGB255()
				dst.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: bl, A: 255})
			}
		}
	}
}

func contourColor(palette []colorful.Color, labels []grid.Component, id int) color.Color {
	for i, l := range labels {
		if l.ID == id {
			return palette[i].Clamped()
		}
	}
	return labelColor
}

func scaled(pts []grid.Point, s int) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = image.Pt(p.X*s, p.Y*s)
	}
	return out
}

func drawLabel(dst *image.NRGBA, text string, at image.Point) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)
}
