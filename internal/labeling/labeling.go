// Package labeling turns decoded images into binary masks and partitions the
// foreground into 4-connected components.
package labeling

import (
	"container/list"
	"image"
	"image/color"

	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/mempool"
	"github.com/anthonynsimon/bild/effect"
)

// DefaultLevel marks every pixel with luminance 2 or more as foreground.
const DefaultLevel = 2

// Options controls binarization and labeling.
type Options struct {
	// Level is the luminance threshold; pixels at or above it are foreground.
	Level uint8
	// Invert swaps foreground and background before thresholding.
	Invert bool
	// MinPixels drops components smaller than this many pixels.
	MinPixels int
}

// DefaultOptions returns the defaults for bright grains on a dark background.
func DefaultOptions() Options {
	return Options{Level: DefaultLevel, MinPixels: 1}
}

// Mask is a row-major binary image. Mask pixel (x, y) is grid point (x, y).
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask returns an all-background mask.
func NewMask(w, h int) Mask {
	return Mask{Width: w, Height: h, Pix: make([]bool, w*h)}
}

// At reports whether (x, y) is foreground. Coordinates outside are background.
func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background.
func (m Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Domain returns the coordinate range of the mask.
func (m Mask) Domain() grid.Domain { return grid.DomainOfSize(m.Width, m.Height) }

// Count returns the number of foreground pixels.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Binarize thresholds img by luminance: a pixel is foreground when its
// luminance, composited over black, is at least opts.Level. Fully
// transparent pixels are background whether or not the image is inverted.
func Binarize(img image.Image, opts Options) Mask {
	src := img
	if opts.Invert {
		src = effect.Invert(img)
	}
	b := src.Bounds()
	m := Mask{Width: b.Dx(), Height: b.Dy(), Pix: mempool.GetBool(b.Dx() * b.Dy())}
	for y := range m.Height {
		for x := range m.Width {
			m.Pix[y*m.Width+x] = foreground(src.At(b.Min.X+x, b.Min.Y+y), opts.Level)
		}
	}
	return m
}

func foreground(c color.Color, level uint8) bool {
	if _, _, _, a := c.RGBA(); a == 0 {
		return false
	}
	return color.GrayModel.Convert(c).(color.Gray).Y >= level
}

// Label finds the 4-connected components of m in row-major discovery order.
// Component IDs are consecutive from zero after the MinPixels filter.
func Label(m Mask, minPixels int) []grid.Component {
	w, h := m.Width, m.Height
	visited := mempool.GetBool(w * h)
	defer mempool.PutBool(visited)
	var comps []grid.Component

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !m.Pix[idx] || visited[idx] {
				continue
			}
			pts := floodFill(m, visited, x, y)
			if len(pts) < minPixels {
				continue
			}
			comps = append(comps, grid.NewComponent(len(comps), pts))
		}
	}
	return comps
}

// floodFill collects the component containing (startX, startY) by BFS.
func floodFill(m Mask, visited []bool, startX, startY int) []grid.Point {
	w := m.Width
	visited[startY*w+startX] = true
	q := list.New()
	q.PushBack(grid.Pt(startX, startY))

	var pts []grid.Point
	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		p, ok := e.Value.(grid.Point)
		if !ok {
			continue
		}
		pts = append(pts, p)
		for _, d := range grid.Directions {
			n := p.Add(d.Vector())
			if !m.At(n.X, n.Y) || visited[n.Y*w+n.X] {
				continue
			}
			visited[n.Y*w+n.X] = true
			q.PushBack(n)
		}
	}
	return pts
}

// LabelImage binarizes img and labels the result.
func LabelImage(img image.Image, opts Options) (grid.Domain, []grid.Component) {
	m := Binarize(img, opts)
	defer mempool.PutBool(m.Pix)
	return m.Domain(), Label(m, opts.MinPixels)
}
