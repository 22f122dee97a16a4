package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/disintegration/imaging"
	"github.com/spakin/netpbm"
	"github.com/stretchr/testify/require"
)

// Scene describes a synthetic grain image: a uniform background with
// foreground shapes painted on it.
type Scene struct {
	Width      int
	Height     int
	Background uint8
	Foreground uint8
	Shapes     [][]grid.Point
}

// DefaultScene returns a black 64x64 scene with white grains.
func DefaultScene() Scene {
	return Scene{Width: 64, Height: 64, Background: 0, Foreground: 255}
}

// With returns a copy of s with the shapes appended.
func (s Scene) With(shapes ...[]grid.Point) Scene {
	s.Shapes = append(append([][]grid.Point(nil), s.Shapes...), shapes...)
	return s
}

// Render paints the scene. Grid point (x, y) maps to pixel column x, row y.
func (s Scene) Render() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for i := range img.Pix {
		img.Pix[i] = s.Background
	}
	for _, shape := range s.Shapes {
		for _, p := range shape {
			if image.Pt(p.X, p.Y).In(img.Rect) {
				img.SetGray(p.X, p.Y, color.Gray{Y: s.Foreground})
			}
		}
	}
	return img
}

// SaveImage writes img to dir/name; the format follows the extension.
func SaveImage(t *testing.T, img image.Image, dir, name string) string {
	t.Helper()

	require.NoError(t, EnsureDir(dir))
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path), "Failed to save image %s", path)
	return path
}

// EncodePGM serialises img as a binary (P5) or plain (P2) netpbm graymap
// with maxval 255.
func EncodePGM(img *image.Gray, binary bool) []byte {
	var buf bytes.Buffer
	err := netpbm.Encode(&buf, img, &netpbm.EncodeOptions{
		Format:   netpbm.PGM,
		MaxValue: 255,
		Plain:    !binary,
		Comments: []string{"synthetic"},
	})
	if err != nil {
		panic(fmt.Sprintf("encode pgm: %v", err))
	}
	return buf.Bytes()
}
