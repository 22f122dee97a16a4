package utils

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/spakin/netpbm"
)

// MaxPGMPixels caps the area a graymap header may declare.
const MaxPGMPixels = 1 << 28

// ErrInvalidPGM reports a malformed or oversized netpbm graymap.
var ErrInvalidPGM = errors.New("invalid pgm")

// isPGM reports whether the stream starts with a plain or binary graymap
// magic number.
func isPGM(br *bufio.Reader) bool {
	magic, err := br.Peek(2)
	return err == nil && (string(magic) == "P2" || string(magic) == "P5")
}

// DecodePGMConfig reads the header of a P2 or P5 graymap.
func DecodePGMConfig(r io.Reader) (image.Config, error) {
	cfg, err := netpbm.DecodeConfig(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: header: %w", ErrInvalidPGM, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, fmt.Errorf("%w: header %dx%d", ErrInvalidPGM, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// DecodePGM decodes a P2 (plain) or P5 (binary) graymap. The input is read
// completely and the declared size is checked against it before any pixel
// buffer is allocated: every sample takes at least one byte in either
// encoding. Samples are scaled to the full range; maxval up to 255 yields
// *image.Gray, larger maxvals *image.Gray16.
func DecodePGM(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPGM, err)
	}
	cfg, err := DecodePGMConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	pixels := int64(cfg.Width) * int64(cfg.Height)
	if pixels > MaxPGMPixels || pixels > int64(len(data)) {
		return nil, fmt.Errorf("%w: header declares %dx%d pixels for %d bytes of input",
			ErrInvalidPGM, cfg.Width, cfg.Height, len(data))
	}

	img, err := netpbm.Decode(bytes.NewReader(data), &netpbm.DecodeOptions{Target: netpbm.PGM, Exact: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPGM, err)
	}
	return toGray(img), nil
}

// toGray copies a netpbm graymap into the standard library gray types.
func toGray(img netpbm.Image) image.Image {
	b := img.Bounds()
	if img.MaxValue() <= 255 {
		out := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out.SetGray(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
			}
		}
		return out
	}
	out := image.NewGray16(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray16(x, y, color.Gray16Model.Convert(img.At(x, y)).(color.Gray16))
		}
	}
	return out
}
