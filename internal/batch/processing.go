package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/MeKo-Tech/grainscan/internal/render"
	"github.com/MeKo-Tech/grainscan/internal/utils"
)

// Processor analyzes single image files with a shared pipeline. It is safe
// for concurrent use.
type Processor struct {
	pl           *pipeline.Pipeline
	keepGeometry bool
	overlayDir   string
	overlayScale int
}

// NewProcessor builds the pipeline for cfg and creates the overlay directory.
func NewProcessor(cfg *Config) (*Processor, error) {
	pcfg := cfg.Pipeline
	keep := pcfg.KeepGeometry
	if cfg.OverlayDir != "" {
		// Overlays need contours and polygons.
		pcfg.KeepGeometry = true
		if err := os.MkdirAll(cfg.OverlayDir, 0o750); err != nil {
			return nil, fmt.Errorf("create overlay dir: %w", err)
		}
	}
	pl, err := pipeline.New(pcfg)
	if err != nil {
		return nil, err
	}
	return &Processor{
		pl:           pl,
		keepGeometry: keep,
		overlayDir:   cfg.OverlayDir,
		overlayScale: cfg.OverlayScale,
	}, nil
}

// Process loads and analyzes one file and writes its overlay when enabled.
func (ip *Processor) Process(ctx context.Context, path string) (*pipeline.ImageResult, error) {
	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	res, err := ip.pl.AnalyzeImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("analysis failed for %s: %w", path, err)
	}
	res.Name = meta.Path

	if ip.overlayDir != "" {
		opts := render.DefaultOptions()
		opts.Scale = ip.overlayScale
		out := overlayPath(ip.overlayDir, path)
		if err := render.SaveOverlay(out, render.Overlay(img, res, opts)); err != nil {
			return nil, fmt.Errorf("write overlay %s: %w", out, err)
		}
	}
	if !ip.keepGeometry {
		for i := range res.Components {
			res.Components[i].Geometry = nil
		}
	}
	return res, nil
}

func overlayPath(dir, src string) string {
	base := filepath.Base(src)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
}
