package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/MeKo-Tech/grainscan/internal/boundary"
	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/labeling"
)

// Config holds configuration for image analysis.
type Config struct {
	Labeling     labeling.Options
	KeepBorder   bool // keep components touching the image frame
	Thickness    dss.Thickness
	MaxSeedSteps int
	KeepGeometry bool // attach contour, chain, segments and polygon to results
	Parallel     ParallelConfig
	Logger       *slog.Logger
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		Labeling:     labeling.DefaultOptions(),
		Thickness:    dss.Naive,
		MaxSeedSteps: boundary.DefaultMaxSeedSteps,
		Parallel:     DefaultParallelConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxSeedSteps <= 0 {
		return fmt.Errorf("max seed steps must be positive, got %d", c.MaxSeedSteps)
	}
	if c.Labeling.MinPixels < 0 {
		return fmt.Errorf("min pixels must not be negative, got %d", c.Labeling.MinPixels)
	}
	if c.Thickness != dss.Naive && c.Thickness != dss.Standard {
		return errors.New("unknown segment thickness")
	}
	if c.Parallel.MaxWorkers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Parallel.MaxWorkers)
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithThreshold sets the foreground luminance level.
func (b *Builder) WithThreshold(level uint8) *Builder {
	b.cfg.Labeling.Level = level
	return b
}

// WithInvert treats dark pixels as foreground.
func (b *Builder) WithInvert(invert bool) *Builder {
	b.cfg.Labeling.Invert = invert
	return b
}

// WithMinPixels drops components smaller than n pixels.
func (b *Builder) WithMinPixels(n int) *Builder {
	b.cfg.Labeling.MinPixels = n
	return b
}

// WithKeepBorder keeps components touching the image frame.
func (b *Builder) WithKeepBorder(keep bool) *Builder {
	b.cfg.KeepBorder = keep
	return b
}

// WithThickness selects the segment model.
func (b *Builder) WithThickness(t dss.Thickness) *Builder {
	b.cfg.Thickness = t
	return b
}

// WithMaxSeedSteps bounds the boundary seed scan.
func (b *Builder) WithMaxSeedSteps(n int) *Builder {
	if n > 0 {
		b.cfg.MaxSeedSteps = n
	}
	return b
}

// WithGeometry attaches intermediate shapes to component results.
func (b *Builder) WithGeometry(keep bool) *Builder {
	b.cfg.KeepGeometry = keep
	return b
}

// WithWorkers sets the number of component workers; 0 uses all CPUs.
func (b *Builder) WithWorkers(n int) *Builder {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	b.cfg.Parallel.MaxWorkers = n
	return b
}

// WithLogger sets the logger used for per-image diagnostics.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// Config returns the accumulated configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build validates the configuration and returns the pipeline.
func (b *Builder) Build() (*Pipeline, error) { return New(b.cfg) }
