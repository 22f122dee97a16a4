package batch

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	Pipeline pipeline.Config

	// Image-level parallelism; each image additionally fans out over
	// Pipeline.Parallel.MaxWorkers component workers.
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Artifacts
	OverlayDir   string
	OverlayScale int
	MetricsFile  string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
	Progress         pipeline.ProgressCallback // overrides ShowProgress when set
}

// DefaultConfig returns batch defaults.
func DefaultConfig() Config {
	return Config{
		Pipeline:         pipeline.DefaultConfig(),
		Workers:          min(4, runtime.NumCPU()),
		OverlayScale:     4,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Validate checks the batch configuration.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d (must be positive)", c.Workers)
	}
	if c.OverlayDir != "" && c.OverlayScale <= 0 {
		return errors.New("overlay scale must be positive")
	}
	return c.Pipeline.Validate()
}
