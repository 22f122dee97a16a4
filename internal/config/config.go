// Package config loads grainscan settings from defaults, a YAML file,
// GRAINSCAN_ environment variables and command-line flags.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/labeling"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"golang.org/x/text/language"
)

// Config represents the complete configuration for grainscan. It covers all
// commands (analyze, batch, serve).
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" json:"analysis"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
}

// AnalysisConfig contains binarization, labeling and segmentation settings.
type AnalysisConfig struct {
	Threshold    int    `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	Invert       bool   `mapstructure:"invert" yaml:"invert" json:"invert"`
	MinPixels    int    `mapstructure:"min_pixels" yaml:"min_pixels" json:"min_pixels"`
	KeepBorder   bool   `mapstructure:"keep_border" yaml:"keep_border" json:"keep_border"`
	Thickness    string `mapstructure:"thickness" yaml:"thickness" json:"thickness"`
	MaxSeedSteps int    `mapstructure:"max_seed_steps" yaml:"max_seed_steps" json:"max_seed_steps"`
	Workers      int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	KeepGeometry bool   `mapstructure:"keep_geometry" yaml:"keep_geometry" json:"keep_geometry"`
}

// OutputConfig contains report and artifact settings.
type OutputConfig struct {
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	File         string `mapstructure:"file" yaml:"file" json:"file"`
	Locale       string `mapstructure:"locale" yaml:"locale" json:"locale"`
	OverlayDir   string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	OverlayScale int    `mapstructure:"overlay_scale" yaml:"overlay_scale" json:"overlay_scale"`
	MetricsFile  string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// BatchConfig contains batch discovery and scheduling settings.
type BatchConfig struct {
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Valid values for enumerated settings.
var (
	ValidLogLevels     = []string{"debug", "info", "warn", "error"}
	ValidOutputFormats = []string{"text", "json", "csv", "yaml"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	p := pipeline.DefaultConfig()
	return Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			Threshold:    int(p.Labeling.Level),
			MinPixels:    p.Labeling.MinPixels,
			Thickness:    p.Thickness.String(),
			MaxSeedSteps: p.MaxSeedSteps,
			Workers:      runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format:       "text",
			Locale:       "en",
			OverlayScale: 4,
		},
		Batch: BatchConfig{
			Include: []string{"*"},
			Workers: 2,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(ValidLogLevels, ", "))
	}
	if c.Output.Format != "" && !slices.Contains(ValidOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			c.Output.Format, strings.Join(ValidOutputFormats, ", "))
	}
	if c.Output.Locale != "" {
		if _, err := language.Parse(c.Output.Locale); err != nil {
			return fmt.Errorf("invalid output locale %q: %w", c.Output.Locale, err)
		}
	}
	if c.Output.OverlayScale < 1 || c.Output.OverlayScale > 32 {
		return fmt.Errorf("invalid overlay scale: %d (must be between 1 and 32)", c.Output.OverlayScale)
	}

	a := c.Analysis
	if a.Threshold < 0 || a.Threshold > 255 {
		return fmt.Errorf("invalid threshold: %d (must be between 0 and 255)", a.Threshold)
	}
	if a.MinPixels < 0 {
		return fmt.Errorf("invalid min pixels: %d (must not be negative)", a.MinPixels)
	}
	if _, err := dss.ParseThickness(a.Thickness); err != nil {
		return err
	}
	if a.MaxSeedSteps <= 0 {
		return fmt.Errorf("invalid max seed steps: %d (must be positive)", a.MaxSeedSteps)
	}
	if a.Workers <= 0 {
		return fmt.Errorf("invalid analysis workers: %d (must be positive)", a.Workers)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	return nil
}

// ToPipelineConfig converts the analysis section to a pipeline.Config.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	th, err := dss.ParseThickness(c.Analysis.Thickness)
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg := pipeline.DefaultConfig()
	cfg.Labeling = labeling.Options{
		Level:     uint8(min(max(c.Analysis.Threshold, 0), 255)), //nolint:gosec // clamped
		Invert:    c.Analysis.Invert,
		MinPixels: c.Analysis.MinPixels,
	}
	cfg.KeepBorder = c.Analysis.KeepBorder
	cfg.Thickness = th
	cfg.MaxSeedSteps = c.Analysis.MaxSeedSteps
	cfg.KeepGeometry = c.Analysis.KeepGeometry
	cfg.Parallel.MaxWorkers = c.Analysis.Workers
	return cfg, nil
}
