package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/grainscan/internal/batch"
	"github.com/MeKo-Tech/grainscan/internal/boundary"
	"github.com/MeKo-Tech/grainscan/internal/config"
	"github.com/MeKo-Tech/grainscan/internal/labeling"
	"github.com/spf13/cobra"
)

// addAnalysisFlags registers the flags shared by analyze, batch and serve.
func addAnalysisFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("threshold", labeling.DefaultLevel, "luminance at or above which a pixel is foreground (0-255)")
	f.Bool("invert", false, "treat dark pixels as foreground")
	f.Int("min-pixels", 1, "ignore components with fewer pixels")
	f.Bool("keep-border", false, "keep components touching the image frame")
	f.String("thickness", "naive", "digital straight segment thickness: naive or standard")
	f.Int("max-seed-steps", boundary.DefaultMaxSeedSteps, "step limit when searching the boundary seed")
	f.Int("component-workers", 0, "parallel workers per image (default: number of CPUs)")
}

// addOutputFlags registers report and artifact flags.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", "text", "output format: text, json, csv, yaml")
	f.StringP("output", "o", "", "output file (default: stdout)")
	f.String("locale", "en", "locale for number formatting in text output")
	f.Bool("geometry", false, "include contour, chain code, segments and polygon in reports")
	f.String("overlay-dir", "", "directory to save overlay images")
	f.Int("overlay-scale", 4, "overlay magnification factor")
	f.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")
}

// applyAnalysisFlags copies explicitly set analysis flags onto cfg.
func applyAnalysisFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("threshold") {
		cfg.Analysis.Threshold, _ = f.GetInt("threshold")
	}
	if f.Changed("invert") {
		cfg.Analysis.Invert, _ = f.GetBool("invert")
	}
	if f.Changed("min-pixels") {
		cfg.Analysis.MinPixels, _ = f.GetInt("min-pixels")
	}
	if f.Changed("keep-border") {
		cfg.Analysis.KeepBorder, _ = f.GetBool("keep-border")
	}
	if f.Changed("thickness") {
		cfg.Analysis.Thickness, _ = f.GetString("thickness")
	}
	if f.Changed("max-seed-steps") {
		cfg.Analysis.MaxSeedSteps, _ = f.GetInt("max-seed-steps")
	}
	if f.Changed("component-workers") {
		cfg.Analysis.Workers, _ = f.GetInt("component-workers")
	}
}

// applyOutputFlags copies explicitly set output flags onto cfg.
func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("output") {
		cfg.Output.File, _ = f.GetString("output")
	}
	if f.Changed("locale") {
		cfg.Output.Locale, _ = f.GetString("locale")
	}
	if f.Changed("geometry") {
		cfg.Analysis.KeepGeometry, _ = f.GetBool("geometry")
	}
	if f.Changed("overlay-dir") {
		cfg.Output.OverlayDir, _ = f.GetString("overlay-dir")
	}
	if f.Changed("overlay-scale") {
		cfg.Output.OverlayScale, _ = f.GetInt("overlay-scale")
	}
	if f.Changed("metrics-file") {
		cfg.Output.MetricsFile, _ = f.GetString("metrics-file")
	}
}

// configToBatchConfig maps the centralized configuration to batch.Config.
func configToBatchConfig(cfg *config.Config) (*batch.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return nil, err
	}
	pcfg.Logger = slog.Default()

	bc := batch.DefaultConfig()
	bc.Pipeline = pcfg
	bc.Workers = cfg.Batch.Workers
	bc.ContinueOnError = cfg.Batch.ContinueOnError
	bc.Recursive = cfg.Batch.Recursive
	bc.IncludePatterns = cfg.Batch.Include
	bc.ExcludePatterns = cfg.Batch.Exclude
	bc.OverlayDir = cfg.Output.OverlayDir
	bc.OverlayScale = cfg.Output.OverlayScale
	bc.MetricsFile = cfg.Output.MetricsFile
	return &bc, nil
}
