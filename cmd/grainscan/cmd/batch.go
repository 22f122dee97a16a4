package cmd

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/batch"
	"github.com/MeKo-Tech/grainscan/internal/config"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command for parallel image processing.
var batchCmd = &cobra.Command{
	Use:   "batch <dir|files...>",
	Short: "Measure grains across many images in parallel",
	Long: `Analyze every supported image under the given directories and files
with a pool of workers and report all results together with a summary over
every measured grain.

Supported formats: PNG, JPEG, BMP, TIFF, PGM

Examples:
  grainscan batch images/
  grainscan batch images/ --recursive --workers 8 --progress
  grainscan batch images/ --include "*.png" --exclude "*_mask.png"
  grainscan batch a.png b.tif --format csv --output grains.csv --stats`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatchCommand,
}

// applyBatchFlags copies explicitly set discovery and scheduling flags onto cfg.
func applyBatchFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("recursive") {
		cfg.Batch.Recursive, _ = f.GetBool("recursive")
	}
	if f.Changed("include") {
		cfg.Batch.Include, _ = f.GetStringSlice("include")
	}
	if f.Changed("exclude") {
		cfg.Batch.Exclude, _ = f.GetStringSlice("exclude")
	}
	if f.Changed("workers") {
		cfg.Batch.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("continue-on-error") {
		cfg.Batch.ContinueOnError, _ = f.GetBool("continue-on-error")
	}
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyAnalysisFlags(cmd, cfg)
	applyOutputFlags(cmd, cfg)
	applyBatchFlags(cmd, cfg)

	bc, err := configToBatchConfig(cfg)
	if err != nil {
		return err
	}

	// Progress settings are CLI-only
	bc.ShowProgress, _ = cmd.Flags().GetBool("progress")
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")
	bc.ProgressInterval, _ = cmd.Flags().GetDuration("progress-interval")
	showStats, _ := cmd.Flags().GetBool("stats")
	if logProgress, _ := cmd.Flags().GetBool("log-progress"); logProgress {
		bc.Progress = pipeline.NewLogProgressCallback(slog.Default(), slog.LevelInfo)
	} else if bc.ShowProgress && !bc.Quiet {
		bc.Progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Analyzing: ").
			WithUpdateInterval(bc.ProgressInterval)
	}

	result, err := batch.ProcessBatch(cmd.Context(), args, bc)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if err := result.SaveResults(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.Locale, cfg.Output.File, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if showStats {
		result.PrintStats(cmd.ErrOrStderr())
	}
	if n := result.Failed(); n > 0 {
		return fmt.Errorf("%d of %d images failed", n, len(result.Images))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addAnalysisFlags(batchCmd)
	addOutputFlags(batchCmd)

	// File discovery flags
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", []string{"*"}, "file name patterns to include")
	batchCmd.Flags().StringSlice("exclude", []string{}, "file name patterns to exclude")

	// Parallel processing flags
	batchCmd.Flags().IntP("workers", "w", 2, fmt.Sprintf("number of images analyzed in parallel (CPUs: %d)", runtime.NumCPU()))
	batchCmd.Flags().Bool("continue-on-error", false, "report failed images instead of aborting")

	// Progress and monitoring flags
	batchCmd.Flags().Bool("progress", false, "show progress bar")
	batchCmd.Flags().Bool("log-progress", false, "log progress as structured events instead of a bar")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "show processing statistics")
	batchCmd.Flags().Duration("progress-interval", 100*time.Millisecond, "progress update interval")
}
