// Package batch analyzes many image files and reports the results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/measure"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoImages is returned when discovery finds nothing to analyze.
var ErrNoImages = errors.New("no image files found")

// ImageReport is the outcome for one file.
type ImageReport struct {
	File   string                `json:"file" yaml:"file"`
	Result *pipeline.ImageResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string                `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result holds the result of batch processing.
type Result struct {
	Images      []ImageReport   `json:"images" yaml:"images"`
	Summary     measure.Summary `json:"summary" yaml:"summary"`
	Duration    time.Duration   `json:"duration_ns" yaml:"duration_ns"`
	WorkerCount int             `json:"workers" yaml:"workers"`
}

// Failed returns the number of images that could not be analyzed.
func (r *Result) Failed() int {
	n := 0
	for _, im := range r.Images {
		if im.Result == nil {
			n++
		}
	}
	return n
}

// ProcessBatch discovers images under paths and analyzes them with a pool of
// cfg.Workers goroutines. Reports keep discovery order. Without
// ContinueOnError the first failing image aborts the batch.
func ProcessBatch(ctx context.Context, paths []string, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	files, err := discoverImageFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	ip, err := NewProcessor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	progress := cfg.Progress
	if progress == nil {
		progress = pipeline.NoOpProgressCallback{}
		if cfg.ShowProgress && !cfg.Quiet {
			progress = pipeline.NewConsoleProgressCallback(os.Stderr, "Analyzing: ").
				WithUpdateInterval(cfg.ProgressInterval)
		}
	}

	start := time.Now()
	reports, err := runPool(ctx, ip, files, cfg, progress)
	if err != nil {
		return nil, err
	}

	res := &Result{Images: reports, Duration: time.Since(start), WorkerCount: cfg.Workers}
	var all []measure.Measures
	for _, im := range reports {
		if im.Result == nil {
			continue
		}
		for _, c := range im.Result.MeasuredComponents() {
			all = append(all, *c.Measures)
		}
	}
	res.Summary = measure.Summarize(all)

	if cfg.MetricsFile != "" {
		if err := WriteMetrics(cfg.MetricsFile); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type imageJob struct {
	index int
	path  string
}

type imageDone struct {
	index int
	res   *pipeline.ImageResult
	err   error
}

func runPool(
	ctx context.Context,
	ip *Processor,
	files []string,
	cfg *Config,
	progress pipeline.ProgressCallback,
) ([]ImageReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan imageJob)
	results := make(chan imageDone)

	var wg sync.WaitGroup
	for range min(cfg.Workers, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := ip.Process(ctx, job.path)
				select {
				case results <- imageDone{index: job.index, res: res, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, f := range files {
			select {
			case jobs <- imageJob{index: i, path: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	progress.OnStart(len(files))
	defer progress.OnComplete()

	reports := make([]ImageReport, len(files))
	var firstErr error
	done := 0
	for r := range results {
		done++
		reports[r.index] = ImageReport{File: files[r.index], Result: r.res}
		if r.err != nil {
			reports[r.index].Error = r.err.Error()
			progress.OnError(files[r.index], r.err)
			if !cfg.ContinueOnError && firstErr == nil {
				firstErr = r.err
				cancel()
			}
		}
		progress.OnImage(done, len(files), files[r.index], r.res)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if done != len(files) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}
	return reports, nil
}

// WriteMetrics exports the default Prometheus registry in the node
// exporter textfile format.
func WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format, locale string) (string, error) {
	return FormatReports(r.Images, &r.Summary, format, locale)
}

// SaveResults writes the formatted results to outputFile, or to stdout when
// outputFile is empty.
func (r *Result) SaveResults(stdout io.Writer, format, locale, outputFile string, quiet bool) error {
	return WriteOutput(stdout, func() (string, error) { return r.FormatResults(format, locale) }, outputFile, quiet)
}

// WriteOutput renders with fn and writes the text to outputFile (mode 0600)
// or stdout.
func WriteOutput(stdout io.Writer, fn func() (string, error), outputFile string, quiet bool) error {
	output, err := fn()
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if outputFile == "" {
		_, err := fmt.Fprint(stdout, output)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if !quiet {
		_, _ = fmt.Fprintf(stdout, "Results written to %s\n", outputFile)
	}
	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	processed := len(r.Images) - r.Failed()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", len(r.Images))
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", processed)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", r.Failed())
	_, _ = fmt.Fprintf(w, "  Grains measured: %d\n", r.Summary.Components)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if processed > 0 && r.Duration > 0 {
		_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", float64(processed)/r.Duration.Seconds())
	}
}
