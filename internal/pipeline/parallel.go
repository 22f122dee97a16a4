package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/grainscan/internal/grid"
)

// ParallelConfig holds configuration for parallel component analysis.
type ParallelConfig struct {
	MaxWorkers int // Number of parallel workers (0 = runtime.NumCPU())
}

// DefaultParallelConfig uses one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

type componentJob struct {
	index     int
	component grid.Component
}

type componentResult struct {
	index  int
	result ComponentResult
}

// ProcessComponents analyzes cs with a worker pool. Results are returned in
// the order of cs. It returns ctx.Err() when the context is canceled before
// every component is done.
func (p *Pipeline) ProcessComponents(ctx context.Context, cs []grid.Component, d grid.Domain) ([]ComponentResult, error) {
	if len(cs) == 0 {
		return []ComponentResult{}, ctx.Err()
	}

	workers := p.cfg.Parallel.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(cs))

	// Single worker: no goroutines needed.
	if workers == 1 {
		out := make([]ComponentResult, len(cs))
		for i, c := range cs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = p.AnalyzeComponent(c, d)
		}
		return out, nil
	}

	jobs := make(chan componentJob, len(cs))
	results := make(chan componentResult, len(cs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go p.worker(ctx, d, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, c := range cs {
			select {
			case jobs <- componentJob{index: i, component: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]ComponentResult, len(cs))
	done := 0
	for r := range results {
		out[r.index] = r.result
		done++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if done != len(cs) {
		return nil, context.Canceled
	}
	return out, nil
}

func (p *Pipeline) worker(
	ctx context.Context,
	d grid.Domain,
	jobs <-chan componentJob,
	results chan<- componentResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res := p.AnalyzeComponent(job.component, d)
			select {
			case results <- componentResult{index: job.index, result: res}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
