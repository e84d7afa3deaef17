package work

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/fulmenhq/webneat/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Strategy names for DispatcherConfig.
const (
	StrategySequential = "sequential"
	StrategyParallel   = "parallel"
)

// Summary aggregates a whole run.
type Summary struct {
	Total     int
	Patched   int
	Unchanged int
	Failed    int
	Duration  time.Duration
}

// DispatcherConfig configures batch execution.
type DispatcherConfig struct {
	Strategy         string
	MaxWorkers       int
	DryRun           bool
	ProgressCallback func(FileResult)
}

// Dispatcher runs a set of work items through a processor. Files are
// independent, so the parallel strategy needs no locking beyond result
// delivery.
type Dispatcher struct {
	config    DispatcherConfig
	processor *Processor
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config DispatcherConfig, processor *Processor) *Dispatcher {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	return &Dispatcher{config: config, processor: processor}
}

// Run processes every item and returns the per-file results in item order
// plus a summary. Per-file failures never abort the batch.
func (d *Dispatcher) Run(ctx context.Context, items []WorkItem) (*Summary, []FileResult) {
	start := time.Now()
	results := make([]FileResult, len(items))

	if d.config.Strategy == StrategyParallel && len(items) > 1 {
		logger.Debug(fmt.Sprintf("Dispatching %d files across up to %d workers", len(items), d.config.MaxWorkers))
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.config.MaxWorkers)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				result := d.processor.Process(gctx, item, d.config.DryRun)
				results[i] = result
				if d.config.ProgressCallback != nil {
					mu.Lock()
					d.config.ProgressCallback(result)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait() // workers only report through results
	} else {
		for i, item := range items {
			results[i] = d.processor.Process(ctx, item, d.config.DryRun)
			if d.config.ProgressCallback != nil {
				d.config.ProgressCallback(results[i])
			}
		}
	}

	summary := &Summary{Total: len(results), Duration: time.Since(start)}
	for _, result := range results {
		switch result.Status {
		case StatusPatched:
			summary.Patched++
		case StatusUnchanged:
			summary.Unchanged++
		default:
			summary.Failed++
		}
	}
	return summary, results
}
