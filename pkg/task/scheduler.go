package task

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/strabs/doit/pkg/log"
)

// redrawInterval is how often the progress display is refreshed while the
// scheduler waits on batch completions.
const redrawInterval = 100 * time.Millisecond

// Progress observes a batch of runtime tasks while it executes. Frame is
// called on every redraw tick and on every task completion; implementations
// must tolerate concurrent mutation of the runtime state they read.
type Progress interface {
	Frame(tasks []*Runtime)
}

// Config is execution-wide policy. The zero value is not useful; start from
// [DefaultConfig].
type Config struct {
	// Progress receives live frames while batches run. Nil disables the
	// display.
	Progress Progress

	// MaxWorkers bounds per-batch parallelism.
	MaxWorkers int

	// OutputLines is the size of each task's recent-output window.
	OutputLines int

	// ErrorLines is how many trailing output lines a failure report keeps.
	ErrorLines int

	// FailFast aborts remaining tasks in the current batch on the first
	// failure and surfaces it immediately. Already-running tasks are not
	// interrupted; only unstarted ones are skipped.
	FailFast bool

	// RaiseOnFailure surfaces a task failure as an engine-level error
	// instead of returning it silently in the results.
	RaiseOnFailure bool
}

// DefaultConfig returns the default execution policy.
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:     4,
		OutputLines:    3,
		ErrorLines:     20,
		RaiseOnFailure: true,
	}
}

// Run executes the given specs with [context.Background]. See [RunContext].
func Run(specs []*Spec, cfg *Config) ([]Result, error) {
	return RunContext(context.Background(), specs, cfg)
}

// RunContext executes the specs' chains in depth batches: stage N of every
// chain runs as one parallel batch, and a chain's stage N never starts
// before its stage N-1 has completed. Independent chains interleave freely
// within the worker bound.
//
// On failure, behavior follows cfg: with FailFast or RaiseOnFailure set,
// RunContext returns the results gathered so far plus a [*Error] naming the
// failing task; otherwise it stops scheduling further depths and returns
// all results without an error.
func RunContext(ctx context.Context, specs []*Spec, cfg *Config) ([]Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	if len(specs) == 0 {
		return nil, nil
	}

	chains := make([][]*Spec, 0, len(specs))
	maxDepth := 0

	for _, s := range specs {
		chain := flattenChain(s)
		for _, node := range chain {
			if err := node.validate(); err != nil {
				return nil, err
			}
		}

		chains = append(chains, chain)
		maxDepth = max(maxDepth, len(chain))
	}

	ctx, span := otel.Tracer("task").Start(ctx, "run", trace.WithAttributes(
		attribute.Int("chains", len(chains)),
		attribute.Int("max_depth", maxDepth),
	))
	defer span.End()

	var all []Result

	for depth := range maxDepth {
		var batch []*Runtime

		for _, chain := range chains {
			if depth < len(chain) {
				batch = append(batch, newRuntime(chain[depth], cfg.OutputLines))
			}
		}

		if len(batch) == 0 {
			continue
		}

		results, err := runBatch(ctx, batch, cfg)
		all = append(all, results...)

		if err != nil {
			return all, err
		}

		if failed := firstFailure(results); failed != nil {
			if cfg.FailFast || cfg.RaiseOnFailure {
				return all, newError(*failed, cfg.ErrorLines)
			}

			// Containment mode: keep what we have, skip later depths.
			break
		}
	}

	return all, nil
}

// runBatch executes one depth batch under the worker bound, interleaving
// progress redraws with completion detection. Each worker reports on the
// done channel, so the display wakes promptly on any completion as well as
// on the redraw tick.
func runBatch(ctx context.Context, batch []*Runtime, cfg *Config) ([]Result, error) {
	ctx, span := otel.Tracer("task").Start(ctx, "batch", trace.WithAttributes(
		attribute.Int("size", len(batch)),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	type completion struct {
		result  Result
		idx     int
		skipped bool
	}

	done := make(chan completion, len(batch))

	// Tasks start in batch order as workers free up; a filled-then-closed
	// queue keeps dispatch FIFO under any worker count.
	queue := make(chan int, len(batch))
	for i := range batch {
		queue <- i
	}
	close(queue)

	var aborted atomic.Bool

	for range min(cfg.MaxWorkers, len(batch)) {
		go func() {
			for i := range queue {
				if aborted.Load() {
					done <- completion{idx: i, skipped: true}

					continue
				}

				ex := &executor{rt: batch[i]}
				done <- completion{idx: i, result: ex.run(ctx)}
			}
		}()
	}

	results := make([]*Result, len(batch))

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	var failErr error

	for pending := len(batch); pending > 0; {
		select {
		case c := <-done:
			pending--

			if c.skipped {
				logger.DebugContext(ctx, "skipped task",
					slog.String("task", batch[c.idx].Name()),
				)

				break
			}

			r := c.result
			results[c.idx] = &r

			logger.DebugContext(ctx, "task finished",
				slog.String("task", r.Name),
				slog.String("status", r.Status.String()),
				slog.Int("exit_code", r.ExitCode),
				slog.Duration("duration", r.Duration),
			)

			if cfg.FailFast && !r.OK() && failErr == nil {
				aborted.Store(true)
				failErr = newError(r, cfg.ErrorLines)
			}

		case <-ticker.C:
		}

		if cfg.Progress != nil {
			cfg.Progress.Frame(batch)
		}
	}

	// Final frame so terminal statuses are visible before returning.
	if cfg.Progress != nil {
		cfg.Progress.Frame(batch)
	}

	collected := make([]Result, 0, len(batch))
	for _, r := range results {
		if r != nil {
			collected = append(collected, *r)
		}
	}

	return collected, failErr
}

func firstFailure(results []Result) *Result {
	for i := range results {
		if !results[i].OK() {
			return &results[i]
		}
	}

	return nil
}
