// Package worker runs fold jobs from the queue on a pool of workers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/lyrics/internal/adapters/mq/queue"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/pkg/logger"
	"github.com/okian/lyrics/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue is drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for fold jobs.
type InMemoryWorker struct {
	queue   Queue
	process model.FoldFunc
	results chan<- model.FoldResult
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker that evaluates jobs with process and
// publishes one result per job on results.
func NewInMemoryWorker(q Queue, process model.FoldFunc, results chan<- model.FoldResult, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		process:  process,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	metrics.AddActiveWorkers(1)
	defer func() {
		metrics.AddActiveWorkers(-1)
		close(w.done)
	}()

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res := w.processJob(ctx, job)
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob evaluates a single job.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) model.FoldResult {
	start := time.Now()
	metric, err := w.process(ctx, job)
	took := time.Since(start)

	if err != nil {
		metrics.RecordFoldEvaluation("error", float64(took.Milliseconds()))
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "fold_error")
		w.logger.Error(ctx, "fold evaluation failed",
			logger.Int("combination", job.Combination),
			logger.Int("fold", job.Fold),
			logger.Error(err),
		)
		return model.FoldResult{Job: job, Took: took, Err: err}
	}

	metrics.RecordFoldEvaluation("success", float64(took.Milliseconds()))
	w.logger.Debug(ctx, "fold evaluated",
		logger.Int("combination", job.Combination),
		logger.Int("fold", job.Fold),
		logger.Float64("metric", metric),
		logger.Duration("took", took),
	)
	return model.FoldResult{Job: job, Metric: metric, Took: took}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, q Queue, process model.FoldFunc, results chan<- model.FoldResult) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, process, results, WithName("worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
