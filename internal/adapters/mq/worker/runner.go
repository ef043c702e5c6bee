package worker

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/lyrics/internal/adapters/mq/queue"
	"github.com/okian/lyrics/internal/domain/model"
)

// Runner executes a batch of fold jobs on a short-lived queue and pool.
type Runner struct {
	workers int
}

// NewRunner creates a runner with up to workers concurrent workers. A count
// below one means one worker per CPU.
func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Runner{workers: workers}
}

// Workers is the configured concurrency.
func (r *Runner) Workers() int { return r.workers }

// Run evaluates every job with fn and returns the results in job order. The
// first failing job cancels the rest and its error is returned.
func (r *Runner) Run(ctx context.Context, jobs []model.FoldJob, fn model.FoldFunc) ([]model.FoldResult, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pos := make(map[int]int, len(jobs))
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(jobs)))
	for i, j := range jobs {
		pos[j.Seq] = i
		if !q.Enqueue(ctx, j) {
			return nil, fmt.Errorf("%w: job %d", queue.ErrQueueFull, j.Seq)
		}
	}
	// closing up front lets workers exit once the queue drains
	_ = q.Close()

	results := make(chan model.FoldResult, len(jobs))
	pool := NewPool(min(r.workers, len(jobs)), q, fn, results)
	pool.Start(ctx)
	defer func() { _ = pool.Shutdown(context.Background()) }()

	out := make([]model.FoldResult, len(jobs))
	for received := 0; received < len(jobs); received++ {
		select {
		case res := <-results:
			if res.Err != nil {
				cancel()
				return nil, fmt.Errorf("combination %d fold %d: %w", res.Job.Combination, res.Job.Fold, res.Err)
			}
			out[pos[res.Job.Seq]] = res
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}
