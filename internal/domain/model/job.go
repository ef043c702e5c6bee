package model

import (
	"context"
	"time"
)

// FoldJob is one unit of cross-validation work: fit parameter combination
// Combination on every fold but Fold, then evaluate on Fold.
type FoldJob struct {
	RunID       string
	Seq         int
	Combination int
	Fold        int
}

// FoldResult is the outcome of a FoldJob.
type FoldResult struct {
	Job    FoldJob
	Metric float64
	Took   time.Duration
	Err    error
}

// FoldFunc evaluates a single job and returns its metric.
type FoldFunc func(ctx context.Context, job FoldJob) (float64, error)
