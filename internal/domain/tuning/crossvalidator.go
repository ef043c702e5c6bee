// Package tuning selects pipeline parameters by k-fold cross-validation.
package tuning

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/lyrics/internal/domain/evaluation"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/pipeline"
	"github.com/okian/lyrics/internal/domain/table"
	"github.com/okian/lyrics/pkg/logger"
	"github.com/okian/lyrics/pkg/metrics"
)

// Runner executes fold jobs and returns their results in job order.
type Runner interface {
	Run(ctx context.Context, jobs []model.FoldJob, fn model.FoldFunc) ([]model.FoldResult, error)
}

// CrossValidator fits every grid combination on k-1 folds, evaluates it on
// the held-out fold and refits the best combination on all rows.
type CrossValidator struct {
	pipeline  *pipeline.Pipeline
	evaluator evaluation.Evaluator
	grid      []pipeline.ParamMap
	folds     int
	seed      int64
	runner    Runner
	runID     string
	logger    logger.Logger
}

// NewCrossValidator creates a validator. Without WithGrid the grid is a
// single empty combination.
func NewCrossValidator(p *pipeline.Pipeline, ev evaluation.Evaluator, opts ...Option) (*CrossValidator, error) {
	cv := &CrossValidator{
		pipeline:  p,
		evaluator: ev,
		grid:      pipeline.NewParamGridBuilder().Build(),
		folds:     DefaultFolds,
		seed:      DefaultSeed,
		runner:    sequentialRunner{},
	}
	for _, opt := range opts {
		opt(cv)
	}
	if cv.folds < 2 {
		return nil, fmt.Errorf("%w: %d, need at least 2", ErrInvalidFolds, cv.folds)
	}
	if len(cv.grid) == 0 {
		return nil, ErrEmptyGrid
	}
	if cv.logger == nil {
		cv.logger = logger.Get().Named("tuning")
	}
	return cv, nil
}

// Fit runs the cross-validation over t.
func (cv *CrossValidator) Fit(ctx context.Context, t *table.Table) (*Result, error) {
	rows := t.Rows()
	if len(rows) < cv.folds {
		return nil, fmt.Errorf("%w: %d rows for %d folds", ErrInvalidFolds, len(rows), cv.folds)
	}
	train, valid := cv.split(rows)
	metrics.UpdateGridSize(len(cv.grid))

	jobs := make([]model.FoldJob, 0, len(cv.grid)*cv.folds)
	for c := range cv.grid {
		for f := 0; f < cv.folds; f++ {
			jobs = append(jobs, model.FoldJob{RunID: cv.runID, Seq: len(jobs), Combination: c, Fold: f})
		}
	}

	start := time.Now()
	results, err := cv.runner.Run(ctx, jobs, func(ctx context.Context, job model.FoldJob) (float64, error) {
		m, err := cv.pipeline.Fit(ctx, train[job.Fold], cv.grid[job.Combination])
		if err != nil {
			return 0, err
		}
		out, err := m.Transform(ctx, valid[job.Fold])
		if err != nil {
			return 0, err
		}
		return cv.evaluator.Evaluate(out.Rows())
	})
	if err != nil {
		return nil, fmt.Errorf("cross validation: %w", err)
	}

	perCombination := make([][]float64, len(cv.grid))
	for _, r := range results {
		perCombination[r.Job.Combination] = append(perCombination[r.Job.Combination], r.Metric)
	}
	avg := make([]float64, len(cv.grid))
	for c, ms := range perCombination {
		avg[c] = stat.Mean(ms, nil)
		cv.logger.Debug(ctx, "combination evaluated",
			logger.String("params", cv.grid[c].String()),
			logger.Float64(cv.evaluator.MetricName(), avg[c]),
		)
	}

	// first best wins on ties
	best := floats.MaxIdx(avg)
	if !cv.evaluator.IsLargerBetter() {
		best = floats.MinIdx(avg)
	}

	bestModel, err := cv.pipeline.Fit(ctx, rows, cv.grid[best])
	if err != nil {
		return nil, fmt.Errorf("refit best combination: %w", err)
	}

	res := &Result{
		RunID:      cv.runID,
		Best:       bestModel,
		AvgMetrics: avg,
		BestIndex:  best,
		Grid:       cv.grid,
		Metric:     cv.evaluator.MetricName(),
		Folds:      cv.folds,
	}
	metrics.UpdateBestMetric(avg[best])
	cv.logger.Info(ctx, "cross validation finished",
		logger.Int("combinations", len(cv.grid)),
		logger.Int("folds", cv.folds),
		logger.String("best_params", cv.grid[best].String()),
		logger.Float64(res.Metric, avg[best]),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

// split shuffles row positions with the seed and deals them to folds
// round-robin. It returns, per fold, the training rows and the held-out rows.
func (cv *CrossValidator) split(rows []model.Record) (train, valid [][]model.Record) {
	rng := rand.New(rand.NewPCG(uint64(cv.seed), uint64(cv.seed)>>1|1))
	perm := rng.Perm(len(rows))
	assign := make([]int, len(rows))
	for i, p := range perm {
		assign[p] = i % cv.folds
	}

	train = make([][]model.Record, cv.folds)
	valid = make([][]model.Record, cv.folds)
	for f := 0; f < cv.folds; f++ {
		for i, r := range rows {
			if assign[i] == f {
				valid[f] = append(valid[f], r)
			} else {
				train[f] = append(train[f], r)
			}
		}
	}
	return train, valid
}

// Result is a fitted cross-validation.
type Result struct {
	RunID      string
	Best       *pipeline.Model
	AvgMetrics []float64 // one per grid combination, in enumeration order
	BestIndex  int
	Grid       []pipeline.ParamMap
	Metric     string
	Folds      int
}

// BestModel is the best combination refitted on every row.
func (r *Result) BestModel() *pipeline.Model { return r.Best }

// BestParams is the winning combination.
func (r *Result) BestParams() pipeline.ParamMap { return r.Grid[r.BestIndex] }

// Transform applies the best model.
func (r *Result) Transform(ctx context.Context, records []model.Record) (*pipeline.Output, error) {
	return r.Best.Transform(ctx, records)
}

// Statistics reports the best average metric: the last element of the
// averages sorted ascending. AvgMetrics itself is left in enumeration order.
func (r *Result) Statistics() map[string]float64 {
	sorted := slices.Clone(r.AvgMetrics)
	slices.Sort(sorted)
	stats := map[string]float64{}
	if len(sorted) > 0 {
		stats[model.StatBestModelMetrics] = sorted[len(sorted)-1]
	}
	return stats
}

type sequentialRunner struct{}

func (sequentialRunner) Run(ctx context.Context, jobs []model.FoldJob, fn model.FoldFunc) ([]model.FoldResult, error) {
	out := make([]model.FoldResult, len(jobs))
	for i, j := range jobs {
		start := time.Now()
		m, err := fn(ctx, j)
		if err != nil {
			return nil, fmt.Errorf("combination %d fold %d: %w", j.Combination, j.Fold, err)
		}
		out[i] = model.FoldResult{Job: j, Metric: m, Took: time.Since(start)}
	}
	return out, nil
}
