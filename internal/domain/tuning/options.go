package tuning

import (
	"github.com/okian/lyrics/internal/domain/pipeline"
	"github.com/okian/lyrics/pkg/logger"
)

// Defaults.
const (
	DefaultFolds = 3
	DefaultSeed  = 42
)

// Option applies a configuration option to the CrossValidator.
type Option func(*CrossValidator)

// WithGrid sets the parameter combinations to evaluate.
func WithGrid(grid []pipeline.ParamMap) Option {
	return func(cv *CrossValidator) { cv.grid = grid }
}

// WithFolds sets the number of folds.
func WithFolds(k int) Option {
	return func(cv *CrossValidator) { cv.folds = k }
}

// WithSeed sets the shuffle seed.
func WithSeed(seed int64) Option {
	return func(cv *CrossValidator) { cv.seed = seed }
}

// WithRunner sets the fold job runner. The default runs jobs one by one.
func WithRunner(r Runner) Option {
	return func(cv *CrossValidator) {
		if r != nil {
			cv.runner = r
		}
	}
}

// WithRunID tags fold jobs with the training run id.
func WithRunID(id string) Option {
	return func(cv *CrossValidator) { cv.runID = id }
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(cv *CrossValidator) {
		if lg != nil {
			cv.logger = lg
		}
	}
}
