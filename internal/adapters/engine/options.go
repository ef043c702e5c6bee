package engine

import (
	"github.com/okian/lyrics/pkg/logger"
)

// Option applies a configuration option to Local.
type Option func(*Local)

// WithParallelism sets the engine's parallelism, the upper bound of
// DefaultMinPartitions.
func WithParallelism(n int) Option {
	return func(l *Local) {
		if n > 0 {
			l.parallelism = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Local) {
		if lg != nil {
			l.logger = lg
		}
	}
}
