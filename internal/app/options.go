package service

import (
	"github.com/okian/lyrics/internal/domain/corpus"
	"github.com/okian/lyrics/internal/domain/genre"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/pkg/logger"
)

// Defaults.
const (
	DefaultCorpusDir = "data/lyrics"
	DefaultModelDir  = "data/model"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRegistry sets the genre registry.
func WithRegistry(reg *genre.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithEngine sets the table engine used to read the corpus.
func WithEngine(eng corpus.Engine) Option {
	return func(s *Service) {
		if eng != nil {
			s.engine = eng
		}
	}
}

// WithStore sets the model store.
func WithStore(store ModelStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCorpusDir sets the corpus root directory.
func WithCorpusDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.corpusDir = dir
		}
	}
}

// WithMergedFile sets the merged CSV file name inside the corpus directory.
func WithMergedFile(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.mergedFile = name
		}
	}
}

// WithModelDir sets the directory models are saved under. Each classifier
// gets its own sub-directory.
func WithModelDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.modelDir = dir
		}
	}
}

// WithClassifier selects the classifier by name.
func WithClassifier(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.classifier = name
		}
	}
}

// WithMetric selects the cross-validation metric.
func WithMetric(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.metric = name
		}
	}
}

// WithFolds sets the number of cross-validation folds.
func WithFolds(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.folds = k
		}
	}
}

// WithSeed sets the fold shuffle seed.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithWorkerCount sets the number of fold workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithGrid sets the hyperparameter grid as parameter name to candidate values.
func WithGrid(grid map[string][]float64) Option {
	return func(s *Service) { s.grid = grid }
}

// WithSaveMode sets what happens when a model already exists.
func WithSaveMode(mode model.SaveMode) Option {
	return func(s *Service) {
		if mode != "" {
			s.saveMode = mode
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}
