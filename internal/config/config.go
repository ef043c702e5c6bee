// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and LYRICS_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/lyrics/internal/domain/genre"
	"github.com/okian/lyrics/internal/domain/model"
)

// GenreConfig is one entry of a custom genre list.
type GenreConfig struct {
	Code float64 `koanf:"code"`
	Name string  `koanf:"name"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CorpusDir is the corpus root with one sub-directory per genre.
	CorpusDir string `koanf:"corpus_dir"`

	// MergedFile is the merged CSV split into genre directories before training.
	MergedFile string `koanf:"merged_file"`

	// ModelDir is where trained models are saved, one sub-directory per classifier.
	ModelDir string `koanf:"model_dir"`

	// Registry names the preset genre set: basic or extended.
	Registry string `koanf:"registry"`

	// Genres overrides the preset with a custom ordered genre list.
	Genres []GenreConfig `koanf:"genres"`

	// Classifier selects naive_bayes, logistic_regression or nearest_centroid.
	Classifier string `koanf:"classifier"`

	// Metric is the cross-validation metric: f1, accuracy, weighted_precision, weighted_recall.
	Metric string `koanf:"metric"`

	// Folds is the number of cross-validation folds.
	Folds int `koanf:"folds"`

	// Seed drives the fold shuffle.
	Seed int64 `koanf:"seed"`

	// WorkerCount sets the number of fold workers.
	WorkerCount int `koanf:"worker_count"`

	// Parallelism is the local engine's parallelism. The training table is
	// coalesced to min(parallelism, 2) partitions.
	Parallelism int `koanf:"parallelism"`

	// Grid maps pipeline parameter names to candidate values.
	Grid map[string][]float64 `koanf:"grid"`

	// SaveMode is overwrite or ignore.
	SaveMode string `koanf:"save_mode"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		CorpusDir:   "data/lyrics",
		MergedFile:  "Merged_dataset.csv",
		ModelDir:    "data/model",
		Registry:    genre.PresetBasic,
		Classifier:  "naive_bayes",
		Metric:      "f1",
		Folds:       3,
		Seed:        42,
		WorkerCount: runtime.NumCPU(),
		Parallelism: runtime.NumCPU(),
		SaveMode:    string(model.SaveOverwrite),
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CorpusDir == "":
		return fmt.Errorf("%w: corpus_dir must not be empty", ErrInvalidConfig)
	case c.ModelDir == "":
		return fmt.Errorf("%w: model_dir must not be empty", ErrInvalidConfig)
	case c.Folds < 2:
		return fmt.Errorf("%w: folds must be at least 2, got %d", ErrInvalidConfig, c.Folds)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.Parallelism < 1:
		return fmt.Errorf("%w: parallelism must be positive, got %d", ErrInvalidConfig, c.Parallelism)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := c.GenreRegistry(); err != nil {
		return err
	}
	for name, values := range c.Grid {
		if len(values) == 0 {
			return fmt.Errorf("%w: grid %q has no values", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Mode parses SaveMode.
func (c *Config) Mode() (model.SaveMode, error) {
	m, err := model.ParseSaveMode(c.SaveMode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return m, nil
}

// GenreRegistry builds the registry from Genres, or from the Registry preset
// when no custom list is given.
func (c *Config) GenreRegistry() (*genre.Registry, error) {
	var (
		reg *genre.Registry
		err error
	)
	if len(c.Genres) > 0 {
		gs := make([]genre.Genre, len(c.Genres))
		for i, g := range c.Genres {
			gs[i] = genre.Genre{Code: g.Code, Name: g.Name}
		}
		reg, err = genre.NewRegistry(gs...)
	} else {
		reg, err = genre.Preset(c.Registry)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return reg, nil
}
