package corpus

import (
	"github.com/okian/lyrics/pkg/logger"
)

// Default corpus layout.
const (
	DefaultMergedFile  = "Merged_dataset.csv"
	DefaultGenreColumn = "genre"
	DefaultTextColumn  = "lyrics"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithMergedFile sets the merged CSV file name, relative to the corpus dir.
func WithMergedFile(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.mergedFile = name
		}
	}
}

// WithGenreColumn sets the merged file column holding the genre tag.
func WithGenreColumn(col string) Option {
	return func(l *Loader) {
		if col != "" {
			l.genreColumn = col
		}
	}
}

// WithTextColumn sets the source column holding the lyric text.
func WithTextColumn(col string) Option {
	return func(l *Loader) {
		if col != "" {
			l.textColumn = col
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}
