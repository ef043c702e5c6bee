package corpus

import "errors"

var (
	// ErrCorpusNotFound is returned when the corpus root directory is missing.
	ErrCorpusNotFound = errors.New("corpus directory not found")
	// ErrGenreNotFound is returned when a configured genre has no directory
	// or its directory holds no CSV files.
	ErrGenreNotFound = errors.New("genre directory not found")
	// ErrEmptyTable is returned when the training table has no rows.
	ErrEmptyTable = errors.New("training table is empty")
	// ErrMissingColumn is returned when the merged file lacks the genre column.
	ErrMissingColumn = errors.New("merged file is missing a column")
)
