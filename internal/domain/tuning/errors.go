package tuning

import "errors"

var (
	// ErrInvalidFolds is returned for fewer than two folds or fewer rows than folds.
	ErrInvalidFolds = errors.New("invalid number of folds")
	// ErrEmptyGrid is returned when there is no parameter combination to try.
	ErrEmptyGrid = errors.New("parameter grid is empty")
)
