package classifier

import "errors"

var (
	// ErrInvalidLabel is returned when a training label is not a class index.
	ErrInvalidLabel = errors.New("label is not a non-negative integer")
	// ErrNoTrainingData is returned when fitting on zero documents.
	ErrNoTrainingData = errors.New("no training documents")
)
