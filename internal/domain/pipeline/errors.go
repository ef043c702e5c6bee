package pipeline

import "errors"

var (
	// ErrNoStages is returned when fitting a pipeline with no stages.
	ErrNoStages = errors.New("pipeline has no stages")
	// ErrUnknownKind is returned when decoding a stage kind nobody registered.
	ErrUnknownKind = errors.New("unknown stage kind")
	// ErrInvalidParam is returned when a parameter value is out of range.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrInvalidState is returned when a decoded stage fails validation.
	ErrInvalidState = errors.New("invalid stage state")
)
