package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrInvalidOption      = errors.New("invalid service option")
)
