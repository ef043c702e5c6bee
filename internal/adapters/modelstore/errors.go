package modelstore

import "errors"

// Sentinel kinds for model store errors.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrCorruptModel  = errors.New("corrupt model")
)
