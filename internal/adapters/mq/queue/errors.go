package queue

import "errors"

// ErrQueueFull is returned when a batch does not fit in the queue.
var ErrQueueFull = errors.New("queue full")
