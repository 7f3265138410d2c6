package queue

import "errors"

// Sentinel errors for callers that turn a rejected Enqueue into an error.
var (
	ErrFull   = errors.New("run queue is full")
	ErrClosed = errors.New("run queue is closed")
)
