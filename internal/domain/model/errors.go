package model

import "errors"

// Sentinel kinds for domain errors.
var (
	ErrInvalidMove   = errors.New("invalid move")
	ErrSessionClosed = errors.New("session closed")
)
