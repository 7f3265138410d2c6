package repository

import "errors"

// Sentinel kinds for archive errors.
var (
	ErrNotFound     = errors.New("run not found")
	ErrInvalidLimit = errors.New("invalid run list limit")
	ErrMissingID    = errors.New("run id is required")
)
