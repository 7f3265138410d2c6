package tournament

import "errors"

var (
	// ErrNoStrategies is returned when a pass is requested without players.
	ErrNoStrategies = errors.New("tournament: no strategies registered")
	// ErrInvalidIterations is returned for a non-positive round count.
	ErrInvalidIterations = errors.New("tournament: iterations must be positive")
	// ErrInvalidRepetitions is returned for a non-positive repetition count.
	ErrInvalidRepetitions = errors.New("tournament: repetitions must be positive")
)
