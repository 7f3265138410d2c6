package sandbox

import (
	"time"

	"github.com/okian/dilemma/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithIterations sets the default rounds per game used by run_tournament.
func WithIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.iterations = n
		}
	}
}

// WithRepetitions sets the default repetitions per pairing used by
// run_tournament.
func WithRepetitions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.repetitions = n
		}
	}
}

// WithStepBudget sets the interpreter step budget per run.
func WithStepBudget(steps uint64) Option {
	return func(e *Engine) {
		if steps > 0 {
			e.stepBudget = steps
		}
	}
}

// WithTimeout sets the wall-clock limit per run. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithSeed fixes the seed of the script random module. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
