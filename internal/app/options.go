package service

import (
	"github.com/okian/dilemma/internal/adapters/repository"
	"github.com/okian/dilemma/internal/livesync"
	"github.com/okian/dilemma/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRunner sets the engine that executes documents.
func WithRunner(r Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithStore sets the run archive.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSource sets the editor buffer.
func WithSource(src Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithSync attaches the synchronization controller. Merged sources it
// fetches are run automatically.
func WithSync(c *livesync.Controller) Option {
	return func(s *Service) {
		s.sync = c
	}
}

// WithQueueSize sets the maximum number of pending run requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithIterations sets the rounds per game used to scale heat values.
func WithIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.iterations = n
		}
	}
}

// WithStartupRun runs the editor source once the service starts.
func WithStartupRun(on bool) Option {
	return func(s *Service) {
		s.runOnStart = on
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
