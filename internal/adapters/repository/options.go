package repository

const defaultHistoryLimit = 50

type settings struct {
	historyLimit int
}

// Option configures a Store implementation.
type Option func(*settings)

// WithHistoryLimit caps how many runs are kept. The latest good run is
// always kept.
func WithHistoryLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{historyLimit: defaultHistoryLimit}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
