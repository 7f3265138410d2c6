// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and DILEMMA_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CoordinatorURL is the websocket endpoint of the classroom coordinator.
	CoordinatorURL string `koanf:"coordinator_url"`

	// Identity is the author name sent with submissions.
	Identity string `koanf:"identity"`

	// PrivilegedIdentity is the only identity allowed to toggle streaming.
	PrivilegedIdentity string `koanf:"privileged_identity"`

	// Iterations is the number of rounds per game.
	Iterations int `koanf:"iterations"`

	// Repetitions is how many times each ordered pair is played.
	Repetitions int `koanf:"repetitions"`

	// StepBudget bounds interpreter steps per run.
	StepBudget uint64 `koanf:"step_budget"`

	// RunTimeoutMS bounds the wall-clock time of one run.
	RunTimeoutMS int `koanf:"run_timeout_ms"`

	// StreamIntervalMS is the period of streaming fetches.
	StreamIntervalMS int `koanf:"stream_interval_ms"`

	// FirstConnectDelayMS delays the single automatic connection attempt.
	FirstConnectDelayMS int `koanf:"first_connect_delay_ms"`

	// WriteTimeoutMS bounds a single websocket write.
	WriteTimeoutMS int `koanf:"write_timeout_ms"`

	// SourcePath is the editor buffer file holding the current strategies.
	SourcePath string `koanf:"source_path"`

	// DBPath is the SQLite run archive. Empty keeps runs in memory.
	DBPath string `koanf:"db_path"`

	// RandomSeed seeds the sandbox random module; 0 seeds from the clock.
	RandomSeed int64 `koanf:"random_seed"`

	// RunQueueSize bounds pending run requests.
	RunQueueSize int `koanf:"run_queue_size"`

	// HistoryLimit caps GET /runs?limit.
	HistoryLimit int `koanf:"history_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		CoordinatorURL:      "ws://localhost:8765/",
		PrivilegedIdentity:  "teacher",
		Iterations:          20,
		Repetitions:         1,
		StepBudget:          3_000_000,
		RunTimeoutMS:        10_000,
		StreamIntervalMS:    5_000,
		FirstConnectDelayMS: 200,
		WriteTimeoutMS:      5_000,
		SourcePath:          "strategies.star",
		DBPath:              "dilemma.db",
		RunQueueSize:        16,
		HistoryLimit:        50,
	}
}

// Validate checks the invariants the engine relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations must be at least 1", ErrInvalidConfig)
	case c.Repetitions < 1:
		return fmt.Errorf("%w: repetitions must be at least 1", ErrInvalidConfig)
	case c.StepBudget < 1:
		return fmt.Errorf("%w: step_budget must be at least 1", ErrInvalidConfig)
	case c.RunQueueSize < 1:
		return fmt.Errorf("%w: run_queue_size must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// RunTimeout returns RunTimeoutMS as a duration; zero disables the timeout.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMS) * time.Millisecond
}

// StreamInterval returns StreamIntervalMS as a duration.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.StreamIntervalMS) * time.Millisecond
}

// FirstConnectDelay returns FirstConnectDelayMS as a duration.
func (c *Config) FirstConnectDelay() time.Duration {
	return time.Duration(c.FirstConnectDelayMS) * time.Millisecond
}

// WriteTimeout returns WriteTimeoutMS as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}
