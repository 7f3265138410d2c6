// Package repository archives finished tournament runs.
package repository

import (
	"context"
	"time"

	"github.com/okian/dilemma/internal/domain/model"
)

// RunRecord is one finished run as shown to users.
type RunRecord struct {
	ID         string                 `json:"id"`
	Generation uint64                 `json:"generation"`
	Reason     string                 `json:"reason"`
	Source     string                 `json:"-"`
	Output     string                 `json:"output"`
	Outcome    string                 `json:"outcome"`
	Error      string                 `json:"error,omitempty"`
	Steps      uint64                 `json:"steps"`
	Duration   time.Duration          `json:"durationNs"`
	Iterations int                    `json:"iterations"`
	Result     model.TournamentResult `json:"games"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// OK reports whether the run finished without error.
func (r RunRecord) OK() bool {
	return r.Error == ""
}

// Store provides read/write access to the run archive.
type Store interface {
	// Save archives a run.
	Save(ctx context.Context, r RunRecord) error

	// Latest returns the most recent run, failed or not.
	// Returns ErrNotFound if nothing was saved.
	Latest(ctx context.Context) (RunRecord, error)

	// LatestGood returns the most recent run that finished without error.
	// Returns ErrNotFound if there is none.
	LatestGood(ctx context.Context) (RunRecord, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]RunRecord, error)

	// Close releases resources.
	Close() error
}
