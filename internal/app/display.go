package service

import (
	"github.com/okian/dilemma/internal/adapters/repository"
	"github.com/okian/dilemma/internal/domain/aggregate"
	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/types"
)

// RunView is the user-facing summary of one finished run.
type RunView = types.Run

// NewRunView summarizes an archived run.
func NewRunView(r repository.RunRecord) RunView {
	return RunView{
		ID:         r.ID,
		Generation: r.Generation,
		Reason:     r.Reason,
		Outcome:    r.Outcome,
		Output:     r.Output,
		Error:      r.Error,
		Games:      r.Result.Len(),
		Steps:      r.Steps,
		Duration:   r.Duration,
		FinishedAt: r.CreatedAt,
	}
}

// Display is what the user currently sees. A failed run replaces LastRun but
// leaves the last good aggregates in place.
type Display struct {
	LastGood   aggregate.Summary
	GoodResult model.TournamentResult
	GoodRunID  string
	LastRun    RunView
	HasRun     bool
}

// HasResults reports whether any run finished without error.
func (d Display) HasResults() bool {
	return d.GoodRunID != ""
}
