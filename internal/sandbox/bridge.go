package sandbox

import (
	"fmt"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/session"
	"github.com/okian/dilemma/pkg/metrics"
)

// Bridge is the only channel through which a script changes host state. It
// owns at most one open session at a time. A Bridge belongs to a single run
// and is not safe for concurrent use.
type Bridge struct {
	current *session.Session
	result  model.TournamentResult

	// OnGame, if set, observes every closed game.
	OnGame func(model.GameRecord)
}

// NewBridge returns a bridge with no open session.
func NewBridge() *Bridge {
	return &Bridge{}
}

// StartGame opens a session for (nameA, nameB).
func (b *Bridge) StartGame(nameA, nameB string) error {
	if b.current != nil {
		return fmt.Errorf("start %q: %w", model.GameName(nameA, nameB), ErrSessionAlreadyOpen)
	}
	b.current = session.Open(nameA, nameB)
	return nil
}

// ReportMove records one round in the open session. Moves are validated
// before the session is looked up.
func (b *Bridge) ReportMove(a, m model.Move) error {
	for _, mv := range [...]model.Move{a, m} {
		if !mv.Valid() {
			return &InvalidMoveError{Token: mv.String()}
		}
	}
	if b.current == nil {
		return ErrNoActiveSession
	}
	return b.current.Record(a, m)
}

// ReportMoveTokens parses script tokens and records them.
func (b *Bridge) ReportMoveTokens(a, m string) error {
	ma, err := model.ParseMove(a)
	if err != nil {
		return &InvalidMoveError{Token: a}
	}
	mb, err := model.ParseMove(m)
	if err != nil {
		return &InvalidMoveError{Token: m}
	}
	return b.ReportMove(ma, mb)
}

// EndGame closes the open session and appends its record to the result.
func (b *Bridge) EndGame() (model.GameRecord, error) {
	if b.current == nil {
		return model.GameRecord{}, ErrNoActiveSession
	}
	rec := b.current.Close()
	b.current = nil
	b.result.Append(rec)
	metrics.RecordGamePlayed()
	if b.OnGame != nil {
		b.OnGame(rec)
	}
	return rec, nil
}

// Open reports whether a session is open.
func (b *Bridge) Open() bool {
	return b.current != nil
}

// Abort drops the open session, if any, and returns what it had recorded.
func (b *Bridge) Abort() (model.GameRecord, bool) {
	if b.current == nil {
		return model.GameRecord{}, false
	}
	rec := b.current.Snapshot()
	b.current = nil
	return rec, true
}

// Result returns the closed games in order.
func (b *Bridge) Result() model.TournamentResult {
	return model.NewTournamentResult(b.result.Games()...)
}
