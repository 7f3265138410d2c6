// Package session owns the lifecycle of one running game: move history,
// running score and validity checks.
package session

import (
	"fmt"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/scoring"
)

// Session is an open game between two strategies. It is not safe for
// concurrent use; the execution bridge serializes access.
type Session struct {
	record model.GameRecord
	closed bool
}

// Open starts a session for the ordered pairing (nameA, nameB).
func Open(nameA, nameB string) *Session {
	return &Session{
		record: model.GameRecord{
			GameName: model.GameName(nameA, nameB),
			NameA:    nameA,
			NameB:    nameB,
			MovesA:   []model.Move{},
			MovesB:   []model.Move{},
		},
	}
}

// Record appends one round and applies the payoff. Both histories grow by
// exactly one move or neither does.
func (s *Session) Record(a, b model.Move) error {
	if s.closed {
		return fmt.Errorf("%s: %w", s.record.GameName, model.ErrSessionClosed)
	}
	if !a.Valid() {
		return fmt.Errorf("%w: %s played %v", model.ErrInvalidMove, s.record.NameA, a)
	}
	if !b.Valid() {
		return fmt.Errorf("%w: %s played %v", model.ErrInvalidMove, s.record.NameB, b)
	}
	da, db := scoring.Score(a, b)
	s.record.MovesA = append(s.record.MovesA, a)
	s.record.MovesB = append(s.record.MovesB, b)
	s.record.ScoreA += da
	s.record.ScoreB += db
	return nil
}

// Close freezes the session and returns its record. Closing twice returns
// the same record.
func (s *Session) Close() model.GameRecord {
	s.closed = true
	return s.record.Clone()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.closed
}

// Snapshot returns a copy of the in-progress record.
func (s *Session) Snapshot() model.GameRecord {
	return s.record.Clone()
}

// Rounds returns the number of recorded rounds.
func (s *Session) Rounds() int {
	return len(s.record.MovesA)
}
