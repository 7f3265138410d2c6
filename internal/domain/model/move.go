// Package model contains the tournament domain types shared across layers.
package model

import (
	"fmt"
)

// Move is one player's choice in a round. The zero value is not a valid move.
type Move int8

// The only two legal moves.
const (
	Cooperate Move = iota + 1
	Defect
)

// Tokens exposed to strategy scripts.
const (
	CooperateToken = "Cooperate"
	DefectToken    = "Defect"
)

// ParseMove maps a script token to a Move. Anything other than the exact
// tokens is rejected.
func ParseMove(token string) (Move, error) {
	switch token {
	case CooperateToken:
		return Cooperate, nil
	case DefectToken:
		return Defect, nil
	}
	return 0, fmt.Errorf("%w: got %q, want %q or %q", ErrInvalidMove, token, CooperateToken, DefectToken)
}

// Valid reports whether m is Cooperate or Defect.
func (m Move) Valid() bool {
	return m == Cooperate || m == Defect
}

func (m Move) String() string {
	switch m {
	case Cooperate:
		return CooperateToken
	case Defect:
		return DefectToken
	}
	return fmt.Sprintf("Move(%d)", int8(m))
}

// Letter returns the one-letter form used in move strips: C or D.
func (m Move) Letter() string {
	switch m {
	case Cooperate:
		return "C"
	case Defect:
		return "D"
	}
	return "?"
}

// MarshalText encodes the move as its script token.
func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMove, int8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a script token.
func (m *Move) UnmarshalText(b []byte) error {
	v, err := ParseMove(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
