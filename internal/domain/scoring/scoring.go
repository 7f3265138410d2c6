// Package scoring implements the payoff model of the dilemma variant used in
// class: both players receive a base point, and a defector takes one more
// point while costing the opponent two.
package scoring

import (
	"fmt"

	"github.com/okian/dilemma/internal/domain/model"
)

// Payoff constants. Student-visible; do not normalize to the classic matrix.
const (
	BasePoints    = 1
	DefectBonus   = 1
	DefectPenalty = 2

	// MaxPerRound is the best single-round outcome (defect against cooperate).
	MaxPerRound = BasePoints + DefectBonus
	// MinPerRound is the worst single-round outcome (cooperate against defect).
	MinPerRound = BasePoints - DefectPenalty
)

// Score returns the per-round deltas for a pair of valid moves.
//
//	C/C -> +1/+1, C/D -> -1/+2, D/C -> +2/-1, D/D -> 0/0
func Score(a, b model.Move) (deltaA, deltaB int) {
	deltaA, deltaB = BasePoints, BasePoints
	if a == model.Defect {
		deltaA += DefectBonus
		deltaB -= DefectPenalty
	}
	if b == model.Defect {
		deltaB += DefectBonus
		deltaA -= DefectPenalty
	}
	return deltaA, deltaB
}

// Replay recomputes a game's final scores from its move histories.
func Replay(g model.GameRecord) (scoreA, scoreB int, err error) {
	if len(g.MovesA) != len(g.MovesB) {
		return 0, 0, fmt.Errorf("%w: %d moves for %s, %d for %s",
			ErrUnevenHistory, len(g.MovesA), g.NameA, len(g.MovesB), g.NameB)
	}
	for i := range g.MovesA {
		a, b := g.MovesA[i], g.MovesB[i]
		if !a.Valid() || !b.Valid() {
			return 0, 0, fmt.Errorf("%w: round %d", model.ErrInvalidMove, i+1)
		}
		da, db := Score(a, b)
		scoreA += da
		scoreB += db
	}
	return scoreA, scoreB, nil
}

// Verify checks that a game's recorded scores match its move histories.
func Verify(g model.GameRecord) error {
	a, b, err := Replay(g)
	if err != nil {
		return err
	}
	if a != g.ScoreA || b != g.ScoreB {
		return fmt.Errorf("%w: %s recorded (%d, %d), replayed (%d, %d)",
			ErrScoreMismatch, g.GameName, g.ScoreA, g.ScoreB, a, b)
	}
	return nil
}

// Bounds returns the lowest and highest total one player can reach in a game
// of the given length.
func Bounds(iterations int) (lo, hi int) {
	return MinPerRound * iterations, MaxPerRound * iterations
}
