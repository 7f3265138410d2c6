package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	c = model.Cooperate
	d = model.Defect
)

func TestScore(t *testing.T) {
	Convey("Given every pair of moves", t, func() {
		table := []struct {
			a, b           model.Move
			deltaA, deltaB int
		}{
			{c, c, 1, 1},
			{c, d, -1, 2},
			{d, c, 2, -1},
			{d, d, 0, 0},
		}

		Convey("Then the payoff matches the classroom table", func() {
			for _, row := range table {
				da, db := scoring.Score(row.a, row.b)
				So(da, ShouldEqual, row.deltaA)
				So(db, ShouldEqual, row.deltaB)
			}
		})

		Convey("Then the payoff is symmetric under swapping players", func() {
			for _, row := range table {
				da, db := scoring.Score(row.a, row.b)
				sb, sa := scoring.Score(row.b, row.a)
				So(sa, ShouldEqual, da)
				So(sb, ShouldEqual, db)
			}
		})
	})
}

func TestReplay(t *testing.T) {
	Convey("Given a game between a cooperator and a defector", t, func() {
		g := model.GameRecord{
			GameName: "AlwaysCooperate vs AlwaysDefect",
			NameA:    "AlwaysCooperate",
			NameB:    "AlwaysDefect",
			MovesA:   []model.Move{c, c, c},
			MovesB:   []model.Move{d, d, d},
			ScoreA:   -3,
			ScoreB:   6,
		}

		Convey("When it is replayed", func() {
			a, b, err := scoring.Replay(g)

			Convey("Then the sums match the recorded scores", func() {
				So(err, ShouldBeNil)
				So(a, ShouldEqual, -3)
				So(b, ShouldEqual, 6)
				So(scoring.Verify(g), ShouldBeNil)
			})
		})

		Convey("When the recorded score is tampered with", func() {
			g.ScoreA = 0

			Convey("Then verification fails", func() {
				So(errors.Is(scoring.Verify(g), scoring.ErrScoreMismatch), ShouldBeTrue)
			})
		})

		Convey("When a history is shorter than the other", func() {
			g.MovesB = g.MovesB[:2]

			Convey("Then replay rejects it", func() {
				_, _, err := scoring.Replay(g)
				So(errors.Is(err, scoring.ErrUnevenHistory), ShouldBeTrue)
			})
		})

		Convey("When a history holds an invalid move", func() {
			g.MovesA = []model.Move{c, 0, c}

			Convey("Then replay rejects it", func() {
				_, _, err := scoring.Replay(g)
				So(errors.Is(err, model.ErrInvalidMove), ShouldBeTrue)
			})
		})
	})
}

func TestBounds(t *testing.T) {
	Convey("Given a 20 round game", t, func() {
		lo, hi := scoring.Bounds(20)

		So(lo, ShouldEqual, -20)
		So(hi, ShouldEqual, 40)
	})
}
