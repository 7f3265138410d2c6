package aggregate_test

import (
	"context"
	"testing"

	"github.com/okian/dilemma/internal/domain/aggregate"
	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/strategy"
	"github.com/okian/dilemma/internal/domain/tournament"
	. "github.com/smartystreets/goconvey/convey"
)

func play(t *testing.T, iterations int, fs ...strategy.Factory) model.TournamentResult {
	t.Helper()
	s := &tournament.Scheduler{Iterations: iterations}
	res, err := s.Run(context.Background(), fs, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestCompute(t *testing.T) {
	ac := strategy.Stateless("AC", func(_, _ []model.Move) model.Move { return model.Cooperate })
	ad := strategy.Stateless("AD", func(_, _ []model.Move) model.Move { return model.Defect })

	Convey("Given AC and AD over three rounds", t, func() {
		res := play(t, 3, ac, ad)
		sum := aggregate.Compute(res, 3)

		Convey("Then AD ranks first", func() {
			So(sum.Players, ShouldResemble, []string{"AD", "AC"})
			So(sum.Games, ShouldEqual, 4)
		})

		Convey("Then totals count each side of every game", func() {
			adRow, ok := sum.Standing("AD")
			So(ok, ShouldBeTrue)
			// AD vs AC: 6, AC vs AD: 6, AD vs AD: 0 + 0
			So(adRow.Total, ShouldEqual, 12)
			So(adRow.Games, ShouldEqual, 4)
			So(adRow.Average, ShouldEqual, 3)

			acRow, _ := sum.Standing("AC")
			So(acRow.Total, ShouldEqual, 0)
			So(acRow.HasData, ShouldBeTrue)
		})

		Convey("Then the cross table holds per-pair means", func() {
			c, ok := sum.Cell("AC", "AD")
			So(ok, ShouldBeTrue)
			So(c.Mean, ShouldEqual, -3)
			So(c.Count, ShouldEqual, 2)
			So(c.Heat, ShouldEqual, 0)

			c, _ = sum.Cell("AD", "AC")
			So(c.Mean, ShouldEqual, 6)
			So(c.Heat, ShouldEqual, 1)

			self, ok := sum.Cell("AC", "AC")
			So(ok, ShouldBeTrue)
			So(self.Mean, ShouldEqual, 3)
		})

		Convey("Then the table is laid out in ranking order", func() {
			rows := sum.Table()
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Player, ShouldEqual, "AD")
			So(rows[0].Cells[1].Mean, ShouldEqual, 6)
		})

		Convey("Then recomputation is idempotent and order independent", func() {
			So(aggregate.Compute(res, 3), ShouldResemble, sum)

			games := res.Games()
			for i, j := 0, len(games)-1; i < j; i, j = i+1, j-1 {
				games[i], games[j] = games[j], games[i]
			}
			rev := aggregate.Compute(model.NewTournamentResult(games...), 3)
			So(rev.Cross, ShouldResemble, sum.Cross)
			adRev, _ := rev.Standing("AD")
			adRow, _ := sum.Standing("AD")
			So(adRev, ShouldResemble, adRow)
		})
	})

	Convey("Given tied averages", t, func() {
		a := strategy.Stateless("First", func(_, _ []model.Move) model.Move { return model.Cooperate })
		b := strategy.Stateless("Second", func(_, _ []model.Move) model.Move { return model.Cooperate })
		sum := aggregate.Compute(play(t, 2, a, b), 2)

		Convey("Then discovery order breaks the tie", func() {
			So(sum.Players, ShouldResemble, []string{"First", "Second"})
		})
	})

	Convey("Given an empty result", t, func() {
		sum := aggregate.Compute(model.TournamentResult{}, 20)

		Convey("Then there is no data and nothing divides by zero", func() {
			So(sum.Empty(), ShouldBeTrue)
			So(sum.Scoreboard, ShouldBeEmpty)
			_, ok := sum.Cell("A", "B")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestHeat(t *testing.T) {
	Convey("Given twenty rounds", t, func() {
		So(aggregate.Heat(-20, 20), ShouldEqual, 0)
		So(aggregate.Heat(40, 20), ShouldEqual, 1)
		So(aggregate.Heat(10, 20), ShouldEqual, 0.5)
		So(aggregate.Heat(99, 20), ShouldEqual, 1)
		So(aggregate.Heat(-99, 20), ShouldEqual, 0)
		So(aggregate.Heat(5, 0), ShouldEqual, 0)
	})
}
