package sandbox_test

import (
	"errors"
	"io"
	"testing"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/sandbox"
	"github.com/okian/dilemma/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard, false); err != nil {
		panic(err)
	}
}

func TestBridge(t *testing.T) {
	Convey("Given a fresh bridge", t, func() {
		b := sandbox.NewBridge()

		Convey("When a move is reported before any game", func() {
			err := b.ReportMoveTokens("Cooperate", "Defect")

			Convey("Then it fails with no active session", func() {
				So(errors.Is(err, sandbox.ErrNoActiveSession), ShouldBeTrue)
			})
		})

		Convey("When a game is ended before it starts", func() {
			_, err := b.EndGame()
			So(errors.Is(err, sandbox.ErrNoActiveSession), ShouldBeTrue)
		})

		Convey("When a full game is played", func() {
			var observed []string
			b.OnGame = func(g model.GameRecord) { observed = append(observed, g.GameName) }
			So(b.StartGame("AC", "AD"), ShouldBeNil)
			So(b.Open(), ShouldBeTrue)
			for i := 0; i < 3; i++ {
				So(b.ReportMoveTokens("Cooperate", "Defect"), ShouldBeNil)
			}
			rec, err := b.EndGame()

			Convey("Then the record is closed and appended", func() {
				So(err, ShouldBeNil)
				So(b.Open(), ShouldBeFalse)
				So(rec.ScoreA, ShouldEqual, -3)
				So(rec.ScoreB, ShouldEqual, 6)
				So(b.Result().Len(), ShouldEqual, 1)
				So(observed, ShouldResemble, []string{"AC vs AD"})
			})

			Convey("Then later reports need a new game", func() {
				So(errors.Is(b.ReportMoveTokens("Defect", "Defect"), sandbox.ErrNoActiveSession), ShouldBeTrue)
				So(b.Result().Games()[0].Rounds(), ShouldEqual, 3)
			})
		})

		Convey("When a game starts while another is open", func() {
			So(b.StartGame("A", "B"), ShouldBeNil)
			err := b.StartGame("C", "D")

			Convey("Then it is rejected and the open game is kept", func() {
				So(errors.Is(err, sandbox.ErrSessionAlreadyOpen), ShouldBeTrue)
				So(b.ReportMoveTokens("Cooperate", "Cooperate"), ShouldBeNil)
				rec, err := b.EndGame()
				So(err, ShouldBeNil)
				So(rec.GameName, ShouldEqual, "A vs B")
			})
		})

		Convey("When an invalid token is reported", func() {
			So(b.StartGame("A", "B"), ShouldBeNil)
			err := b.ReportMoveTokens("Cooperate!", "Defect")

			Convey("Then it fails with InvalidMoveError and nothing is recorded", func() {
				var im *sandbox.InvalidMoveError
				So(errors.As(err, &im), ShouldBeTrue)
				So(im.Token, ShouldEqual, "Cooperate!")
				So(errors.Is(err, sandbox.ErrInvalidMove), ShouldBeTrue)
				rec, _ := b.Abort()
				So(rec.Rounds(), ShouldEqual, 0)
			})
		})

		Convey("When an invalid move is reported without a session", func() {
			err := b.ReportMove(model.Move(7), model.Cooperate)

			Convey("Then validation comes first", func() {
				So(errors.Is(err, sandbox.ErrInvalidMove), ShouldBeTrue)
			})
		})

		Convey("When the open game is aborted", func() {
			So(b.StartGame("A", "B"), ShouldBeNil)
			_, dropped := b.Abort()
			So(dropped, ShouldBeTrue)
			So(b.Open(), ShouldBeFalse)
			So(b.Result().Len(), ShouldEqual, 0)
		})
	})
}
