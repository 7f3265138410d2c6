package session_test

import (
	"errors"
	"testing"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/scoring"
	"github.com/okian/dilemma/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSession(t *testing.T) {
	Convey("Given an open session", t, func() {
		s := session.Open("TitForTatBot", "DefectBot")

		So(s.Snapshot().GameName, ShouldEqual, "TitForTatBot vs DefectBot")
		So(s.Rounds(), ShouldEqual, 0)

		Convey("When rounds are recorded", func() {
			So(s.Record(model.Cooperate, model.Defect), ShouldBeNil)
			So(s.Record(model.Defect, model.Defect), ShouldBeNil)

			Convey("Then histories grow together and scores follow the payoff", func() {
				snap := s.Snapshot()
				So(len(snap.MovesA), ShouldEqual, 2)
				So(len(snap.MovesB), ShouldEqual, 2)
				So(snap.ScoreA, ShouldEqual, -1)
				So(snap.ScoreB, ShouldEqual, 2)
				So(scoring.Verify(snap), ShouldBeNil)
			})
		})

		Convey("When an invalid move is recorded", func() {
			So(s.Record(model.Cooperate, model.Cooperate), ShouldBeNil)
			err := s.Record(model.Cooperate, model.Move(9))

			Convey("Then it fails and nothing is appended", func() {
				So(errors.Is(err, model.ErrInvalidMove), ShouldBeTrue)
				So(s.Rounds(), ShouldEqual, 1)
				So(len(s.Snapshot().MovesB), ShouldEqual, 1)
			})
		})

		Convey("When the session is closed", func() {
			So(s.Record(model.Cooperate, model.Cooperate), ShouldBeNil)
			rec := s.Close()

			Convey("Then the record is final", func() {
				So(s.Closed(), ShouldBeTrue)
				So(rec.ScoreA, ShouldEqual, 1)
				err := s.Record(model.Defect, model.Defect)
				So(errors.Is(err, model.ErrSessionClosed), ShouldBeTrue)
				So(s.Close().Rounds(), ShouldEqual, 1)
			})

			Convey("Then mutating the returned record does not reach the session", func() {
				rec.MovesA[0] = model.Defect
				So(s.Snapshot().MovesA[0], ShouldEqual, model.Cooperate)
			})
		})
	})
}
