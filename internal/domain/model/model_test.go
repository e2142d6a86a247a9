package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	model "github.com/okian/squadup/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewPlayer(t *testing.T) {
	convey.Convey("Given player construction", t, func() {
		now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

		convey.Convey("A valid base score seeds the current score", func() {
			p, err := model.NewPlayer("p1", "sq", "Ana", model.PositionForward, 12.5, now)
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Score, convey.ShouldEqual, 12.5)
			convey.So(p.BaseScore, convey.ShouldEqual, 12.5)
			convey.So(p.Ref(), convey.ShouldResemble, model.PlayerRef{PlayerID: "p1", Name: "Ana"})
		})

		convey.Convey("An empty position defaults to none", func() {
			p, err := model.NewPlayer("p1", "sq", "Ana", "", 0, now)
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Position, convey.ShouldEqual, model.PositionNone)
		})

		convey.Convey("Negative, NaN and infinite base scores are rejected", func() {
			for _, v := range []float64{-0.1, math.NaN(), math.Inf(1)} {
				_, err := model.NewPlayer("p1", "sq", "Ana", "", v, now)
				convey.So(errors.Is(err, model.ErrInvalidBaseScore), convey.ShouldBeTrue)
			}
		})

		convey.Convey("A blank id is rejected", func() {
			_, err := model.NewPlayer(" ", "sq", "Ana", "", 1, now)
			convey.So(err, convey.ShouldEqual, model.ErrEmptyID)
		})
	})
}

func TestParsePosition(t *testing.T) {
	convey.Convey("Given position names", t, func() {
		p, err := model.ParsePosition(" Goalie ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldEqual, model.PositionGoalie)

		p, err = model.ParsePosition("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldEqual, model.PositionNone)

		_, err = model.ParsePosition("libero")
		convey.So(errors.Is(err, model.ErrInvalidPosition), convey.ShouldBeTrue)
	})
}

func TestMatch(t *testing.T) {
	convey.Convey("Given a match between two teams", t, func() {
		m := model.Match{
			ID:        "m1",
			CreatedAt: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
			TeamA:     model.Team{Color: "white", PlayerIDs: []string{"a", "b"}},
			TeamB:     model.Team{Color: "black", PlayerIDs: []string{"c", "d"}},
		}

		convey.Convey("Before scoring it is unscored and goals are unavailable", func() {
			convey.So(m.Scored(), convey.ShouldBeFalse)
			_, _, ok := m.Goals(model.SideA)
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(m.Ref().Score, convey.ShouldBeNil)
		})

		convey.Convey("After scoring goals are seen from each side", func() {
			m.TeamA.Score = model.IntPtr(5)
			m.TeamB.Score = model.IntPtr(3)
			gf, ga, ok := m.Goals(m.SideOf("d"))
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(gf, convey.ShouldEqual, 3)
			convey.So(ga, convey.ShouldEqual, 5)
			convey.So(*m.Ref().Score, convey.ShouldResemble, [2]int{5, 3})
		})

		convey.Convey("Teammates exclude the player and opponents are the other side", func() {
			convey.So(m.Teammates(model.SideA, "a"), convey.ShouldResemble, []string{"b"})
			convey.So(m.Opponents(model.SideA), convey.ShouldResemble, []string{"c", "d"})
			convey.So(m.SideOf("zz"), convey.ShouldEqual, model.SideNone)
		})

		convey.Convey("Validate rejects a player on both teams", func() {
			m.TeamB.PlayerIDs = append(m.TeamB.PlayerIDs, "a")
			convey.So(errors.Is(m.Validate(), model.ErrPlayerOnBothTeams), convey.ShouldBeTrue)
		})
	})
}

func TestLedgerEntryOrder(t *testing.T) {
	convey.Convey("Entries order by match time then match id", t, func() {
		t0 := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
		a := model.LedgerEntry{MatchID: "b", MatchCreatedAt: t0}
		b := model.LedgerEntry{MatchID: "a", MatchCreatedAt: t0.Add(time.Hour)}
		c := model.LedgerEntry{MatchID: "a", MatchCreatedAt: t0}
		convey.So(a.Before(b), convey.ShouldBeTrue)
		convey.So(c.Before(a), convey.ShouldBeTrue)
		convey.So(a.Before(c), convey.ShouldBeFalse)
	})
}
