package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "squadup.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	Convey("Given a fresh SQLite store with four players", t, func() {
		ctx := context.Background()
		s := openTestStore(t)
		t0 := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
		for i, id := range []string{"a", "b", "c", "d"} {
			p, err := model.NewPlayer(id, "sq", "P"+id, model.PositionMidfielder, 10, t0.Add(time.Duration(i)*time.Minute))
			So(err, ShouldBeNil)
			So(s.CreatePlayer(ctx, p), ShouldBeNil)
		}
		m := model.Match{
			ID: "m1", SquadID: "sq", CreatedAt: t0.Add(time.Hour),
			TeamA: model.Team{Color: "red", PlayerIDs: []string{"b", "a"}},
			TeamB: model.Team{Color: "blue", PlayerIDs: []string{"d", "c"}},
		}
		So(s.Apply(ctx, repository.Change{Match: &m}), ShouldBeNil)

		Convey("Players round-trip with their position and time", func() {
			p, err := s.Player(ctx, "c")
			So(err, ShouldBeNil)
			So(p.Position, ShouldEqual, model.PositionMidfielder)
			So(p.CreatedAt.Equal(t0.Add(2*time.Minute)), ShouldBeTrue)
			ps, err := s.Players(ctx, "sq")
			So(err, ShouldBeNil)
			So(ps, ShouldHaveLength, 4)
			all, _ := s.Players(ctx, "")
			So(all, ShouldHaveLength, 4)
		})

		Convey("Duplicate players map to ErrAlreadyExists", func() {
			p, _ := model.NewPlayer("a", "sq", "again", model.PositionNone, 1, t0)
			err := s.CreatePlayer(ctx, p)
			So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
		})

		Convey("Unknown ids map to ErrNotFound", func() {
			_, err := s.Player(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Match(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Entries(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Rosters keep their order and scores start empty", func() {
			got, err := s.Match(ctx, "m1")
			So(err, ShouldBeNil)
			So(cmp.Diff(m, got), ShouldBeEmpty)
			So(got.Scored(), ShouldBeFalse)
		})

		Convey("Scoring and roster edits replace the stored match", func() {
			m.TeamA.Score = model.IntPtr(3)
			m.TeamB.Score = model.IntPtr(1)
			m.TeamB.PlayerIDs = []string{"c"}
			So(s.Apply(ctx, repository.Change{Match: &m}), ShouldBeNil)
			got, _ := s.Match(ctx, "m1")
			So(*got.TeamA.Score, ShouldEqual, 3)
			So(got.TeamB.PlayerIDs, ShouldResemble, []string{"c"})
			ms, _ := s.PlayerMatches(ctx, "d")
			So(ms, ShouldBeEmpty)
		})

		Convey("Rosters that name unknown players are rejected", func() {
			bad := m
			bad.ID = "m2"
			bad.TeamA.PlayerIDs = []string{"ghost"}
			err := s.Apply(ctx, repository.Change{Match: &bad})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Match(ctx, "m2")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Ledger updates are stored with the player score", func() {
			entry := model.LedgerEntry{
				PlayerID: "a", MatchID: "m1", MatchCreatedAt: m.CreatedAt, CreatedAt: m.CreatedAt.Add(time.Hour),
				PreviousScore: 10, Delta: 2, NewScore: 12,
			}
			err := s.Apply(ctx, repository.Change{Ledger: []repository.LedgerUpdate{{PlayerID: "a", Entries: []model.LedgerEntry{entry}, Score: 12}}})
			So(err, ShouldBeNil)
			p, _ := s.Player(ctx, "a")
			So(p.Score, ShouldEqual, 12.0)
			es, err := s.Entries(ctx, "a")
			So(err, ShouldBeNil)
			So(cmp.Diff([]model.LedgerEntry{entry}, es), ShouldBeEmpty)

			Convey("and a failing change rolls everything back", func() {
				err := s.Apply(ctx, repository.Change{Ledger: []repository.LedgerUpdate{
					{PlayerID: "a", Score: 50},
					{PlayerID: "ghost", Score: 1},
				}})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				p, _ := s.Player(ctx, "a")
				So(p.Score, ShouldEqual, 12.0)
				es, _ := s.Entries(ctx, "a")
				So(es, ShouldHaveLength, 1)
			})

			Convey("and deleting the match removes the entries", func() {
				err := s.Apply(ctx, repository.Change{DeleteMatch: "m1", Ledger: []repository.LedgerUpdate{{PlayerID: "a", Score: 10}}})
				So(err, ShouldBeNil)
				es, _ := s.Entries(ctx, "a")
				So(es, ShouldBeEmpty)
				ms, _ := s.Matches(ctx, "sq")
				So(ms, ShouldBeEmpty)
			})
		})

		Convey("Deleting an unknown match fails", func() {
			err := s.Apply(ctx, repository.Change{DeleteMatch: "nope"})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Matches are listed chronologically", func() {
			early := model.Match{ID: "m0", SquadID: "sq", CreatedAt: t0, TeamA: model.Team{PlayerIDs: []string{"a"}}, TeamB: model.Team{PlayerIDs: []string{"b"}}}
			So(s.Apply(ctx, repository.Change{Match: &early}), ShouldBeNil)
			ms, err := s.Matches(ctx, "sq")
			So(err, ShouldBeNil)
			So(ms, ShouldHaveLength, 2)
			So(ms[0].ID, ShouldEqual, "m0")
			ms, _ = s.PlayerMatches(ctx, "a")
			So(ms, ShouldHaveLength, 2)
		})
	})

	Convey("Given a store reopened on the same file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "reopen.db")
		s, err := Open(ctx, path)
		So(err, ShouldBeNil)
		p, _ := model.NewPlayer("x", "sq", "X", model.PositionNone, 4, time.Now())
		So(s.CreatePlayer(ctx, p), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		again, err := Open(ctx, path)
		So(err, ShouldBeNil)
		defer again.Close()
		got, err := again.Player(ctx, "x")
		So(err, ShouldBeNil)
		So(got.BaseScore, ShouldEqual, 4.0)
	})

	Convey("An empty path is rejected", t, func() {
		_, err := Open(context.Background(), " ")
		So(err, ShouldNotBeNil)
	})
}

func TestUpSection(t *testing.T) {
	Convey("upSection keeps only the forward migration", t, func() {
		So(upSection("-- +migrate Up\nCREATE x;\n-- +migrate Down\nDROP x;"), ShouldEqual, "\nCREATE x;\n")
		So(upSection("CREATE y;"), ShouldEqual, "CREATE y;")
	})
}
