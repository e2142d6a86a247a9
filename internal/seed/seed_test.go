package seed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/squadup/internal/adapters/http/api"
	service "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/seed"
	"github.com/okian/squadup/pkg/logger"
)

func intp(v int) *int { return &v }

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a, b := seed.NewGenerator(42), seed.NewGenerator(42)

		Convey("Then they produce the same players and matches", func() {
			So(a.Players(8), ShouldResemble, b.Players(8))
			So(a.Matches(8, 5), ShouldResemble, b.Matches(8, 5))
		})

		Convey("Then match teams are disjoint and evenly sized", func() {
			for _, m := range a.Matches(7, 30) {
				So(len(m.TeamA), ShouldEqual, len(m.TeamB))
				So(len(m.TeamA), ShouldBeBetweenOrEqual, 1, 3)
				seen := map[int]bool{}
				for _, i := range append(append([]int{}, m.TeamA...), m.TeamB...) {
					So(seen[i], ShouldBeFalse)
					So(i, ShouldBeBetweenOrEqual, 0, 6)
					seen[i] = true
				}
				So(m.ColorA, ShouldNotEqual, m.ColorB)
			}
		})

		Convey("Then a single player cannot play", func() {
			So(a.Matches(1, 3), ShouldBeNil)
		})
	})
}

func TestExpectedScores(t *testing.T) {
	Convey("Given players and matches out of creation order", t, func() {
		t0 := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
		players := []seed.Player{{ID: "a", BaseScore: 10}, {ID: "b", BaseScore: 10}, {ID: "c", BaseScore: 99}}
		matches := []seed.Match{
			{ID: "m2", CreatedAt: t0.Add(time.Hour),
				TeamA: seed.Team{PlayerIDs: []string{"a"}, Score: intp(0)},
				TeamB: seed.Team{PlayerIDs: []string{"b"}, Score: intp(2)}},
			{ID: "m1", CreatedAt: t0,
				TeamA: seed.Team{PlayerIDs: []string{"a", "c"}, Score: intp(3)},
				TeamB: seed.Team{PlayerIDs: []string{"b"}, Score: intp(1)}},
		}

		Convey("Then later matches are damped and the result is clamped", func() {
			got := seed.ExpectedScores(players, matches)
			So(got["a"], ShouldAlmostEqual, 12-2/1.2, 1e-9)
			So(got["b"], ShouldAlmostEqual, 8+2/1.2, 1e-9)
			So(got["c"], ShouldEqual, 100.0)
		})

		Convey("Then unscored matches only advance the match index", func() {
			matches[1].TeamA.Score, matches[1].TeamB.Score = nil, nil
			got := seed.ExpectedScores(players, matches)
			So(got["a"], ShouldAlmostEqual, 10-2/1.2, 1e-9)
			So(got["c"], ShouldEqual, 99.0)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running squadup API", t, func() {
		So(logger.Init(), ShouldBeNil)
		svc := service.New(service.WithLogger(logger.Nop()))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 100).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := &seed.Config{
			BaseURL: srv.URL,
			Players: 12,
			Matches: 20,
			Seed:    7,
			Workers: 3,
			Timeout: 5 * time.Second,
		}

		Convey("When a seed run completes", func() {
			stats, err := seed.Run(context.Background(), cfg)

			Convey("Then every replayed score matches the local replay", func() {
				So(err, ShouldBeNil)
				So(stats.PlayersCreated, ShouldEqual, 12)
				So(stats.PlayersFailed, ShouldEqual, 0)
				So(stats.MatchesCreated, ShouldEqual, 20)
				So(stats.ScoresEdited, ShouldEqual, 4)
				So(stats.PlayersVerified, ShouldEqual, 12)
				So(stats.DraftProposals, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When too few players are requested", func() {
			cfg.Players = 1
			_, err := seed.Run(context.Background(), cfg)
			So(errors.Is(err, seed.ErrNoPlayers), ShouldBeTrue)
		})

		Convey("When the service is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := seed.Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a client against a failing endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"not_found","message":"player ghost"}`))
		}))
		defer srv.Close()
		c := seed.NewClient(srv.URL, time.Second, logger.Nop(), true)

		Convey("Then the API error is decoded and wraps ErrUnexpectedStatus", func() {
			err := c.Do(context.Background(), http.MethodGet, "/players/ghost", nil, nil, http.StatusOK)
			So(errors.Is(err, seed.ErrUnexpectedStatus), ShouldBeTrue)
			var apiErr *seed.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusNotFound)
			So(apiErr.Code, ShouldEqual, "not_found")
		})
	})
}
