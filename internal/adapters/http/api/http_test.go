package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/squadup/internal/adapters/http/api"
	service "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type testServer struct {
	mux *http.ServeMux
	svc *service.Service
}

func newTestServer() *testServer {
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithBalancer(draft.New(draft.WithMaxRoster(4))),
	)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(context.Background(), mux)
	return &testServer{mux: mux, svc: svc}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func (s *testServer) createPlayer(squad string, base float64) string {
	w := s.do(http.MethodPost, "/players", map[string]any{"squad_id": squad, "name": "p", "base_score": base})
	if w.Code != http.StatusCreated {
		panic(fmt.Sprintf("create player: %d %s", w.Code, w.Body.String()))
	}
	return decodeBody(w)["id"].(string)
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server backed by a started service", t, func() {
		s := newTestServer()
		defer s.svc.Stop()

		Convey("Health serves Prometheus metrics", func() {
			w := s.do(http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Stats report the service state", func() {
			w := s.do(http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["started"], ShouldEqual, true)
		})

		Convey("Player creation validates the body", func() {
			w := s.do(http.MethodPost, "/players", map[string]any{"squad_id": "sq"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody(w)["code"], ShouldEqual, "bad_request")

			w = s.do(http.MethodPost, "/players", map[string]any{"squad_id": "sq", "base_score": -3})
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeBody(w)["code"], ShouldEqual, "invalid_base_score")

			w = s.do(http.MethodPost, "/players", map[string]any{"base_score": 3, "position": "striker"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = s.do(http.MethodPost, "/players", map[string]any{"base_score": 3, "rating": 9})
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = s.do(http.MethodPost, "/players", `{"base_score":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown players are 404", func() {
			w := s.do(http.MethodGet, "/players/ghost", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeBody(w)["code"], ShouldEqual, "not_found")
			w = s.do(http.MethodGet, "/rank/ghost", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Unsupported methods are rejected by the router", func() {
			w := s.do(http.MethodDelete, "/players/x", nil)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Leaderboard limits are checked", func() {
			So(s.do(http.MethodGet, "/leaderboard", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(s.do(http.MethodGet, "/leaderboard?limit=0", nil).Code, ShouldEqual, http.StatusBadRequest)
			w := s.do(http.MethodGet, "/leaderboard?limit=101", nil)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("Given a squad with two players", func() {
			a := s.createPlayer("sq", 10)
			b := s.createPlayer("sq", 10)

			Convey("A scored match moves both scores", func() {
				w := s.do(http.MethodPost, "/matches", map[string]any{
					"team_a": map[string]any{"color": "red", "player_ids": []string{a}, "score": 3},
					"team_b": map[string]any{"color": "blue", "player_ids": []string{b}, "score": 1},
				})
				So(w.Code, ShouldEqual, http.StatusCreated)
				m := decodeBody(w)
				id := m["id"].(string)
				So(m["squad_id"], ShouldEqual, "sq")

				w = s.do(http.MethodGet, "/players/"+a, nil)
				So(decodeBody(w)["score"], ShouldEqual, 12.0)

				Convey("and editing the score replays it", func() {
					w := s.do(http.MethodPut, "/matches/"+id+"/score", map[string]any{"team_a": 0, "team_b": 2})
					So(w.Code, ShouldEqual, http.StatusOK)
					w = s.do(http.MethodGet, "/players/"+a, nil)
					So(decodeBody(w)["score"], ShouldEqual, 8.0)

					w = s.do(http.MethodPost, "/players/"+a+"/recalculate", nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody(w)["score"], ShouldEqual, 8.0)
				})

				Convey("and a half score is rejected", func() {
					w := s.do(http.MethodPut, "/matches/"+id+"/score", map[string]any{"team_a": 1})
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				})

				Convey("and the match can be read back", func() {
					w := s.do(http.MethodGet, "/matches/"+id, nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					body := decodeBody(w)
					So(body["team_a"].(map[string]any)["color"], ShouldEqual, "red")
				})

				Convey("and rosters can change", func() {
					c := s.createPlayer("sq", 30)
					w := s.do(http.MethodPut, "/matches/"+id+"/players", map[string]any{"team_a": []string{a, c}, "team_b": []string{b}})
					So(w.Code, ShouldEqual, http.StatusOK)
					w = s.do(http.MethodGet, "/players/"+c, nil)
					So(decodeBody(w)["score"], ShouldEqual, 32.0)
				})

				Convey("and the leaderboard and rank follow", func() {
					w := s.do(http.MethodGet, "/leaderboard?limit=5", nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					var entries []api.Entry
					So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
					So(entries[0].PlayerID, ShouldEqual, a)

					w = s.do(http.MethodGet, "/rank/"+b, nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody(w)["rank"], ShouldEqual, 2.0)
				})

				Convey("and stats are served", func() {
					w := s.do(http.MethodGet, "/players/"+a+"/stats", nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody(w)["total_wins"], ShouldEqual, 1.0)

					w = s.do(http.MethodGet, "/squads/sq/stats", nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody(w)["total_goals"], ShouldEqual, 4.0)
				})

				Convey("and a draft of its roster works without a body", func() {
					w := s.do(http.MethodPost, "/matches/"+id+"/draft", nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody(w)["proposals"], ShouldHaveLength, 1)
				})

				Convey("and deleting it restores the base scores", func() {
					w := s.do(http.MethodDelete, "/matches/"+id, nil)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody(w)["affected_players"], ShouldHaveLength, 2)
					w = s.do(http.MethodGet, "/players/"+a, nil)
					So(decodeBody(w)["score"], ShouldEqual, 10.0)
					So(s.do(http.MethodDelete, "/matches/"+id, nil).Code, ShouldEqual, http.StatusNotFound)
				})
			})

			Convey("Matches across squads are rejected", func() {
				other := s.createPlayer("other", 1)
				w := s.do(http.MethodPost, "/matches", map[string]any{
					"team_a": map[string]any{"player_ids": []string{a}},
					"team_b": map[string]any{"player_ids": []string{other}},
				})
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Draft errors map to their codes", func() {
				w := s.do(http.MethodPost, "/draft", map[string]any{"player_ids": []string{a, b}, "teams": 4})
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(w)["code"], ShouldEqual, "invalid_team_count")

				ids := []string{a, b, s.createPlayer("sq", 1), s.createPlayer("sq", 2), s.createPlayer("sq", 3)}
				w = s.do(http.MethodPost, "/draft", map[string]any{"player_ids": ids})
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeBody(w)["code"], ShouldEqual, "roster_too_large")

				w = s.do(http.MethodPost, "/draft", map[string]any{"player_ids": ids[:4], "teams": 2})
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(w.Body.String(), "draw_probability"), ShouldBeTrue)
			})
		})
	})
}
