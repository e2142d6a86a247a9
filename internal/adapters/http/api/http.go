// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/squadup/internal/adapters/repository"
	service "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/ledger"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/internal/domain/stats"
	"github.com/okian/squadup/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	MatchDependencies
	DraftDependencies
	SquadDependencies
	LeaderboardDependencies
	RankDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	playersHandler     *PlayersHandler
	matchesHandler     *MatchesHandler
	draftHandler       *DraftHandler
	squadsHandler      *SquadsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		playersHandler:     NewPlayersHandler(deps),
		matchesHandler:     NewMatchesHandler(deps),
		draftHandler:       NewDraftHandler(deps),
		squadsHandler:      NewSquadsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /players", MetricsMiddleware(s.playersHandler.HandleCreate, "players_create"))
	mux.HandleFunc("GET /players/{id}", MetricsMiddleware(s.playersHandler.HandleGet, "players_get"))
	mux.HandleFunc("POST /players/{id}/recalculate", MetricsMiddleware(s.playersHandler.HandleRecalculate, "players_recalculate"))
	mux.HandleFunc("GET /players/{id}/stats", MetricsMiddleware(s.playersHandler.HandleStats, "players_stats"))

	mux.HandleFunc("POST /matches", MetricsMiddleware(s.matchesHandler.HandleCreate, "matches_create"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGet, "matches_get"))
	mux.HandleFunc("PUT /matches/{id}/score", MetricsMiddleware(s.matchesHandler.HandleScore, "matches_score"))
	mux.HandleFunc("PUT /matches/{id}/players", MetricsMiddleware(s.matchesHandler.HandlePlayers, "matches_players"))
	mux.HandleFunc("DELETE /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleDelete, "matches_delete"))

	mux.HandleFunc("POST /matches/{id}/draft", MetricsMiddleware(s.draftHandler.HandleMatchDraft, "draft_match"))
	mux.HandleFunc("POST /draft", MetricsMiddleware(s.draftHandler.HandleDraft, "draft"))

	mux.HandleFunc("GET /squads/{id}/stats", MetricsMiddleware(s.squadsHandler.HandleStats, "squads_stats"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ledger.ErrPlayerNotFound),
		errors.Is(err, stats.ErrPlayerNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, draft.ErrInvalidTeamCount):
		return http.StatusBadRequest, "invalid_team_count"
	case errors.Is(err, draft.ErrRosterTooLarge):
		return http.StatusRequestEntityTooLarge, "roster_too_large"
	case errors.Is(err, model.ErrInvalidBaseScore):
		return http.StatusUnprocessableEntity, "invalid_base_score"
	case errors.Is(err, ledger.ErrChainBroken):
		return http.StatusInternalServerError, "ledger_inconsistent"
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, repository.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, draft.ErrRosterTooSmall),
		errors.Is(err, draft.ErrDuplicatePlayer),
		errors.Is(err, model.ErrInvalidPosition),
		errors.Is(err, model.ErrEmptyID),
		errors.Is(err, model.ErrPlayerOnBothTeams),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrSquadMismatch),
		errors.Is(err, service.ErrEmptyRoster):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads one JSON document from the request body into v.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("decode body: %w", err)))
		return false
	}
	return true
}
