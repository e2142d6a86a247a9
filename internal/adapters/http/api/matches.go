package api

import (
	"context"
	"fmt"
	"net/http"

	service "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/domain/model"
)

// MatchDependencies defines the interface for match operations.
type MatchDependencies interface {
	CreateMatch(ctx context.Context, in service.NewMatch) (model.Match, error)
	Match(ctx context.Context, id string) (model.Match, error)
	ScoreMatch(ctx context.Context, matchID string, scoreA, scoreB int) (model.Match, error)
	UpdateMatchPlayers(ctx context.Context, matchID string, teamA, teamB []string) (model.Match, error)
	DeleteMatch(ctx context.Context, matchID string) ([]string, error)
}

// MatchesHandler handles match requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// HandleCreate handles POST /matches requests.
func (h *MatchesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_match"
	var req createMatchRequest
	if !decode(w, r, op, &req) {
		return
	}
	m, err := h.deps.CreateMatch(r.Context(), service.NewMatch{
		SquadID: req.SquadID,
		TeamA:   req.TeamA.toModel(),
		TeamB:   req.TeamB.toModel(),
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, toMatch(m))
}

// HandleGet handles GET /matches/{id} requests.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Match(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_match", err))
		return
	}
	writeJSON(w, http.StatusOK, toMatch(m))
}

// HandleScore handles PUT /matches/{id}/score requests.
func (h *MatchesHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_match"
	var req scoreRequest
	if !decode(w, r, op, &req) {
		return
	}
	if req.TeamA == nil || req.TeamB == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("team_a and team_b")))
		return
	}
	m, err := h.deps.ScoreMatch(r.Context(), r.PathValue("id"), *req.TeamA, *req.TeamB)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toMatch(m))
}

// HandlePlayers handles PUT /matches/{id}/players requests.
func (h *MatchesHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_players"
	var req rosterRequest
	if !decode(w, r, op, &req) {
		return
	}
	m, err := h.deps.UpdateMatchPlayers(r.Context(), r.PathValue("id"), req.TeamA, req.TeamB)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toMatch(m))
}

// HandleDelete handles DELETE /matches/{id} requests.
func (h *MatchesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	affected, err := h.deps.DeleteMatch(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap("api.delete_match", err))
		return
	}
	if affected == nil {
		affected = []string{}
	}
	writeJSON(w, http.StatusOK, deleteMatchResponse{MatchID: id, AffectedPlayers: affected})
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}
