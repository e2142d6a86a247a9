package api

import (
	"context"
	"net/http"

	service "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/internal/domain/stats"
)

// PlayerDependencies defines the interface for player operations.
type PlayerDependencies interface {
	CreatePlayer(ctx context.Context, in service.NewPlayer) (model.Player, error)
	Player(ctx context.Context, id string) (model.Player, error)
	Recalculate(ctx context.Context, playerID string) (model.Player, error)
	PlayerStats(ctx context.Context, playerID string) (stats.PlayerStats, error)
}

// PlayersHandler handles player requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleCreate handles POST /players requests.
func (h *PlayersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_player"
	var req createPlayerRequest
	if !decode(w, r, op, &req) {
		return
	}
	if req.BaseScore == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("base_score")))
		return
	}
	pos, err := model.ParsePosition(req.Position)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	p, err := h.deps.CreatePlayer(r.Context(), service.NewPlayer{
		SquadID:   req.SquadID,
		Name:      req.Name,
		Position:  pos,
		BaseScore: *req.BaseScore,
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, toPlayer(p))
}

// HandleGet handles GET /players/{id} requests.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Player(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_player", err))
		return
	}
	writeJSON(w, http.StatusOK, toPlayer(p))
}

// HandleRecalculate handles POST /players/{id}/recalculate requests.
func (h *PlayersHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Recalculate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.recalculate_player", err))
		return
	}
	writeJSON(w, http.StatusOK, toPlayer(p))
}

// HandleStats handles GET /players/{id}/stats requests.
func (h *PlayersHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ps, err := h.deps.PlayerStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.player_stats", err))
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
