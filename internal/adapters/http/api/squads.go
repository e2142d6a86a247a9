package api

import (
	"context"
	"net/http"

	"github.com/okian/squadup/internal/domain/stats"
)

// SquadDependencies defines the interface for squad operations.
type SquadDependencies interface {
	SquadStats(ctx context.Context, squadID string) (stats.SquadStats, error)
}

// SquadsHandler handles squad requests.
type SquadsHandler struct {
	deps SquadDependencies
}

// NewSquadsHandler creates a new squads handler.
func NewSquadsHandler(deps SquadDependencies) *SquadsHandler {
	return &SquadsHandler{deps: deps}
}

// HandleStats handles GET /squads/{id}/stats requests.
func (h *SquadsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ss, err := h.deps.SquadStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.squad_stats", err))
		return
	}
	writeJSON(w, http.StatusOK, ss)
}
