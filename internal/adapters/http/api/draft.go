package api

import (
	"context"
	"net/http"

	"github.com/okian/squadup/internal/domain/draft"
)

// DraftDependencies defines the interface for draft operations.
type DraftDependencies interface {
	Draft(ctx context.Context, playerIDs []string, teamCount int) (draft.Result, error)
	DraftMatch(ctx context.Context, matchID string, teamCount int) (draft.Result, error)
}

// DraftHandler handles draft requests.
type DraftHandler struct {
	deps DraftDependencies
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(deps DraftDependencies) *DraftHandler {
	return &DraftHandler{deps: deps}
}

// HandleDraft handles POST /draft requests.
func (h *DraftHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	const op = "api.draft"
	var req draftRequest
	if !decode(w, r, op, &req) {
		return
	}
	res, err := h.deps.Draft(r.Context(), req.PlayerIDs, teamsOrDefault(req.Teams))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toDraft(res))
}

// HandleMatchDraft handles POST /matches/{id}/draft requests. The body is
// optional and may only carry the team count.
func (h *DraftHandler) HandleMatchDraft(w http.ResponseWriter, r *http.Request) {
	const op = "api.draft_match"
	var req draftRequest
	if r.ContentLength != 0 && !decode(w, r, op, &req) {
		return
	}
	res, err := h.deps.DraftMatch(r.Context(), r.PathValue("id"), teamsOrDefault(req.Teams))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toDraft(res))
}

func teamsOrDefault(n int) int {
	if n == 0 {
		return 2
	}
	return n
}
