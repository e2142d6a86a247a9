package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/pkg/logger"
	"github.com/okian/squadup/pkg/metrics"
)

// Draft proposes balanced teams for the given players using their current
// scores.
func (s *Service) Draft(ctx context.Context, playerIDs []string, teamCount int) (draft.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return draft.Result{}, err
	}

	players, err := s.roster(ctx, playerIDs)
	if err != nil {
		return draft.Result{}, err
	}
	return s.propose(ctx, players, teamCount)
}

// DraftMatch proposes balanced teams for everyone on the match rosters.
func (s *Service) DraftMatch(ctx context.Context, matchID string, teamCount int) (draft.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return draft.Result{}, err
	}

	m, err := s.repo.Match(ctx, matchID)
	if err != nil {
		return draft.Result{}, err
	}
	players, err := s.roster(ctx, m.PlayerIDs())
	if err != nil {
		return draft.Result{}, err
	}
	return s.propose(ctx, players, teamCount)
}

// roster loads the players to draft. A missing player rejects the draft.
func (s *Service) roster(ctx context.Context, ids []string) ([]model.Player, error) {
	players := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		p, err := s.repo.Player(ctx, id)
		if err != nil {
			metrics.RecordDraftRejection(rejectionReason(err))
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

func (s *Service) propose(ctx context.Context, players []model.Player, teamCount int) (draft.Result, error) {
	start := time.Now()
	res, err := s.balancer.Propose(players, teamCount)
	if err != nil {
		metrics.RecordDraftRejection(rejectionReason(err))
		s.logger.Debug(ctx, "draft rejected",
			logger.Int("players", len(players)),
			logger.Int("teams", teamCount),
			logger.Error(err),
		)
		return draft.Result{}, err
	}
	metrics.RecordDraft(draft.TeamsLabel(teamCount), res.Candidates, sinceMs(start), res.Partial)
	if res.Partial {
		s.logger.Warn(ctx, "draft enumeration stopped at candidate limit",
			logger.Int("players", len(players)),
			logger.Int("candidates", res.Candidates),
		)
	}
	return res, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, draft.ErrInvalidTeamCount):
		return "team_count"
	case errors.Is(err, draft.ErrRosterTooLarge):
		return "roster_too_large"
	case errors.Is(err, draft.ErrRosterTooSmall):
		return "roster_too_small"
	case errors.Is(err, draft.ErrDuplicatePlayer):
		return "duplicate_player"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}
