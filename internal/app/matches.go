package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/pkg/logger"
	"github.com/okian/squadup/pkg/metrics"
)

// NewMatch describes a match to create. Scores are optional but must be
// given for both teams or for neither.
type NewMatch struct {
	SquadID string
	TeamA   model.Team
	TeamB   model.Team
}

// CreateMatch stores a match and opens a zero-delta ledger entry for every
// participant. A match created with a result is scored straight away.
func (s *Service) CreateMatch(ctx context.Context, in NewMatch) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return model.Match{}, err
	}
	if err := checkScores(in.TeamA.Score, in.TeamB.Score); err != nil {
		return model.Match{}, err
	}

	m := model.Match{
		ID:        s.newID(),
		SquadID:   in.SquadID,
		CreatedAt: s.now(),
		TeamA:     in.TeamA,
		TeamB:     in.TeamB,
	}
	ws, err := s.prepareRoster(ctx, &m)
	if err != nil {
		return model.Match{}, err
	}

	ids := m.PlayerIDs()
	for _, id := range ids {
		if err := ws.ledger.Open(id, m.ID, m.CreatedAt); err != nil {
			return model.Match{}, err
		}
	}
	if m.Scored() {
		if err := scoreAll(ws, m, ids); err != nil {
			return model.Match{}, err
		}
	}
	if _, err := s.commit(ctx, ws, ids, repository.Change{Match: &m}); err != nil {
		return model.Match{}, err
	}

	s.matchCount++
	metrics.IncMatches(1)
	s.logger.Debug(ctx, "match created",
		logger.String("matchID", m.ID),
		logger.String("squadID", m.SquadID),
		logger.Int("players", len(ids)),
		logger.Bool("scored", m.Scored()),
	)
	return m, nil
}

// Match returns one match.
func (s *Service) Match(ctx context.Context, id string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return model.Match{}, err
	}
	return s.repo.Match(ctx, id)
}

// ScoreMatch enters or edits the result of a match. Each participant's
// delta is computed at the entry's current position in their timeline;
// entries of later matches keep their deltas and only shift.
func (s *Service) ScoreMatch(ctx context.Context, matchID string, scoreA, scoreB int) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return model.Match{}, err
	}
	if err := checkScores(&scoreA, &scoreB); err != nil {
		return model.Match{}, err
	}

	m, err := s.repo.Match(ctx, matchID)
	if err != nil {
		return model.Match{}, err
	}
	kind := "first"
	if m.Scored() {
		kind = "edit"
	}
	m.TeamA.Score = model.IntPtr(scoreA)
	m.TeamB.Score = model.IntPtr(scoreB)

	ids := m.PlayerIDs()
	ws, err := s.load(ctx, ids...)
	if err != nil {
		return model.Match{}, err
	}
	if err := scoreAll(ws, m, ids); err != nil {
		return model.Match{}, err
	}
	if _, err := s.commit(ctx, ws, ids, repository.Change{Match: &m}); err != nil {
		return model.Match{}, err
	}

	metrics.RecordScoreEdit(kind)
	s.logger.Info(ctx, "match scored",
		logger.String("matchID", m.ID),
		logger.String("kind", kind),
		logger.Int("teamA", scoreA),
		logger.Int("teamB", scoreB),
	)
	return m, nil
}

// UpdateMatchPlayers replaces both rosters. Removed players lose their entry
// for the match, added players gain one and, when the match has a result,
// everyone on the new rosters is scored from their side.
func (s *Service) UpdateMatchPlayers(ctx context.Context, matchID string, teamA, teamB []string) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return model.Match{}, err
	}

	m, err := s.repo.Match(ctx, matchID)
	if err != nil {
		return model.Match{}, err
	}
	oldIDs := m.PlayerIDs()
	m.TeamA.PlayerIDs = teamA
	m.TeamB.PlayerIDs = teamB

	ws, err := s.prepareRoster(ctx, &m)
	if err != nil {
		return model.Match{}, err
	}
	newIDs := m.PlayerIDs()
	removed, added := lo.Difference(oldIDs, newIDs)
	for _, id := range removed {
		if err := s.loadInto(ctx, ws, id); err != nil {
			return model.Match{}, err
		}
		if _, err := ws.ledger.Remove(id, m.ID); err != nil {
			return model.Match{}, err
		}
	}
	for _, id := range added {
		if err := ws.ledger.Open(id, m.ID, m.CreatedAt); err != nil {
			return model.Match{}, err
		}
	}

	touched := append(append([]string{}, removed...), added...)
	if m.Scored() {
		if err := scoreAll(ws, m, newIDs); err != nil {
			return model.Match{}, err
		}
		touched = append(touched, newIDs...)
	}
	if _, err := s.commit(ctx, ws, touched, repository.Change{Match: &m}); err != nil {
		return model.Match{}, err
	}

	s.logger.Debug(ctx, "match rosters updated",
		logger.String("matchID", m.ID),
		logger.Int("added", len(added)),
		logger.Int("removed", len(removed)),
	)
	return m, nil
}

// DeleteMatch removes a match and every ledger entry for it, then
// recalculates the affected players. It returns their ids, sorted.
func (s *Service) DeleteMatch(ctx context.Context, matchID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	m, err := s.repo.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	ws, err := s.load(ctx, m.PlayerIDs()...)
	if err != nil {
		return nil, err
	}
	affected := ws.ledger.DeleteMatch(m.ID)
	if _, err := s.commit(ctx, ws, affected, repository.Change{DeleteMatch: m.ID}); err != nil {
		return nil, err
	}

	s.matchCount--
	metrics.IncMatches(-1)
	s.logger.Info(ctx, "match deleted",
		logger.String("matchID", m.ID),
		logger.Int("affected", len(affected)),
	)
	sort.Strings(affected)
	return affected, nil
}

// prepareRoster validates both teams of m, fills in the squad from the
// first player when it is empty and loads every participant's ledger.
func (s *Service) prepareRoster(ctx context.Context, m *model.Match) (*workingSet, error) {
	if len(m.TeamA.PlayerIDs) == 0 || len(m.TeamB.PlayerIDs) == 0 {
		return nil, ErrEmptyRoster
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ws, err := s.load(ctx, m.PlayerIDs()...)
	if err != nil {
		return nil, err
	}
	for _, id := range m.PlayerIDs() {
		p := ws.players[id]
		if m.SquadID == "" {
			m.SquadID = p.SquadID
		}
		if p.SquadID != m.SquadID {
			return nil, fmt.Errorf("%w: %s is in squad %s, match is in %s", ErrSquadMismatch, id, p.SquadID, m.SquadID)
		}
	}
	return ws, nil
}

// loadInto adds one more player to an existing working set.
func (s *Service) loadInto(ctx context.Context, ws *workingSet, id string) error {
	if _, ok := ws.players[id]; ok {
		return nil
	}
	extra, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	p := extra.players[id]
	if err := ws.ledger.Register(p); err != nil {
		return err
	}
	if err := ws.ledger.Restore(id, extra.ledger.Entries(id)); err != nil {
		return err
	}
	ws.players[id] = p
	ws.loaded[id] = extra.loaded[id]
	return nil
}

// scoreAll opens and scores the entry of every listed participant.
func scoreAll(ws *workingSet, m model.Match, ids []string) error {
	for _, id := range ids {
		if err := ws.ledger.Open(id, m.ID, m.CreatedAt); err != nil {
			return err
		}
		goalsFor, goalsAgainst, ok := m.Goals(m.SideOf(id))
		if !ok {
			continue
		}
		if _, err := ws.ledger.Score(id, m.ID, goalsFor, goalsAgainst); err != nil {
			return err
		}
	}
	return nil
}

func checkScores(a, b *int) error {
	if (a == nil) != (b == nil) {
		return fmt.Errorf("%w: both teams need a score", ErrInvalidScore)
	}
	if a != nil && (*a < 0 || *b < 0) {
		return fmt.Errorf("%w: goals must not be negative", ErrInvalidScore)
	}
	return nil
}
