package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/internal/domain/stats"
	"github.com/okian/squadup/pkg/logger"
	"github.com/okian/squadup/pkg/metrics"
)

// NewPlayer describes a player to create. An empty SquadID starts a new squad.
type NewPlayer struct {
	SquadID   string
	Name      string
	Position  model.Position
	BaseScore float64
}

// CreatePlayer stores a player whose score starts at the base score.
func (s *Service) CreatePlayer(ctx context.Context, in NewPlayer) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return model.Player{}, err
	}

	squadID := in.SquadID
	if squadID == "" {
		squadID = s.newID()
	}
	p, err := model.NewPlayer(s.newID(), squadID, in.Name, in.Position, in.BaseScore, s.now())
	if err != nil {
		return model.Player{}, err
	}
	if err := s.repo.CreatePlayer(ctx, p); err != nil {
		return model.Player{}, err
	}
	if err := s.ranking.Set(ctx, p.ID, p.Score); err != nil {
		return model.Player{}, err
	}
	s.logger.Debug(ctx, "player created",
		logger.String("playerID", p.ID),
		logger.String("squadID", p.SquadID),
		logger.Float64("baseScore", p.BaseScore),
	)
	return p, nil
}

// Player returns one player.
func (s *Service) Player(ctx context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return model.Player{}, err
	}
	return s.repo.Player(ctx, id)
}

// Ledger returns the player's entries in timeline order.
func (s *Service) Ledger(ctx context.Context, playerID string) ([]model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.Entries(ctx, playerID)
}

// Recalculate replays the player's ledger from the base score and stores
// the result. Running it twice yields the same score. A broken chain is
// reported as ledger.ErrChainBroken and nothing is written.
func (s *Service) Recalculate(ctx context.Context, playerID string) (model.Player, error) {
	return s.replay(ctx, playerID, false)
}

// Repair rebuilds the running values of the player's chain from the stored
// deltas, then recalculates. It is the way out of ledger.ErrChainBroken.
func (s *Service) Repair(ctx context.Context, playerID string) (model.Player, error) {
	return s.replay(ctx, playerID, true)
}

func (s *Service) replay(ctx context.Context, playerID string, rethread bool) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return model.Player{}, err
	}

	ws, err := s.load(ctx, playerID)
	if err != nil {
		return model.Player{}, err
	}
	if rethread {
		if err := ws.ledger.Rethread(playerID); err != nil {
			return model.Player{}, err
		}
	}
	scores, err := s.commit(ctx, ws, []string{playerID}, repository.Change{})
	if err != nil {
		return model.Player{}, err
	}

	p := ws.players[playerID]
	if p.Score != scores[playerID] {
		s.logger.Info(ctx, "player score recalculated",
			logger.String("playerID", playerID),
			logger.Float64("from", p.Score),
			logger.Float64("to", scores[playerID]),
			logger.Bool("repaired", rethread),
		)
	}
	p.Score = scores[playerID]
	return p, nil
}

// PlayerStats aggregates the player's match history.
func (s *Service) PlayerStats(ctx context.Context, playerID string) (stats.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return stats.PlayerStats{}, err
	}
	start := time.Now()

	p, err := s.repo.Player(ctx, playerID)
	if err != nil {
		return stats.PlayerStats{}, err
	}
	matches, err := s.repo.PlayerMatches(ctx, playerID)
	if err != nil {
		return stats.PlayerStats{}, err
	}
	entries, err := s.repo.Entries(ctx, playerID)
	if err != nil {
		return stats.PlayerStats{}, err
	}
	squad, err := s.repo.Players(ctx, p.SquadID)
	if err != nil {
		return stats.PlayerStats{}, err
	}

	ps, err := s.aggregator.PlayerStats(stats.Input{
		Player:  p,
		Matches: matches,
		Entries: entries,
		Players: lo.KeyBy(squad, func(p model.Player) string { return p.ID }),
	})
	if err != nil {
		return stats.PlayerStats{}, fmt.Errorf("player %s: %w", playerID, err)
	}
	metrics.RecordStatsComputation("player", sinceMs(start))
	return ps, nil
}

// SquadStats aggregates every player and match of one squad.
func (s *Service) SquadStats(ctx context.Context, squadID string) (stats.SquadStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return stats.SquadStats{}, err
	}
	start := time.Now()

	players, err := s.repo.Players(ctx, squadID)
	if err != nil {
		return stats.SquadStats{}, err
	}
	if len(players) == 0 {
		return stats.SquadStats{}, fmt.Errorf("squad %s: %w", squadID, repository.ErrNotFound)
	}
	matches, err := s.repo.Matches(ctx, squadID)
	if err != nil {
		return stats.SquadStats{}, err
	}
	ss := s.aggregator.SquadStats(squadID, players, matches)
	metrics.RecordStatsComputation("squad", sinceMs(start))
	return ss, nil
}
