// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// Every mutation loads the ledgers it touches into a fresh working set,
// applies the edit, replays the touched players and persists matches,
// ledgers and scores as one repository Change while holding the service
// lock. Readers therefore never see a half-applied edit.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/ledger"
	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/internal/domain/stats"
	"github.com/okian/squadup/internal/domain/types"
	"github.com/okian/squadup/pkg/logger"
	"github.com/okian/squadup/pkg/metrics"
)

// Service implements the API dependencies for squads, matches and drafts.
type Service struct {
	mu sync.RWMutex

	// Core components
	repo       repository.Repository
	ranking    repository.Ranking
	balancer   *draft.Balancer
	aggregator *stats.Aggregator

	now   func() time.Time
	newID func() string

	// State
	started      bool
	matchCount   int
	entryCount   int
	recalculated int

	logger logger.Logger
}

// New constructs a new Service with in-memory storage and default domain
// components.
func New(opts ...Option) *Service {
	s := &Service{
		repo:       repository.NewMemory(),
		ranking:    repository.NewTreapRanking(),
		balancer:   draft.New(),
		aggregator: stats.New(),
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads current scores into the ranking store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting squad service...")

	players, err := s.repo.Players(ctx, "")
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	entries := 0
	for _, p := range players {
		if err := s.ranking.Set(ctx, p.ID, p.Score); err != nil {
			return fmt.Errorf("rank player %s: %w", p.ID, err)
		}
		es, err := s.repo.Entries(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("load ledger %s: %w", p.ID, err)
		}
		entries += len(es)
	}
	matches, err := s.repo.Matches(ctx, "")
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}

	s.matchCount = len(matches)
	s.entryCount = entries
	metrics.IncMatches(len(matches))
	metrics.UpdateLedgerEntries(entries)

	s.started = true
	s.logger.Info(ctx, "squad service started",
		logger.Int("players", len(players)),
		logger.Int("matches", len(matches)),
		logger.Int("ledgerEntries", entries),
	)
	return nil
}

// Stop closes the repository.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping squad service...")
	if err := s.repo.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing repository failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "squad service stopped")
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.ranking.TopN(ctx, n)
}

// Rank returns the rank and score for a given player id.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	return s.ranking.Rank(ctx, playerID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]any{
		"started": s.started,
	}
	if s.started {
		players := s.ranking.Count(context.Background())
		out["totalPlayers"] = players
		out["totalMatches"] = s.matchCount
		out["ledgerEntries"] = s.entryCount
		out["recalculations"] = s.recalculated

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	}
	return out
}

func (s *Service) ready() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// workingSet is the slice of ledger state one mutation operates on.
type workingSet struct {
	ledger  *ledger.Ledger
	players map[string]model.Player
	loaded  map[string]int // persisted entry count per player
}

// load registers each player and restores their persisted entries.
func (s *Service) load(ctx context.Context, ids ...string) (*workingSet, error) {
	ws := &workingSet{
		ledger:  ledger.New(ledger.WithClock(s.now)),
		players: make(map[string]model.Player, len(ids)),
		loaded:  make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		if _, ok := ws.players[id]; ok {
			continue
		}
		p, err := s.repo.Player(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := ws.ledger.Register(p); err != nil {
			return nil, fmt.Errorf("player %s: %w", id, err)
		}
		es, err := s.repo.Entries(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := ws.ledger.Restore(id, es); err != nil {
			return nil, err
		}
		ws.players[id] = p
		ws.loaded[id] = len(es)
	}
	return ws, nil
}

// commit replays the touched players, writes ch together with their ledgers
// and publishes the new scores to the ranking.
func (s *Service) commit(ctx context.Context, ws *workingSet, touched []string, ch repository.Change) (map[string]float64, error) {
	scores := make(map[string]float64, len(touched))
	before, after := 0, 0
	for _, id := range touched {
		if _, done := scores[id]; done {
			continue
		}
		start := time.Now()
		score, err := ws.ledger.Recalculate(id)
		metrics.RecordRecalculation(sinceMs(start))
		if err != nil {
			if errors.Is(err, ledger.ErrChainBroken) {
				metrics.RecordLedgerChainError()
				s.logger.Error(ctx, "ledger chain broken", logger.String("playerID", id), logger.Error(err))
			}
			return nil, err
		}
		es := ws.ledger.Entries(id)
		ch.Ledger = append(ch.Ledger, repository.LedgerUpdate{PlayerID: id, Entries: es, Score: score})
		scores[id] = score
		before += ws.loaded[id]
		after += len(es)
	}

	if err := s.repo.Apply(ctx, ch); err != nil {
		return nil, err
	}
	for id, score := range scores {
		if err := s.ranking.Set(ctx, id, score); err != nil {
			return nil, fmt.Errorf("rank player %s: %w", id, err)
		}
	}
	s.recalculated += len(scores)
	s.entryCount += after - before
	metrics.UpdateLedgerEntries(s.entryCount)
	return scores, nil
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
