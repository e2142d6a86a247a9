// Package repository holds the persistence contract of the service, an
// in-memory implementation of it and the leaderboard ranking store.
package repository

import (
	"context"
	"time"

	"github.com/okian/squadup/internal/domain/model"
	"github.com/okian/squadup/internal/domain/types"
	"github.com/okian/squadup/pkg/metrics"
)

// LedgerUpdate replaces the whole ledger of one player and stores the
// score recalculated from it.
type LedgerUpdate struct {
	PlayerID string
	Entries  []model.LedgerEntry
	Score    float64
}

// Change is a set of writes applied atomically.
type Change struct {
	// Match is inserted or replaced when set.
	Match *model.Match
	// DeleteMatch removes the match with this id and its ledger entries.
	DeleteMatch string
	Ledger      []LedgerUpdate
}

// Repository stores players, matches and ledgers.
type Repository interface {
	CreatePlayer(ctx context.Context, p model.Player) error
	// Player returns ErrNotFound for unknown ids.
	Player(ctx context.Context, id string) (model.Player, error)
	// Players lists the players of a squad, or every player when squadID is
	// empty, ordered by creation time.
	Players(ctx context.Context, squadID string) ([]model.Player, error)

	Match(ctx context.Context, id string) (model.Match, error)
	// Matches lists the matches of a squad in chronological order.
	Matches(ctx context.Context, squadID string) ([]model.Match, error)
	// PlayerMatches lists the matches a player took part in, chronologically.
	PlayerMatches(ctx context.Context, playerID string) ([]model.Match, error)

	// Entries returns the ledger of a player in timeline order.
	Entries(ctx context.Context, playerID string) ([]model.LedgerEntry, error)

	// Apply writes a Change so that readers see all of it or none of it.
	Apply(ctx context.Context, ch Change) error

	Close() error
}

// Ranking orders players by current score for the leaderboard.
type Ranking interface {
	// Set records the player's current score, replacing the previous one.
	Set(ctx context.Context, playerID string, score float64) error
	// Remove drops the player. It reports whether the player was ranked.
	Remove(ctx context.Context, playerID string) bool
	// Rank returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (types.Entry, error)
	// TopN returns up to n entries, best first.
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	Count(ctx context.Context) int
}

// Track records latency and failures of one repository call. Use it as
// defer repository.Track("op", time.Now(), &err).
func Track(op string, start time.Time, err *error) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && *err != nil {
		metrics.RecordRepositoryError(op)
	}
}
