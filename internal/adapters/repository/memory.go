package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/squadup/internal/domain/model"
)

// Memory is a Repository kept in process memory. All data is copied on the
// way in and out so callers never share slices with the store.
type Memory struct {
	mu      sync.RWMutex
	players map[string]model.Player
	matches map[string]model.Match
	ledgers map[string][]model.LedgerEntry
	closed  bool
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		players: make(map[string]model.Player),
		matches: make(map[string]model.Match),
		ledgers: make(map[string][]model.LedgerEntry),
	}
}

// CreatePlayer implements Repository.CreatePlayer.
func (r *Memory) CreatePlayer(ctx context.Context, p model.Player) (err error) {
	defer Track("create_player", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, ok := r.players[p.ID]; ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrAlreadyExists)
	}
	r.players[p.ID] = p
	return nil
}

// Player implements Repository.Player.
func (r *Memory) Player(ctx context.Context, id string) (model.Player, error) {
	if err := ctx.Err(); err != nil {
		return model.Player{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// Players implements Repository.Players.
func (r *Memory) Players(ctx context.Context, squadID string) ([]model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]model.Player, 0, len(r.players))
	for _, p := range r.players {
		if squadID == "" || p.SquadID == squadID {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Match implements Repository.Match.
func (r *Memory) Match(ctx context.Context, id string) (model.Match, error) {
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return cloneMatch(m), nil
}

// Matches implements Repository.Matches.
func (r *Memory) Matches(ctx context.Context, squadID string) ([]model.Match, error) {
	return r.filterMatches(ctx, func(m model.Match) bool { return squadID == "" || m.SquadID == squadID })
}

// PlayerMatches implements Repository.PlayerMatches.
func (r *Memory) PlayerMatches(ctx context.Context, playerID string) ([]model.Match, error) {
	return r.filterMatches(ctx, func(m model.Match) bool { return m.SideOf(playerID) != model.SideNone })
}

func (r *Memory) filterMatches(ctx context.Context, keep func(model.Match) bool) ([]model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]model.Match, 0)
	for _, m := range r.matches {
		if keep(m) {
			out = append(out, cloneMatch(m))
		}
	}
	r.mu.RUnlock()
	SortMatches(out)
	return out, nil
}

// Entries implements Repository.Entries.
func (r *Memory) Entries(ctx context.Context, playerID string) ([]model.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.players[playerID]; !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	es := r.ledgers[playerID]
	out := make([]model.LedgerEntry, len(es))
	copy(out, es)
	return out, nil
}

// Apply implements Repository.Apply. Validation happens before any write
// so a failing change leaves the store untouched.
func (r *Memory) Apply(ctx context.Context, ch Change) (err error) {
	defer Track("apply", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	for _, u := range ch.Ledger {
		if _, ok := r.players[u.PlayerID]; !ok {
			return fmt.Errorf("player %s: %w", u.PlayerID, ErrNotFound)
		}
	}
	if ch.DeleteMatch != "" {
		if _, ok := r.matches[ch.DeleteMatch]; !ok {
			return fmt.Errorf("match %s: %w", ch.DeleteMatch, ErrNotFound)
		}
	}

	if ch.Match != nil {
		r.matches[ch.Match.ID] = cloneMatch(*ch.Match)
	}
	if ch.DeleteMatch != "" {
		delete(r.matches, ch.DeleteMatch)
		for id, es := range r.ledgers {
			r.ledgers[id] = dropMatch(es, ch.DeleteMatch)
		}
	}
	for _, u := range ch.Ledger {
		es := make([]model.LedgerEntry, len(u.Entries))
		copy(es, u.Entries)
		r.ledgers[u.PlayerID] = es
		p := r.players[u.PlayerID]
		p.Score = u.Score
		r.players[u.PlayerID] = p
	}
	return nil
}

// Close implements Repository.Close.
func (r *Memory) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// SortMatches orders matches by creation time, then id.
func SortMatches(ms []model.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}

func dropMatch(es []model.LedgerEntry, matchID string) []model.LedgerEntry {
	out := es[:0]
	for _, e := range es {
		if e.MatchID != matchID {
			out = append(out, e)
		}
	}
	return out
}

func cloneMatch(m model.Match) model.Match {
	m.TeamA = cloneTeam(m.TeamA)
	m.TeamB = cloneTeam(m.TeamB)
	return m
}

func cloneTeam(t model.Team) model.Team {
	t.PlayerIDs = append([]string(nil), t.PlayerIDs...)
	if t.Score != nil {
		t.Score = model.IntPtr(*t.Score)
	}
	return t
}
