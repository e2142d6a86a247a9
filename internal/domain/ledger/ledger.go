// Package ledger keeps the per-player score ledger: one entry per match a
// player took part in, replayed from the base score to get the current score.
//
// A Ledger is a working set for a single operation and is not safe for
// concurrent use. Callers load it from storage, mutate it, recalculate and
// persist the touched players together.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/squadup/internal/domain/model"
)

// Ledger holds registered players and their ordered entries.
type Ledger struct {
	players map[string]model.Player
	entries map[string][]model.LedgerEntry
	now     func() time.Time
}

// New creates an empty Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		players: make(map[string]model.Player),
		entries: make(map[string][]model.LedgerEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds or replaces a player. The base score is validated here so a
// bad baseline never reaches a replay.
func (l *Ledger) Register(p model.Player) error {
	if err := model.ValidateBaseScore(p.BaseScore); err != nil {
		return err
	}
	l.players[p.ID] = p
	if es, ok := l.entries[p.ID]; ok {
		thread(p.BaseScore, es)
	} else {
		l.entries[p.ID] = nil
	}
	return nil
}

// Restore loads persisted entries for a registered player as-is. The chain
// is not re-threaded so that Recalculate can still detect corruption.
func (l *Ledger) Restore(playerID string, entries []model.LedgerEntry) error {
	if _, ok := l.players[playerID]; !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	ordered := sortedCopy(entries)
	seen := make(map[string]struct{}, len(ordered))
	for i := range ordered {
		if _, dup := seen[ordered[i].MatchID]; dup {
			return fmt.Errorf("%w: player %s match %s", ErrDuplicateEntry, playerID, ordered[i].MatchID)
		}
		seen[ordered[i].MatchID] = struct{}{}
		ordered[i].PlayerID = playerID
	}
	l.entries[playerID] = ordered
	return nil
}

// Open records that the player takes part in a match that has no result yet.
// The entry starts with a zero delta. Opening an existing entry is a no-op.
func (l *Ledger) Open(playerID, matchID string, matchCreatedAt time.Time) error {
	p, ok := l.players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	es := l.entries[playerID]
	if indexOf(es, matchID) >= 0 {
		return nil
	}
	e := model.LedgerEntry{
		PlayerID:       playerID,
		MatchID:        matchID,
		MatchCreatedAt: matchCreatedAt,
		CreatedAt:      l.now(),
	}
	pos := sort.Search(len(es), func(i int) bool { return e.Before(es[i]) })
	es = append(es, model.LedgerEntry{})
	copy(es[pos+1:], es[pos:])
	es[pos] = e
	thread(p.BaseScore, es)
	l.entries[playerID] = es
	return nil
}

// Score sets the delta of the player's entry for matchID from the match
// result. The decay index is the entry's position in the player's timeline
// now; every other entry keeps its delta and only the running values move.
func (l *Ledger) Score(playerID, matchID string, goalsFor, goalsAgainst int) (model.LedgerEntry, error) {
	p, ok := l.players[playerID]
	if !ok {
		return model.LedgerEntry{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	es := l.entries[playerID]
	i := indexOf(es, matchID)
	if i < 0 {
		return model.LedgerEntry{}, fmt.Errorf("%w: player %s match %s", ErrEntryNotFound, playerID, matchID)
	}
	es[i].Delta = Delta(goalsFor, goalsAgainst, i)
	thread(p.BaseScore, es)
	return es[i], nil
}

// Remove deletes the player's entry for matchID. It reports whether an
// entry existed.
func (l *Ledger) Remove(playerID, matchID string) (bool, error) {
	p, ok := l.players[playerID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	es := l.entries[playerID]
	i := indexOf(es, matchID)
	if i < 0 {
		return false, nil
	}
	es = append(es[:i], es[i+1:]...)
	thread(p.BaseScore, es)
	l.entries[playerID] = es
	return true, nil
}

// DeleteMatch removes every entry of matchID and returns the affected
// player ids in ascending order.
func (l *Ledger) DeleteMatch(matchID string) []string {
	var affected []string
	for id := range l.players {
		removed, _ := l.Remove(id, matchID)
		if removed {
			affected = append(affected, id)
		}
	}
	sort.Strings(affected)
	return affected
}

// Recalculate replays the player's whole ledger from the base score.
func (l *Ledger) Recalculate(playerID string) (float64, error) {
	p, ok := l.players[playerID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	score, err := Replay(p.BaseScore, l.entries[playerID])
	if err != nil {
		return 0, fmt.Errorf("player %s: %w", playerID, err)
	}
	return score, nil
}

// Rethread rebuilds previous/new scores of a player's chain from the base
// score, keeping every delta. It repairs chains Recalculate rejects.
func (l *Ledger) Rethread(playerID string) error {
	p, ok := l.players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	thread(p.BaseScore, l.entries[playerID])
	return nil
}

// Entries returns a copy of the player's entries in timeline order.
func (l *Ledger) Entries(playerID string) []model.LedgerEntry {
	es := l.entries[playerID]
	out := make([]model.LedgerEntry, len(es))
	copy(out, es)
	return out
}

// Player returns the registered player.
func (l *Ledger) Player(playerID string) (model.Player, bool) {
	p, ok := l.players[playerID]
	return p, ok
}

func indexOf(es []model.LedgerEntry, matchID string) int {
	for i := range es {
		if es[i].MatchID == matchID {
			return i
		}
	}
	return -1
}
