package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/squadup/internal/domain/model"
)

// Score bounds applied to a replayed score.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

const (
	decayStep = 0.2
	chainEps  = 1e-9
)

// Factor is the divisor applied to the goal difference of the player's
// index-th match (0-based). Later matches move the score less.
func Factor(index int) float64 {
	return float64(index)*decayStep + 1
}

// Delta is the score change for a match that ended goalsFor:goalsAgainst
// from the player's perspective.
func Delta(goalsFor, goalsAgainst, index int) float64 {
	return float64(goalsFor-goalsAgainst) / Factor(index)
}

// Clamp bounds v to [MinScore, MaxScore].
func Clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// Replay returns base plus every delta in entries, clamped once at the end.
// Entries are taken in timeline order and must form a contiguous chain
// starting at base; otherwise ErrChainBroken is returned.
func Replay(base float64, entries []model.LedgerEntry) (float64, error) {
	ordered := sortedCopy(entries)
	running := base
	for i, e := range ordered {
		if math.Abs(e.PreviousScore-running) > chainEps {
			return 0, fmt.Errorf("%w: entry %d (match %s) starts at %v, expected %v",
				ErrChainBroken, i, e.MatchID, e.PreviousScore, running)
		}
		if math.Abs(e.NewScore-(e.PreviousScore+e.Delta)) > chainEps {
			return 0, fmt.Errorf("%w: entry %d (match %s) ends at %v, expected %v",
				ErrChainBroken, i, e.MatchID, e.NewScore, e.PreviousScore+e.Delta)
		}
		running += e.Delta
	}
	return Clamp(running), nil
}

func sortedCopy(entries []model.LedgerEntry) []model.LedgerEntry {
	out := make([]model.LedgerEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// thread rewrites previous/new scores from base, keeping every delta.
func thread(base float64, entries []model.LedgerEntry) {
	prev := base
	for i := range entries {
		entries[i].PreviousScore = prev
		entries[i].NewScore = prev + entries[i].Delta
		prev = entries[i].NewScore
	}
}
