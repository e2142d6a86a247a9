package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/samber/lo"

	"github.com/okian/squadup/internal/domain/ledger"
	"github.com/okian/squadup/pkg/logger"
)

const (
	scoreEps    = 1e-6
	draftSample = 10
)

// ErrMismatch is returned when the service disagrees with the expected state.
var ErrMismatch = errors.New("verification mismatch")

// ExpectedScores replays matches locally: each player's base score plus the
// goal difference of their n-th match divided by its decay factor, clamped.
// Matches are ordered by creation time, then id.
func ExpectedScores(players []Player, matches []Match) map[string]float64 {
	ordered := make([]Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	running := lo.SliceToMap(players, func(p Player) (string, float64) { return p.ID, p.BaseScore })
	played := make(map[string]int, len(players))
	apply := func(ids []string, goalsFor, goalsAgainst *int) {
		for _, id := range ids {
			idx := played[id]
			played[id]++
			if goalsFor == nil || goalsAgainst == nil {
				continue
			}
			running[id] += ledger.Delta(*goalsFor, *goalsAgainst, idx)
		}
	}
	for _, m := range ordered {
		apply(m.TeamA.PlayerIDs, m.TeamA.Score, m.TeamB.Score)
		apply(m.TeamB.PlayerIDs, m.TeamB.Score, m.TeamA.Score)
	}
	for id, v := range running {
		running[id] = ledger.Clamp(v)
	}
	return running
}

func (r *run) verify(ctx context.Context) error {
	expected := ExpectedScores(r.players, r.matches)
	if err := r.verifyScores(ctx, expected); err != nil {
		return err
	}
	if err := r.verifyLeaderboard(ctx, expected); err != nil {
		return err
	}
	if err := r.verifyDraft(ctx); err != nil {
		return err
	}
	if err := r.verifySquad(ctx); err != nil {
		return err
	}
	r.log.Info(ctx, "result verification completed")
	return nil
}

func (r *run) verifyScores(ctx context.Context, expected map[string]float64) error {
	for i, p := range r.players {
		var got Player
		if err := r.client.Do(ctx, http.MethodGet, "/players/"+p.ID, nil, &got, http.StatusOK); err != nil {
			return err
		}
		if math.Abs(got.Score-expected[p.ID]) > scoreEps {
			return fmt.Errorf("%w: player %s score %.6f, expected %.6f", ErrMismatch, p.ID, got.Score, expected[p.ID])
		}
		// Recalculating a consistent ledger must not change anything.
		if i%4 == 0 {
			var again Player
			if err := r.client.Do(ctx, http.MethodPost, "/players/"+p.ID+"/recalculate", nil, &again, http.StatusOK); err != nil {
				return err
			}
			if math.Abs(again.Score-got.Score) > scoreEps {
				return fmt.Errorf("%w: recalculating %s moved %.6f to %.6f", ErrMismatch, p.ID, got.Score, again.Score)
			}
		}
		r.stats.PlayersVerified++
	}
	r.log.Info(ctx, "player scores verified", logger.Int("players", r.stats.PlayersVerified))
	return nil
}

func (r *run) verifyLeaderboard(ctx context.Context, expected map[string]float64) error {
	var board []Entry
	if err := r.client.Do(ctx, http.MethodGet, "/leaderboard?limit=10", nil, &board, http.StatusOK); err != nil {
		return err
	}
	if len(board) == 0 {
		return fmt.Errorf("%w: empty leaderboard", ErrMismatch)
	}
	for i := 1; i < len(board); i++ {
		if board[i].Score > board[i-1].Score {
			return fmt.Errorf("%w: leaderboard entry %d outranks entry %d", ErrMismatch, i, i-1)
		}
		if board[i].Rank < board[i-1].Rank {
			return fmt.Errorf("%w: leaderboard ranks decrease at entry %d", ErrMismatch, i)
		}
	}

	best := lo.MaxBy(r.players, func(a, b Player) bool { return expected[a.ID] > expected[b.ID] })
	var e Entry
	if err := r.client.Do(ctx, http.MethodGet, "/rank/"+best.ID, nil, &e, http.StatusOK); err != nil {
		return err
	}
	if math.Abs(e.Score-expected[best.ID]) > scoreEps {
		return fmt.Errorf("%w: rank of %s reports %.6f, expected %.6f", ErrMismatch, best.ID, e.Score, expected[best.ID])
	}
	r.log.Info(ctx, "leaderboard verified",
		logger.String("topPlayer", board[0].PlayerID),
		logger.Float64("topScore", board[0].Score),
	)
	return nil
}

type draftProposal struct {
	Balance [2]float64 `json:"balance"`
}

type draftResult struct {
	Proposals []draftProposal `json:"proposals"`
}

func (r *run) verifyDraft(ctx context.Context) error {
	sample := ids(r.players, r.gen.Sample(len(r.players), draftSample))
	var res draftResult
	body := map[string]any{"player_ids": sample, "teams": 2}
	if err := r.client.Do(ctx, http.MethodPost, "/draft", body, &res, http.StatusOK); err != nil {
		return err
	}
	if len(res.Proposals) == 0 {
		return fmt.Errorf("%w: draft of %d players returned no proposals", ErrMismatch, len(sample))
	}
	for i := 1; i < len(res.Proposals); i++ {
		if res.Proposals[i].Balance[0] < res.Proposals[i-1].Balance[0] {
			return fmt.Errorf("%w: draft proposals are not ordered by balance", ErrMismatch)
		}
	}
	r.stats.DraftProposals = len(res.Proposals)
	return nil
}

type squadStats struct {
	TotalMatches int `json:"total_matches"`
	TotalGoals   int `json:"total_goals"`
}

func (r *run) verifySquad(ctx context.Context) error {
	var st squadStats
	if err := r.client.Do(ctx, http.MethodGet, "/squads/"+r.squadID+"/stats", nil, &st, http.StatusOK); err != nil {
		return err
	}
	goals := lo.SumBy(r.matches, func(m Match) int {
		if m.TeamA.Score == nil || m.TeamB.Score == nil {
			return 0
		}
		return *m.TeamA.Score + *m.TeamB.Score
	})
	// A caller-provided squad may already hold matches.
	fresh := r.cfg.SquadID == ""
	if (fresh && st.TotalGoals != goals) || st.TotalGoals < goals {
		return fmt.Errorf("%w: squad reports %d goals, seeded %d", ErrMismatch, st.TotalGoals, goals)
	}
	if (fresh && st.TotalMatches != len(r.matches)) || st.TotalMatches < len(r.matches) {
		return fmt.Errorf("%w: squad reports %d matches, seeded %d", ErrMismatch, st.TotalMatches, len(r.matches))
	}
	r.stats.SquadGoals = st.TotalGoals
	return nil
}
