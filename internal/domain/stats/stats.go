// Package stats derives player and squad statistics from match history:
// results, streaks, goals, teammate and rival synergy, highlight stats and
// the score timeline.
package stats

import (
	"sort"
	"time"

	"github.com/okian/squadup/internal/domain/model"
)

// MinHeadToHeadLength is the shortest head-to-head sequence rendered.
const MinHeadToHeadLength = 5

// Result of one match from a player's point of view.
type Result string

// Match results. NoResult pads head-to-head sequences.
const (
	Win      Result = "W"
	Loss     Result = "L"
	Draw     Result = "D"
	NoResult Result = "X"
)

func resultOf(goalsFor, goalsAgainst int) Result {
	switch {
	case goalsFor > goalsAgainst:
		return Win
	case goalsFor < goalsAgainst:
		return Loss
	default:
		return Draw
	}
}

// Input is everything the aggregator needs about one player.
type Input struct {
	Player  model.Player
	Matches []model.Match
	Entries []model.LedgerEntry
	// Players resolves names for player references. Missing ids get an
	// empty name.
	Players map[string]model.Player
}

// ScorePoint is one step of the score timeline.
type ScorePoint struct {
	Score float64         `json:"score"`
	Date  time.Time       `json:"created_at"`
	Match *model.MatchRef `json:"match_ref,omitempty"`
}

// PlayerStats is the derived view of one player.
type PlayerStats struct {
	PlayerID          string         `json:"player_id"`
	Name              string         `json:"player_name"`
	BaseScore         float64        `json:"base_score"`
	Score             float64        `json:"score"`
	WinStreak         int            `json:"win_streak"`
	LossStreak        int            `json:"loss_streak"`
	BiggestWinStreak  int            `json:"biggest_win_streak"`
	BiggestLossStreak int            `json:"biggest_loss_streak"`
	GoalsScored       int            `json:"goals_scored"`
	GoalsConceded     int            `json:"goals_conceded"`
	AvgGoalsPerMatch  float64        `json:"avg_goals_per_match"`
	AvgScore          [2]float64     `json:"avg_score"`
	TotalMatches      int            `json:"total_matches"`
	TotalWins         int            `json:"total_wins"`
	TotalLosses       int            `json:"total_losses"`
	TotalDraws        int            `json:"total_draws"`
	ScheduledMatches  int            `json:"scheduled_matches"`
	ScoreHistory      []ScorePoint   `json:"score_history"`
	Carousel          []CarouselStat `json:"carousel_stats"`
	Synergy           []Counter      `json:"synergy"`
}

// Aggregator computes statistics. It keeps no state between calls.
type Aggregator struct {
	h2hLength int
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{h2hLength: MinHeadToHeadLength}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// margin tracks the largest single-match goal difference seen.
type margin struct {
	value int
	match *model.Match
}

// streaks follows the longest runs in chronological order. Draws are
// ignored.
type streaks struct {
	tempWin, tempLoss int
	bestWin, bestLoss int
	decided           []Result
}

func (s *streaks) add(r Result) {
	switch r {
	case Win:
		s.tempWin++
		s.tempLoss = 0
	case Loss:
		s.tempLoss++
		s.tempWin = 0
	default:
		return
	}
	s.bestWin = max(s.bestWin, s.tempWin)
	s.bestLoss = max(s.bestLoss, s.tempLoss)
	s.decided = append(s.decided, r)
}

// current returns the run the most recent decided match belongs to.
func (s *streaks) current() (Result, int) {
	if len(s.decided) == 0 {
		return "", 0
	}
	last := s.decided[len(s.decided)-1]
	n := 0
	for i := len(s.decided) - 1; i >= 0 && s.decided[i] == last; i-- {
		n++
	}
	return last, n
}

// PlayerStats walks the player's matches in chronological order.
// Unscored matches only count as scheduled.
func (a *Aggregator) PlayerStats(in Input) (PlayerStats, error) {
	p := in.Player
	if p.ID == "" {
		return PlayerStats{}, ErrPlayerNotFound
	}
	out := PlayerStats{
		PlayerID:  p.ID,
		Name:      p.Name,
		BaseScore: p.BaseScore,
		Score:     p.Score,
	}

	matches := chronological(in.Matches)
	var st streaks
	var bigWin, bigLoss margin
	for i := range matches {
		m := &matches[i]
		side := m.SideOf(p.ID)
		if side == model.SideNone {
			continue
		}
		gf, ga, ok := m.Goals(side)
		if !ok {
			out.ScheduledMatches++
			continue
		}
		out.TotalMatches++
		out.GoalsScored += gf
		out.GoalsConceded += ga

		r := resultOf(gf, ga)
		switch r {
		case Win:
			out.TotalWins++
			if gf-ga > bigWin.value {
				bigWin = margin{value: gf - ga, match: m}
			}
		case Loss:
			out.TotalLosses++
			if ga-gf > bigLoss.value {
				bigLoss = margin{value: ga - gf, match: m}
			}
		default:
			out.TotalDraws++
		}
		st.add(r)
	}

	out.BiggestWinStreak = st.bestWin
	out.BiggestLossStreak = st.bestLoss
	switch r, n := st.current(); r {
	case Win:
		out.WinStreak = n
	case Loss:
		out.LossStreak = n
	}

	if out.TotalMatches > 0 {
		n := float64(out.TotalMatches)
		out.AvgGoalsPerMatch = float64(out.GoalsScored) / n
		out.AvgScore = [2]float64{float64(out.GoalsScored) / n, float64(out.GoalsConceded) / n}
	}

	syn := BuildSynergy(p.ID, matches)
	out.Synergy = syn.Counters
	out.ScoreHistory = scoreHistory(p, in.Entries, matches)
	out.Carousel = a.playerCarousel(in, out, syn, matches, bigWin, bigLoss)
	return out, nil
}

// HeadToHead renders the most recent results of playerID against
// opponentID, newest first, padded with NoResult.
func (a *Aggregator) HeadToHead(playerID, opponentID string, matches []model.Match) []Result {
	ordered := chronological(matches)
	out := make([]Result, 0, a.h2hLength)
	for i := len(ordered) - 1; i >= 0 && len(out) < a.h2hLength; i-- {
		m := ordered[i]
		side := m.SideOf(playerID)
		opp := m.SideOf(opponentID)
		if side == model.SideNone || opp == model.SideNone || side == opp {
			continue
		}
		gf, ga, ok := m.Goals(side)
		if !ok {
			continue
		}
		out = append(out, resultOf(gf, ga))
	}
	for len(out) < a.h2hLength {
		out = append(out, NoResult)
	}
	return out
}

func scoreHistory(p model.Player, entries []model.LedgerEntry, matches []model.Match) []ScorePoint {
	byID := make(map[string]model.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	ordered := make([]model.LedgerEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	points := make([]ScorePoint, 0, len(ordered)+1)
	points = append(points, ScorePoint{Score: p.BaseScore, Date: p.CreatedAt})
	for _, e := range ordered {
		pt := ScorePoint{Score: e.NewScore, Date: e.MatchCreatedAt}
		if m, ok := byID[e.MatchID]; ok {
			ref := m.Ref()
			pt.Match = &ref
		}
		points = append(points, pt)
	}
	return points
}

func chronological(matches []model.Match) []model.Match {
	out := make([]model.Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func refFor(players map[string]model.Player, id string) *model.PlayerRef {
	ref := model.PlayerRef{PlayerID: id}
	if p, ok := players[id]; ok {
		ref.Name = p.Name
	}
	return &ref
}
