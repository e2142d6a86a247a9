package stats

import (
	"github.com/samber/lo"

	"github.com/okian/squadup/internal/domain/model"
)

// SquadStats summarises a whole squad. AvgScore holds the average
// winning side and losing side score.
type SquadStats struct {
	SquadID          string         `json:"squad_id"`
	TotalPlayers     int            `json:"total_players"`
	TotalMatches     int            `json:"total_matches"`
	ScheduledMatches int            `json:"scheduled_matches"`
	TotalGoals       int            `json:"total_goals"`
	AvgGoalsPerMatch float64        `json:"avg_goals_per_match"`
	AvgScore         [2]float64     `json:"avg_score"`
	Carousel         []CarouselStat `json:"carousel_stats"`
}

// SquadStats aggregates the scored matches and players of one squad.
func (a *Aggregator) SquadStats(squadID string, players []model.Player, matches []model.Match) SquadStats {
	out := SquadStats{SquadID: squadID, TotalPlayers: len(players)}

	var high, low int
	var bigWin margin
	played := make(map[string]int, len(players))
	ordered := chronological(matches)
	for i := range ordered {
		m := &ordered[i]
		if !m.Scored() {
			out.ScheduledMatches++
			continue
		}
		sa, sb := *m.TeamA.Score, *m.TeamB.Score
		out.TotalMatches++
		out.TotalGoals += sa + sb
		high += max(sa, sb)
		low += min(sa, sb)
		if d := max(sa, sb) - min(sa, sb); d > bigWin.value {
			bigWin = margin{value: d, match: m}
		}
		for _, id := range m.PlayerIDs() {
			played[id]++
		}
	}
	if out.TotalMatches > 0 {
		n := float64(out.TotalMatches)
		out.AvgGoalsPerMatch = float64(out.TotalGoals) / n
		out.AvgScore = [2]float64{float64(high) / n, float64(low) / n}
	}

	directory := lo.KeyBy(players, func(p model.Player) string { return p.ID })
	if bigWin.match != nil {
		ref := bigWin.match.Ref()
		out.Carousel = append(out.Carousel, CarouselStat{Type: CarouselBiggestWin, Value: bigWin.value, Match: &ref})
	}
	if len(players) > 0 {
		best := lo.MaxBy(players, func(p, cur model.Player) bool {
			if p.Score != cur.Score {
				return p.Score > cur.Score
			}
			return p.ID < cur.ID
		})
		out.Carousel = append(out.Carousel, CarouselStat{Type: CarouselBestPlayer, Value: best.Score, Player: refFor(directory, best.ID)})
	}
	if len(played) > 0 {
		ids := lo.Keys(played)
		top := lo.MaxBy(ids, func(id, cur string) bool {
			if played[id] != played[cur] {
				return played[id] > played[cur]
			}
			return id < cur
		})
		out.Carousel = append(out.Carousel, CarouselStat{Type: CarouselMostMatches, Value: played[top], Player: refFor(directory, top)})
	}
	return out
}
