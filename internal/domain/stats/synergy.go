package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/okian/squadup/internal/domain/model"
)

// Counter accumulates what happened between the subject player and one
// other player. Against counts are from the subject's point of view: WinsAgainst
// are matches the subject won facing this player.
type Counter struct {
	PlayerID       string `json:"player_id"`
	GamesTogether  int    `json:"games_together"`
	WinsTogether   int    `json:"wins_together"`
	LossesTogether int    `json:"losses_together"`
	GamesAgainst   int    `json:"games_against"`
	WinsAgainst    int    `json:"wins_against"`
	LossesAgainst  int    `json:"losses_against"`
}

// Synergy is the counter table of one player. It is built per call and
// never shared between players.
type Synergy struct {
	PlayerID string
	Counters []Counter
}

// Pick is a selected counter with the games and rate that selected it.
type Pick struct {
	Counter
	Games int
	Rate  float64
}

// BuildSynergy scans the scored matches of playerID and counts every
// teammate and opponent. Counters are sorted by player id.
func BuildSynergy(playerID string, matches []model.Match) Synergy {
	table := make(map[string]*Counter)
	get := func(id string) *Counter {
		c, ok := table[id]
		if !ok {
			c = &Counter{PlayerID: id}
			table[id] = c
		}
		return c
	}

	for _, m := range matches {
		side := m.SideOf(playerID)
		gf, ga, ok := m.Goals(side)
		if !ok {
			continue
		}
		res := resultOf(gf, ga)
		for _, id := range m.Teammates(side, playerID) {
			c := get(id)
			c.GamesTogether++
			switch res {
			case Win:
				c.WinsTogether++
			case Loss:
				c.LossesTogether++
			}
		}
		for _, id := range m.Opponents(side) {
			c := get(id)
			c.GamesAgainst++
			switch res {
			case Win:
				c.WinsAgainst++
			case Loss:
				c.LossesAgainst++
			}
		}
	}

	counters := make([]Counter, 0, len(table))
	for _, c := range table {
		counters = append(counters, *c)
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].PlayerID < counters[j].PlayerID })
	return Synergy{PlayerID: playerID, Counters: counters}
}

// TopTeammate is the teammate with the most games together.
func (s Synergy) TopTeammate() (Pick, bool) {
	return s.pick(teammates, func(c Counter) float64 { return float64(c.GamesTogether) }, true)
}

// WinTeammate is the teammate with the best win rate together.
func (s Synergy) WinTeammate() (Pick, bool) {
	return s.pick(teammates, func(c Counter) float64 { return rate(c.WinsTogether, c.GamesTogether) }, true)
}

// WorstTeammate is the teammate with the highest loss rate together.
func (s Synergy) WorstTeammate() (Pick, bool) {
	return s.pick(teammates, func(c Counter) float64 { return rate(c.LossesTogether, c.GamesTogether) }, true)
}

// Nemesis is the opponent who beats the player most often, by rate.
func (s Synergy) Nemesis() (Pick, bool) {
	return s.pick(opponents, func(c Counter) float64 { return rate(c.LossesAgainst, c.GamesAgainst) }, true)
}

// EasiestRival is the opponent who beats the player least often, by rate.
func (s Synergy) EasiestRival() (Pick, bool) {
	return s.pick(opponents, func(c Counter) float64 { return rate(c.LossesAgainst, c.GamesAgainst) }, false)
}

// MostFaced is the opponent met most often.
func (s Synergy) MostFaced() (Pick, bool) {
	return s.pick(opponents, func(c Counter) float64 { return float64(c.GamesAgainst) }, true)
}

type role int

const (
	teammates role = iota
	opponents
)

// pick selects the counter with the best metric among those with games in
// the given role. Ties go to more games, then lower id.
func (s Synergy) pick(r role, metric func(Counter) float64, highest bool) (Pick, bool) {
	games := func(c Counter) int {
		if r == teammates {
			return c.GamesTogether
		}
		return c.GamesAgainst
	}
	candidates := lo.Filter(s.Counters, func(c Counter, _ int) bool { return games(c) > 0 })
	if len(candidates) == 0 {
		return Pick{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		mb, mc := metric(best), metric(c)
		switch {
		case mc != mb:
			if (mc > mb) == highest {
				best = c
			}
		case games(c) != games(best):
			if games(c) > games(best) {
				best = c
			}
		}
	}
	return Pick{Counter: best, Games: games(best), Rate: metric(best)}, true
}

func rate(n, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(n) / float64(games)
}
