package stats

import (
	"github.com/okian/squadup/internal/domain/model"
)

// CarouselType names a highlight statistic.
type CarouselType string

// Highlight statistics.
const (
	CarouselBiggestWin    CarouselType = "biggest_win"
	CarouselBiggestLoss   CarouselType = "biggest_loss"
	CarouselWinRatio      CarouselType = "win_ratio"
	CarouselTopTeammate   CarouselType = "top_teammate"
	CarouselWinTeammate   CarouselType = "win_teammate"
	CarouselWorstTeammate CarouselType = "worst_teammate"
	CarouselNemesis       CarouselType = "nemesis"
	CarouselEasiestRival  CarouselType = "easiest_rival"
	CarouselHeadToHead    CarouselType = "h2h"
	CarouselBestPlayer    CarouselType = "best_player"
	CarouselMostMatches   CarouselType = "most_matches"
)

// CarouselStat is one highlight with an optional reference to the player
// or match it is about.
//
// Value is an int for margins, counts and percentages, a [3]int of
// win/draw/loss percentages for win_ratio, a []Result for h2h and a
// float64 score for best_player.
type CarouselStat struct {
	Type   CarouselType     `json:"type"`
	Value  any              `json:"value"`
	Player *model.PlayerRef `json:"player_ref,omitempty"`
	Match  *model.MatchRef  `json:"match_ref,omitempty"`
}

// percent truncates n/total to a whole percentage.
func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}

func (a *Aggregator) playerCarousel(in Input, ps PlayerStats, syn Synergy, matches []model.Match, bigWin, bigLoss margin) []CarouselStat {
	var out []CarouselStat

	if bigWin.match != nil {
		ref := bigWin.match.Ref()
		out = append(out, CarouselStat{Type: CarouselBiggestWin, Value: bigWin.value, Match: &ref})
	}
	if bigLoss.match != nil {
		ref := bigLoss.match.Ref()
		out = append(out, CarouselStat{Type: CarouselBiggestLoss, Value: bigLoss.value, Match: &ref})
	}
	if ps.TotalMatches > 0 {
		out = append(out, CarouselStat{Type: CarouselWinRatio, Value: [3]int{
			percent(ps.TotalWins, ps.TotalMatches),
			percent(ps.TotalDraws, ps.TotalMatches),
			percent(ps.TotalLosses, ps.TotalMatches),
		}})
	}

	if pk, ok := syn.TopTeammate(); ok {
		out = append(out, CarouselStat{Type: CarouselTopTeammate, Value: pk.Games, Player: refFor(in.Players, pk.PlayerID)})
	}
	if pk, ok := syn.WinTeammate(); ok {
		out = append(out, CarouselStat{Type: CarouselWinTeammate, Value: percent(pk.WinsTogether, pk.Games), Player: refFor(in.Players, pk.PlayerID)})
	}
	if pk, ok := syn.WorstTeammate(); ok {
		out = append(out, CarouselStat{Type: CarouselWorstTeammate, Value: percent(pk.LossesTogether, pk.Games), Player: refFor(in.Players, pk.PlayerID)})
	}
	if pk, ok := syn.Nemesis(); ok {
		out = append(out, CarouselStat{Type: CarouselNemesis, Value: percent(pk.LossesAgainst, pk.Games), Player: refFor(in.Players, pk.PlayerID)})
	}
	if pk, ok := syn.EasiestRival(); ok {
		out = append(out, CarouselStat{Type: CarouselEasiestRival, Value: percent(pk.LossesAgainst, pk.Games), Player: refFor(in.Players, pk.PlayerID)})
	}
	if pk, ok := syn.MostFaced(); ok {
		out = append(out, CarouselStat{
			Type:   CarouselHeadToHead,
			Value:  a.HeadToHead(in.Player.ID, pk.PlayerID, matches),
			Player: refFor(in.Players, pk.PlayerID),
		})
	}
	return out
}
