package api

import (
	"time"

	"github.com/samber/lo"

	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/model"
)

type playerResponse struct {
	ID        string    `json:"id"`
	SquadID   string    `json:"squad_id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	BaseScore float64   `json:"base_score"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

func toPlayer(p model.Player) playerResponse {
	return playerResponse{
		ID:        p.ID,
		SquadID:   p.SquadID,
		Name:      p.Name,
		Position:  string(p.Position),
		BaseScore: p.BaseScore,
		Score:     p.Score,
		CreatedAt: p.CreatedAt,
	}
}

type teamBody struct {
	Color     string   `json:"color,omitempty"`
	PlayerIDs []string `json:"player_ids"`
	Score     *int     `json:"score,omitempty"`
}

func (t teamBody) toModel() model.Team {
	return model.Team{Color: t.Color, PlayerIDs: t.PlayerIDs, Score: t.Score}
}

func toTeam(t model.Team) teamBody {
	ids := t.PlayerIDs
	if ids == nil {
		ids = []string{}
	}
	return teamBody{Color: t.Color, PlayerIDs: ids, Score: t.Score}
}

type matchResponse struct {
	ID        string    `json:"id"`
	SquadID   string    `json:"squad_id"`
	CreatedAt time.Time `json:"created_at"`
	TeamA     teamBody  `json:"team_a"`
	TeamB     teamBody  `json:"team_b"`
}

func toMatch(m model.Match) matchResponse {
	return matchResponse{
		ID:        m.ID,
		SquadID:   m.SquadID,
		CreatedAt: m.CreatedAt,
		TeamA:     toTeam(m.TeamA),
		TeamB:     toTeam(m.TeamB),
	}
}

type createPlayerRequest struct {
	SquadID   string   `json:"squad_id"`
	Name      string   `json:"name"`
	Position  string   `json:"position"`
	BaseScore *float64 `json:"base_score"`
}

type createMatchRequest struct {
	SquadID string   `json:"squad_id"`
	TeamA   teamBody `json:"team_a"`
	TeamB   teamBody `json:"team_b"`
}

type scoreRequest struct {
	TeamA *int `json:"team_a"`
	TeamB *int `json:"team_b"`
}

type rosterRequest struct {
	TeamA []string `json:"team_a"`
	TeamB []string `json:"team_b"`
}

type deleteMatchResponse struct {
	MatchID         string   `json:"match_id"`
	AffectedPlayers []string `json:"affected_players"`
}

type draftRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Teams     int      `json:"teams"`
}

type draftTeamBody struct {
	Players        []model.PlayerRef `json:"players"`
	Score          float64           `json:"score"`
	EffectiveScore float64           `json:"effective_score"`
}

type proposalBody struct {
	Teams           []draftTeamBody `json:"teams"`
	Balance         [2]float64      `json:"balance"`
	DrawProbability float64         `json:"draw_probability"`
	WinProbability  []float64       `json:"win_probability"`
}

type draftResponse struct {
	Proposals  []proposalBody `json:"proposals"`
	Candidates int            `json:"candidates"`
	Partial    bool           `json:"partial"`
}

func toDraft(res draft.Result) draftResponse {
	return draftResponse{
		Proposals: lo.Map(res.Proposals, func(p draft.Proposal, _ int) proposalBody {
			return proposalBody{
				Teams: lo.Map(p.Teams, func(t draft.Team, _ int) draftTeamBody {
					return draftTeamBody{
						Players:        lo.Map(t.Players, func(pl model.Player, _ int) model.PlayerRef { return pl.Ref() }),
						Score:          t.Score,
						EffectiveScore: t.EffectiveScore,
					}
				}),
				Balance:         [2]float64{p.Key.Primary, p.Key.Secondary},
				DrawProbability: p.DrawProbability,
				WinProbability:  p.WinProbability,
			}
		}),
		Candidates: res.Candidates,
		Partial:    res.Partial,
	}
}
