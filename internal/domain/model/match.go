package model

import (
	"fmt"
	"time"
)

// Side identifies one of the two teams of a match.
type Side int

// Match sides.
const (
	SideNone Side = iota
	SideA
	SideB
)

// Team is one side of a match. Score is nil until the result is entered.
type Team struct {
	Color     string
	PlayerIDs []string
	Score     *int
}

// Match is a scheduled or played game between two teams of one squad.
type Match struct {
	ID        string
	SquadID   string
	CreatedAt time.Time
	TeamA     Team
	TeamB     Team
}

// Scored reports whether both team scores are set.
func (m Match) Scored() bool {
	return m.TeamA.Score != nil && m.TeamB.Score != nil
}

// SideOf reports which team playerID plays for.
func (m Match) SideOf(playerID string) Side {
	for _, id := range m.TeamA.PlayerIDs {
		if id == playerID {
			return SideA
		}
	}
	for _, id := range m.TeamB.PlayerIDs {
		if id == playerID {
			return SideB
		}
	}
	return SideNone
}

// Goals returns (for, against) from the perspective of side. ok is false
// when the match is unscored or side is SideNone.
func (m Match) Goals(side Side) (goalsFor, goalsAgainst int, ok bool) {
	if !m.Scored() {
		return 0, 0, false
	}
	switch side {
	case SideA:
		return *m.TeamA.Score, *m.TeamB.Score, true
	case SideB:
		return *m.TeamB.Score, *m.TeamA.Score, true
	default:
		return 0, 0, false
	}
}

// Teammates returns the other players on side.
func (m Match) Teammates(side Side, playerID string) []string {
	return without(m.team(side).PlayerIDs, playerID)
}

// Opponents returns the players on the other side.
func (m Match) Opponents(side Side) []string {
	switch side {
	case SideA:
		return m.TeamB.PlayerIDs
	case SideB:
		return m.TeamA.PlayerIDs
	default:
		return nil
	}
}

// PlayerIDs returns every participant, team A first.
func (m Match) PlayerIDs() []string {
	out := make([]string, 0, len(m.TeamA.PlayerIDs)+len(m.TeamB.PlayerIDs))
	out = append(out, m.TeamA.PlayerIDs...)
	return append(out, m.TeamB.PlayerIDs...)
}

// Validate checks identifiers and that nobody appears twice.
func (m Match) Validate() error {
	if m.ID == "" {
		return ErrEmptyID
	}
	seen := make(map[string]struct{}, len(m.TeamA.PlayerIDs)+len(m.TeamB.PlayerIDs))
	for _, id := range m.PlayerIDs() {
		if id == "" {
			return ErrEmptyID
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrPlayerOnBothTeams, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Ref returns the presentation reference of the match. Score is nil when
// the match is unscored.
func (m Match) Ref() MatchRef {
	ref := MatchRef{MatchID: m.ID, Date: m.CreatedAt}
	if m.Scored() {
		ref.Score = &[2]int{*m.TeamA.Score, *m.TeamB.Score}
	}
	return ref
}

func (m Match) team(side Side) Team {
	if side == SideB {
		return m.TeamB
	}
	if side == SideA {
		return m.TeamA
	}
	return Team{}
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// IntPtr is a helper for building team scores.
func IntPtr(v int) *int { return &v }
