// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Position is the informational field position of a player.
type Position string

// Known positions.
const (
	PositionNone       Position = "none"
	PositionGoalie     Position = "goalie"
	PositionDefender   Position = "defender"
	PositionMidfielder Position = "midfielder"
	PositionForward    Position = "forward"
)

// ParsePosition maps a user supplied name onto a Position. Empty means none.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PositionNone, nil
	case PositionNone, PositionGoalie, PositionDefender, PositionMidfielder, PositionForward:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
}

// Player is a squad member. BaseScore never changes after creation; Score is
// the value written by the last ledger recalculation.
type Player struct {
	ID        string
	SquadID   string
	Name      string
	Position  Position
	BaseScore float64
	Score     float64
	CreatedAt time.Time
}

// ValidateBaseScore rejects base scores the ledger cannot replay from.
func ValidateBaseScore(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidBaseScore, v)
	}
	return nil
}

// NewPlayer builds a Player whose current score starts at its base score.
func NewPlayer(id, squadID, name string, pos Position, base float64, createdAt time.Time) (Player, error) {
	if strings.TrimSpace(id) == "" {
		return Player{}, ErrEmptyID
	}
	if err := ValidateBaseScore(base); err != nil {
		return Player{}, err
	}
	if pos == "" {
		pos = PositionNone
	}
	return Player{
		ID:        id,
		SquadID:   squadID,
		Name:      name,
		Position:  pos,
		BaseScore: base,
		Score:     base,
		CreatedAt: createdAt,
	}, nil
}

// Ref returns the presentation reference of the player.
func (p Player) Ref() PlayerRef {
	return PlayerRef{PlayerID: p.ID, Name: p.Name}
}
