package model

import "time"

// LedgerEntry is the score movement of one player caused by one match.
// NewScore always equals PreviousScore + Delta.
type LedgerEntry struct {
	PlayerID       string
	MatchID        string
	MatchCreatedAt time.Time
	CreatedAt      time.Time
	PreviousScore  float64
	NewScore       float64
	Delta          float64
}

// Before reports whether e sorts before o in a player's timeline: match
// creation time first, then match id.
func (e LedgerEntry) Before(o LedgerEntry) bool {
	if !e.MatchCreatedAt.Equal(o.MatchCreatedAt) {
		return e.MatchCreatedAt.Before(o.MatchCreatedAt)
	}
	return e.MatchID < o.MatchID
}

// PlayerRef identifies a player for presentation.
type PlayerRef struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"player_name"`
}

// MatchRef identifies a match for presentation. Score is team A first.
type MatchRef struct {
	MatchID string    `json:"match_id"`
	Date    time.Time `json:"match_date"`
	Score   *[2]int   `json:"score,omitempty"`
}
