package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL string        // Base URL of the service
	SquadID string        // Squad to seed; empty lets the service pick one
	Players int           // Number of players to create
	Matches int           // Number of matches to play
	Seed    uint64        // Random seed for rosters and results
	Workers int           // Concurrent player creations
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every request
}

// Player is the player shape returned by the API.
type Player struct {
	ID        string  `json:"id"`
	SquadID   string  `json:"squad_id"`
	Name      string  `json:"name"`
	Position  string  `json:"position"`
	BaseScore float64 `json:"base_score"`
	Score     float64 `json:"score"`
}

// Team is one side of a match as sent to and returned by the API.
type Team struct {
	Color     string   `json:"color,omitempty"`
	PlayerIDs []string `json:"player_ids"`
	Score     *int     `json:"score,omitempty"`
}

// Match is the match shape returned by the API.
type Match struct {
	ID        string    `json:"id"`
	SquadID   string    `json:"squad_id"`
	CreatedAt time.Time `json:"created_at"`
	TeamA     Team      `json:"team_a"`
	TeamB     Team      `json:"team_b"`
}

// Entry is a leaderboard entry.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Score    float64 `json:"score"`
}

// Stats holds run statistics.
type Stats struct {
	PlayersCreated  int
	PlayersFailed   int
	MatchesCreated  int
	ScoresEdited    int
	PlayersVerified int
	DraftProposals  int
	SquadGoals      int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
