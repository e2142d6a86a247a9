// Package config defines service configuration and how it is loaded.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoragePath is the SQLite database file. Empty keeps everything in memory.
	StoragePath string `koanf:"storage_path"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Draft balancer limits.
	DraftMaxProposals        int     `koanf:"draft_max_proposals"`
	DraftMaxRoster           int     `koanf:"draft_max_roster"`
	DraftMaxRosterThreeTeams int     `koanf:"draft_max_roster_three_teams"`
	DraftCandidateLimit      int     `koanf:"draft_candidate_limit"`
	DraftSubstitution        bool    `koanf:"draft_substitution"`
	DraftRatingSigma         float64 `koanf:"draft_rating_sigma"`

	// HeadToHeadLength is the number of meetings in a head-to-head sequence.
	HeadToHeadLength int `koanf:"h2h_length"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":9080",
		MaxLeaderboardLimit:      100,
		DraftMaxProposals:        20,
		DraftMaxRoster:           20,
		DraftMaxRosterThreeTeams: 12,
		DraftRatingSigma:         25.0 / 3,
		HeadToHeadLength:         5,
	}
}
