package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SQUADUP_"
	envFileVar = "SQUADUP_CONFIG"
)

// Load builds a Config by layering defaults, an optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. YAML file if SQUADUP_CONFIG is set
//  3. env (prefix SQUADUP_)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SQUADUP_DRAFT_MAX_ROSTER -> draft_max_roster. Keys are flat so the
	// underscores must survive.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.DraftMaxProposals < 1:
		return fmt.Errorf("%w: draft_max_proposals must be positive", ErrInvalidConfig)
	case c.DraftMaxRoster < 2:
		return fmt.Errorf("%w: draft_max_roster must be at least 2", ErrInvalidConfig)
	case c.DraftMaxRosterThreeTeams < 3:
		return fmt.Errorf("%w: draft_max_roster_three_teams must be at least 3", ErrInvalidConfig)
	case c.DraftCandidateLimit < 0:
		return fmt.Errorf("%w: draft_candidate_limit must not be negative", ErrInvalidConfig)
	case c.DraftRatingSigma <= 0:
		return fmt.Errorf("%w: draft_rating_sigma must be positive", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
