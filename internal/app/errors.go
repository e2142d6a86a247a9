package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrNotStarted is returned by operations invoked before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidScore is returned for negative goals or a half-entered result.
	ErrInvalidScore = errors.New("invalid match score")
	// ErrSquadMismatch is returned when a match mixes players of different squads.
	ErrSquadMismatch = errors.New("player belongs to another squad")
	// ErrEmptyRoster is returned when a team has no players.
	ErrEmptyRoster = errors.New("team has no players")
)
