package model

import "errors"

var (
	// ErrInvalidBaseScore is returned for negative, NaN or infinite base scores.
	ErrInvalidBaseScore = errors.New("invalid base score")
	// ErrInvalidPosition is returned when a position name is not recognised.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrEmptyID is returned when an identifier is blank.
	ErrEmptyID = errors.New("empty id")
	// ErrPlayerOnBothTeams is returned when a match lists a player twice.
	ErrPlayerOnBothTeams = errors.New("player listed more than once in match")
)
