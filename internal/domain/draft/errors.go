package draft

import "errors"

var (
	// ErrInvalidTeamCount is returned for team counts other than two or three.
	ErrInvalidTeamCount = errors.New("team count must be 2 or 3")
	// ErrRosterTooLarge is returned when enumeration would exceed the roster guard.
	ErrRosterTooLarge = errors.New("roster too large to enumerate")
	// ErrRosterTooSmall is returned when there are fewer players than teams.
	ErrRosterTooSmall = errors.New("roster too small")
	// ErrDuplicatePlayer is returned when the roster lists a player twice.
	ErrDuplicatePlayer = errors.New("duplicate player in roster")
)
