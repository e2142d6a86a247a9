package stats

import "errors"

// ErrPlayerNotFound is returned when stats are requested without a player.
var ErrPlayerNotFound = errors.New("player not found")
