package ledger

import "errors"

var (
	// ErrPlayerNotFound is returned for operations on an unregistered player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrEntryNotFound is returned when a player has no entry for a match.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrDuplicateEntry is returned when restored entries repeat a match.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")
	// ErrChainBroken is returned when an entry's previous/new scores do not
	// line up with its neighbours. It signals corrupted data, not a missing player.
	ErrChainBroken = errors.New("ledger chain broken")
)
