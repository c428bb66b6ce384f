package capture

import "errors"

// Sentinel kinds for capture errors.
var (
	// ErrNoTarget means a player coordinate has no participant to attach to.
	// The operator has to add a player before retrying.
	ErrNoTarget    = errors.New("no target player for coordinate")
	ErrInvalidRule = errors.New("invalid slot rule")
)
