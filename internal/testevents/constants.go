package testevents

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Submission retry constants.
const (
	maxSubmitAttempts = 5
	retryBackoff      = 100 * time.Millisecond
)

// Runner configuration constants.
const (
	settlePollInterval   = 250 * time.Millisecond
	PercentageMultiplier = 100
)

// Generator shape constants.
const (
	maxBuildup    = 7 // non-terminal events after the faceoff
	goalShare     = 5 // one terminal in goalShare is a goal
	maxPuckPoints = 3
)
