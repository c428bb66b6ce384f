package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("capture session not found")
	ErrBackpressure    = errors.New("event queue full")
	ErrNotStarted      = errors.New("service not started")
	ErrDuplicateEvent  = errors.New("event already committed")
	ErrInvalidDraft    = errors.New("invalid event draft")
	ErrGameNotFound    = errors.New("game has no events")
)
