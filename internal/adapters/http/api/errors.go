package api

import (
	"errors"
	"net/http"

	"github.com/okian/rinkline/internal/adapters/repository"
	service "github.com/okian/rinkline/internal/app"
	"github.com/okian/rinkline/internal/domain/capture"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// statusFor maps domain errors onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidDraft):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, capture.ErrNoTarget):
		return http.StatusUnprocessableEntity, "no_target"
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateEvent):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
