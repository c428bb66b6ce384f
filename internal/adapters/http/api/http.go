// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CaptureDependencies
	RinkDependencies
	ChainDependencies
}

// Server wires HTTP routes for the capture and analysis API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	captureHandler *CaptureHandler
	rinkHandler    *RinkHandler
	chainsHandler  *ChainsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		captureHandler: NewCaptureHandler(deps),
		rinkHandler:    NewRinkHandler(deps),
		chainsHandler:  NewChainsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /capture", MetricsMiddleware(s.captureHandler.HandleStart, "capture_start"))
	mux.HandleFunc("GET /capture/{id}", MetricsMiddleware(s.captureHandler.HandleGet, "capture_get"))
	mux.HandleFunc("DELETE /capture/{id}", MetricsMiddleware(s.captureHandler.HandleDiscard, "capture_discard"))
	mux.HandleFunc("POST /capture/{id}/place", MetricsMiddleware(s.captureHandler.HandlePlace, "capture_place"))
	mux.HandleFunc("POST /capture/{id}/commit", MetricsMiddleware(s.captureHandler.HandleCommit, "capture_commit"))

	mux.HandleFunc("GET /zone", MetricsMiddleware(s.rinkHandler.HandleZone, "zone"))
	mux.HandleFunc("GET /faceoff", MetricsMiddleware(s.rinkHandler.HandleFaceoff, "faceoff"))

	mux.HandleFunc("POST /events", MetricsMiddleware(s.chainsHandler.HandleIngest, "events_ingest"))
	mux.HandleFunc("GET /events/{key}", MetricsMiddleware(s.chainsHandler.HandleGetEvent, "events_get"))
	mux.HandleFunc("GET /games", MetricsMiddleware(s.chainsHandler.HandleGames, "games"))
	mux.HandleFunc("GET /games/{id}/chains", MetricsMiddleware(s.chainsHandler.HandleGameChains, "chains"))
	mux.HandleFunc("POST /analyze", MetricsMiddleware(s.chainsHandler.HandleAnalyze, "analyze"))
}

type ackResponse struct {
	Status   string `json:"status"`
	EventKey string `json:"event_key"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before touching the response so an encoding failure
// still yields a 500 with a body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "encode_failed", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
