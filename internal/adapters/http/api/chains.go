package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/types"
)

// ChainDependencies defines the event pool and analysis operations.
type ChainDependencies interface {
	Ingest(ctx context.Context, ev model.Event) error
	Event(ctx context.Context, key string) (model.Event, error)
	Games(ctx context.Context) ([]string, error)
	Chains(ctx context.Context, gameID string) (types.GameChains, error)
	AnalyzeGames(ctx context.Context, gameIDs []string) ([]types.GameChains, error)
}

// ChainsHandler serves stored events and reconstructed chains.
type ChainsHandler struct {
	deps ChainDependencies
}

// NewChainsHandler creates a new chains handler.
func NewChainsHandler(deps ChainDependencies) *ChainsHandler {
	return &ChainsHandler{deps: deps}
}

type analyzeRequest struct {
	GameIDs []string `json:"game_ids"`
}

// HandleIngest handles POST /events requests carrying a complete event.
func (h *ChainsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := decodeBody(r, &ev); err != nil {
		writeFailure(w, err)
		return
	}
	if ev.EventKey == "" {
		writeFailure(w, fmt.Errorf("%w: event_key is required", ErrBadRequest))
		return
	}
	if err := h.deps.Ingest(r.Context(), ev); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventKey: ev.EventKey})
}

// HandleGetEvent handles GET /events/{key} requests.
func (h *ChainsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.deps.Event(r.Context(), r.PathValue("key"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleGames handles GET /games requests.
func (h *ChainsHandler) HandleGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.deps.Games(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if games == nil {
		games = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"games": games})
}

// HandleGameChains handles GET /games/{id}/chains requests.
func (h *ChainsHandler) HandleGameChains(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Chains(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAnalyze handles POST /analyze requests. An empty body analyses
// every stored game.
func (h *ChainsHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeFailure(w, err)
			return
		}
	}
	res, err := h.deps.AnalyzeGames(r.Context(), req.GameIDs)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]types.GameChains{"games": res})
}
