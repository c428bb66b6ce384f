package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/rinkline/internal/domain/capture"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/internal/domain/types"
)

// CaptureDependencies defines the capture session operations.
type CaptureDependencies interface {
	StartCapture(ctx context.Context, draft model.Event) (types.CaptureView, error)
	Place(ctx context.Context, id string, raw rink.CanvasPosition, target capture.Target, ref *model.PlayerRef) (types.Placement, error)
	Capture(ctx context.Context, id string) (types.CaptureView, error)
	Discard(ctx context.Context, id string) error
	Commit(ctx context.Context, id string) (model.Event, error)
}

// CaptureHandler handles capture session requests.
type CaptureHandler struct {
	deps CaptureDependencies
}

// NewCaptureHandler creates a new capture handler.
func NewCaptureHandler(deps CaptureDependencies) *CaptureHandler {
	return &CaptureHandler{deps: deps}
}

// placeRequest is one click on the capture canvas.
type placeRequest struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Target   string   `json:"target"`
	PlayerID string   `json:"player_id"`
}

func (p placeRequest) validate() (capture.Target, error) {
	if p.X == nil || p.Y == nil {
		return "", fmt.Errorf("%w: x and y are required", ErrBadRequest)
	}
	switch t := capture.Target(strings.ToLower(strings.TrimSpace(p.Target))); t {
	case "", capture.Puck:
		return capture.Puck, nil
	case capture.Player:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown target %q", ErrBadRequest, p.Target)
	}
}

// HandleStart handles POST /capture requests.
func (h *CaptureHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var draft model.Event
	if err := decodeBody(r, &draft); err != nil {
		writeFailure(w, err)
		return
	}
	view, err := h.deps.StartCapture(r.Context(), draft)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandlePlace handles POST /capture/{id}/place requests.
func (h *CaptureHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	target, err := req.validate()
	if err != nil {
		writeFailure(w, err)
		return
	}
	var ref *model.PlayerRef
	if req.PlayerID != "" {
		ref = &model.PlayerRef{ID: req.PlayerID}
	}

	res, err := h.deps.Place(r.Context(), r.PathValue("id"), rink.CanvasPosition{X: *req.X, Y: *req.Y}, target, ref)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGet handles GET /capture/{id} requests.
func (h *CaptureHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Capture(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDiscard handles DELETE /capture/{id} requests.
func (h *CaptureHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Discard(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCommit handles POST /capture/{id}/commit requests.
func (h *CaptureHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	ev, err := h.deps.Commit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventKey: ev.EventKey})
}
