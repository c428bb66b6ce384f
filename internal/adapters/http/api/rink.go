package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/internal/domain/types"
)

// RinkDependencies defines the geometry queries.
type RinkDependencies interface {
	Zone(xCanvas float64, period int, team rink.Team) types.ZoneView
	Faceoff(p rink.CanvasPosition) types.FaceoffView
}

// RinkHandler answers zone and faceoff queries.
type RinkHandler struct {
	deps RinkDependencies
}

// NewRinkHandler creates a new rink handler.
func NewRinkHandler(deps RinkDependencies) *RinkHandler {
	return &RinkHandler{deps: deps}
}

// HandleZone handles GET /zone?x=&period=&team= requests.
func (h *RinkHandler) HandleZone(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := floatParam(q.Get("x"), "x")
	if err != nil {
		writeFailure(w, err)
		return
	}
	period := 1
	if raw := q.Get("period"); raw != "" {
		period, err = strconv.Atoi(raw)
		if err != nil || period < 1 {
			writeFailure(w, fmt.Errorf("%w: period must be a positive integer", ErrBadRequest))
			return
		}
	}
	team, err := rink.ParseTeam(q.Get("team"))
	if err != nil {
		writeFailure(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Zone(x, period, team))
}

// HandleFaceoff handles GET /faceoff?x=&y= requests.
func (h *RinkHandler) HandleFaceoff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := floatParam(q.Get("x"), "x")
	if err != nil {
		writeFailure(w, err)
		return
	}
	y, err := floatParam(q.Get("y"), "y")
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Faceoff(rink.CanvasPosition{X: x, Y: y}))
}

func floatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrBadRequest, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number", ErrBadRequest, name)
	}
	return v, nil
}
