package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/rinkline/internal/adapters/repository"
	service "github.com/okian/rinkline/internal/app"
	"github.com/okian/rinkline/internal/domain/capture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatusFor(t *testing.T) {
	Convey("Given wrapped domain errors", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("x: %w", capture.ErrNoTarget), http.StatusUnprocessableEntity, "no_target"},
			{service.ErrSessionNotFound, http.StatusNotFound, "not_found"},
			{repository.ErrNotFound, http.StatusNotFound, "not_found"},
			{service.ErrInvalidDraft, http.StatusBadRequest, "bad_request"},
			{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
			{service.ErrDuplicateEvent, http.StatusConflict, "duplicate"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "not_started"},
			{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
		}

		Convey("Then each maps to its status", func() {
			for _, c := range cases {
				status, code := statusFor(c.err)
				So(status, ShouldEqual, c.status)
				So(code, ShouldEqual, c.code)
			}
		})
	})
}

func TestWriteJSON(t *testing.T) {
	Convey("Given a value JSON cannot encode", t, func() {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusOK, map[string]float64{"x": math.NaN()})

		Convey("Then a 500 with an error body is written", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "encode_failed")
		})
	})

	Convey("Given an encodable value", t, func() {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventKey: "k"})

		So(w.Code, ShouldEqual, http.StatusAccepted)
		So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
		So(w.Body.String(), ShouldEqual, "{\"status\":\"accepted\",\"event_key\":\"k\"}\n")
	})
}
