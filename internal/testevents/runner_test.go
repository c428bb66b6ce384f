package testevents

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/rinkline/internal/adapters/http/api"
	"github.com/okian/rinkline/internal/adapters/repository"
	service "github.com/okian/rinkline/internal/app"
	"github.com/okian/rinkline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := service.New(service.WithStore(store), service.WithWorkerCount(2), service.WithQueueSize(1024))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(ctx) })

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		So(logger.Init(), ShouldBeNil)
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "out", "games.json")
		cfg := &Config{
			BaseURL:       srv.URL,
			Games:         3,
			ChainsPerGame: 6,
			Duplicates:    0.2,
			Workers:       4,
			Timeout:       5 * time.Second,
			SettleTimeout: 10 * time.Second,
			Seed:          11,
			OutputFile:    out,
		}

		Convey("When the full test runs", func() {
			err := Run(context.Background(), cfg)

			Convey("Then every chain is rebuilt and the games are saved", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When events are submitted directly", func() {
			stats := &Stats{}
			games, err := generateGames(context.Background(), cfg, stats)
			So(err, ShouldBeNil)
			events := allEvents(games)
			client := newHTTPClient(srv.URL, cfg.Timeout)

			err = submitEvents(context.Background(), cfg, client, events, events[:3], stats)

			Convey("Then repeats are counted as duplicates", func() {
				So(err, ShouldBeNil)
				So(stats.EventsAccepted, ShouldEqual, len(events))
				So(stats.EventsDuplicate, ShouldEqual, 3)
				So(stats.EventsFailed, ShouldEqual, 0)
				So(stats.EventsSubmitted, ShouldEqual, len(events)+3)
			})
		})
	})

	Convey("Given no service", t, func() {
		So(logger.Init(), ShouldBeNil)
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		Convey("Then the health check fails", func() {
			err := Run(context.Background(), &Config{BaseURL: srv.URL, Timeout: time.Second, Workers: 1})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrUnexpectedStatus), ShouldBeTrue)
		})
	})
}
