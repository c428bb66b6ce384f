package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/rinkline/internal/config"
	"github.com/okian/rinkline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewService(t *testing.T) {
	convey.Convey("Given a configuration loaded from the environment", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		dbPath := filepath.Join(t.TempDir(), "main.db")
		_ = os.Setenv("RINKLINE_DB_PATH", dbPath)
		_ = os.Setenv("RINKLINE_WORKER_COUNT", "2")
		_ = os.Setenv("RINKLINE_DIRECTION_RULE", "alternate")
		defer func() {
			_ = os.Unsetenv("RINKLINE_DB_PATH")
			_ = os.Unsetenv("RINKLINE_WORKER_COUNT")
			_ = os.Unsetenv("RINKLINE_DIRECTION_RULE")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.DBPath, convey.ShouldEqual, dbPath)

		convey.Convey("When the service is built and started", func() {
			svc, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			convey.Convey("Then the stats reflect the configuration", func() {
				stats := svc.GetStats(ctx)
				convey.So(stats["started"], convey.ShouldEqual, true)
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["maxChainLength"], convey.ShouldEqual, 10)
			})

			convey.Convey("Then the mux serves the API and the docs", func() {
				mux := newMux(ctx, svc)
				for _, path := range []string{"/healthz", "/metrics", "/stats", "/games", "/api-docs", "/openapi.yaml"} {
					rec := httptest.NewRecorder()
					mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then the metric updaters run without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
			})
		})
	})

	convey.Convey("Given a configuration with broken slot rules", t, func() {
		cfg := config.New()
		cfg.SlotRules = map[string]map[string][]string{"shot": {"zero": {"shooter"}}}

		convey.Convey("Then the service is not built", func() {
			_, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given cancelled contexts", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updaters return once the context ends", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			cfg := config.New()
			cfg.DBPath = filepath.Join(t.TempDir(), "idle.db")
			svc, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}
