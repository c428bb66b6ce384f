package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete event test.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting rinkline event test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("games", cfg.Games),
		logger.Int("chainsPerGame", cfg.ChainsPerGame),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Bool("verbose", cfg.Verbose))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate games
	games, err := generateGames(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("event generation failed: %w", err)
	}

	// Step 3: Submit events, then a share of them again
	events := allEvents(games)
	if err := submitEvents(ctx, cfg, client, events, pickDuplicates(cfg, events), stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}
	if stats.EventsFailed > 0 {
		return fmt.Errorf("%d events were not accepted", stats.EventsFailed)
	}

	// Step 4: Wait for persistence
	if err := waitForGames(ctx, cfg, client, games); err != nil {
		return fmt.Errorf("waiting for persistence failed: %w", err)
	}

	// Step 5: Verify reconstructed chains
	if err := verifyGames(ctx, client, games, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save games to file
	if cfg.OutputFile != "" {
		if err := saveGamesToFile(ctx, cfg.OutputFile, games); err != nil {
			log.Warn(ctx, "failed to save games to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	var health map[string]string
	if err := client.Get(ctx, "/healthz", &health); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy", logger.String("status", health["status"]))
	return nil
}

// pickDuplicates returns the events to submit a second time.
func pickDuplicates(cfg *Config, events []model.Event) []model.Event {
	if cfg.Duplicates <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(len(events))))
	var out []model.Event
	for _, ev := range events {
		if rng.Float64() < cfg.Duplicates {
			out = append(out, ev)
		}
	}
	return out
}

// saveGamesToFile writes the generated games and their expected chains.
func saveGamesToFile(ctx context.Context, filename string, games []Game) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal games: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "games saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, eventsPerSecond float64
	if stats.EventsSubmitted > 0 {
		acceptRate = float64(stats.EventsAccepted) / float64(stats.EventsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("gamesGenerated", stats.GamesGenerated),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsRetried", stats.EventsRetried),
		logger.Int("chainsVerified", stats.ChainsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
