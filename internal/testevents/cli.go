package testevents

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/rinkline/pkg/logger"
)

// SetupLogging configures logging to both console and file. An empty
// logFile logs to the console only.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	out := io.Writer(os.Stdout)
	closeFn := func() error { return nil }
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}
	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the test events tool.
func ShowHelp() {
	os.Stdout.WriteString(`Rinkline Event Test Tool
========================

Generates games of linked plays, submits them to POST /events and checks that
GET /games/{id}/chains rebuilds exactly the generated chains.

Usage:
  go run ./cmd/test-events [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -games int
        Number of games to simulate (default 20)
  -chains int
        Shots or goals per game (default 30)
  -dups float
        Share of events submitted twice, expected to be rejected (default 0.05)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for persistence (default 1m)
  -seed uint
        Generator seed, 0 for a random one
  -output string
        Write generated games and expected chains to this file
  -log string
        Also write logs to this file
  -verbose
        Log every submission
  -help
        Show this help message

Examples:
  go run ./cmd/test-events -games 100 -chains 60 -workers 16
  go run ./cmd/test-events -seed 42 -output games.json
`)
}
