package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rinkline/internal/testevents"
)

// Default configuration constants.
const (
	defaultGames       = 20
	defaultChains      = 30
	defaultDuplicates  = 0.05
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		games      = flag.Int("games", defaultGames, "Number of games to simulate")
		chains     = flag.Int("chains", defaultChains, "Shots or goals per game")
		dups       = flag.Float64("dups", defaultDuplicates, "Share of events submitted twice")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettle, "How long to wait for persistence")
		seed       = flag.Uint64("seed", 0, "Generator seed, 0 for a random one")
		outputFile = flag.String("output", "", "Write generated games and expected chains to this file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every submission")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	closeLog, err := testevents.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &testevents.Config{
		BaseURL:       *baseURL,
		Games:         *games,
		ChainsPerGame: *chains,
		Duplicates:    *dups,
		Workers:       max(1, *workers),
		Timeout:       *timeout,
		SettleTimeout: *settle,
		Seed:          *seed,
		OutputFile:    *outputFile,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := testevents.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
