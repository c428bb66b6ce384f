package testevents

import (
	"time"

	"github.com/okian/rinkline/internal/domain/model"
)

// Config holds configuration for the event test
type Config struct {
	BaseURL       string        // Base URL of the service
	Games         int           // Number of games to simulate
	ChainsPerGame int           // Shots or goals generated per game
	Duplicates    float64       // Share of events submitted a second time
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	SettleTimeout time.Duration // How long to wait for persistence to catch up
	Seed          uint64        // Generator seed; 0 picks one from the clock
	OutputFile    string        // Output file for events
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// Game is one simulated game and the chains its events must reconstruct to.
type Game struct {
	ID       string        `json:"game_id"`
	Events   []model.Event `json:"events"`
	Expected []Expectation `json:"expected"`
}

// Expectation is the chain a terminal event should resolve to.
type Expectation struct {
	TerminalKey string   `json:"terminal_key"`
	Keys        []string `json:"keys"`
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status   string `json:"status"`
	EventKey string `json:"event_key"`
}

// Stats holds test statistics
type Stats struct {
	GamesGenerated   int
	EventsGenerated  int
	EventsSubmitted  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsRetried    int
	EventsFailed     int
	ChainsVerified   int
	ChainsMismatched int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
