// Package config defines service configuration and its loading from
// defaults, an optional YAML file and environment variables.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file holding the event pool.
	DBPath string `koanf:"db_path"`

	// EventQueueSize bounds the in-memory persistence queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// AnalysisWorkers bounds how many games are reconstructed concurrently.
	AnalysisWorkers int `koanf:"analysis_workers"`

	// DedupeSize sets how many committed event keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxPoolSize caps the events read back for one game.
	MaxPoolSize int `koanf:"max_pool_size"`

	// MaxChainLength caps a reconstructed chain, terminal event included.
	MaxChainLength int `koanf:"max_chain_length"`

	// FaceoffTolerance is the snap radius around faceoff dots, canvas units.
	FaceoffTolerance float64 `koanf:"faceoff_tolerance"`

	// HomeAttacksRightP1 fixes the rink orientation in period 1.
	HomeAttacksRightP1 bool `koanf:"home_attacks_right_p1"`

	// DirectionRule is "second-period-only" or "alternate".
	DirectionRule string `koanf:"direction_rule"`

	// SlotRules overrides the auto-link table per event type:
	// event type -> puck ordinal ("1", "2", ...) -> player roles.
	SlotRules map[string]map[string][]string `koanf:"slot_rules"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DBPath:             "rinkline.db",
		EventQueueSize:     10_000,
		WorkerCount:        runtime.NumCPU(),
		AnalysisWorkers:    runtime.NumCPU(),
		DedupeSize:         50_000,
		MaxPoolSize:        5_000,
		MaxChainLength:     10,
		FaceoffTolerance:   5,
		HomeAttacksRightP1: true,
		DirectionRule:      "second-period-only",
	}
}
