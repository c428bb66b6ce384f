package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/rinkline/internal/domain/capture"
	"github.com/okian/rinkline/internal/domain/rink"
)

const (
	envPrefix = "RINKLINE_"
	envFile   = "RINKLINE_CONFIG"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file named by RINKLINE_CONFIG, if set
//  3. RINKLINE_* environment variables
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RINKLINE_MAX_POOL_SIZE -> max_pool_size; keys stay flat.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.MaxChainLength < 1:
		return fmt.Errorf("%w: max_chain_length must be at least 1", ErrInvalidConfig)
	case c.MaxPoolSize < 1:
		return fmt.Errorf("%w: max_pool_size must be at least 1", ErrInvalidConfig)
	case c.FaceoffTolerance <= 0:
		return fmt.Errorf("%w: faceoff_tolerance must be positive", ErrInvalidConfig)
	}
	if _, err := c.Direction(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Rules(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Direction parses DirectionRule.
func (c *Config) Direction() (rink.DirectionRule, error) {
	return rink.ParseDirectionRule(c.DirectionRule)
}

// Orientation returns the configured rink orientation.
func (c *Config) Orientation() (rink.Orientation, error) {
	rule, err := c.Direction()
	if err != nil {
		return rink.Orientation{}, err
	}
	return rink.Orientation{HomeAttacksRightInPeriod1: c.HomeAttacksRightP1, Rule: rule}, nil
}

// Rules returns the built-in slot rules with the configured overrides.
func (c *Config) Rules() (capture.SlotRules, error) {
	custom, err := capture.ParseSlotRules(c.SlotRules)
	if err != nil {
		return nil, err
	}
	return capture.DefaultSlotRules().Merge(custom), nil
}
