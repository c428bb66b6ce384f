package testevents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/rinkline/internal/domain/types"
	"github.com/okian/rinkline/pkg/logger"
)

// ErrChainMismatch is returned when reconstructed chains differ from the
// generated ones.
var ErrChainMismatch = errors.New("chain mismatch")

// fetchChains reads the reconstructed chains of one game.
func fetchChains(ctx context.Context, client *HTTPClient, gameID string) (types.GameChains, error) {
	var res types.GameChains
	err := client.Get(ctx, "/games/"+gameID+"/chains", &res)
	return res, err
}

// waitForGames polls every game until its whole event pool is stored.
// Persistence is asynchronous, so accepted events appear with a delay.
func waitForGames(ctx context.Context, cfg *Config, client *HTTPClient, games []Game) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.SettleTimeout)
	defer cancel()

	pending := make(map[string]int, len(games))
	for _, g := range games {
		pending[g.ID] = len(g.Events)
	}
	for {
		for id, want := range pending {
			res, err := fetchChains(ctx, client, id)
			if err == nil && res.PoolSize >= want {
				delete(pending, id)
			}
		}
		if len(pending) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d games still incomplete: %w", len(pending), ctx.Err())
		case <-time.After(settlePollInterval):
		}
	}
}

// verifyGames compares every reconstructed chain with its expectation.
func verifyGames(ctx context.Context, client *HTTPClient, games []Game, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying chains", logger.Int("games", len(games)))

	var errs []error
	for _, g := range games {
		res, err := fetchChains(ctx, client, g.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("game %s: %w", g.ID, err))
			continue
		}
		if err := verifyGame(g, res); err != nil {
			stats.ChainsMismatched++
			errs = append(errs, err)
			continue
		}
		stats.ChainsVerified += len(res.Chains)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info(ctx, "chain verification completed", logger.Int("chains", stats.ChainsVerified))
	return nil
}

// verifyGame checks one game's chains against the generated expectations.
func verifyGame(g Game, res types.GameChains) error {
	if res.Truncated {
		return fmt.Errorf("%w: game %s pool truncated at %d events", ErrChainMismatch, g.ID, res.PoolSize)
	}
	if len(res.Chains) != len(g.Expected) {
		return fmt.Errorf("%w: game %s has %d chains, want %d", ErrChainMismatch, g.ID, len(res.Chains), len(g.Expected))
	}

	byTerminal := make(map[string]types.ChainView, len(res.Chains))
	for _, c := range res.Chains {
		byTerminal[c.TerminalKey] = c
	}
	for _, want := range g.Expected {
		got, ok := byTerminal[want.TerminalKey]
		if !ok {
			return fmt.Errorf("%w: game %s has no chain ending at %s", ErrChainMismatch, g.ID, want.TerminalKey)
		}
		keys := make([]string, 0, len(got.Events))
		for _, e := range got.Events {
			keys = append(keys, e.EventKey)
		}
		if diff := cmp.Diff(want.Keys, keys); diff != "" {
			return fmt.Errorf("%w: game %s chain %s (-want +got):\n%s", ErrChainMismatch, g.ID, want.TerminalKey, diff)
		}
	}
	return nil
}
