package testevents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/pkg/logger"
)

// buildupTypes are the plays generated between a faceoff and a terminal.
var buildupTypes = []model.EventType{
	model.Pass, model.Pass, model.Pass,
	model.Hit, model.Takeaway, model.Giveaway,
	model.ZoneEntry, model.DumpIn, model.Block,
}

// buildupRoles names the player role recorded for each buildup type.
var buildupRoles = map[model.EventType][]model.Role{
	model.Pass:      {"passer", "receiver"},
	model.Hit:       {"hitter", "hittee"},
	model.Takeaway:  {"taker"},
	model.Giveaway:  {"giver"},
	model.ZoneEntry: {"carrier"},
	model.DumpIn:    {"dumper"},
	model.Block:     {"blocker", "shooter"},
}

// generateGames creates cfg.Games games of cfg.ChainsPerGame chains each.
func generateGames(ctx context.Context, cfg *Config, stats *Stats) ([]Game, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Get().Info(ctx, "generating games",
		logger.Int("games", cfg.Games),
		logger.Int("chainsPerGame", cfg.ChainsPerGame),
		logger.Any("seed", seed))

	games := make([]Game, 0, cfg.Games)
	for i := 0; i < cfg.Games; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		// One stream per game keeps a seed reproducible whatever the game count.
		rng := rand.New(rand.NewPCG(seed, uint64(i)))
		g := generateGame(rng, uuid.NewString(), cfg.ChainsPerGame)
		games = append(games, g)
		stats.EventsGenerated += len(g.Events)
	}
	stats.GamesGenerated = len(games)

	logger.Get().Info(ctx, "generated games successfully",
		logger.Int("games", stats.GamesGenerated),
		logger.Int("events", stats.EventsGenerated))
	return games, nil
}

// generateGame builds chains back to back: a faceoff, a linked buildup and
// a shot or goal. Some buildup events drop their explicit link so the
// sequence index has to carry the chain.
func generateGame(rng *rand.Rand, gameID string, chains int) Game {
	g := Game{ID: gameID}
	seq := 0
	periodLen := max(1, chains/3)

	for c := 0; c < chains; c++ {
		period := min(3, 1+c/periodLen)
		team := rink.Home
		if rng.IntN(2) == 1 {
			team = rink.Away
		}

		var keys []string
		next := func(typ model.EventType, linked string, roles []model.Role) model.Event {
			ev := model.Event{
				EventKey:       uuid.NewString(),
				GameID:         gameID,
				Type:           typ,
				Period:         period,
				Team:           team,
				SequenceIndex:  model.Index(seq),
				LinkedEventKey: linked,
				PuckPositions:  randomPositions(rng, 1+rng.IntN(maxPuckPoints)),
				Players:        randomPlayers(rng, team, roles),
			}
			seq++
			keys = append(keys, ev.EventKey)
			g.Events = append(g.Events, ev)
			return ev
		}

		prev := next(model.Faceoff, "", []model.Role{"winner", "loser"})
		for b := rng.IntN(maxBuildup + 1); b > 0; b-- {
			typ := buildupTypes[rng.IntN(len(buildupTypes))]
			linked := prev.EventKey
			if rng.IntN(4) == 0 {
				linked = ""
			}
			prev = next(typ, linked, buildupRoles[typ])
		}

		terminal := model.Shot
		roles := []model.Role{"shooter", "goalie"}
		if rng.IntN(goalShare) == 0 {
			terminal = model.Goal
			roles = []model.Role{"scorer", "assist", "goalie"}
		}
		last := next(terminal, prev.EventKey, roles)
		g.Expected = append(g.Expected, Expectation{TerminalKey: last.EventKey, Keys: keys})
	}
	return g
}

func randomPositions(rng *rand.Rand, n int) []rink.RinkPosition {
	out := make([]rink.RinkPosition, n)
	for i := range out {
		out[i] = rink.RinkPosition{
			X: rng.Float64()*2*rink.HalfLength - rink.HalfLength,
			Y: rng.Float64()*2*rink.HalfWidth - rink.HalfWidth,
		}
	}
	return out
}

func randomPlayers(rng *rand.Rand, team rink.Team, roles []model.Role) []model.Player {
	out := make([]model.Player, 0, len(roles))
	for _, role := range roles {
		out = append(out, model.Player{
			ID:        fmt.Sprintf("%s-%d", team, 1+rng.IntN(99)),
			Role:      role,
			Positions: randomPositions(rng, 1),
		})
	}
	return out
}

// allEvents flattens the games in submission order.
func allEvents(games []Game) []model.Event {
	var out []model.Event
	for _, g := range games {
		out = append(out, g.Events...)
	}
	return out
}
