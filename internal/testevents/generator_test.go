package testevents

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/rinkline/internal/domain/chain"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/types"
	"github.com/okian/rinkline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateGame(t *testing.T) {
	Convey("Given a generated game", t, func() {
		g := generateGame(rand.New(rand.NewPCG(7, 0)), "g1", 12)

		Convey("Then every chain opens with a faceoff and ends in a shot or goal", func() {
			So(len(g.Expected), ShouldEqual, 12)
			byKey := make(map[string]model.Event, len(g.Events))
			for _, e := range g.Events {
				byKey[e.EventKey] = e
			}
			for _, want := range g.Expected {
				So(len(want.Keys), ShouldBeBetweenOrEqual, 2, maxBuildup+2)
				So(len(want.Keys), ShouldBeLessThanOrEqualTo, chain.DefaultMaxLength)
				So(byKey[want.Keys[0]].Type, ShouldEqual, model.Faceoff)
				So(byKey[want.TerminalKey].Type.Terminal(), ShouldBeTrue)
				So(want.Keys[len(want.Keys)-1], ShouldEqual, want.TerminalKey)
			}
		})

		Convey("Then sequence indexes are dense and periods stay in range", func() {
			for i, e := range g.Events {
				So(*e.SequenceIndex, ShouldEqual, i)
				So(e.Period, ShouldBeBetweenOrEqual, 1, 3)
				So(e.GameID, ShouldEqual, "g1")
			}
		})

		Convey("Then the reconstructor rebuilds exactly the expected chains", func() {
			chains := chain.NewReconstructor().Build(g.Events)
			res := types.GameChains{GameID: g.ID, PoolSize: len(g.Events)}
			for _, c := range chains {
				res.Chains = append(res.Chains, types.NewChainView(c))
			}
			So(verifyGame(g, res), ShouldBeNil)
			So(chains[0].Stop, ShouldEqual, chain.StopNoPredecessor)
			for _, c := range chains[1:] {
				So(c.Stop, ShouldEqual, chain.StopTerminal)
			}
		})
	})

	Convey("Given the same seed twice", t, func() {
		a := generateGame(rand.New(rand.NewPCG(42, 3)), "g", 8)
		b := generateGame(rand.New(rand.NewPCG(42, 3)), "g", 8)

		Convey("Then the shapes match even though keys are fresh", func() {
			shape := func(g Game) []model.EventType {
				out := make([]model.EventType, 0, len(g.Events))
				for _, e := range g.Events {
					out = append(out, e.Type)
				}
				return out
			}
			So(cmp.Diff(shape(a), shape(b)), ShouldBeEmpty)
			So(a.Events[0].EventKey, ShouldNotEqual, b.Events[0].EventKey)
		})
	})
}

func TestGenerateGames(t *testing.T) {
	Convey("Given a generation config", t, func() {
		So(logger.Init(), ShouldBeNil)
		cfg := &Config{Games: 3, ChainsPerGame: 4, Seed: 9}
		stats := &Stats{}

		games, err := generateGames(context.Background(), cfg, stats)
		So(err, ShouldBeNil)
		So(len(games), ShouldEqual, 3)
		So(stats.GamesGenerated, ShouldEqual, 3)
		So(stats.EventsGenerated, ShouldEqual, len(allEvents(games)))
		So(games[0].ID, ShouldNotEqual, games[1].ID)

		Convey("And a cancelled context stops generation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := generateGames(ctx, cfg, &Stats{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerifyGame(t *testing.T) {
	Convey("Given a game and its expectation", t, func() {
		g := Game{ID: "g", Expected: []Expectation{{TerminalKey: "s", Keys: []string{"f", "p", "s"}}}}
		view := types.ChainView{
			TerminalKey: "s",
			Events:      []model.Event{{EventKey: "f"}, {EventKey: "p"}, {EventKey: "s"}},
		}

		Convey("Then a matching result passes", func() {
			So(verifyGame(g, types.GameChains{Chains: []types.ChainView{view}}), ShouldBeNil)
		})

		Convey("Then a different chain is reported", func() {
			view.Events = view.Events[1:]
			err := verifyGame(g, types.GameChains{Chains: []types.ChainView{view}})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "-want +got")
		})

		Convey("Then truncation and missing chains are reported", func() {
			So(verifyGame(g, types.GameChains{Truncated: true}), ShouldNotBeNil)
			So(verifyGame(g, types.GameChains{}), ShouldNotBeNil)
			view.TerminalKey = "other"
			So(verifyGame(g, types.GameChains{Chains: []types.ChainView{view}}), ShouldNotBeNil)
		})
	})
}
