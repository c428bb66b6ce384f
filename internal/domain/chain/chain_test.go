package chain_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/rinkline/internal/domain/chain"
	"github.com/okian/rinkline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func keys(c chain.Chain) []string {
	out := make([]string, 0, c.Len())
	for _, e := range c.Events {
		out = append(out, e.EventKey)
	}
	return out
}

func ev(key string, typ model.EventType, linked string) model.Event {
	return model.Event{EventKey: key, GameID: "g1", Type: typ, Period: 1, LinkedEventKey: linked}
}

// linkedRun returns n passes each linked to the previous one, then a shot.
func linkedRun(n int) []model.Event {
	events := make([]model.Event, 0, n+1)
	prev := ""
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("e%d", i)
		events = append(events, ev(k, model.Pass, prev))
		prev = k
	}
	return append(events, ev("shot", model.Shot, prev))
}

func TestReconstructor(t *testing.T) {
	Convey("Given a default reconstructor", t, func() {
		r := chain.NewReconstructor()

		Convey("When 20 linked events precede a shot", func() {
			chains := r.Build(linkedRun(20))

			Convey("Then the chain is capped at 10 events", func() {
				So(len(chains), ShouldEqual, 1)
				So(chains[0].Len(), ShouldEqual, 10)
				So(chains[0].Stop, ShouldEqual, chain.StopLengthCap)
				want := []string{"e11", "e12", "e13", "e14", "e15", "e16", "e17", "e18", "e19", "shot"}
				So(cmp.Diff(want, keys(chains[0])), ShouldBeEmpty)
				So(len(chains[0].Links), ShouldEqual, 9)
			})
		})

		Convey("When a goal sits inside the run", func() {
			events := []model.Event{
				ev("p0", model.Pass, ""),
				ev("p1", model.Pass, "p0"),
				ev("g", model.Goal, "p1"),
				ev("f", model.Faceoff, "g"),
				ev("p3", model.Pass, "f"),
				ev("s", model.Shot, "p3"),
			}
			chains := r.Build(events)

			Convey("Then the later shot stops before the goal", func() {
				So(len(chains), ShouldEqual, 2)
				So(cmp.Diff([]string{"p0", "p1", "g"}, keys(chains[0])), ShouldBeEmpty)
				So(cmp.Diff([]string{"f", "p3", "s"}, keys(chains[1])), ShouldBeEmpty)
				So(chains[1].Stop, ShouldEqual, chain.StopTerminal)
				So(chains[0].Stop, ShouldEqual, chain.StopNoPredecessor)
			})
		})

		Convey("When predecessors are expressed only by sequence index", func() {
			byKey := linkedRun(4)
			bySeq := make([]model.Event, len(byKey))
			for i, e := range byKey {
				e.LinkedEventKey = ""
				e.SequenceIndex = model.Index(100 + i)
				bySeq[i] = e
			}

			Convey("Then the chain matches the key-linked one", func() {
				a := r.Build(byKey)
				b := r.Build(bySeq)
				So(cmp.Diff(keys(a[0]), keys(b[0])), ShouldBeEmpty)
				So(b[0].Links, ShouldResemble, []chain.Strategy{chain.BySequence, chain.BySequence, chain.BySequence, chain.BySequence})
				So(a[0].Links[0], ShouldEqual, chain.ByKey)
			})
		})

		Convey("When only play indexes are present", func() {
			events := []model.Event{
				{EventKey: "a", GameID: "g1", Type: model.Takeaway, PlayIndex: model.Index(3)},
				{EventKey: "b", GameID: "g1", Type: model.Pass, PlayIndex: model.Index(4)},
				{EventKey: "c", GameID: "g1", Type: model.Shot, PlayIndex: model.Index(5)},
			}
			c := r.Build(events)[0]

			Convey("Then the play index fallback links them", func() {
				So(cmp.Diff([]string{"a", "b", "c"}, keys(c)), ShouldBeEmpty)
				So(c.Links, ShouldResemble, []chain.Strategy{chain.ByPlay, chain.ByPlay})
			})
		})

		Convey("When sequence indexes collide across games", func() {
			events := []model.Event{
				{EventKey: "other", GameID: "g2", Type: model.Hit, SequenceIndex: model.Index(1)},
				{EventKey: "mine", GameID: "g1", Type: model.Pass, SequenceIndex: model.Index(1)},
				{EventKey: "s", GameID: "g1", Type: model.Shot, SequenceIndex: model.Index(2)},
			}

			Convey("Then only the same game is considered", func() {
				c := r.Build(events)[0]
				So(cmp.Diff([]string{"mine", "s"}, keys(c)), ShouldBeEmpty)
			})
		})

		Convey("When both a key and a sequence predecessor exist", func() {
			events := []model.Event{
				{EventKey: "keyed", GameID: "g1", Type: model.Hit, SequenceIndex: model.Index(1)},
				{EventKey: "adjacent", GameID: "g1", Type: model.Pass, SequenceIndex: model.Index(2)},
				{EventKey: "s", GameID: "g1", Type: model.Shot, SequenceIndex: model.Index(3), LinkedEventKey: "keyed"},
			}

			Convey("Then the key wins", func() {
				c := r.Build(events)[0]
				So(cmp.Diff([]string{"keyed", "s"}, keys(c)), ShouldBeEmpty)
			})
		})

		Convey("When a linked key misses but a sequence predecessor exists", func() {
			events := []model.Event{
				{EventKey: "adjacent", GameID: "g1", Type: model.Pass, SequenceIndex: model.Index(2)},
				{EventKey: "s", GameID: "g1", Type: model.Shot, SequenceIndex: model.Index(3), LinkedEventKey: "gone"},
			}

			Convey("Then the sequence fallback is used", func() {
				c := r.Build(events)[0]
				So(cmp.Diff([]string{"adjacent", "s"}, keys(c)), ShouldBeEmpty)
				So(c.Links, ShouldResemble, []chain.Strategy{chain.BySequence})
			})
		})

		Convey("When links form a cycle", func() {
			events := []model.Event{
				ev("a", model.Pass, "b"),
				ev("b", model.Pass, "a"),
				ev("s", model.Shot, "a"),
			}

			Convey("Then reconstruction stops at the first repeat", func() {
				c := r.Build(events)[0]
				So(cmp.Diff([]string{"b", "a", "s"}, keys(c)), ShouldBeEmpty)
				So(c.Stop, ShouldEqual, chain.StopCycle)
			})
		})

		Convey("When a shot has no reconstructable buildup", func() {
			c := r.Build([]model.Event{ev("lonely", model.Shot, "")})[0]

			Convey("Then the chain holds the shot alone", func() {
				So(c.Len(), ShouldEqual, 1)
				So(c.Terminal().EventKey, ShouldEqual, "lonely")
				So(c.Links, ShouldBeEmpty)
				So(c.Stop, ShouldEqual, chain.StopNoPredecessor)
			})
		})

		Convey("When the pool holds no shots", func() {
			So(r.Build([]model.Event{ev("a", model.Pass, "")}), ShouldBeEmpty)
		})
	})

	Convey("Given a reconstructor with a smaller cap", t, func() {
		r := chain.NewReconstructor(chain.WithMaxLength(3))
		So(r.MaxLength(), ShouldEqual, 3)

		c := r.Build(linkedRun(5))[0]
		So(cmp.Diff([]string{"e3", "e4", "shot"}, keys(c)), ShouldBeEmpty)

		Convey("And invalid caps are ignored", func() {
			So(chain.NewReconstructor(chain.WithMaxLength(0)).MaxLength(), ShouldEqual, chain.DefaultMaxLength)
		})
	})

	Convey("Given a reconstructor restricted to key links", t, func() {
		r := chain.NewReconstructor(chain.WithResolvers(func(p *chain.Pool) []chain.Resolver {
			return []chain.Resolver{chain.KeyResolver(p)}
		}))
		events := []model.Event{
			{EventKey: "a", GameID: "g1", Type: model.Pass, SequenceIndex: model.Index(1)},
			{EventKey: "s", GameID: "g1", Type: model.Shot, SequenceIndex: model.Index(2)},
		}

		Convey("Then sequence neighbours are ignored", func() {
			So(r.Build(events)[0].Len(), ShouldEqual, 1)
		})

		Convey("And the default resolvers do follow them", func() {
			So(chain.NewReconstructor().Build(events)[0].Len(), ShouldEqual, 2)
		})
	})
}

func TestResolvers(t *testing.T) {
	Convey("Given a pool with duplicated indexes", t, func() {
		events := []model.Event{
			{EventKey: "first", GameID: "g1", Type: model.Pass, SequenceIndex: model.Index(4), PlayIndex: model.Index(9)},
			{EventKey: "second", GameID: "g1", Type: model.Hit, SequenceIndex: model.Index(4), PlayIndex: model.Index(9)},
			{EventKey: "x", GameID: "g2", Type: model.Hit},
		}
		pool := chain.NewPool(events)
		So(pool.Len(), ShouldEqual, 3)

		Convey("Then the key resolver looks across games", func() {
			i, ok := chain.KeyResolver(pool).Resolve(model.Event{GameID: "g1", LinkedEventKey: "x"})
			So(ok, ShouldBeTrue)
			So(pool.Event(i).EventKey, ShouldEqual, "x")
		})

		Convey("And the sequence resolver returns the first in pool order", func() {
			i, ok := chain.SequenceResolver(pool).Resolve(model.Event{GameID: "g1", SequenceIndex: model.Index(5)})
			So(ok, ShouldBeTrue)
			So(pool.Event(i).EventKey, ShouldEqual, "first")
		})

		Convey("And the play index resolver does the same", func() {
			i, ok := chain.PlayIndexResolver(pool).Resolve(model.Event{GameID: "g1", PlayIndex: model.Index(10)})
			So(ok, ShouldBeTrue)
			So(pool.Event(i).EventKey, ShouldEqual, "first")
		})

		Convey("And missing fields skip the strategy", func() {
			_, ok := chain.KeyResolver(pool).Resolve(model.Event{GameID: "g1"})
			So(ok, ShouldBeFalse)
			_, ok = chain.SequenceResolver(pool).Resolve(model.Event{GameID: "g1"})
			So(ok, ShouldBeFalse)
			_, ok = chain.PlayIndexResolver(pool).Resolve(model.Event{GameID: "g1"})
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given chains from a small game", t, func() {
		events := []model.Event{
			ev("f", model.Faceoff, ""),
			ev("p", model.Pass, "f"),
			ev("s", model.Shot, "p"),
			ev("t", model.Takeaway, "s"),
			ev("g", model.Goal, "t"),
		}
		sum := chain.Summarize(chain.NewReconstructor().Build(events))

		Convey("Then counts and averages reflect both chains", func() {
			So(sum.Chains, ShouldEqual, 2)
			So(sum.Shots, ShouldEqual, 1)
			So(sum.Goals, ShouldEqual, 1)
			So(sum.AverageLength, ShouldEqual, 2.5)
			So(sum.Preceding, ShouldResemble, map[model.EventType]int{model.Faceoff: 1, model.Pass: 1, model.Takeaway: 1})
			So(sum.Links[chain.ByKey], ShouldEqual, 3)
			So(sum.Stops[chain.StopNoPredecessor], ShouldEqual, 1)
			So(sum.Stops[chain.StopTerminal], ShouldEqual, 1)
		})
	})

	Convey("Given no chains", t, func() {
		sum := chain.Summarize(nil)
		So(sum.Chains, ShouldEqual, 0)
		So(sum.AverageLength, ShouldEqual, 0)
	})
}
