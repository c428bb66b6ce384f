package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/okian/rinkline/internal/adapters/repository"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	s, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleEvent(key, game string, typ model.EventType) model.Event {
	return model.Event{
		EventKey: key,
		GameID:   game,
		Type:     typ,
		Period:   2,
		Team:     rink.Home,
		Zone:     rink.Offensive,
		PuckPositions: []rink.RinkPosition{
			{X: 10, Y: -5.5},
		},
		Players: []model.Player{
			{ID: "p9", Role: "shooter", Positions: []rink.RinkPosition{{X: 10, Y: -5.5}}},
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := openStore(t)

		n, err := s.Count(ctx)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)

		Convey("When an event is saved", func() {
			ev := sampleEvent("e1", "g1", model.Shot)
			ev.SequenceIndex = model.Index(4)
			ev.LinkedEventKey = "e0"
			So(s.Save(ctx, ev), ShouldBeNil)

			Convey("Then it reads back unchanged", func() {
				got, err := s.Get(ctx, "e1")
				So(err, ShouldBeNil)
				So(cmp.Diff(ev, got), ShouldBeEmpty)
				So(got.PlayIndex, ShouldBeNil)
			})

			Convey("And saving the key again replaces it in place", func() {
				So(s.Save(ctx, sampleEvent("e2", "g1", model.Pass)), ShouldBeNil)
				ev.Type = model.Goal
				So(s.Save(ctx, ev), ShouldBeNil)

				events, err := s.ListGame(ctx, "g1", 10)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].EventKey, ShouldEqual, "e1")
				So(events[0].Type, ShouldEqual, model.Goal)
			})
		})

		Convey("When events from several games arrive", func() {
			for i := 0; i < 5; i++ {
				So(s.Save(ctx, sampleEvent(fmt.Sprintf("a%d", i), "g-a", model.Pass)), ShouldBeNil)
				So(s.Save(ctx, sampleEvent(fmt.Sprintf("b%d", i), "g-b", model.Hit)), ShouldBeNil)
			}

			Convey("Then each game lists in arrival order", func() {
				events, err := s.ListGame(ctx, "g-b", 100)
				So(err, ShouldBeNil)
				keys := make([]string, 0, len(events))
				for _, e := range events {
					keys = append(keys, e.EventKey)
					So(e.GameID, ShouldEqual, "g-b")
				}
				So(cmp.Diff([]string{"b0", "b1", "b2", "b3", "b4"}, keys), ShouldBeEmpty)
			})

			Convey("And the limit caps the pool", func() {
				events, err := s.ListGame(ctx, "g-a", 3)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 3)
				So(events[2].EventKey, ShouldEqual, "a2")
			})

			Convey("And games are listed", func() {
				games, err := s.Games(ctx)
				So(err, ShouldBeNil)
				So(games, ShouldResemble, []string{"g-a", "g-b"})
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 10)
			})
		})

		Convey("When an event lacks slices", func() {
			ev := model.Event{EventKey: "bare", GameID: "g1", Type: model.Faceoff, Period: 1}
			So(s.Save(ctx, ev), ShouldBeNil)

			Convey("Then it reads back with empty slices", func() {
				got, err := s.Get(ctx, "bare")
				So(err, ShouldBeNil)
				So(cmp.Diff(ev, got, cmpopts.EquateEmpty()), ShouldBeEmpty)
			})
		})

		Convey("When input is invalid", func() {
			err := s.Save(ctx, model.Event{GameID: "g1", Type: model.Shot})
			So(errors.Is(err, repository.ErrInvalidEvent), ShouldBeTrue)

			_, err = s.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = s.ListGame(ctx, "g1", 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When unknown games are listed", func() {
			events, err := s.ListGame(ctx, "nope", 10)
			So(err, ShouldBeNil)
			So(events, ShouldBeEmpty)
		})

		Convey("When writers run concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 40)
			for w := 0; w < 4; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 10; i++ {
						errs <- s.Save(ctx, sampleEvent(fmt.Sprintf("w%d-%d", w, i), "g1", model.Pass))
					}
				}(w)
			}
			wg.Wait()
			close(errs)

			Convey("Then every event is stored", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 40)
			})
		})
	})
}

func TestMigrations(t *testing.T) {
	Convey("Given a store opened twice on the same file", t, func() {
		So(logger.Init(), ShouldBeNil)
		path := filepath.Join(t.TempDir(), "events.db")

		first, err := repository.Open(context.Background(), path)
		So(err, ShouldBeNil)
		So(first.Save(context.Background(), sampleEvent("e1", "g1", model.Shot)), ShouldBeNil)
		So(first.Close(), ShouldBeNil)

		second, err := repository.Open(context.Background(), path)
		So(err, ShouldBeNil)
		defer second.Close()

		Convey("Then the schema is current and data survives", func() {
			version, dirty, err := repository.MigrateVersion(second.DB())
			So(err, ShouldBeNil)
			So(dirty, ShouldBeFalse)
			So(version, ShouldEqual, uint(1))

			n, err := second.Count(context.Background())
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})
}
