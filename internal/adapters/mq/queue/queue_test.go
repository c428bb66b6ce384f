package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/rinkline/internal/adapters/mq/queue"
	"github.com/okian/rinkline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(key string) model.Event {
	return model.Event{EventKey: key, GameID: "g1", Type: model.Pass, Period: 1}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		So(q.Len(), ShouldEqual, 0)
		So(q.Cap(), ShouldEqual, 2)

		Convey("When events are enqueued and read back", func() {
			So(q.Enqueue(ctx, event("a")), ShouldBeNil)
			So(q.Enqueue(ctx, event("b")), ShouldBeNil)
			So(q.Len(), ShouldEqual, 2)

			Convey("Then they come out in order", func() {
				first, ok := q.Next(ctx)
				So(ok, ShouldBeTrue)
				So(first.EventKey, ShouldEqual, "a")
				second, ok := q.Next(ctx)
				So(ok, ShouldBeTrue)
				So(second.EventKey, ShouldEqual, "b")
				So(q.Len(), ShouldEqual, 0)
			})

			Convey("And a third event is rejected as full", func() {
				So(errors.Is(q.Enqueue(ctx, event("c")), queue.ErrFull), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed with events buffered", func() {
			So(q.Enqueue(ctx, event("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new events are refused but buffered ones drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, event("b")), queue.ErrClosed), ShouldBeTrue)

				e, ok := q.Next(ctx)
				So(ok, ShouldBeTrue)
				So(e.EventKey, ShouldEqual, "a")

				_, ok = q.Next(ctx)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails and next returns immediately", func() {
				So(errors.Is(q.Enqueue(cctx, event("a")), context.Canceled), ShouldBeTrue)
				_, ok := q.Next(cctx)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When next waits on an empty queue", func() {
			tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, ok := q.Next(tctx)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given concurrent producers and a consumer", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					_ = q.Enqueue(ctx, event(fmt.Sprintf("%d-%d", p, i)))
				}
			}(p)
		}
		wg.Wait()
		So(q.Close(), ShouldBeNil)

		seen := 0
		for {
			if _, ok := q.Next(ctx); !ok {
				break
			}
			seen++
		}
		So(seen, ShouldEqual, 400)
	})
}
