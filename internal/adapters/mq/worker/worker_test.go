package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/rinkline/internal/adapters/mq/queue"
	"github.com/okian/rinkline/internal/adapters/mq/worker"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockSaver records saved events and fails keys listed in failures
// the given number of times.
type mockSaver struct {
	mu       sync.Mutex
	saved    map[string]model.Event
	failures map[string]int
	calls    map[string]int
}

func newMockSaver() *mockSaver {
	return &mockSaver{
		saved:    make(map[string]model.Event),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (m *mockSaver) Save(_ context.Context, ev model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[ev.EventKey]++
	if m.failures[ev.EventKey] > 0 {
		m.failures[ev.EventKey]--
		return errors.New("disk busy")
	}
	m.saved[ev.EventKey] = ev
	return nil
}

func (m *mockSaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func (m *mockSaver) callsFor(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func event(key string) model.Event {
	return model.Event{EventKey: key, GameID: "g1", Type: model.Shot, Period: 1}
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool over a queue", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		saver := newMockSaver()

		var failedMu sync.Mutex
		var failedKeys []string
		pool := worker.NewPool(3, q, saver,
			worker.WithRetries(2),
			worker.WithBackoff(time.Millisecond),
			worker.WithFailureHandler(func(_ context.Context, ev model.Event, _ error) {
				failedMu.Lock()
				failedKeys = append(failedKeys, ev.EventKey)
				failedMu.Unlock()
			}),
		)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When events are enqueued and the pool shuts down", func() {
			pool.Start(ctx)
			pool.Start(ctx)
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, event(fmt.Sprintf("e%d", i))), convey.ShouldBeNil)
			}
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then every event is persisted before shutdown returns", func() {
				convey.So(saver.count(), convey.ShouldEqual, 50)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(50))
				convey.So(pool.Failed(), convey.ShouldEqual, int64(0))
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a save fails transiently", func() {
			saver.failures["flaky"] = 2
			pool.Start(ctx)
			convey.So(q.Enqueue(ctx, event("flaky")), convey.ShouldBeNil)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the retry succeeds", func() {
				convey.So(saver.callsFor("flaky"), convey.ShouldEqual, 3)
				convey.So(saver.count(), convey.ShouldEqual, 1)
				convey.So(failedKeys, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a save keeps failing", func() {
			saver.failures["broken"] = 10
			pool.Start(ctx)
			convey.So(q.Enqueue(ctx, event("broken")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, event("fine")), convey.ShouldBeNil)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the failure handler receives it", func() {
				convey.So(saver.callsFor("broken"), convey.ShouldEqual, 3)
				convey.So(failedKeys, convey.ShouldResemble, []string{"broken"})
				convey.So(pool.Failed(), convey.ShouldEqual, int64(1))
				convey.So(pool.Processed(), convey.ShouldEqual, int64(1))
			})
		})
	})
}

func TestWorkerCancellation(t *testing.T) {
	convey.Convey("Given a single worker on an open queue", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		q := queue.NewInMemoryQueue()
		w := worker.NewWorker(q, newMockSaver(), worker.WithName("solo"))

		convey.Convey("When its context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}
