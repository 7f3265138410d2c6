package worker_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	worker "github.com/okian/dilemma/internal/adapters/mq/worker"
	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/sandbox"
	logging "github.com/okian/dilemma/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.InitWithWriter(io.Discard, false); err != nil {
		panic(err)
	}
}

type mockQueue struct {
	ch chan worker.Request
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan worker.Request, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan worker.Request { return mq.ch }

// mockRunner blocks on sources named "block" until release or cancellation.
type mockRunner struct {
	started chan string
	release chan struct{}
}

func newMockRunner() *mockRunner {
	return &mockRunner{started: make(chan string, 10), release: make(chan struct{})}
}

func (m *mockRunner) Run(ctx context.Context, source string) sandbox.Outcome {
	m.started <- source
	if source == "block" {
		select {
		case <-m.release:
		case <-ctx.Done():
			return sandbox.Outcome{Err: ctx.Err()}
		}
	}
	return sandbox.Outcome{Output: source, Result: model.NewTournamentResult(model.GameRecord{GameName: source})}
}

type gens struct{ v atomic.Uint64 }

func (g *gens) Current() uint64 { return g.v.Load() }

type mockSink struct {
	mu   sync.Mutex
	done []string
}

func (s *mockSink) Complete(_ context.Context, req worker.Request, o sandbox.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, req.ID+":"+o.Output)
}

func (s *mockSink) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.done...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		q := newMockQueue()
		r := newMockRunner()
		g := &gens{}
		sink := &mockSink{}
		w := worker.NewInMemoryWorker(q, r, g, sink, worker.WithName("runner-test"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a current request arrives", func() {
			g.v.Store(1)
			q.ch <- worker.Request{ID: "a", Generation: 1, Source: "one"}

			convey.Convey("Then its outcome reaches the sink", func() {
				convey.So(waitFor(func() bool { return len(sink.list()) == 1 }), convey.ShouldBeTrue)
				convey.So(sink.list()[0], convey.ShouldEqual, "a:one")
			})
		})

		convey.Convey("When a stale request is dequeued", func() {
			g.v.Store(2)
			q.ch <- worker.Request{ID: "old", Generation: 1, Source: "old"}
			q.ch <- worker.Request{ID: "new", Generation: 2, Source: "new"}

			convey.Convey("Then it is skipped without running", func() {
				convey.So(waitFor(func() bool { return len(sink.list()) == 1 }), convey.ShouldBeTrue)
				convey.So(sink.list(), convey.ShouldResemble, []string{"new:new"})
				convey.So(<-r.started, convey.ShouldEqual, "new")
			})
		})

		convey.Convey("When a newer generation arrives during a run", func() {
			g.v.Store(1)
			q.ch <- worker.Request{ID: "slow", Generation: 1, Source: "block"}
			convey.So(<-r.started, convey.ShouldEqual, "block")

			g.v.Store(2)
			w.Supersede(2)
			q.ch <- worker.Request{ID: "fresh", Generation: 2, Source: "fresh"}

			convey.Convey("Then the old run is cancelled and its result dropped", func() {
				convey.So(waitFor(func() bool { return len(sink.list()) == 1 }), convey.ShouldBeTrue)
				convey.So(sink.list(), convey.ShouldResemble, []string{"fresh:fresh"})
			})
		})

		convey.Convey("When the generation moves on but the run finishes anyway", func() {
			g.v.Store(1)
			q.ch <- worker.Request{ID: "late", Generation: 1, Source: "block"}
			<-r.started
			g.v.Store(2)
			close(r.release)

			convey.Convey("Then the stale result is not published", func() {
				time.Sleep(50 * time.Millisecond)
				convey.So(sink.list(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the worker shuts down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it exits and a second shutdown is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}
