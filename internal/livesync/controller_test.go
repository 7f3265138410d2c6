package livesync_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okian/dilemma/internal/livesync"
	"github.com/okian/dilemma/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard, false); err != nil {
		panic(err)
	}
}

// fakeConn is an in-memory coordinator connection.
type fakeConn struct {
	sent   chan livesync.Message
	in     chan livesync.Message
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		sent:   make(chan livesync.Message, 16),
		in:     make(chan livesync.Message, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) Send(_ context.Context, m livesync.Message) error {
	select {
	case <-f.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case f.sent <- m:
	default:
	}
	return nil
}

func (f *fakeConn) Receive() (livesync.Message, error) {
	select {
	case m := <-f.in:
		return m, nil
	case <-f.closed:
		return livesync.Message{}, io.EOF
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// fakeDialer hands out queued connections or errors.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context) (livesync.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func TestControllerRequiresConnection(t *testing.T) {
	Convey("Given a controller that never connected", t, func() {
		c := livesync.New(&fakeDialer{}, livesync.WithIdentity("ana"))

		Convey("Then get and submit refuse with a clear error", func() {
			So(errors.Is(c.Get(context.Background()), livesync.ErrNotConnected), ShouldBeTrue)
			So(errors.Is(c.Submit(context.Background(), 1, "x"), livesync.ErrNotConnected), ShouldBeTrue)
			So(c.State().Status, ShouldEqual, livesync.Disconnected)
			So(c.State().Describe(), ShouldEqual, "Not connected")
		})

		Convey("Then a bad slot is rejected before connectivity", func() {
			So(errors.Is(c.Submit(context.Background(), 3, "x"), livesync.ErrInvalidPosition), ShouldBeTrue)
		})
	})

	Convey("Given a controller without identity", t, func() {
		c := livesync.New(&fakeDialer{})
		So(errors.Is(c.Submit(context.Background(), 1, "x"), livesync.ErrMissingIdentity), ShouldBeTrue)
	})
}

func TestControllerReconnect(t *testing.T) {
	Convey("Given a dialer that fails", t, func() {
		d := &fakeDialer{err: errors.New("connection refused")}
		c := livesync.New(d)

		Convey("Then each attempt increments the counter", func() {
			So(errors.Is(c.Reconnect(context.Background()), livesync.ErrConnectivity), ShouldBeTrue)
			So(c.Reconnect(context.Background()), ShouldNotBeNil)
			st := c.State()
			So(st.Attempt, ShouldEqual, 2)
			So(st.Status, ShouldEqual, livesync.Disconnected)
			So(st.LastError, ShouldContainSubstring, "refused")

			Convey("And success resets it", func() {
				d.mu.Lock()
				d.err = nil
				d.mu.Unlock()
				So(c.Reconnect(context.Background()), ShouldBeNil)
				So(c.State().Attempt, ShouldEqual, 0)
				So(c.State().Status, ShouldEqual, livesync.Connected)
				So(c.State().Describe(), ShouldEqual, "Connected")
				c.Close()
			})
		})
	})
}

func TestControllerFetchIdempotence(t *testing.T) {
	d := &fakeDialer{}
	c := livesync.New(d)
	var (
		mu   sync.Mutex
		runs []string
	)
	c.OnChange(func(_ context.Context, src string) {
		mu.Lock()
		runs = append(runs, src)
		mu.Unlock()
	})
	runCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(runs)
	}
	require.NoError(t, c.Reconnect(context.Background()))
	defer c.Close()
	conn := d.last()

	require.NoError(t, c.Get(context.Background()))
	require.Equal(t, livesync.KindGet, (<-conn.sent).Kind)

	reply := livesync.Message{Kind: livesync.KindGet, Base: "def A(o, t):\n\treturn Cooperate\n", BotNames: "A"}
	conn.in <- reply
	require.Eventually(t, func() bool { return runCount() == 1 }, time.Second, 5*time.Millisecond)

	// identical content: no rerun
	conn.in <- reply
	conn.in <- reply
	require.Eventually(t, func() bool { return c.State().HasSource }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, runCount())

	st := c.State()
	require.Contains(t, st.LastSource, "    return Cooperate")
	require.Contains(t, st.LastSource, "run_tournament([A])")

	// changed content: one more rerun
	reply.BotNames = "A, A"
	conn.in <- reply
	require.Eventually(t, func() bool { return runCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestControllerSubmitSlots(t *testing.T) {
	d := &fakeDialer{}
	c := livesync.New(d, livesync.WithIdentity("ana"))
	acks := make(chan int, 4)
	c.OnSubmitted(func(p int) { acks <- p })
	require.NoError(t, c.Reconnect(context.Background()))
	defer c.Close()
	conn := d.last()

	require.NoError(t, c.Submit(context.Background(), 1, "code one"))
	require.NoError(t, c.Submit(context.Background(), 2, "code two"))
	first, second := <-conn.sent, <-conn.sent
	require.Equal(t, livesync.Message{Kind: livesync.KindSubmit, MyName: "ana", Position: 1, Code: "code one"}, first)
	require.Equal(t, 2, second.Position)

	conn.in <- livesync.Message{Kind: livesync.KindSubmitted, Position: 1}
	require.Equal(t, 1, <-acks)
	st := c.State()
	require.True(t, st.IsSubmitted(1))
	require.False(t, st.IsSubmitted(2))

	conn.in <- livesync.Message{Kind: livesync.KindSubmitted, Position: 2}
	require.Equal(t, 2, <-acks)
	require.True(t, c.State().IsSubmitted(2))

	// resubmitting slot 1 clears only slot 1
	require.NoError(t, c.Submit(context.Background(), 1, "code one v2"))
	st = c.State()
	require.False(t, st.IsSubmitted(1))
	require.True(t, st.IsSubmitted(2))
}

func TestControllerConnectionLoss(t *testing.T) {
	d := &fakeDialer{}
	c := livesync.New(d)
	require.NoError(t, c.Reconnect(context.Background()))
	conn := d.last()

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return c.State().Status == livesync.Disconnected },
		time.Second, 5*time.Millisecond)
	require.ErrorIs(t, c.Get(context.Background()), livesync.ErrNotConnected)

	// recovery is explicit
	require.NoError(t, c.Reconnect(context.Background()))
	require.Equal(t, livesync.Connected, c.State().Status)
	require.Equal(t, 2, d.count())
	c.Close()
}

func TestControllerStartAndStreaming(t *testing.T) {
	d := &fakeDialer{}
	c := livesync.New(d,
		livesync.WithFirstConnectDelay(5*time.Millisecond),
		livesync.WithStreamInterval(10*time.Millisecond),
		livesync.WithPrivilegedIdentity("teacher"),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	require.Eventually(t, func() bool { return c.State().Status == livesync.Connected },
		time.Second, 5*time.Millisecond)
	require.Equal(t, 1, d.count())

	require.ErrorIs(t, c.SetStreaming("student", true), livesync.ErrNotPrivileged)
	require.NoError(t, c.SetStreaming("teacher", true))
	require.True(t, c.State().Streaming)

	conn := d.last()
	select {
	case m := <-conn.sent:
		require.Equal(t, livesync.KindGet, m.Kind)
	case <-time.After(time.Second):
		t.Fatal("streaming did not request the merged source")
	}

	cancel()
	require.Eventually(t, func() bool { return c.State().Status == livesync.Disconnected },
		time.Second, 5*time.Millisecond)
	require.Equal(t, 1, d.count())
}

func TestCompose(t *testing.T) {
	Convey("Given a coordinator reply", t, func() {
		doc := livesync.Compose("def A(o, t):\n\treturn Defect", "A, B")

		Convey("Then the document ends with the tournament call", func() {
			So(doc, ShouldStartWith, "# Classroom tournament")
			So(doc, ShouldContainSubstring, "def A(o, t):\n    return Defect\n")
			So(doc, ShouldEndWith, "\nrun_tournament([A, B])\n")
		})

		Convey("Then names missing from the reply are discovered in the source", func() {
			base := "\n# ./bots/ana/code-1\ndef Nice(o, t):\n    return Cooperate\n" +
				"def helper(x):\n    return x\n" +
				"\n# ./bots/bo/code-1\ndef Mean (o, t):\n    return Defect\n" +
				"def Nice(o, t):\n    return Defect\n" +
				"    def Inner(o, t):\n        pass\n"
			So(livesync.DiscoverBots(base), ShouldResemble, []string{"Nice", "Mean"})
			So(livesync.Compose(base, ""), ShouldEndWith, "\nrun_tournament([Nice, Mean])\n")
			So(livesync.Compose(base, "  "), ShouldEndWith, "\nrun_tournament([Nice, Mean])\n")
		})

		Convey("Then composing is deterministic", func() {
			So(livesync.Compose("x = 1\n", "A"), ShouldEqual, livesync.Compose("x = 1\n", "A"))
		})
	})
}
