package coordinator_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/okian/dilemma/internal/adapters/coordinator"
	"github.com/okian/dilemma/internal/livesync"
	"github.com/okian/dilemma/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard, false); err != nil {
		panic(err)
	}
}

// classLine is the coordinator's bot discovery rule; it only knows classes.
var classLine = regexp.MustCompile(`^class ([a-zA-Z0-9]*):.*`)

// fakeCoordinator keeps submissions in memory and answers like the
// classroom server: get returns every slot joined with path headers.
type fakeCoordinator struct {
	mu    sync.Mutex
	slots map[string]string
	// kill drops every open socket when closed.
	kill chan struct{}
}

func (f *fakeCoordinator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-f.kill:
			_ = ws.Close()
		case <-done:
		}
	}()
	for {
		var m livesync.Message
		if err := ws.ReadJSON(&m); err != nil {
			return
		}
		switch m.Kind {
		case livesync.KindSubmit:
			f.mu.Lock()
			f.slots[fmt.Sprintf("./bots/%s/code-%d", m.MyName, m.Position)] = m.Code
			f.mu.Unlock()
			_ = ws.WriteJSON(livesync.Message{Kind: livesync.KindSubmitted, Position: m.Position})
		case livesync.KindGet:
			_ = ws.WriteJSON(f.merged())
		}
	}
}

func (f *fakeCoordinator) merged() livesync.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.slots))
	for p := range f.slots {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var base strings.Builder
	var names []string
	for _, p := range paths {
		fmt.Fprintf(&base, "\n# %s\n%s", p, f.slots[p])
		for _, line := range strings.Split(f.slots[p], "\n") {
			if m := classLine.FindStringSubmatch(line); m != nil {
				names = append(names, m[1])
			}
		}
	}
	return livesync.Message{Kind: livesync.KindGet, Base: base.String(), BotNames: strings.Join(names, ", ")}
}

func startCoordinator(t *testing.T) (*httptest.Server, *fakeCoordinator, string) {
	t.Helper()
	fake := &fakeCoordinator{slots: map[string]string{}, kill: make(chan struct{})}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return srv, fake, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialerRoundTrip(t *testing.T) {
	_, _, url := startCoordinator(t)
	ctx := context.Background()

	c := livesync.New(coordinator.NewDialer(url), livesync.WithIdentity("ana"))
	sources := make(chan string, 4)
	c.OnChange(func(_ context.Context, src string) { sources <- src })
	acks := make(chan int, 4)
	c.OnSubmitted(func(p int) { acks <- p })

	require.NoError(t, c.Reconnect(ctx))
	defer c.Close()

	require.NoError(t, c.Submit(ctx, 1, "def Nice(o, t):\n    return Cooperate\n"))
	require.NoError(t, c.Submit(ctx, 2, "def Mean(o, t):\n    return Defect\n"))
	got := []int{<-acks, <-acks}
	sort.Ints(got)
	require.Equal(t, []int{1, 2}, got)

	require.NoError(t, c.Get(ctx))
	var src string
	select {
	case src = <-sources:
	case <-time.After(2 * time.Second):
		t.Fatal("no merged source received")
	}
	require.Contains(t, src, "# ./bots/ana/code-1")
	require.Contains(t, src, "run_tournament([Nice, Mean])")

	// same content again: no second change
	require.NoError(t, c.Get(ctx))
	select {
	case <-sources:
		t.Fatal("identical source triggered a change")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDialerServerGone(t *testing.T) {
	srv, fake, url := startCoordinator(t)
	c := livesync.New(coordinator.NewDialer(url, coordinator.WithWriteTimeout(time.Second)))
	require.NoError(t, c.Reconnect(context.Background()))
	require.Equal(t, livesync.Connected, c.State().Status)

	// hijacked sockets are not closed by the test server, so drop them here
	close(fake.kill)
	require.Eventually(t, func() bool { return c.State().Status == livesync.Disconnected },
		2*time.Second, 10*time.Millisecond)

	srv.Close()
	err := c.Reconnect(context.Background())
	require.ErrorIs(t, err, livesync.ErrConnectivity)
	require.Equal(t, 1, c.State().Attempt)
}

func TestDialerEmptyURL(t *testing.T) {
	_, err := coordinator.NewDialer("").Dial(context.Background())
	require.ErrorIs(t, err, coordinator.ErrEmptyURL)
}
