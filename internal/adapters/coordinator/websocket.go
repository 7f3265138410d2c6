// Package coordinator connects the sync controller to the classroom
// coordinator over a websocket.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/dilemma/internal/livesync"
)

const (
	defaultWriteTimeout     = 5 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
)

// ErrEmptyURL is returned when no coordinator address is configured.
var ErrEmptyURL = errors.New("coordinator url is empty")

// Dialer opens websocket connections to one coordinator URL.
type Dialer struct {
	url          string
	writeTimeout time.Duration
	header       http.Header
	dialer       *websocket.Dialer
}

// Option configures a Dialer.
type Option func(*Dialer)

// WithWriteTimeout bounds every write when the context has no deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Dialer) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

// WithHeader adds handshake headers.
func WithHeader(h http.Header) Option {
	return func(w *Dialer) { w.header = h }
}

// NewDialer creates a dialer for url.
func NewDialer(url string, opts ...Option) *Dialer {
	d := &Dialer{
		url:          url,
		writeTimeout: defaultWriteTimeout,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial implements livesync.Dialer.
func (d *Dialer) Dial(ctx context.Context) (livesync.Conn, error) {
	if d.url == "" {
		return nil, ErrEmptyURL
	}
	ws, resp, err := d.dialer.DialContext(ctx, d.url, d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.url, err)
	}
	return &conn{ws: ws, writeTimeout: d.writeTimeout}, nil
}

// conn serializes writes; gorilla allows one concurrent reader and one writer.
type conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *conn) Send(ctx context.Context, m livesync.Message) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.writeTimeout)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteJSON(m)
}

// Receive skips frames that are not valid messages.
func (c *conn) Receive() (livesync.Message, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return livesync.Message{}, err
		}
		var m livesync.Message
		if err := json.Unmarshal(data, &m); err != nil || m.Kind == "" {
			continue
		}
		return m, nil
	}
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
