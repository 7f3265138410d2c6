// Package livesync keeps the local tournament in step with the classroom
// coordinator: it owns the socket, fetches the merged source, submits
// strategies and triggers reruns when the merged source changes.
package livesync

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/dilemma/pkg/logger"
	"github.com/okian/dilemma/pkg/metrics"
)

// Default controller configuration.
const (
	defaultFirstConnectDelay = 200 * time.Millisecond
	defaultStreamInterval    = 5 * time.Second
	defaultPrivileged        = "teacher"
)

// ChangeFunc receives a merged source that differs from the last applied one.
type ChangeFunc func(ctx context.Context, source string)

// Controller is the synchronization state machine. All state changes go
// through mu; callbacks run outside it.
type Controller struct {
	dialer     Dialer
	identity   string
	privileged string
	firstDelay time.Duration
	interval   time.Duration
	logger     logger.Logger

	mu         sync.Mutex
	status     Status
	attempt    int
	conn       Conn
	connGen    uint64
	lastSource string
	hasSource  bool
	streaming  bool
	submitted  [2]bool
	lastError  string

	onChange    []ChangeFunc
	onSubmitted []func(position int)
}

// Option configures a Controller.
type Option func(*Controller)

// WithIdentity sets the author name sent with submissions.
func WithIdentity(name string) Option {
	return func(c *Controller) { c.identity = name }
}

// WithPrivilegedIdentity sets the identity allowed to toggle streaming.
func WithPrivilegedIdentity(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.privileged = name
		}
	}
}

// WithFirstConnectDelay sets the delay before the automatic connect.
func WithFirstConnectDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.firstDelay = d
		}
	}
}

// WithStreamInterval sets how often the merged source is requested while streaming.
func WithStreamInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a disconnected controller.
func New(dialer Dialer, opts ...Option) *Controller {
	c := &Controller{
		dialer:     dialer,
		privileged: defaultPrivileged,
		firstDelay: defaultFirstConnectDelay,
		interval:   defaultStreamInterval,
		logger:     logger.Get().Named("livesync"),
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.UpdateConnectionState(int(Disconnected))
	return c
}

// OnChange registers a callback for new or changed merged source.
// Register before Start.
func (c *Controller) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// OnSubmitted registers a callback for submit acknowledgments.
func (c *Controller) OnSubmitted(fn func(position int)) {
	c.mu.Lock()
	c.onSubmitted = append(c.onSubmitted, fn)
	c.mu.Unlock()
}

// Start schedules the single automatic connect and runs the streaming
// timer until ctx is done.
func (c *Controller) Start(ctx context.Context) {
	go func() {
		first := time.NewTimer(c.firstDelay)
		defer first.Stop()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.Close()
				return
			case <-first.C:
				if err := c.Reconnect(ctx); err != nil {
					c.logger.Warn(ctx, "initial connect failed", logger.Error(err))
				}
			case <-ticker.C:
				if !c.shouldStream() {
					continue
				}
				if err := c.Get(ctx); err != nil {
					c.logger.Debug(ctx, "streaming fetch skipped", logger.Error(err))
				}
			}
		}
	}()
}

func (c *Controller) shouldStream() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming && c.status == Connected
}

// Reconnect drops any existing connection and dials a new one. The attempt
// counter grows with each call and resets on success.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	c.attempt++
	c.connGen++
	gen := c.connGen
	old := c.conn
	c.conn = nil
	c.setStatus(Connecting)
	attempt := c.attempt
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	metrics.RecordConnectionAttempt()
	c.logger.Info(ctx, "connecting to coordinator", logger.Int("attempt", attempt))

	conn, err := c.dialer.Dial(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.connGen {
		// a newer Reconnect or Close took over
		if conn != nil {
			_ = conn.Close()
		}
		return fmt.Errorf("%w: superseded by a newer attempt", ErrConnectivity)
	}
	if err != nil {
		c.lastError = err.Error()
		c.setStatus(Disconnected)
		metrics.RecordErrorByComponent("livesync", "dial")
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	c.conn = conn
	c.attempt = 0
	c.lastError = ""
	c.setStatus(Connected)
	go c.readLoop(context.WithoutCancel(ctx), conn, gen)
	return nil
}

// Close drops the connection and leaves the controller disconnected.
func (c *Controller) Close() {
	c.mu.Lock()
	c.connGen++
	conn := c.conn
	c.conn = nil
	c.setStatus(Disconnected)
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// setStatus must be called with mu held.
func (c *Controller) setStatus(s Status) {
	c.status = s
	metrics.UpdateConnectionState(int(s))
}

func (c *Controller) readLoop(ctx context.Context, conn Conn, gen uint64) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			c.mu.Lock()
			current := gen == c.connGen
			if current {
				c.conn = nil
				c.lastError = err.Error()
				c.setStatus(Disconnected)
			}
			c.mu.Unlock()
			if current {
				metrics.RecordErrorByComponent("livesync", "receive")
				c.logger.Warn(ctx, "coordinator connection closed", logger.Error(err))
			}
			_ = conn.Close()
			return
		}
		metrics.RecordSyncMessage(msg.Kind, "in")
		c.handle(ctx, msg)
	}
}

func (c *Controller) handle(ctx context.Context, msg Message) {
	switch msg.Kind {
	case KindGet:
		c.apply(ctx, Compose(msg.Base, msg.BotNames))
	case KindSubmitted:
		if msg.Position < 1 || msg.Position > len(c.submitted) {
			c.logger.Warn(ctx, "acknowledgment for unknown slot", logger.Int("position", msg.Position))
			return
		}
		c.mu.Lock()
		c.submitted[msg.Position-1] = true
		hooks := append([]func(int){}, c.onSubmitted...)
		c.mu.Unlock()
		metrics.RecordSubmission(strconv.Itoa(msg.Position), "acknowledged")
		for _, fn := range hooks {
			fn(msg.Position)
		}
	default:
		c.logger.Warn(ctx, "unexpected coordinator message", logger.String("kind", msg.Kind))
	}
}

// apply treats source as a full replacement and fires OnChange only when it
// differs from the last applied document or nothing was applied yet.
func (c *Controller) apply(ctx context.Context, source string) {
	c.mu.Lock()
	changed := !c.hasSource || source != c.lastSource
	if changed {
		c.lastSource = source
		c.hasSource = true
	}
	hooks := append([]ChangeFunc(nil), c.onChange...)
	c.mu.Unlock()

	if !changed {
		metrics.RecordRerunDecision("skipped")
		c.logger.Debug(ctx, "merged source unchanged")
		return
	}
	metrics.RecordRerunDecision("triggered")
	c.logger.Info(ctx, "merged source changed", logger.Int("bytes", len(source)))
	for _, fn := range hooks {
		fn(ctx, source)
	}
}

func (c *Controller) live() (Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Connected || c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// Get asks the coordinator for the merged source.
func (c *Controller) Get(ctx context.Context) error {
	conn, err := c.live()
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, Message{Kind: KindGet}); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	metrics.RecordSyncMessage(KindGet, "out")
	return nil
}

// Submit sends code for slot position (1 or 2). The slot's submitted flag is
// cleared until the coordinator acknowledges it.
func (c *Controller) Submit(ctx context.Context, position int, code string) error {
	if position < 1 || position > len(c.submitted) {
		return fmt.Errorf("%w: got %d", ErrInvalidPosition, position)
	}
	if c.identity == "" {
		return ErrMissingIdentity
	}
	conn, err := c.live()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.submitted[position-1] = false
	c.mu.Unlock()

	msg := Message{Kind: KindSubmit, MyName: c.identity, Position: position, Code: code}
	if err := conn.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	metrics.RecordSyncMessage(KindSubmit, "out")
	metrics.RecordSubmission(strconv.Itoa(position), "sent")
	return nil
}

// SetStreaming toggles periodic fetching. Only the privileged identity may
// change it.
func (c *Controller) SetStreaming(identity string, on bool) error {
	if identity != c.privileged {
		return ErrNotPrivileged
	}
	c.mu.Lock()
	c.streaming = on
	c.mu.Unlock()
	return nil
}

// Identity returns the author name used for submissions.
func (c *Controller) Identity() string {
	return c.identity
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Status:     c.status,
		Attempt:    c.attempt,
		Streaming:  c.streaming,
		HasSource:  c.hasSource,
		LastSource: c.lastSource,
		Submitted:  c.submitted,
		LastError:  c.lastError,
	}
}
