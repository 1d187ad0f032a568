package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/pubsub"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// ErrReconnectExhausted is returned when the reconnection budget runs out.
// The session is then terminally disconnected until the user rejoins.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// ReconnectState is the reconnection progress exposed to subscribers.
// Attempt 0 means idle/connected.
type ReconnectState struct {
	Attempt     int
	MaxAttempts int
	Terminal    bool
}

// Reconnecting reports whether a reconnection attempt is in progress.
func (s ReconnectState) Reconnecting() bool {
	return s.Attempt > 0 && !s.Terminal
}

// Config tunes the Command Channel client.
type Config struct {
	PingInterval   time.Duration
	PongDeadline   time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	MaxAttempts    int
	Thresholds     Thresholds
}

func (c Config) withDefaults() Config {
	if c.PingInterval == 0 {
		c.PingInterval = 10 * time.Second
	}
	if c.PongDeadline == 0 {
		c.PongDeadline = 8 * time.Second
	}
	if c.BackoffInitial == 0 {
		c.BackoffInitial = time.Second
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	return c
}

// Client maintains one logical Command Channel connection per group
// membership: it dials, pumps inbound frames, measures RTT via ping/pong,
// and reconnects with bounded exponential backoff. The reconnection loop is
// single-flight; Run is the only goroutine that ever dials.
type Client struct {
	log     *zap.Logger
	dialer  Dialer
	cfg     Config
	monitor *Monitor

	// Quality and Reconnects are the observable streams for subscribers.
	Quality    *pubsub.Feed[Quality]
	Reconnects *pubsub.Feed[ReconnectState]

	messages chan syncplay.Message
	pingSeq  atomic.Int64

	connMu sync.Mutex
	conn   Conn

	activeReconnects atomic.Int32
}

// NewClient creates a Command Channel client.
func NewClient(log *zap.Logger, dialer Dialer, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		log:        log,
		dialer:     dialer,
		cfg:        cfg,
		monitor:    NewMonitor(cfg.Thresholds),
		Quality:    pubsub.NewFeed[Quality](8),
		Reconnects: pubsub.NewFeed[ReconnectState](8),
		messages:   make(chan syncplay.Message, 32),
	}
}

// Messages returns the inbound message stream. It is closed when Run
// returns.
func (c *Client) Messages() <-chan syncplay.Message {
	return c.messages
}

// AverageRTT returns the rolling round-trip average.
func (c *Client) AverageRTT() time.Duration {
	return c.monitor.AverageRTT()
}

// ActiveReconnects reports how many reconnection waits are in flight.
// It is 0 or 1 by construction; exposed so tests can assert single-flight.
func (c *Client) ActiveReconnects() int32 {
	return c.activeReconnects.Load()
}

// Send writes a message on the live connection. Fails when disconnected;
// callers fall back to the Control API for ready/buffering signals.
func (c *Client) Send(msg syncplay.Message) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}
	raw, err := syncplay.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(raw)
}

// Run drives the connection for the lifetime of a group membership. It
// returns nil when ctx is cancelled (user left or logged out) and
// ErrReconnectExhausted when the retry budget is spent. The messages
// channel is closed on return.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.messages)

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := c.dialer.Dial(ctx)
		if err == nil {
			failures = 0
			c.monitor.Reset()
			c.setConn(conn)
			c.Reconnects.Publish(ReconnectState{Attempt: 0, MaxAttempts: c.cfg.MaxAttempts})
			c.Quality.Publish(c.monitor.Classify())

			serveErr := c.serve(ctx, conn)
			c.setConn(nil)
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("command channel dropped", zap.Error(serveErr))
		} else {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("command channel dial failed", zap.Error(err))
		}

		failures++
		c.Quality.Publish(QualityDisconnected)
		if failures >= c.cfg.MaxAttempts {
			c.Reconnects.Publish(ReconnectState{
				Attempt:     failures,
				MaxAttempts: c.cfg.MaxAttempts,
				Terminal:    true,
			})
			return ErrReconnectExhausted
		}

		c.Reconnects.Publish(ReconnectState{Attempt: failures, MaxAttempts: c.cfg.MaxAttempts})
		c.activeReconnects.Add(1)
		wait := c.backoff(failures)
		select {
		case <-ctx.Done():
			c.activeReconnects.Add(-1)
			return nil
		case <-time.After(wait):
		}
		c.activeReconnects.Add(-1)
	}
}

func (c *Client) setConn(conn Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) backoff(failures int) time.Duration {
	wait := c.cfg.BackoffInitial
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= c.cfg.BackoffMax {
			return c.cfg.BackoffMax
		}
	}
	if wait > c.cfg.BackoffMax {
		wait = c.cfg.BackoffMax
	}
	return wait
}

// serve pumps one live connection until it fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context, conn Conn) error {
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Pending pings, keyed by sequence. Only touched on this goroutine.
	pending := map[int64]time.Time{}

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case data := <-frames:
			c.handleFrame(ctx, data, pending)
		case now := <-ticker.C:
			c.expirePending(pending, now)
			seq := c.pingSeq.Add(1)
			pending[seq] = now
			raw, err := syncplay.EncodeMessage(syncplay.Ping{Sequence: seq, Timestamp: now.UnixMilli()})
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(raw); err != nil {
				return err
			}
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, data []byte, pending map[int64]time.Time) {
	msg, err := syncplay.DecodeMessage(data)
	if err != nil {
		var unknown *syncplay.UnknownMessageError
		if errors.As(err, &unknown) {
			c.log.Debug("dropping unknown message", zap.String("type", unknown.MessageType))
			return
		}
		c.log.Warn("invalid frame", zap.Error(err))
		return
	}

	if pong, ok := msg.(syncplay.Pong); ok {
		sent, ok := pending[pong.Sequence]
		if !ok {
			return
		}
		delete(pending, pong.Sequence)
		c.monitor.Record(time.Since(sent))
		c.Quality.Publish(c.monitor.Classify())
		return
	}

	select {
	case c.messages <- msg:
	case <-ctx.Done():
	}
}

func (c *Client) expirePending(pending map[int64]time.Time, now time.Time) {
	dropped := false
	for seq, sent := range pending {
		if now.Sub(sent) > c.cfg.PongDeadline {
			delete(pending, seq)
			c.monitor.Drop()
			dropped = true
		}
	}
	if dropped {
		c.Quality.Publish(c.monitor.Classify())
	}
}
