package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

type fakeConn struct {
	in       chan []byte
	done     chan struct{}
	once     sync.Once
	autoPong bool

	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn(autoPong bool) *fakeConn {
	return &fakeConn{
		in:       make(chan []byte, 16),
		done:     make(chan struct{}),
		autoPong: autoPong,
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.done:
		return nil, errors.New("connection lost")
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return errors.New("connection lost")
	default:
	}

	c.mu.Lock()
	c.writes = append(c.writes, data)
	c.mu.Unlock()

	if c.autoPong {
		var env syncplay.Envelope
		if err := json.Unmarshal(data, &env); err == nil && env.MessageType == "Ping" {
			var ping syncplay.Ping
			_ = json.Unmarshal(env.Data, &ping)
			pong, _ := syncplay.EncodeMessage(syncplay.Pong{Sequence: ping.Sequence})
			select {
			case c.in <- pong:
			case <-c.done:
			}
		}
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) fail() { c.Close() }

type fakeDialer struct {
	mu          sync.Mutex
	failBefore  int
	dials       int
	autoPong    bool
	connections []*fakeConn
}

func (d *fakeDialer) Dial(_ context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.dials <= d.failBefore {
		return nil, errors.New("dial refused")
	}
	conn := newFakeConn(d.autoPong)
	d.connections = append(d.connections, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func testConfig() Config {
	return Config{
		PingInterval:   20 * time.Millisecond,
		PongDeadline:   15 * time.Millisecond,
		BackoffInitial: 5 * time.Millisecond,
		BackoffMax:     20 * time.Millisecond,
		MaxAttempts:    5,
	}
}

func waitReconnect(t *testing.T, states <-chan ReconnectState, match func(ReconnectState) bool) ReconnectState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case state := <-states:
			if match(state) {
				return state
			}
		case <-deadline:
			t.Fatalf("timed out waiting for reconnect state")
		}
	}
}

func TestReconnectRecoversAndResetsAttempts(t *testing.T) {
	dialer := &fakeDialer{failBefore: 2}
	client := NewClient(zap.NewNop(), dialer, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := client.Reconnects.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	waitReconnect(t, states, func(s ReconnectState) bool { return s.Attempt == 2 && !s.Terminal })
	connected := waitReconnect(t, states, func(s ReconnectState) bool { return s.Attempt == 0 })
	if connected.Terminal {
		t.Fatalf("unexpected terminal state")
	}
	if dialer.dialCount() != 3 {
		t.Fatalf("expected 3 dials, got %d", dialer.dialCount())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestReconnectExhaustionIsTerminal(t *testing.T) {
	dialer := &fakeDialer{failBefore: 100}
	cfg := testConfig()
	cfg.MaxAttempts = 3
	client := NewClient(zap.NewNop(), dialer, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := client.Reconnects.Subscribe(ctx)

	err := client.Run(ctx)
	if !errors.Is(err, ErrReconnectExhausted) {
		t.Fatalf("expected ErrReconnectExhausted, got %v", err)
	}

	terminal := waitReconnect(t, states, func(s ReconnectState) bool { return s.Terminal })
	if terminal.Attempt != 3 {
		t.Fatalf("expected 3 attempts, got %d", terminal.Attempt)
	}
	if dialer.dialCount() != 3 {
		t.Fatalf("expected 3 dials, got %d", dialer.dialCount())
	}
}

func TestReconnectSingleFlight(t *testing.T) {
	dialer := &fakeDialer{failBefore: 4}
	cfg := testConfig()
	cfg.BackoffInitial = 30 * time.Millisecond
	cfg.BackoffMax = 30 * time.Millisecond
	client := NewClient(zap.NewNop(), dialer, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if n := client.ActiveReconnects(); n > 1 {
			t.Fatalf("expected at most one reconnection in flight, got %d", n)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
}

func TestPingPongFeedsQualityMonitor(t *testing.T) {
	dialer := &fakeDialer{autoPong: true}
	client := NewClient(zap.NewNop(), dialer, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quality := client.Quality.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case q := <-quality:
			if q == QualityGood {
				if client.AverageRTT() <= 0 {
					t.Fatalf("expected a positive average rtt")
				}
				cancel()
				<-done
				return
			}
		case <-deadline:
			t.Fatalf("never reached good quality")
		}
	}
}

func TestInboundMessagesForwarded(t *testing.T) {
	dialer := &fakeDialer{}
	client := NewClient(zap.NewNop(), dialer, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	var conn *fakeConn
	deadline := time.Now().Add(time.Second)
	for conn == nil && time.Now().Before(deadline) {
		dialer.mu.Lock()
		if len(dialer.connections) > 0 {
			conn = dialer.connections[0]
		}
		dialer.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	if conn == nil {
		t.Fatalf("never connected")
	}

	frame, _ := syncplay.EncodeMessage(syncplay.Command{GroupID: "g1", Type: syncplay.CommandPause})
	conn.in <- frame

	select {
	case msg := <-client.Messages():
		cmd, ok := msg.(syncplay.Command)
		if !ok || cmd.Type != syncplay.CommandPause {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message not forwarded")
	}

	// Transport failure while connected triggers the reconnect path.
	states := client.Reconnects.Subscribe(ctx)
	conn.fail()
	waitReconnect(t, states, func(s ReconnectState) bool { return s.Attempt == 1 })

	cancel()
	<-done
}
