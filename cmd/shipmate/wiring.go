package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/channel"
	"github.com/mikey-austin/shipmate/internal/session"
	"github.com/mikey-austin/shipmate/internal/shipmate"
)

// wiring holds the long-lived components shared by status --watch and
// follow: the command channel and the session state machine.
type wiring struct {
	channel *channel.Client
	manager *session.Manager
}

func buildWiring(app *app) (*wiring, error) {
	socketURL, err := channel.SocketURL(app.creds.ServerURL, app.creds.Token, app.creds.DeviceID)
	if err != nil {
		return nil, err
	}
	dialer := &channel.WebsocketDialer{URL: socketURL}

	cfg := channel.Config{
		PingInterval:   msDuration(app.cfg.Channel.PingIntervalMS),
		PongDeadline:   msDuration(app.cfg.Channel.PongDeadlineMS),
		BackoffInitial: msDuration(app.cfg.Channel.BackoffInitialMS),
		BackoffMax:     msDuration(app.cfg.Channel.BackoffMaxMS),
		MaxAttempts:    app.cfg.Channel.MaxAttempts,
	}

	ch := channel.NewClient(app.log.With(zap.String("component", "channel")), dialer, cfg)
	manager := session.NewManager(app.log.With(zap.String("component", "session")), app.creds.UserID)

	return &wiring{channel: ch, manager: manager}, nil
}

func (w *wiring) runners(ctx context.Context) []shipmate.Runner {
	return []shipmate.Runner{
		{Name: "channel", Run: w.channel.Run},
		{
			Name: "session",
			Run: func(ctx context.Context) error {
				w.manager.Run(ctx,
					w.channel.Messages(),
					w.channel.Quality.Subscribe(ctx),
					w.channel.Reconnects.Subscribe(ctx),
				)
				return nil
			},
		},
	}
}

func newSupervisor(app *app) shipmate.Supervisor {
	return shipmate.Supervisor{Logger: app.log}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func msDuration(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
