package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/adapters/clock"
	"github.com/mikey-austin/shipmate/internal/control"
	"github.com/mikey-austin/shipmate/internal/player"
	"github.com/mikey-austin/shipmate/internal/shipmate"
	"github.com/mikey-austin/shipmate/internal/syncer"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

const defaultPipeline = "playbin uri={url} volume={volume}"

func followCommand() *cobra.Command {
	var groupID string
	var noPlayer bool

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Stay in the group and mirror its playback locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := signalContext()
			defer cancel()

			if groupID != "" {
				jctx, jcancel := withTimeout(ctx, app.timeout)
				err := app.client.JoinGroup(jctx, groupID)
				jcancel()
				if err != nil {
					return err
				}
			}

			wiring, err := buildWiring(app)
			if err != nil {
				return err
			}

			runners := wiring.runners(ctx)
			if !noPlayer {
				if r, ok := playbackRunner(app, wiring); ok {
					runners = append(runners, r)
				}
			}
			runners = append(runners,
				reporterRunner(app, wiring),
				statusLineRunner(app, wiring.manager),
			)

			return newSupervisor(app).Run(ctx, runners)
		},
	}

	cmd.Flags().StringVarP(&groupID, "group", "g", "", "group to join before following")
	cmd.Flags().BoolVar(&noPlayer, "no-player", false, "follow state only, no local playback")
	return cmd
}

// playbackRunner wires the sync adapter to a local GStreamer pipeline. A
// missing gstreamer build leaves follow running as a state mirror.
func playbackRunner(app *app, w *wiring) (shipmate.Runner, bool) {
	pipeline := app.cfg.Player.Pipeline
	if pipeline == "" {
		pipeline = defaultPipeline
	}

	driver, err := player.NewDriver(pipeline, app.cfg.Player.Device)
	if err != nil {
		app.log.Warn("local playback unavailable", zap.Error(err))
		return shipmate.Runner{}, false
	}
	if app.cfg.Player.Volume > 0 {
		_ = driver.SetVolume(app.cfg.Player.Volume)
	}

	local := player.NewLocal(driver, nil)
	catalog := control.NewStreamCatalog(app.creds)
	adapter := syncer.NewAdapter(
		app.log.With(zap.String("component", "syncer")),
		local,
		catalog,
		syncer.Config{
			Tolerance: app.cfg.Sync.Tolerance(),
			OnError: func(err error) {
				app.log.Warn("playback fell out of sync", zap.Error(err))
			},
		},
	)

	return shipmate.Runner{
		Name: "syncer",
		Run: func(ctx context.Context) error {
			adapter.Run(ctx, w.manager.Sessions.Subscribe(ctx), w.manager.Commands.Subscribe(ctx))
			return nil
		},
	}, true
}

// reporterRunner announces readiness and keeps the server's RTT view fresh.
func reporterRunner(app *app, w *wiring) shipmate.Runner {
	clk := clock.Clock{}

	report := func() syncplay.PlaybackReport {
		s := w.manager.Snapshot()
		item := ""
		if current, ok := s.CurrentItem(); ok {
			item = current.PlaylistItemID
		}
		return syncplay.PlaybackReport{
			When:           clk.Now(),
			PositionTicks:  syncplay.DurationToTicks(s.Position),
			IsPlaying:      !s.IsPaused,
			PlaylistItemID: item,
		}
	}

	return shipmate.Runner{
		Name: "reporter",
		Run: func(ctx context.Context) error {
			rctx, rcancel := context.WithTimeout(ctx, app.timeout)
			err := app.client.Ready(rctx, report())
			rcancel()
			if err != nil {
				app.log.Warn("ready report failed", zap.Error(err))
			}

			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					// Tell the group we are gone; ctx is already cancelled
					// so the farewell gets its own deadline.
					nctx, ncancel := context.WithTimeout(context.Background(), app.timeout)
					_ = app.client.NotReady(nctx, report())
					ncancel()
					return nil
				case <-ticker.C:
					pctx, pcancel := context.WithTimeout(ctx, app.timeout)
					err := app.client.Ping(pctx, w.channel.AverageRTT().Milliseconds())
					pcancel()
					if err != nil {
						app.log.Debug("ping report failed", zap.Error(err))
					}
				}
			}
		},
	}
}
