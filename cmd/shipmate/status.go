package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mikey-austin/shipmate/internal/adapters/output"
	"github.com/mikey-austin/shipmate/internal/session"
	"github.com/mikey-austin/shipmate/internal/shipmate"
)

func statusCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the group this device belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			if watch {
				return watchStatus(app)
			}

			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			groups, err := app.client.ListGroups(ctx)
			if err != nil {
				return err
			}
			mine := groups[:0:0]
			for _, group := range groups {
				for _, p := range group.Participants {
					if p.UserID == app.creds.UserID {
						mine = append(mine, group)
						break
					}
				}
			}
			if len(mine) == 0 {
				return app.confirm("not in a group")
			}
			return app.printer.Print(output.GroupsResult{Groups: mine})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "stay connected and update live")
	return cmd
}

// watchStatus mirrors the session over the command channel without driving
// any local playback.
func watchStatus(app *app) error {
	ctx, cancel := signalContext()
	defer cancel()

	wiring, err := buildWiring(app)
	if err != nil {
		return err
	}

	runners := wiring.runners(ctx)
	runners = append(runners, statusLineRunner(app, wiring.manager))

	supervisor := newSupervisor(app)
	return supervisor.Run(ctx, runners)
}

func statusLineRunner(app *app, manager *session.Manager) shipmate.Runner {
	return shipmate.Runner{
		Name: "status",
		Run: func(ctx context.Context) error {
			sessions := manager.Sessions.Subscribe(ctx)

			if app.json {
				for {
					select {
					case <-ctx.Done():
						return nil
					case snapshot, ok := <-sessions:
						if !ok {
							return nil
						}
						if err := app.printer.Print(output.SessionResult{Session: snapshot}); err != nil {
							return err
						}
					}
				}
			}

			area, err := pterm.DefaultArea.Start()
			if err != nil {
				return err
			}
			defer func() { _ = area.Stop() }()

			area.Update(output.StatusLine(manager.Snapshot()))
			for {
				select {
				case <-ctx.Done():
					return nil
				case snapshot, ok := <-sessions:
					if !ok {
						return nil
					}
					area.Update(output.StatusLine(snapshot))
				}
			}
		},
	}
}
