package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

func playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Resume group playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.Unpause(ctx); err != nil {
				return err
			}
			return app.confirm("play requested")
		},
	}
}

func pauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause group playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.Pause(ctx); err != nil {
				return err
			}
			return app.confirm("pause requested")
		},
	}
}

func stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop group playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.Stop(ctx); err != nil {
				return err
			}
			return app.confirm("stop requested")
		},
	}
}

func seekCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seek <position>",
		Short: "Seek within the current track (e.g. 90, 1m30s)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			position, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			if err := app.client.Seek(ctx, syncplay.DurationToTicks(position)); err != nil {
				return err
			}
			return app.confirm(fmt.Sprintf("seek to %s requested", position))
		},
	}
}

func nextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next [playlist-item-id]",
		Short: "Skip to the next queue item",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			current := ""
			if len(args) == 1 {
				current = args[0]
			}
			if err := app.client.NextItem(ctx, current); err != nil {
				return err
			}
			return app.confirm("next requested")
		},
	}
}

func prevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prev [playlist-item-id]",
		Short: "Return to the previous queue item",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			current := ""
			if len(args) == 1 {
				current = args[0]
			}
			if err := app.client.PreviousItem(ctx, current); err != nil {
				return err
			}
			return app.confirm("prev requested")
		},
	}
}

func shuffleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle <on|off>",
		Short: "Set the queue shuffle mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			mode := ""
			switch args[0] {
			case "on":
				mode = syncplay.ShuffleModeShuffle
			case "off":
				mode = syncplay.ShuffleModeSorted
			default:
				return fmt.Errorf("shuffle takes on|off")
			}
			if err := app.client.SetShuffleMode(ctx, mode); err != nil {
				return err
			}
			return app.confirm("shuffle " + args[0])
		},
	}
}

func repeatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repeat <none|all|one>",
		Short: "Set the queue repeat mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			mode := ""
			switch args[0] {
			case "none":
				mode = syncplay.RepeatModeNone
			case "all":
				mode = syncplay.RepeatModeAll
			case "one":
				mode = syncplay.RepeatModeOne
			default:
				return fmt.Errorf("repeat takes none|all|one")
			}
			if err := app.client.SetRepeatMode(ctx, mode); err != nil {
				return err
			}
			return app.confirm("repeat " + args[0])
		},
	}
}

// parsePosition accepts either plain seconds or a Go duration string.
func parsePosition(arg string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(arg); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("position must not be negative")
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, fmt.Errorf("position must be seconds or a duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("position must not be negative")
	}
	return d, nil
}
