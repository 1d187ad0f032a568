package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/shipmate/internal/control"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

func queueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the shared play queue",
	}
	cmd.AddCommand(queueAddCommand())
	cmd.AddCommand(queueRemoveCommand())
	cmd.AddCommand(queueMoveCommand())
	cmd.AddCommand(queueSetCommand())
	cmd.AddCommand(queueClearCommand())
	return cmd
}

func queueAddCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "add <item-id>...",
		Short: "Add catalog items to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			queueMode, err := parseQueueMode(mode)
			if err != nil {
				return err
			}
			if err := app.client.Queue(ctx, args, queueMode); err != nil {
				return err
			}
			return app.confirm(fmt.Sprintf("queued %d item(s)", len(args)))
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "append", "insert mode (append|next|now)")
	return cmd
}

func queueRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <playlist-item-id>...",
		Short: "Remove queue slots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			err := app.client.RemoveFromPlayQueue(ctx, args, control.RemoveFromPlayQueueOptions{})
			if err != nil {
				return err
			}
			return app.confirm(fmt.Sprintf("removed %d item(s)", len(args)))
		},
	}
}

func queueMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <playlist-item-id> <new-index>",
		Short: "Move a queue slot to a new index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("new-index must be a number: %w", err)
			}
			if err := app.client.MovePlaylistItem(ctx, args[0], index); err != nil {
				return err
			}
			return app.confirm("moved")
		},
	}
}

func queueSetCommand() *cobra.Command {
	var startIndex int

	cmd := &cobra.Command{
		Use:   "set <item-id>...",
		Short: "Replace the queue with new items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.SetNewQueue(ctx, args, startIndex, 0); err != nil {
				return err
			}
			return app.confirm(fmt.Sprintf("queue replaced with %d item(s)", len(args)))
		},
	}

	cmd.Flags().IntVar(&startIndex, "start-index", 0, "item to start playing")
	return cmd
}

func queueClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			err := app.client.RemoveFromPlayQueue(ctx, nil, control.RemoveFromPlayQueueOptions{
				ClearPlayQueue:   true,
				ClearPlayingItem: true,
			})
			if err != nil {
				return err
			}
			return app.confirm("queue cleared")
		},
	}
}

func parseQueueMode(mode string) (string, error) {
	switch mode {
	case "append", "":
		return syncplay.QueueModeAppend, nil
	case "next":
		return syncplay.QueueModePlayNext, nil
	case "now":
		return syncplay.QueueModeReplaceCurrent, nil
	default:
		return "", fmt.Errorf("mode must be append|next|now")
	}
}
