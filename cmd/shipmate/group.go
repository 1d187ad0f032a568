package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/shipmate/internal/adapters/output"
)

func lsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List joinable groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			groups, err := app.client.ListGroups(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(output.GroupsResult{Groups: groups})
		},
	}
}

func createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group and become its captain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.NewGroup(ctx, args[0]); err != nil {
				return err
			}
			return app.confirm("group requested; confirmation arrives on the channel")
		},
	}
}

func joinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join <group-id>",
		Short: "Join an existing group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.JoinGroup(ctx, args[0]); err != nil {
				return err
			}
			return app.confirm("join requested; confirmation arrives on the channel")
		},
	}
}

func leaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the current group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.client.LeaveGroup(ctx); err != nil {
				return err
			}
			return app.confirm("left group")
		},
	}
}
