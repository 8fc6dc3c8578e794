package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bananadb/internal/daemon"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sent, msg, err := daemon.SendTestNotification(cmd.Context(), cfg)
			if msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			} else if sent {
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			}
			return err
		},
	}
}
