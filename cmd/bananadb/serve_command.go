package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bananadb/internal/daemonrun"
	"bananadb/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the collection server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			console := logging.ConsoleStderr
			if quiet {
				console = logging.ConsoleNone
			}
			return daemonrun.RunServer(cmd.Context(), cfg, daemonrun.ServerOptions{
				Bind:    bind,
				Console: console,
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides paths.api_bind)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Log to the server log file only")
	return cmd
}

func newHostCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "host [origin]",
		Short: "Speak the native messaging protocol on stdin and stdout",
		Long: "Run the native messaging host. Chrome normally starts bananadb-host " +
			"directly; this command is the same runtime for manual testing.",
		Args:   cobra.MaximumNArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var origin string
			if len(args) > 0 {
				origin = args[0]
			}
			return daemonrun.RunHost(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(),
				daemonrun.HostOptions{Origin: origin})
		},
	}
}
