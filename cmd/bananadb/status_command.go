package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bananadb/internal/config"
	"bananadb/internal/preflight"
)

const statusCheckTimeout = 45 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server, storage, and integration health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			checkCtx, cancel := context.WithTimeout(cmd.Context(), statusCheckTimeout)
			defer cancel()
			results := preflight.RunAll(checkCtx, cfg)

			var lines []string
			lines = append(lines, renderSectionHeader("Server", colorize)...)
			lines = append(lines, serverLines(cfg, ctx.configPath, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkLines(results, colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func serverLines(cfg *config.Config, configPath string, colorize bool) []string {
	lines := []string{renderStatusLine("Config", statusInfo, configPath, colorize)}

	running, err := preflight.ServerRunning(cfg.ServerLockPath())
	switch {
	case err != nil:
		lines = append(lines, renderStatusLine("Server", statusWarn, "unknown: "+err.Error(), colorize))
	case running:
		lines = append(lines, renderStatusLine("Server", statusOK, "Running on "+cfg.Paths.APIBind, colorize))
	default:
		lines = append(lines, renderStatusLine("Server", statusError, "Not running (start with `bananadb serve`)", colorize))
	}

	lines = append(lines,
		renderStatusLine("Database", statusInfo, cfg.DatabasePath(), colorize),
		renderStatusLine("Uploads", statusInfo, cfg.Paths.UploadDir, colorize),
		renderStatusLine("API token", statusInfo, yesNo(strings.TrimSpace(cfg.Paths.APIToken) != ""), colorize),
		renderStatusLine("ntfy", statusInfo, yesNo(strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""), colorize),
	)
	return lines
}

// checkLines renders preflight results. A failing check without a key or
// topic behind it is a warning; anything else that fails is an error.
func checkLines(results []preflight.Result, colorize bool) []string {
	failed := preflight.Failed(results)
	summaryKind, summary := statusOK, fmt.Sprintf("%d of %d checks passed", len(results)-len(failed), len(results))
	for _, r := range failed {
		if checkKind(r) == statusError {
			summaryKind = statusError
			break
		}
		summaryKind = statusWarn
	}

	lines := []string{renderStatusLine("Summary", summaryKind, summary, colorize)}
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = checkKind(r)
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func checkKind(r preflight.Result) statusKind {
	if r.Passed {
		return statusOK
	}
	detail := strings.ToLower(r.Detail)
	if strings.Contains(detail, "missing") || strings.Contains(detail, "not configured") || strings.Contains(detail, "not installed") {
		return statusWarn
	}
	return statusError
}
