package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bananadb/internal/collect"
	"bananadb/internal/message"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var pageURL string
	var prompt string
	var skipAI bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "collect <image-url>",
		Short: "Save an image through the collection server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			req := message.SaveRequest{
				ImageURL:   strings.TrimSpace(args[0]),
				PageURL:    strings.TrimSpace(pageURL),
				PromptText: strings.TrimSpace(prompt),
				SkipAI:     skipAI,
			}
			if req.ImageURL == "" {
				return errors.New("image url is required")
			}
			if req.PageURL == "" {
				req.PageURL = req.ImageURL
			}
			if req.SkipAI && req.PromptText == "" {
				return errors.New("--skip-ai requires --prompt")
			}

			client := collect.NewClient(cfg.Collector.URL, cfg.CollectorTimeout(), collect.WithToken(cfg.Paths.APIToken))
			result, err := client.CollectURL(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("%s (%w)", collect.Describe(err), err)
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}

			rows := [][]string{
				{"Image ID", strconv.FormatInt(result.ImageID, 10)},
				{"Filename", result.Filename},
			}
			if a := result.Analysis; a != nil {
				rows = append(rows,
					[]string{"Category", a.Category},
					[]string{"Prompt", truncateCell(a.PositivePrompt)},
					[]string{"Prompt (zh)", truncateCell(a.PositivePromptZh)},
					[]string{"Negative", truncateCell(a.NegativePrompt)},
					[]string{"Tags", truncateCell(strings.Join(a.Tags, ", "))},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&pageURL, "page", "", "Page the image was found on (default: the image url)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt text to store or to hint the analysis")
	cmd.Flags().BoolVar(&skipAI, "skip-ai", false, "Store --prompt verbatim without image analysis")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
