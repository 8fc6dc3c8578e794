package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bananadb/internal/library"
	"bananadb/internal/logging"
)

func withLibrary(ctx *commandContext, fn func(*library.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := library.Open(cfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var category string
	var favorites bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected images, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(ctx, func(store *library.Store) error {
				var (
					images []library.Image
					err    error
				)
				category = strings.TrimSpace(category)
				switch {
				case favorites || category == library.CategoryFavorites:
					images, err = store.ListFavorites(cmd.Context())
				case category != "":
					images, err = store.ListByCategory(cmd.Context(), library.NormalizeCategory(category))
				default:
					images, err = store.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, images)
				}
				out := cmd.OutOrStdout()
				if len(images) == 0 {
					fmt.Fprintln(out, "No images collected")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Category", "Fav", "Prompt", "Tags", "Created"},
					imageRows(images),
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list this category")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "Only list favourited images")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func imageRows(images []library.Image) [][]string {
	rows := make([][]string, 0, len(images))
	for _, img := range images {
		fav := ""
		if img.IsFavorited {
			fav = "★"
		}
		rows = append(rows, []string{
			strconv.FormatInt(img.ID, 10),
			img.Category,
			fav,
			truncateCell(img.PositivePrompt),
			truncateCell(strings.Join(img.Tags, ", ")),
			img.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show image counts per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(ctx, func(store *library.Store) error {
				categories, err := store.Categories(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, categories)
				}
				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					rows = append(rows, []string{c.ID, c.Label, strconv.Itoa(c.Count)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Category", "Label", "Images"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
