package main

import (
	"encoding/json"
	"strings"
	"testing"

	"bananadb/internal/library"
	"bananadb/internal/testsupport"
)

func seedLibrary(t *testing.T, env *cliTestEnv) (int64, int64) {
	t.Helper()
	store := testsupport.MustOpenLibrary(t, env.cfg)
	portrait := testsupport.InsertImage(t, store, library.NewImage{
		Filename:       "a.png",
		PositivePrompt: "banana knight portrait",
		Tags:           []string{"knight", "香蕉"},
		Category:       "Portrait",
	})
	landscape := testsupport.InsertImage(t, store, library.NewImage{
		Filename:       "b.png",
		PositivePrompt: "misty banana forest",
		Category:       "Landscape",
	})
	if _, err := store.ToggleFavorite(t.Context(), landscape); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	return portrait, landscape
}

func TestListCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list on empty library: %v", err)
	}
	requireContains(t, out, "No images collected")

	seedLibrary(t, env)

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "banana knight portrait")
	requireContains(t, out, "misty banana forest")
	requireContains(t, out, "knight, 香蕉")
	if strings.Index(out, "misty banana forest") > strings.Index(out, "banana knight portrait") {
		t.Fatalf("expected newest image first:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"list", "--category", "portrait"}, env.configPath)
	if err != nil {
		t.Fatalf("list --category: %v", err)
	}
	requireContains(t, out, "banana knight portrait")
	if strings.Contains(out, "misty banana forest") {
		t.Fatalf("category filter leaked other images:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"list", "--favorites", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list --favorites --json: %v", err)
	}
	var images []library.Image
	if err := json.Unmarshal([]byte(out), &images); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(images) != 1 || images[0].PositivePrompt != "misty banana forest" || !images[0].IsFavorited {
		t.Fatalf("unexpected favourites: %+v", images)
	}
}

func TestCategoriesCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	seedLibrary(t, env)

	out, _, err := runCLI(t, []string{"categories", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("categories --json: %v", err)
	}
	var categories []library.Category
	if err := json.Unmarshal([]byte(out), &categories); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(categories) == 0 || categories[0].ID != library.CategoryFavorites || categories[0].Count != 1 {
		t.Fatalf("expected favourites first, got %+v", categories)
	}
	counts := map[string]int{}
	for _, c := range categories {
		counts[c.ID] = c.Count
	}
	if counts["Portrait"] != 1 || counts["Landscape"] != 1 || counts["Food"] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	out, _, err = runCLI(t, []string{"categories"}, env.configPath)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "Portrait")
	requireContains(t, out, "人像")
}
