package library

import (
	"strings"

	"golang.org/x/text/cases"
)

// CategoryOther collects images outside the known categories.
const CategoryOther = "Other"

// CategoryFavorites is the pseudo-category listing favourited images.
const CategoryFavorites = "favorites"

// Category is a browsable image category.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

var knownCategories = []Category{
	{ID: "Portrait", Label: "人像", Color: "bg-blue-600"},
	{ID: "Landscape", Label: "風景", Color: "bg-green-600"},
	{ID: "Animal", Label: "動物", Color: "bg-yellow-600"},
	{ID: "Architecture", Label: "建築", Color: "bg-gray-600"},
	{ID: "Sci-Fi", Label: "科幻", Color: "bg-purple-600"},
	{ID: "Art", Label: "藝術", Color: "bg-pink-600"},
	{ID: "Food", Label: "食物", Color: "bg-orange-600"},
	{ID: "Fashion", Label: "時尚", Color: "bg-red-600"},
	{ID: CategoryOther, Label: "其他", Color: "bg-gray-500"},
}

// CategoryIDs returns the known category ids in display order.
func CategoryIDs() []string {
	ids := make([]string, 0, len(knownCategories))
	for _, c := range knownCategories {
		ids = append(ids, c.ID)
	}
	return ids
}

var folder = cases.Fold()

// NormalizeCategory maps free-form model output onto a known category id,
// ignoring case and surrounding whitespace. "scifi" and "sci fi" match Sci-Fi.
func NormalizeCategory(raw string) string {
	key := categoryKey(raw)
	if key == "" {
		return CategoryOther
	}
	for _, c := range knownCategories {
		if categoryKey(c.ID) == key {
			return c.ID
		}
	}
	return CategoryOther
}

func categoryKey(s string) string {
	s = folder.String(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", " ", "", "_", "").Replace(s)
}

// IsKnownCategory reports whether id is one of the fixed categories.
func IsKnownCategory(id string) bool {
	for _, c := range knownCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}
