package vision

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"bananadb/internal/library"
)

const maxTags = 10

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

// ExtractTags asks the model for bilingual tags and a category. On failure it
// falls back to the first words of the text and the Other category.
func (c *Client) ExtractTags(ctx context.Context, text string) ([]string, string) {
	sample := text
	if runes := []rune(sample); len(runes) > longPromptRunes {
		sample = string(runes[:longPromptRunes])
	}
	content, err := c.complete(ctx, "vision tags", []chatMessage{
		{Role: "user", Content: fmt.Sprintf(tagsPromptTemplate, sample)},
	}, true)
	if err == nil {
		var parsed struct {
			Tags     []string `json:"tags"`
			Category string   `json:"category"`
		}
		if DecodeJSON(content, &parsed) == nil {
			tags := cleanTags(parsed.Tags)
			if len(tags) > maxTags {
				tags = tags[:maxTags]
			}
			return tags, library.NormalizeCategory(parsed.Category)
		}
	}
	return FallbackTags(text), library.CategoryOther
}

// FallbackTags pulls up to five words of three or more letters from the
// start of text.
func FallbackTags(text string) []string {
	head := text
	if runes := []rune(head); len(runes) > 200 {
		head = string(runes[:200])
	}
	words := wordPattern.FindAllString(head, 5)
	if len(words) == 0 {
		return []string{"未分類", "uncategorized"}
	}
	return cleanTags(words)
}

// Candidate is a stored record offered to Search.
type Candidate struct {
	ID               int64
	PositivePrompt   string
	PositivePromptZh string
	Tags             []string
}

// Search returns the ids of candidates matching query, most relevant first.
// Ids the model invents are dropped.
func (c *Client) Search(ctx context.Context, query string, candidates []Candidate) ([]int64, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return []int64{}, nil
	}
	items := make([]string, 0, len(candidates))
	known := make(map[int64]struct{}, len(candidates))
	for _, cand := range candidates {
		known[cand.ID] = struct{}{}
		items = append(items, fmt.Sprintf("ID: %d\nPrompt: %s\nChinese: %s\nTags: %s",
			cand.ID, cand.PositivePrompt, cand.PositivePromptZh, strings.Join(cand.Tags, ", ")))
	}

	content, err := c.complete(ctx, "vision search", []chatMessage{
		{Role: "user", Content: fmt.Sprintf(searchPromptTemplate, query, strings.Join(items, "\n---\n"))},
	}, true)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		MatchedIDs []int64 `json:"matched_ids"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("vision search: parse payload: %w", err)
	}
	ids := make([]int64, 0, len(parsed.MatchedIDs))
	seen := make(map[int64]struct{}, len(parsed.MatchedIDs))
	for _, id := range parsed.MatchedIDs {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
