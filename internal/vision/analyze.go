package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"bananadb/internal/library"
)

// DefaultNegativePrompt is used when none is known.
const DefaultNegativePrompt = "low quality, blurry"

// Analysis is the reverse-engineered prompt data for an image.
type Analysis struct {
	PositivePrompt   string   `json:"positive_prompt"`
	PositivePromptZh string   `json:"positive_prompt_zh"`
	NegativePrompt   string   `json:"negative_prompt"`
	Tags             []string `json:"tags"`
	Category         string   `json:"category"`
}

// PlaceholderAnalysis is stored when the model cannot analyse an image.
func PlaceholderAnalysis() Analysis {
	return Analysis{
		PositivePrompt:   "Error during analysis",
		PositivePromptZh: "分析過程發生錯誤",
		NegativePrompt:   DefaultNegativePrompt,
		Tags:             []string{"error"},
		Category:         library.CategoryOther,
	}
}

var hanPattern = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)

// HasChinese reports whether s contains CJK unified ideographs.
func HasChinese(s string) bool {
	return hanPattern.MatchString(s)
}

// AnalyzeImage sends the image at path to the model. contextText is passed
// along as a hint. On failure it returns PlaceholderAnalysis and the error so
// callers can still record the image.
func (c *Client) AnalyzeImage(ctx context.Context, path, contextText string) (Analysis, error) {
	dataURL, err := imageDataURL(path)
	if err != nil {
		return PlaceholderAnalysis(), err
	}

	parts := []contentPart{
		{Type: "text", Text: "Analyze this image."},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
	}
	if hint := strings.TrimSpace(contextText); hint != "" {
		parts = append(parts, contentPart{Type: "text", Text: "Additional context: " + hint})
	}
	content, err := c.complete(ctx, "vision analyze", []chatMessage{
		{Role: "system", Content: AnalysisSystemPrompt},
		{Role: "user", Content: parts},
	}, true)
	if err != nil {
		return PlaceholderAnalysis(), err
	}

	var result Analysis
	if err := DecodeJSON(content, &result); err != nil {
		return PlaceholderAnalysis(), fmt.Errorf("vision analyze: parse payload: %w", err)
	}
	c.completeAnalysis(ctx, &result)
	return result, nil
}

// completeAnalysis fills fields the model left out: a missing translation is
// requested separately and tags without any Chinese get Chinese tags added.
func (c *Client) completeAnalysis(ctx context.Context, a *Analysis) {
	a.PositivePrompt = strings.TrimSpace(a.PositivePrompt)
	a.PositivePromptZh = strings.TrimSpace(a.PositivePromptZh)
	a.NegativePrompt = strings.TrimSpace(a.NegativePrompt)
	a.Category = library.NormalizeCategory(a.Category)
	a.Tags = cleanTags(a.Tags)

	if a.PositivePromptZh == "" && a.PositivePrompt != "" {
		a.PositivePromptZh = c.Translate(ctx, a.PositivePrompt).Chinese
	}
	if len(a.Tags) > 0 && !anyChinese(a.Tags) && a.PositivePrompt != "" {
		extra, _ := c.ExtractTags(ctx, a.PositivePrompt)
		added := 0
		for _, tag := range extra {
			if added == 5 {
				break
			}
			if HasChinese(tag) {
				a.Tags = append(a.Tags, tag)
				added++
			}
		}
	}
}

func anyChinese(tags []string) bool {
	for _, tag := range tags {
		if HasChinese(tag) {
			return true
		}
	}
	return false
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("vision analyze: read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("vision analyze: %s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
