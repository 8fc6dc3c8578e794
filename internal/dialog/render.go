package dialog

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/dialog.html.tmpl
var templateFS embed.FS

var dialogTemplate = template.Must(template.ParseFS(templateFS, "templates/dialog.html.tmpl"))

type view struct {
	ElementID     string
	PromptInputID string
	SkipAIInputID string
	ImageURL      string
	Title         string
	PromptLabel   string
	Placeholder   string
	SkipAILabel   string
	CancelLabel   string
	SaveLabel     string
}

// Render returns the dialog markup for imageURL. Values are escaped by
// html/template, so a hostile image URL cannot break out of the src attribute.
func Render(imageURL string) (string, error) {
	v := view{
		ElementID:     ElementID,
		PromptInputID: PromptInputID,
		SkipAIInputID: SkipAIInputID,
		ImageURL:      imageURL,
		Title:         "Save to BananaDB",
		PromptLabel:   "Prompt (optional)",
		Placeholder:   "Paste the prompt used to generate this image",
		SkipAILabel:   "use this prompt verbatim, skip AI analysis",
		CancelLabel:   "Cancel",
		SaveLabel:     "Save",
	}
	var buf bytes.Buffer
	if err := dialogTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render dialog: %w", err)
	}
	return buf.String(), nil
}
