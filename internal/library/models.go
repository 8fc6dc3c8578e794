package library

import "time"

// Image is a collected image and its prompt analysis.
type Image struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	PositivePrompt   string    `json:"positive_prompt"`
	PositivePromptZh string    `json:"positive_prompt_zh"`
	NegativePrompt   string    `json:"negative_prompt"`
	Tags             []string  `json:"tags"`
	SourceURL        string    `json:"source_url,omitempty"`
	Category         string    `json:"category"`
	IsFavorited      bool      `json:"is_favorited"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewImage holds the fields supplied when recording an image.
type NewImage struct {
	Filename         string
	PositivePrompt   string
	PositivePromptZh string
	NegativePrompt   string
	Tags             []string
	SourceURL        string
	Category         string
}
