// Package vision reverse-engineers generation prompts from images with an
// OpenAI-compatible chat completions API (OpenRouter by default).
//
// # Entry Points
//
// NewClient: construct a client from config.VisionConfig.
// Client.AnalyzeImage: prompt, translation, tags, and category for an image file.
// Client.Translate: Traditional Chinese rendering of a user-supplied prompt.
// Client.ExtractTags: bilingual tags and a category for prompt text.
// Client.Search: semantic ranking of stored records against a query.
// Client.HealthCheck: verify the API key and model respond.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, five attempts by
// default). Retry-After is honoured up to the maximum delay. Context
// cancellation aborts retries immediately.
//
// # Fallback
//
// Analysis never blocks a save. When the model is unavailable or returns
// something unusable, AnalyzeImage returns a placeholder analysis together
// with the error, Translate keeps the original text, and ExtractTags falls
// back to words pulled from the prompt itself.
package vision
