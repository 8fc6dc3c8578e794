package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bananadb/internal/message"
)

// DefaultBaseURL is the local collection server.
const DefaultBaseURL = "http://localhost:8000"

// UnreachableText is the notification text used when no better detail exists.
const UnreachableText = "Cannot reach the BananaDB server"

var (
	// ErrUnreachable marks transport failures talking to the collection endpoint.
	ErrUnreachable = errors.New("collection endpoint unreachable")
	// ErrDecode marks a response body that could not be parsed.
	ErrDecode = errors.New("decode collection response")
)

// APIError is returned for non-2xx responses and undecodable 2xx responses.
type APIError struct {
	StatusCode int
	Detail     string
	cause      error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("collection endpoint: HTTP %d: %s", e.StatusCode, e.Detail)
	}
	if e.cause != nil {
		return fmt.Sprintf("collection endpoint: HTTP %d: %v", e.StatusCode, e.cause)
	}
	return fmt.Sprintf("collection endpoint: HTTP %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.cause }

// Analysis is the prompt analysis stored with an image.
type Analysis struct {
	PositivePrompt   string   `json:"positive_prompt"`
	PositivePromptZh string   `json:"positive_prompt_zh"`
	NegativePrompt   string   `json:"negative_prompt"`
	Tags             []string `json:"tags"`
	Category         string   `json:"category"`
}

// CollectResult describes the persisted record.
type CollectResult struct {
	ImageID  int64     `json:"image_id"`
	Filename string    `json:"filename"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Request is the wire body of POST /api/collect_url.
type Request struct {
	ImageURL    string `json:"image_url"`
	PageURL     string `json:"page_url"`
	ContextText string `json:"context_text"`
	SkipAI      bool   `json:"skip_ai"`
}

// Response is the wire body of a successful collect call.
type Response struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *CollectResult `json:"data"`
}

// ErrorResponse is the wire body of a failed call.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithToken sets a bearer token sent on every request.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = strings.TrimSpace(token) }
}

// Client talks to the collection endpoint. It never retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client for baseURL. A zero timeout leaves calls
// bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint root.
func (c *Client) BaseURL() string { return c.baseURL }

// CollectURL asks the server to collect the image described by req.
func (c *Client) CollectURL(ctx context.Context, req message.SaveRequest) (*CollectResult, error) {
	body, err := json.Marshal(Request{
		ImageURL:    req.ImageURL,
		PageURL:     req.PageURL,
		ContextText: req.PromptText,
		SkipAI:      req.SkipAI,
	})
	if err != nil {
		return nil, fmt.Errorf("encode collect request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/collect_url", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build collect request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure ErrorResponse
		_ = json.Unmarshal(payload, &failure)
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(failure.Detail)}
	}

	var decoded Response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, cause: fmt.Errorf("%w: %w", ErrDecode, err)}
	}
	if decoded.Data == nil {
		return nil, &APIError{StatusCode: resp.StatusCode, cause: fmt.Errorf("%w: missing data", ErrDecode)}
	}
	return decoded.Data, nil
}

// Describe returns the best available notification text for err: the
// server's detail, else the HTTP status, else the generic unreachable text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	}
	return UnreachableText
}
