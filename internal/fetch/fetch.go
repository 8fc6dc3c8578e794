package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bananadb/internal/config"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 50 << 20
	acceptHeader    = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
)

var (
	// ErrInvalidURL marks URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("fetch: invalid image url")
	// ErrTooLarge is returned when the body exceeds the configured cap.
	ErrTooLarge = errors.New("fetch: image exceeds size limit")
)

// StatusError reports a non-2xx response from the image host.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: http %d", e.StatusCode)
}

var allowedExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

// Fetcher downloads images.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// New constructs a Fetcher from the fetch section of the config.
func New(cfg config.Fetch) *Fetcher {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	maxBytes := int64(defaultMaxBytes)
	if cfg.MaxMiB > 0 {
		maxBytes = int64(cfg.MaxMiB) << 20
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: strings.TrimSpace(cfg.UserAgent),
		maxBytes:  maxBytes,
	}
}

// Result describes a stored download.
type Result struct {
	Filename    string
	Path        string
	Size        int64
	ContentType string
}

// Download fetches imageURL and writes it into dir. pageURL, when set, is
// sent as the Referer. A partial file is removed on failure.
func (f *Fetcher) Download(ctx context.Context, imageURL, pageURL, dir string) (*Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", acceptHeader)
	if pageURL = strings.TrimSpace(pageURL); pageURL != "" {
		req.Header.Set("Referer", pageURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > f.maxBytes {
		return nil, ErrTooLarge
	}

	filename := NewFilename(Extension(parsed.Path))
	target := filepath.Join(dir, filename)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fetch: create file: %w", err)
	}
	written, copyErr := io.Copy(file, io.LimitReader(resp.Body, f.maxBytes+1))
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("fetch: read body: %w", copyErr)
	case written > f.maxBytes:
		err = ErrTooLarge
	case closeErr != nil:
		err = fmt.Errorf("fetch: close file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(target)
		return nil, err
	}
	return &Result{
		Filename:    filename,
		Path:        target,
		Size:        written,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Extension returns the lowercased extension of urlPath when it is a known
// image type, otherwise "jpg".
func Extension(urlPath string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(urlPath), "."))
	if _, ok := allowedExtensions[ext]; ok {
		return ext
	}
	return "jpg"
}

// NewFilename returns a random uuid file name with ext.
func NewFilename(ext string) string {
	return uuid.NewString() + "." + ext
}
