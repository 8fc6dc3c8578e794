package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bananadb/internal/capture"
	"bananadb/internal/config"
	"bananadb/internal/message"
)

const userAgent = "BananaDB-Go/0.1.0"

// Service is a notifier that can also send a test message.
type Service interface {
	capture.Notifier
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// Notify publishes a capture outcome. Failures are sent with high priority.
func (n *ntfyService) Notify(ctx context.Context, event message.NotificationEvent) error {
	data := payload{
		title:   strings.TrimSpace(event.Title),
		message: strings.TrimSpace(event.Message),
		tags:    []string{"banana", "saved"},
	}
	if data.title == capture.TitleFailed {
		data.tags = []string{"banana", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "BananaDB - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"banana", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Notify(context.Context, message.NotificationEvent) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }

// Fanout delivers each event to every notifier, skipping nil entries. All
// notifiers are attempted; their errors are joined.
type Fanout []capture.Notifier

// Notify implements capture.Notifier.
func (f Fanout) Notify(ctx context.Context, event message.NotificationEvent) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
