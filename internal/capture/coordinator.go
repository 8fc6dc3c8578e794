package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"bananadb/internal/collect"
	"bananadb/internal/logging"
	"bananadb/internal/message"
)

// State is the coordinator's position in the capture flow.
type State string

const (
	StateIdle           State = "idle"
	StateExtracted      State = "extracted"
	StateWaitingForUser State = "waiting_for_user"
	StateSending        State = "sending"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Notification texts.
const (
	TitleSaved          = "Saved to BananaDB"
	TitleFailed         = "BananaDB save failed"
	MissingImageURLText = "Cannot obtain image URL"
)

// Coordinator runs the capture flow.
type Coordinator struct {
	browser   Browser
	notifier  Notifier
	collector Collector
	logger    *slog.Logger

	initMu sync.Mutex
	mu     sync.Mutex
	state  State
}

// New constructs a coordinator.
func New(browser Browser, notifier Notifier, collector Collector, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		browser:   browser,
		notifier:  notifier,
		collector: collector,
		logger:    logging.NewComponentLogger(logger, "capture"),
		state:     StateIdle,
	}
}

// State returns the most recent state transition.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) transition(ctx context.Context, next State) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	logging.WithContext(ctx, c.logger).Debug("capture state",
		logging.String("from", string(prev)),
		logging.String("to", string(next)))
}

// Init registers the context menu item. It is safe to call on every startup
// and on every install or update event: an item with the expected label is
// left alone, anything else under the same id is replaced.
func (c *Coordinator) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	label, ok, err := c.browser.MenuLabel(ctx, MenuID)
	if err != nil {
		return fmt.Errorf("query context menu: %w", err)
	}
	if ok && label == MenuLabel {
		c.logger.Debug("context menu already registered", logging.String("menu_id", MenuID))
		return nil
	}
	if ok {
		if err := c.browser.RemoveMenu(ctx, MenuID); err != nil {
			return fmt.Errorf("remove stale context menu: %w", err)
		}
	}
	item := MenuItem{ID: MenuID, Title: MenuLabel, Contexts: []string{"image"}}
	if err := c.browser.CreateMenu(ctx, item); err != nil {
		return fmt.Errorf("create context menu: %w", err)
	}
	c.logger.Info("context menu registered",
		logging.String("menu_id", MenuID),
		logging.Bool("replaced", ok))
	return nil
}

// HandleMenuClick starts a capture for a click on an image. It returns once
// the dialog has been requested; the save arrives later through HandleMessage.
func (c *Coordinator) HandleMenuClick(ctx context.Context, ev ClickEvent) error {
	if ev.MenuItemID != "" && ev.MenuItemID != MenuID {
		return nil
	}
	ctx = logging.WithTabID(ctx, ev.TabID)
	logger := logging.WithContext(ctx, c.logger)

	imageURL := strings.TrimSpace(ev.SrcURL)
	if imageURL == "" {
		c.transition(ctx, StateFailed)
		c.notify(ctx, message.NotificationEvent{Title: TitleFailed, Message: MissingImageURLText})
		c.transition(ctx, StateIdle)
		return ErrMissingImageURL
	}
	req := message.CaptureRequest{ImageURL: imageURL, PageURL: strings.TrimSpace(ev.PageURL)}
	c.transition(ctx, StateExtracted)

	if err := c.browser.InjectDialog(ctx, ev.TabID); err != nil {
		logging.WarnWithContext(logger, "dialog injection failed", "dialog_inject_failed",
			logging.String(logging.FieldImpact, "dialog may not appear on this page"),
			logging.String(logging.FieldErrorHint, "restricted pages such as chrome:// cannot host the dialog"),
			logging.Error(fmt.Errorf("%w: %w", ErrInjection, err)))
	}

	if err := c.browser.SendToTab(ctx, ev.TabID, message.ShowPromptDialog{CaptureRequest: req}); err != nil {
		logger.Debug("show dialog message dropped", logging.Error(err))
	}
	c.transition(ctx, StateWaitingForUser)
	return nil
}

// HandleMessage dispatches a message from a page on its action.
func (c *Coordinator) HandleMessage(ctx context.Context, msg message.Message) error {
	switch m := msg.(type) {
	case message.SaveRequest:
		return c.save(ctx, m)
	case nil:
		return nil
	default:
		logging.WithContext(ctx, c.logger).Debug("message ignored", logging.String("action", string(msg.Action())))
		return nil
	}
}

// Send lets the coordinator act as the dialog's message sink.
func (c *Coordinator) Send(ctx context.Context, msg message.Message) error {
	return c.HandleMessage(ctx, msg)
}

func (c *Coordinator) save(ctx context.Context, req message.SaveRequest) error {
	logger := logging.WithContext(ctx, c.logger)
	c.transition(ctx, StateSending)

	result, err := c.collector.CollectURL(ctx, req)
	if err != nil {
		c.transition(ctx, StateFailed)
		detail := collect.Describe(err)
		logging.WarnWithContext(logger, "image save failed", "save_failed",
			logging.String(logging.FieldImpact, "image was not saved"),
			logging.String(logging.FieldErrorHint, "check that bananadb serve is running"),
			logging.String("image_url", req.ImageURL),
			logging.String("detail", detail),
			logging.Error(err))
		c.notify(ctx, message.NotificationEvent{Title: TitleFailed, Message: detail})
		c.transition(ctx, StateIdle)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	c.transition(ctx, StateSucceeded)
	logger.Info("image saved",
		logging.Int64(logging.FieldImageID, result.ImageID),
		logging.String("filename", result.Filename))
	c.notify(ctx, message.NotificationEvent{
		Title:   TitleSaved,
		Message: fmt.Sprintf("Image #%d saved", result.ImageID),
	})
	c.transition(ctx, StateIdle)
	return nil
}

func (c *Coordinator) notify(ctx context.Context, event message.NotificationEvent) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, c.logger).Debug("notification failed", logging.Error(err))
	}
}
