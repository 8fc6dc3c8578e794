package nativehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"bananadb/internal/capture"
	"bananadb/internal/dialog"
	"bananadb/internal/logging"
	"bananadb/internal/message"
)

// Coordinator is the capture flow driven by browser events.
type Coordinator interface {
	Init(ctx context.Context) error
	HandleMenuClick(ctx context.Context, ev capture.ClickEvent) error
	dialog.Sender
}

// Options configures a Host.
type Options struct {
	// IconURL is the extension-relative icon used for notifications.
	IconURL string
	// Notifications disables browser notifications when false.
	Notifications bool
	Logger        *slog.Logger
}

// Host relays between the extension and the capture flow.
type Host struct {
	in     io.Reader
	out    io.Writer
	opts   Options
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	presenter *dialog.Presenter
	tabs      map[int]*tabPage
	menus     map[string]string
	// menusKnown is set once this process has registered menus itself. Until
	// then the extension may hold items from an earlier host run.
	menusKnown bool
}

// New constructs a host reading frames from in and writing commands to out.
func New(in io.Reader, out io.Writer, opts Options) *Host {
	logger := logging.NewComponentLogger(opts.Logger, "nativehost")
	return &Host{
		in:     in,
		out:    out,
		opts:   opts,
		logger: logger,
		tabs:   make(map[int]*tabPage),
		menus:  make(map[string]string),
	}
}

// Run initialises the coordinator, then handles inbound frames until the
// extension closes the port or ctx is cancelled.
func (h *Host) Run(ctx context.Context, coord Coordinator) error {
	if coord == nil {
		return errors.New("native host requires a coordinator")
	}
	h.mu.Lock()
	h.presenter = dialog.NewPresenter(coord, h.opts.Logger)
	h.mu.Unlock()

	if err := coord.Init(ctx); err != nil {
		return fmt.Errorf("init capture: %w", err)
	}

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(frames)
		for {
			payload, err := ReadFrame(h.in)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-frames:
			if !ok {
				err := <-readErr
				if errors.Is(err, io.EOF) {
					h.logger.Info("extension disconnected")
					return nil
				}
				return err
			}
			h.handleFrame(ctx, coord, payload)
		}
	}
}

func (h *Host) handleFrame(ctx context.Context, coord Coordinator, payload []byte) {
	var ev Inbound
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.logger.Warn("invalid frame ignored",
			logging.String(logging.FieldEventType, "invalid_frame"),
			logging.Error(err))
		return
	}
	if ev.TabID != 0 {
		ctx = logging.WithTabID(ctx, ev.TabID)
	}
	logger := logging.WithContext(ctx, h.logger)

	switch ev.Type {
	case EventInstalled:
		logger.Info("extension installed", logging.String("reason", ev.Reason))
		h.mu.Lock()
		h.menusKnown = false
		h.mu.Unlock()
		if err := coord.Init(ctx); err != nil {
			logger.Error("context menu registration failed", logging.Error(err))
		}
	case EventMenuClicked:
		click := capture.ClickEvent{MenuItemID: ev.MenuItemID, SrcURL: ev.SrcURL, PageURL: ev.PageURL, TabID: ev.TabID}
		if err := coord.HandleMenuClick(ctx, click); err != nil {
			logger.Debug("menu click rejected", logging.Error(err))
		}
	case EventDOM:
		h.dispatchDOM(ctx, ev)
	case EventTabClosed:
		h.discardTab(ctx, ev.TabID, "the open dialog closed with its tab and nothing was saved")
	case EventNavigated:
		h.discardTab(ctx, ev.TabID, "the page navigated away from the open dialog and nothing was saved")
	case EventInjectResult:
		if !ev.OK {
			logging.WarnWithContext(logger, "dialog relay injection failed", "relay_inject_failed",
				logging.String(logging.FieldImpact, "dialog will not appear on this page"),
				logging.String("detail", ev.Error))
		}
	default:
		logger.Debug("unknown event ignored", logging.String("type", ev.Type))
	}
}

func (h *Host) dispatchDOM(ctx context.Context, ev Inbound) {
	h.mu.Lock()
	page := h.tabs[ev.TabID]
	h.mu.Unlock()
	if page == nil {
		h.logger.Debug("dom event for unknown tab", logging.Int(logging.FieldTabID, ev.TabID))
		return
	}
	page.dispatch(ctx, ev)
}

// discardTab forgets the tab's current document. A dialog still open there is
// gone from the browser, so its session is discarded and the next click on
// the tab starts from a fresh page.
func (h *Host) discardTab(ctx context.Context, tabID int, impact string) {
	h.mu.Lock()
	page := h.tabs[tabID]
	delete(h.tabs, tabID)
	h.mu.Unlock()
	if page == nil {
		return
	}
	session := page.detach()
	if session == nil {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, h.logger), "save message dropped", "save_message_dropped",
		logging.String(logging.FieldImpact, impact),
		logging.String(logging.FieldErrorHint, "save the image again"))
	session.Discard(ctx)
}

func (h *Host) page(tabID int) *tabPage {
	h.mu.Lock()
	defer h.mu.Unlock()
	page, ok := h.tabs[tabID]
	if !ok {
		page = newTabPage(h, tabID)
		h.tabs[tabID] = page
	}
	return page
}

func (h *Host) send(cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode %s command: %w", cmd.Type, err)
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return WriteFrame(h.out, payload)
}

// MenuLabel reports menus registered by this process. Before the first
// registration the extension state is unknown, so an item is reported with
// an empty label and the coordinator replaces it.
func (h *Host) MenuLabel(_ context.Context, id string) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.menusKnown {
		return "", true, nil
	}
	label, ok := h.menus[id]
	return label, ok, nil
}

func (h *Host) CreateMenu(_ context.Context, item capture.MenuItem) error {
	if err := h.send(Command{Type: CommandCreateMenu, Menu: &item}); err != nil {
		return err
	}
	h.mu.Lock()
	h.menus[item.ID] = item.Title
	h.menusKnown = true
	h.mu.Unlock()
	return nil
}

func (h *Host) RemoveMenu(_ context.Context, id string) error {
	if err := h.send(Command{Type: CommandRemoveMenu, MenuID: id}); err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.menus, id)
	h.mu.Unlock()
	return nil
}

func (h *Host) InjectDialog(_ context.Context, tabID int) error {
	if tabID <= 0 {
		return fmt.Errorf("inject dialog: invalid tab %d", tabID)
	}
	h.page(tabID)
	return h.send(Command{Type: CommandInject, TabID: tabID})
}

// SendToTab routes page-bound messages to the tab's dialog presenter.
func (h *Host) SendToTab(ctx context.Context, tabID int, msg message.Message) error {
	show, ok := msg.(message.ShowPromptDialog)
	if !ok {
		return fmt.Errorf("send to tab: unsupported action %q", msg.Action())
	}
	h.mu.Lock()
	presenter := h.presenter
	_, known := h.tabs[tabID]
	h.mu.Unlock()
	if presenter == nil || !known {
		return fmt.Errorf("send to tab %d: no listener", tabID)
	}
	page := h.page(tabID)
	session, created, err := presenter.Present(ctx, page, show.CaptureRequest)
	if err != nil {
		return err
	}
	if !created {
		logging.WithContext(ctx, h.logger).Debug("dialog already open")
		return nil
	}
	page.setSession(session)
	return nil
}

// Notify shows a basic browser notification.
func (h *Host) Notify(_ context.Context, event message.NotificationEvent) error {
	if !h.opts.Notifications {
		return nil
	}
	return h.send(Command{Type: CommandNotify, Notification: &Notification{
		Type:     "basic",
		IconURL:  strings.TrimSpace(h.opts.IconURL),
		Title:    event.Title,
		Message:  event.Message,
		Priority: 2,
	}})
}
