package capture_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"bananadb/internal/capture"
	"bananadb/internal/collect"
	"bananadb/internal/dialog"
	"bananadb/internal/message"
)

type fakeBrowser struct {
	mu        sync.Mutex
	menus     map[string]capture.MenuItem
	creates   int
	removes   int
	injectErr error
	sendErr   error
	sent      []message.Message
	onSend    func(ctx context.Context, tabID int, msg message.Message)
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{menus: make(map[string]capture.MenuItem)}
}

func (b *fakeBrowser) MenuLabel(_ context.Context, id string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.menus[id]
	return item.Title, ok, nil
}

func (b *fakeBrowser) CreateMenu(_ context.Context, item capture.MenuItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.menus[item.ID]; ok {
		return errors.New("duplicate id " + item.ID)
	}
	b.menus[item.ID] = item
	b.creates++
	return nil
}

func (b *fakeBrowser) RemoveMenu(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.menus, id)
	b.removes++
	return nil
}

func (b *fakeBrowser) InjectDialog(context.Context, int) error { return b.injectErr }

func (b *fakeBrowser) SendToTab(ctx context.Context, tabID int, msg message.Message) error {
	b.mu.Lock()
	b.sent = append(b.sent, msg)
	onSend := b.onSend
	b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	if onSend != nil {
		onSend(ctx, tabID, msg)
	}
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []message.NotificationEvent
}

func (n *fakeNotifier) Notify(_ context.Context, ev message.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *fakeNotifier) last(t *testing.T) message.NotificationEvent {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		t.Fatal("expected a notification")
	}
	return n.events[len(n.events)-1]
}

func collectServer(t *testing.T, status int, body string) *collect.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return collect.NewClient(srv.URL, 0)
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	browser := newFakeBrowser()
	coord := capture.New(browser, &fakeNotifier{}, nil, nil)

	for i := 0; i < 2; i++ {
		if err := coord.Init(ctx); err != nil {
			t.Fatalf("Init #%d: %v", i, err)
		}
	}
	if browser.creates != 1 || len(browser.menus) != 1 {
		t.Fatalf("expected exactly one menu item, creates=%d menus=%d", browser.creates, len(browser.menus))
	}
	item := browser.menus[capture.MenuID]
	if item.Title != capture.MenuLabel || len(item.Contexts) != 1 || item.Contexts[0] != "image" {
		t.Fatalf("unexpected menu item %+v", item)
	}
}

func TestInitReplacesStaleItem(t *testing.T) {
	ctx := context.Background()
	browser := newFakeBrowser()
	browser.menus[capture.MenuID] = capture.MenuItem{ID: capture.MenuID, Title: "Save to BananaDB (old)"}
	coord := capture.New(browser, nil, nil, nil)

	if err := coord.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if browser.removes != 1 || browser.creates != 1 {
		t.Fatalf("expected remove+create, got removes=%d creates=%d", browser.removes, browser.creates)
	}
	if browser.menus[capture.MenuID].Title != capture.MenuLabel {
		t.Fatalf("expected label replaced, got %q", browser.menus[capture.MenuID].Title)
	}
}

func TestMenuClickWithoutImageURLNotifies(t *testing.T) {
	browser := newFakeBrowser()
	notifier := &fakeNotifier{}
	coord := capture.New(browser, notifier, nil, nil)

	err := coord.HandleMenuClick(context.Background(), capture.ClickEvent{MenuItemID: capture.MenuID, TabID: 3})
	if !errors.Is(err, capture.ErrMissingImageURL) {
		t.Fatalf("expected ErrMissingImageURL, got %v", err)
	}
	if got := notifier.last(t).Message; got != capture.MissingImageURLText {
		t.Fatalf("unexpected notification %q", got)
	}
	if len(browser.sent) != 0 {
		t.Fatal("expected no dialog request")
	}
	if coord.State() != capture.StateIdle {
		t.Fatalf("expected idle, got %s", coord.State())
	}
}

func TestMenuClickToleratesInjectionAndSendFailures(t *testing.T) {
	browser := newFakeBrowser()
	browser.injectErr = errors.New("cannot access a chrome:// URL")
	browser.sendErr = errors.New("receiving end does not exist")
	notifier := &fakeNotifier{}
	coord := capture.New(browser, notifier, nil, nil)

	err := coord.HandleMenuClick(context.Background(), capture.ClickEvent{SrcURL: "https://cdn/a.png", PageURL: "https://page", TabID: 9})
	if err != nil {
		t.Fatalf("expected tolerated failures, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notification, got %+v", notifier.events)
	}
	if coord.State() != capture.StateWaitingForUser {
		t.Fatalf("expected waiting for user, got %s", coord.State())
	}
	show, ok := browser.sent[0].(message.ShowPromptDialog)
	if !ok || show.ImageURL != "https://cdn/a.png" || show.PageURL != "https://page" {
		t.Fatalf("unexpected dialog request %#v", browser.sent[0])
	}
}

func TestSaveSuccessNotificationContainsID(t *testing.T) {
	notifier := &fakeNotifier{}
	client := collectServer(t, http.StatusOK, `{"success":true,"data":{"image_id":42,"filename":"x.png"}}`)
	coord := capture.New(newFakeBrowser(), notifier, client, nil)

	if err := coord.HandleMessage(context.Background(), message.SaveRequest{ImageURL: "https://cdn/a.png"}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	ev := notifier.last(t)
	if ev.Title != capture.TitleSaved || !strings.Contains(ev.Message, "42") {
		t.Fatalf("unexpected notification %+v", ev)
	}
	if coord.State() != capture.StateIdle {
		t.Fatalf("expected idle, got %s", coord.State())
	}
}

func TestSaveFailureNotifications(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", http.StatusBadRequest, `{"detail":"bad url"}`, "bad url"},
		{"status", http.StatusInternalServerError, `boom`, "HTTP 500"},
		{"unparseable", http.StatusOK, `{`, "HTTP 200"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			coord := capture.New(newFakeBrowser(), notifier, collectServer(t, tc.status, tc.body), nil)

			err := coord.HandleMessage(context.Background(), message.SaveRequest{ImageURL: "u"})
			if !errors.Is(err, capture.ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
			ev := notifier.last(t)
			if ev.Title != capture.TitleFailed || !strings.Contains(ev.Message, tc.want) {
				t.Fatalf("unexpected notification %+v", ev)
			}
		})
	}
}

func TestSaveUnreachableFallsBackToGenericText(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	notifier := &fakeNotifier{}
	coord := capture.New(newFakeBrowser(), notifier, collect.NewClient(base, 0), nil)
	if err := coord.HandleMessage(context.Background(), message.SaveRequest{ImageURL: "u"}); err == nil {
		t.Fatal("expected error")
	}
	if got := notifier.last(t).Message; got != collect.UnreachableText {
		t.Fatalf("unexpected notification %q", got)
	}
	if coord.State() != capture.StateIdle {
		t.Fatalf("expected idle, got %s", coord.State())
	}
}

func TestUnknownMessagesAreIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	coord := capture.New(newFakeBrowser(), notifier, nil, nil)
	if err := coord.HandleMessage(context.Background(), message.ShowPromptDialog{}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatal("expected no notification")
	}
}

func TestEndToEndThroughDialog(t *testing.T) {
	ctx := context.Background()
	var (
		mu   sync.Mutex
		body collect.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"success":true,"data":{"image_id":7,"filename":"f.png"}}`))
	}))
	defer srv.Close()

	browser := newFakeBrowser()
	notifier := &fakeNotifier{}
	coord := capture.New(browser, notifier, collect.NewClient(srv.URL, 0), nil)
	page := dialog.NewMemoryPage()
	presenter := dialog.NewPresenter(coord, nil)
	browser.onSend = func(ctx context.Context, _ int, msg message.Message) {
		if show, ok := msg.(message.ShowPromptDialog); ok {
			_, _, _ = presenter.Present(ctx, page, show.CaptureRequest)
		}
	}

	click := capture.ClickEvent{MenuItemID: capture.MenuID, SrcURL: "https://cdn/cat.png", PageURL: "https://gallery", TabID: 1}
	if err := coord.HandleMenuClick(ctx, click); err != nil {
		t.Fatalf("HandleMenuClick: %v", err)
	}
	if err := coord.HandleMenuClick(ctx, click); err != nil {
		t.Fatalf("second HandleMenuClick: %v", err)
	}
	if mounts, _ := page.Counts(); mounts != 1 {
		t.Fatalf("expected one dialog, got %d mounts", mounts)
	}

	page.Click(ctx, dialog.ElementID, dialog.Event{Target: dialog.TargetSave, PromptText: " a cat "})

	mu.Lock()
	defer mu.Unlock()
	if body.ImageURL != "https://cdn/cat.png" || body.PageURL != "https://gallery" || body.ContextText != "a cat" {
		t.Fatalf("unexpected collect body %+v", body)
	}
	if got := notifier.last(t).Message; !strings.Contains(got, "7") {
		t.Fatalf("unexpected notification %q", got)
	}
}
