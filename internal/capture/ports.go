package capture

import (
	"context"

	"bananadb/internal/collect"
	"bananadb/internal/message"
)

// Context menu registration.
const (
	MenuID    = "bananadb-save"
	MenuLabel = "🍌 Save to BananaDB"
)

// MenuItem describes a context menu entry.
type MenuItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Contexts []string `json:"contexts"`
}

// ClickEvent is a context menu click on an image.
type ClickEvent struct {
	MenuItemID string
	SrcURL     string
	PageURL    string
	TabID      int
}

// Browser is the coordinator's view of the extension runtime.
type Browser interface {
	// MenuLabel reports the label of a registered menu item. ok is false when
	// the item is known to be absent.
	MenuLabel(ctx context.Context, id string) (label string, ok bool, err error)
	CreateMenu(ctx context.Context, item MenuItem) error
	RemoveMenu(ctx context.Context, id string) error
	// InjectDialog prepares the tab to show the dialog.
	InjectDialog(ctx context.Context, tabID int) error
	// SendToTab delivers a message to the tab. Delivery is best effort.
	SendToTab(ctx context.Context, tabID int, msg message.Message) error
}

// Notifier raises user-visible notifications.
type Notifier interface {
	Notify(ctx context.Context, event message.NotificationEvent) error
}

// Collector persists a saved image.
type Collector interface {
	CollectURL(ctx context.Context, req message.SaveRequest) (*collect.CollectResult, error)
}
