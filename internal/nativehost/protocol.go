package nativehost

import "bananadb/internal/capture"

// Inbound event types sent by the extension.
const (
	EventInstalled    = "installed"
	EventMenuClicked  = "menuClicked"
	EventDOM          = "domEvent"
	EventTabClosed    = "tabClosed"
	EventInjectResult = "injectResult"
	// EventNavigated reports a committed top-level navigation, which replaces
	// the tab's document and with it any mounted dialog.
	EventNavigated = "navigated"
)

// Outbound command types executed by the extension.
const (
	CommandCreateMenu = "createMenu"
	CommandRemoveMenu = "removeMenu"
	CommandInject     = "inject"
	CommandMount      = "mount"
	CommandUnmount    = "unmount"
	CommandFocus      = "focus"
	CommandListen     = "listen"
	CommandUnlisten   = "unlisten"
	CommandNotify     = "notify"
)

// Inbound is the union of events the extension forwards. Type selects which
// fields are meaningful.
type Inbound struct {
	Type string `json:"type"`

	// installed
	Reason string `json:"reason,omitempty"`

	// menuClicked
	MenuItemID string `json:"menuItemId,omitempty"`
	SrcURL     string `json:"srcUrl,omitempty"`
	PageURL    string `json:"pageUrl,omitempty"`

	// every tab-scoped event
	TabID int `json:"tabId,omitempty"`

	// domEvent
	ElementID  string `json:"elementId,omitempty"`
	ListenerID int    `json:"listenerId,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Target     string `json:"target,omitempty"`
	Key        string `json:"key,omitempty"`
	PromptText string `json:"promptText,omitempty"`
	SkipAI     bool   `json:"skipAI,omitempty"`

	// injectResult
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// Command is the union of commands the host writes.
type Command struct {
	Type string `json:"type"`

	Menu   *capture.MenuItem `json:"menu,omitempty"`
	MenuID string            `json:"menuId,omitempty"`

	TabID      int    `json:"tabId,omitempty"`
	ElementID  string `json:"elementId,omitempty"`
	HTML       string `json:"html,omitempty"`
	ListenerID int    `json:"listenerId,omitempty"`
	Kind       string `json:"kind,omitempty"`

	Notification *Notification `json:"notification,omitempty"`
}

// Notification mirrors chrome.notifications.NotificationOptions.
type Notification struct {
	Type     string `json:"type"`
	IconURL  string `json:"iconUrl"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}
