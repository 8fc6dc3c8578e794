package dialog

import "context"

// ElementID identifies the dialog root element in a page.
const ElementID = "bananadb-prompt-dialog"

// Selectors used by the rendered markup.
const (
	PromptInputID = "bananadb-prompt-input"
	SkipAIInputID = "bananadb-skip-ai"
)

// EventKind distinguishes DOM events delivered to a session.
type EventKind string

const (
	EventClick   EventKind = "click"
	EventKeydown EventKind = "keydown"
)

// Click targets carried in Event.Target. Clicks on any other part of the
// dialog box carry TargetBox.
const (
	TargetCancel  = "cancel"
	TargetSave    = "save"
	TargetOverlay = "overlay"
	TargetBox     = "box"
)

// KeyEscape is the Event.Key value of the Escape key.
const KeyEscape = "Escape"

// Event is a DOM event observed on a page. PromptText and SkipAI snapshot the
// form inputs at the time of the event.
type Event struct {
	Kind       EventKind `json:"kind"`
	Target     string    `json:"target,omitempty"`
	Key        string    `json:"key,omitempty"`
	PromptText string    `json:"promptText"`
	SkipAI     bool      `json:"skipAI"`
}

// Handler receives events for a mounted dialog.
type Handler func(ctx context.Context, ev Event)

// ListenerID identifies a registered document-level key listener.
type ListenerID int

// Page is the DOM surface of one browser tab.
//
// Click handlers passed to Mount live as long as the element; removing the
// element releases them. Key listeners are document-level and must be removed
// explicitly.
type Page interface {
	HasElement(id string) bool
	Mount(ctx context.Context, id, markup string, onClick Handler) error
	Unmount(ctx context.Context, id string) error
	Focus(ctx context.Context, elementID string) error
	AddKeyListener(ctx context.Context, fn Handler) (ListenerID, error)
	RemoveKeyListener(ctx context.Context, id ListenerID) error
}
