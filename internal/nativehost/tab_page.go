package nativehost

import (
	"context"
	"sync"

	"bananadb/internal/dialog"
)

// tabPage is a dialog.Page whose DOM lives in one document of a browser tab.
// Once detached the document is gone: bookkeeping still updates but no
// commands are sent.
type tabPage struct {
	host  *Host
	tabID int

	mu        sync.Mutex
	elements  map[string]dialog.Handler
	listeners map[dialog.ListenerID]dialog.Handler
	nextID    dialog.ListenerID
	session   *dialog.Session
	detached  bool
}

func newTabPage(h *Host, tabID int) *tabPage {
	return &tabPage{
		host:      h,
		tabID:     tabID,
		elements:  make(map[string]dialog.Handler),
		listeners: make(map[dialog.ListenerID]dialog.Handler),
	}
}

func (p *tabPage) send(cmd Command) error {
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()
	if detached {
		return nil
	}
	return p.host.send(cmd)
}

func (p *tabPage) setSession(s *dialog.Session) {
	p.mu.Lock()
	p.session = s
	p.mu.Unlock()
}

// detach marks the document gone and returns the dialog session that was
// still open on it, if any.
func (p *tabPage) detach() *dialog.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached = true
	if p.session != nil && p.session.Outcome() == dialog.OutcomeOpen {
		return p.session
	}
	return nil
}

func (p *tabPage) HasElement(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.elements[id]
	return ok
}

func (p *tabPage) Mount(_ context.Context, id, markup string, onClick dialog.Handler) error {
	if err := p.send(Command{Type: CommandMount, TabID: p.tabID, ElementID: id, HTML: markup}); err != nil {
		return err
	}
	p.mu.Lock()
	p.elements[id] = onClick
	p.mu.Unlock()
	return nil
}

func (p *tabPage) Unmount(_ context.Context, id string) error {
	p.mu.Lock()
	_, ok := p.elements[id]
	delete(p.elements, id)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return p.send(Command{Type: CommandUnmount, TabID: p.tabID, ElementID: id})
}

func (p *tabPage) Focus(_ context.Context, elementID string) error {
	return p.send(Command{Type: CommandFocus, TabID: p.tabID, ElementID: elementID})
}

func (p *tabPage) AddKeyListener(_ context.Context, fn dialog.Handler) (dialog.ListenerID, error) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	p.mu.Unlock()
	if err := p.send(Command{Type: CommandListen, TabID: p.tabID, ListenerID: int(id), Kind: string(dialog.EventKeydown)}); err != nil {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
		return 0, err
	}
	return id, nil
}

func (p *tabPage) RemoveKeyListener(_ context.Context, id dialog.ListenerID) error {
	p.mu.Lock()
	_, ok := p.listeners[id]
	delete(p.listeners, id)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return p.send(Command{Type: CommandUnlisten, TabID: p.tabID, ListenerID: int(id)})
}

// dispatch routes a relayed DOM event. Events for elements or listeners that
// are already gone are dropped, which covers keydowns racing an unlisten.
func (p *tabPage) dispatch(ctx context.Context, ev Inbound) {
	event := dialog.Event{
		Kind:       dialog.EventKind(ev.Kind),
		Target:     ev.Target,
		Key:        ev.Key,
		PromptText: ev.PromptText,
		SkipAI:     ev.SkipAI,
	}
	var handler dialog.Handler
	p.mu.Lock()
	switch event.Kind {
	case dialog.EventClick:
		handler = p.elements[ev.ElementID]
	case dialog.EventKeydown:
		handler = p.listeners[dialog.ListenerID(ev.ListenerID)]
	}
	p.mu.Unlock()
	if handler != nil {
		handler(ctx, event)
	}
}
