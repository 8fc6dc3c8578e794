package dialog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryPage is an in-process Page. It records mounts and focus changes and
// lets callers dispatch events the way a browser would.
type MemoryPage struct {
	mu        sync.Mutex
	elements  map[string]mounted
	listeners map[ListenerID]Handler
	nextID    ListenerID
	focused   string
	mounts    int
	unmounts  int
}

type mounted struct {
	markup  string
	onClick Handler
}

// NewMemoryPage returns an empty page.
func NewMemoryPage() *MemoryPage {
	return &MemoryPage{
		elements:  make(map[string]mounted),
		listeners: make(map[ListenerID]Handler),
	}
}

func (p *MemoryPage) HasElement(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.elements[id]
	return ok
}

func (p *MemoryPage) Mount(_ context.Context, id, markup string, onClick Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.elements[id]; ok {
		return fmt.Errorf("mount %s: element already present", id)
	}
	p.elements[id] = mounted{markup: markup, onClick: onClick}
	p.mounts++
	return nil
}

func (p *MemoryPage) Unmount(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.elements[id]; !ok {
		return nil
	}
	delete(p.elements, id)
	p.unmounts++
	if p.focused == PromptInputID {
		p.focused = ""
	}
	return nil
}

func (p *MemoryPage) Focus(_ context.Context, elementID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focused = elementID
	return nil
}

func (p *MemoryPage) AddKeyListener(_ context.Context, fn Handler) (ListenerID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.listeners[p.nextID] = fn
	return p.nextID, nil
}

func (p *MemoryPage) RemoveKeyListener(_ context.Context, id ListenerID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.listeners, id)
	return nil
}

// Click delivers a click on target to the element with the given id. It
// reports whether an element received it.
func (p *MemoryPage) Click(ctx context.Context, id string, ev Event) bool {
	p.mu.Lock()
	el, ok := p.elements[id]
	p.mu.Unlock()
	if !ok || el.onClick == nil {
		return false
	}
	ev.Kind = EventClick
	el.onClick(ctx, ev)
	return true
}

// PressKey delivers a keydown event to every registered key listener and
// returns how many listeners received it.
func (p *MemoryPage) PressKey(ctx context.Context, key string) int {
	p.mu.Lock()
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, p.listeners[ListenerID(id)])
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(ctx, Event{Kind: EventKeydown, Key: key})
	}
	return len(handlers)
}

// Markup returns the markup mounted under id.
func (p *MemoryPage) Markup(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[id].markup
}

// Focused returns the id of the focused element.
func (p *MemoryPage) Focused() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// ListenerCount returns the number of registered key listeners.
func (p *MemoryPage) ListenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// Counts returns how many mounts and unmounts the page has seen.
func (p *MemoryPage) Counts() (mounts, unmounts int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounts, p.unmounts
}
