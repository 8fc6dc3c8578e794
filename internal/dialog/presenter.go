package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bananadb/internal/capture"
	"bananadb/internal/logging"
	"bananadb/internal/message"
)

// Sender delivers a message from the page to the capture coordinator.
type Sender interface {
	Send(ctx context.Context, msg message.Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg message.Message) error

func (f SenderFunc) Send(ctx context.Context, msg message.Message) error { return f(ctx, msg) }

// Outcome records how a session ended.
type Outcome string

const (
	OutcomeOpen      Outcome = ""
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSaved     Outcome = "saved"
	OutcomeDismissed Outcome = "dismissed"
	OutcomeEscaped   Outcome = "escaped"
	OutcomeDiscarded Outcome = "discarded"
)

// Presenter mounts prompt dialogs on pages.
type Presenter struct {
	sender Sender
	logger *slog.Logger
}

// NewPresenter constructs a presenter that forwards save messages to sender.
func NewPresenter(sender Sender, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Presenter{sender: sender, logger: logging.NewComponentLogger(logger, "dialog")}
}

// Present shows the dialog for req on page. When the page already holds a
// dialog it returns (nil, false, nil) without touching the page. Present
// returns as soon as the dialog is mounted; the session advances on events.
func (p *Presenter) Present(ctx context.Context, page Page, req message.CaptureRequest) (*Session, bool, error) {
	if page == nil {
		return nil, false, errors.New("present dialog: nil page")
	}
	if page.HasElement(ElementID) {
		p.logger.Debug("dialog already open", logging.String("image_url", req.ImageURL))
		return nil, false, nil
	}

	markup, err := Render(req.ImageURL)
	if err != nil {
		return nil, false, err
	}

	s := &Session{
		page:   page,
		req:    req,
		sender: p.sender,
		logger: p.logger,
		done:   make(chan struct{}),
	}
	if err := page.Mount(ctx, ElementID, markup, s.handleClick); err != nil {
		return nil, false, fmt.Errorf("mount dialog: %w", err)
	}
	keyID, err := page.AddKeyListener(ctx, s.handleKey)
	if err != nil {
		_ = page.Unmount(ctx, ElementID)
		return nil, false, fmt.Errorf("register key listener: %w", err)
	}
	s.mu.Lock()
	s.keyID = keyID
	s.mu.Unlock()

	if err := page.Focus(ctx, PromptInputID); err != nil {
		p.logger.Debug("focus prompt input failed", logging.Error(err))
	}
	p.logger.Debug("dialog presented", logging.String("image_url", req.ImageURL))
	return s, true, nil
}

// Session is one mounted dialog.
type Session struct {
	mu      sync.Mutex
	page    Page
	req     message.CaptureRequest
	sender  Sender
	logger  *slog.Logger
	keyID   ListenerID
	outcome Outcome
	done    chan struct{}
}

// Request returns the capture request the session was opened for.
func (s *Session) Request() message.CaptureRequest { return s.req }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Outcome reports how the session ended, or OutcomeOpen while it is mounted.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Submit saves with the given form values. It sends exactly one save message
// for the lifetime of the session; later calls return false.
func (s *Session) Submit(ctx context.Context, prompt string, skipAI bool) (bool, error) {
	if !s.close(ctx, OutcomeSaved) {
		return false, nil
	}
	msg := message.NewSaveRequest(s.req, prompt, skipAI)
	if s.sender == nil {
		return true, errors.New("send save message: no sender")
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return true, fmt.Errorf("send save message: %w", err)
	}
	return true, nil
}

// Cancel closes the dialog without sending anything.
func (s *Session) Cancel(ctx context.Context) bool {
	return s.close(ctx, OutcomeCancelled)
}

// Discard ends a session whose document went away, releasing its listener
// and element through the page. Nothing is sent.
func (s *Session) Discard(ctx context.Context) bool {
	return s.close(ctx, OutcomeDiscarded)
}

func (s *Session) handleClick(ctx context.Context, ev Event) {
	switch ev.Target {
	case TargetSave:
		if _, err := s.Submit(ctx, ev.PromptText, ev.SkipAI); err != nil {
			// The coordinator reports failed collection calls itself.
			if errors.Is(err, capture.ErrTransport) {
				s.logger.Debug("save message delivered, collection failed", logging.Error(err))
				return
			}
			logging.WarnWithContext(s.logger, "save message not delivered", "save_message_failed",
				logging.String(logging.FieldImpact, "image was not saved"),
				logging.String(logging.FieldErrorHint, "check that the capture host is running"),
				logging.Error(err))
		}
	case TargetCancel:
		s.close(ctx, OutcomeCancelled)
	case TargetOverlay:
		s.close(ctx, OutcomeDismissed)
	}
}

func (s *Session) handleKey(ctx context.Context, ev Event) {
	if ev.Kind == EventKeydown && ev.Key == KeyEscape {
		s.close(ctx, OutcomeEscaped)
	}
}

// close tears the dialog down once. It reports whether this call closed it.
func (s *Session) close(ctx context.Context, outcome Outcome) bool {
	s.mu.Lock()
	if s.outcome != OutcomeOpen {
		s.mu.Unlock()
		return false
	}
	s.outcome = outcome
	keyID := s.keyID
	s.mu.Unlock()

	if err := s.page.RemoveKeyListener(ctx, keyID); err != nil {
		s.logger.Debug("remove key listener failed", logging.Error(err))
	}
	if err := s.page.Unmount(ctx, ElementID); err != nil {
		s.logger.Debug("unmount dialog failed", logging.Error(err))
	}
	close(s.done)
	s.logger.Debug("dialog closed", logging.String("outcome", string(outcome)))
	return true
}
