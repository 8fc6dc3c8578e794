package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldTabID identifies the browser tab a capture event came from.
	FieldTabID = "tab_id"
	// FieldImageID is the persisted image record identifier.
	FieldImageID = "image_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for the reader of a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldSessionID identifies one native host process lifetime.
	FieldSessionID = "session_id"
)

type contextKey int

const (
	correlationIDKey contextKey = iota
	tabIDKey
)

// WithCorrelationID returns a context carrying a request correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation identifier if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok && id != ""
}

// WithTabID returns a context carrying the originating browser tab.
func WithTabID(ctx context.Context, tabID int) context.Context {
	return context.WithValue(ctx, tabIDKey, tabID)
}

// TabIDFromContext returns the browser tab identifier if present.
func TabIDFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(tabIDKey).(int)
	return id, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, id))
	}
	if tab, ok := TabIDFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldTabID, tab))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
