// Package logging assembles structured slog loggers and formatting helpers used
// across BananaDB services.
//
// It owns the console and JSON handlers, routes output to a terminal stream and
// a size-rotated log file, and exposes context-aware helpers so request
// handlers and the capture coordinator can tag lines with correlation IDs and
// browser tab IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// The native messaging host owns stdout for its wire protocol, so callers pick
// the console stream explicitly instead of relying on a stdout default.
package logging
