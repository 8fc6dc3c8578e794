// Package nativehost speaks Chrome's native messaging protocol on stdio and
// binds the capture coordinator and dialog presenter to a real browser.
//
// Frames are a 4-byte little-endian length followed by UTF-8 JSON. The
// extension forwards browser events (install, menu clicks, DOM events from
// the dialog, navigations, tab closures) and executes the commands the host
// writes back (menu registration, dialog mount and unmount, listeners,
// notifications). A navigation or closure discards the tab's dialog state.
// The extension keeps no state of its own. Its source ships in
// internal/extension and is written out by install-host.
//
// Inbound frames are handled one at a time on the goroutine running Run, so
// a save blocks further events until the collection call returns. Writes are
// serialised and may come from any goroutine.
package nativehost
