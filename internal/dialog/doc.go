// Package dialog presents the prompt-entry modal shown before an image is
// saved and turns the user's choice into at most one save message.
//
// The presenter is headless. It drives a Page, a small port over the DOM of a
// single browser tab, so the same state machine runs against a real tab
// relayed through the native messaging host and against MemoryPage in tests
// and the command line simulation.
//
// A page holds at most one dialog, keyed by ElementID. Present is idempotent:
// while a dialog is mounted a second call creates nothing. Every exit path
// (cancel, save, overlay click, Escape) unmounts the element and removes the
// keydown listener the session registered.
package dialog
