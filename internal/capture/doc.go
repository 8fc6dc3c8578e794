// Package capture coordinates the save-image flow: it registers the context
// menu entry, reacts to clicks on images, opens the prompt dialog in the tab,
// receives the resulting save message, calls the collection endpoint, and
// reports the outcome as a notification.
//
// Browser access goes through the Browser port so the coordinator runs the
// same way behind the native messaging host and in tests. Nothing here
// retries: a failed save is reported once and the coordinator returns to idle.
package capture
