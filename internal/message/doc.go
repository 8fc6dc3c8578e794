// Package message defines the messages exchanged between the in-page dialog,
// the capture coordinator, and the browser relay.
//
// Messages are a tagged variant keyed on Action. Decode returns the concrete
// payload type so callers dispatch with a type switch instead of probing
// optional fields.
package message
