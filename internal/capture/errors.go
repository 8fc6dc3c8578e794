package capture

import "errors"

var (
	// ErrMissingImageURL is returned when a menu click carries no image source.
	ErrMissingImageURL = errors.New("missing image url")
	// ErrInjection marks a failure to prepare the dialog in a tab. It is logged
	// and never surfaced to the user.
	ErrInjection = errors.New("dialog injection failed")
	// ErrTransport marks a failed collection call.
	ErrTransport = errors.New("collection call failed")
)
