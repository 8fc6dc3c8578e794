package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action tags a message variant.
type Action string

const (
	ActionShowPromptDialog Action = "showPromptDialog"
	ActionSaveImage        Action = "saveImage"
)

// ErrUnknownAction is returned by Decode for actions outside the known set.
var ErrUnknownAction = errors.New("unknown message action")

// Message is implemented by every routable payload.
type Message interface {
	Action() Action
}

// CaptureRequest is produced by a context-menu click on an image.
type CaptureRequest struct {
	ImageURL string `json:"imageUrl"`
	PageURL  string `json:"pageUrl"`
}

// ShowPromptDialog asks the page to present the prompt dialog.
type ShowPromptDialog struct {
	CaptureRequest
}

func (ShowPromptDialog) Action() Action { return ActionShowPromptDialog }

// SaveRequest carries the user's decision to persist an image.
type SaveRequest struct {
	ImageURL   string `json:"imageUrl"`
	PageURL    string `json:"pageUrl"`
	PromptText string `json:"promptText"`
	SkipAI     bool   `json:"skipAI"`
}

func (SaveRequest) Action() Action { return ActionSaveImage }

// NewSaveRequest builds a SaveRequest with the prompt trimmed of surrounding whitespace.
func NewSaveRequest(capture CaptureRequest, prompt string, skipAI bool) SaveRequest {
	return SaveRequest{
		ImageURL:   capture.ImageURL,
		PageURL:    capture.PageURL,
		PromptText: strings.TrimSpace(prompt),
		SkipAI:     skipAI,
	}
}

// NotificationEvent is a user-visible outcome.
type NotificationEvent struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type envelope struct {
	Action Action `json:"action"`
}

// Encode serializes a message with its action tag.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("encode message: nil message")
	}
	switch m := msg.(type) {
	case ShowPromptDialog:
		return json.Marshal(struct {
			Action Action `json:"action"`
			ShowPromptDialog
		}{m.Action(), m})
	case SaveRequest:
		return json.Marshal(struct {
			Action Action `json:"action"`
			SaveRequest
		}{m.Action(), m})
	default:
		return nil, fmt.Errorf("encode message: %w: %q", ErrUnknownAction, msg.Action())
	}
}

// Decode parses a tagged message into its concrete payload type.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	switch env.Action {
	case ActionShowPromptDialog:
		var m ShowPromptDialog
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Action, err)
		}
		return m, nil
	case ActionSaveImage:
		var m SaveRequest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Action, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("decode message: %w: %q", ErrUnknownAction, env.Action)
	}
}
