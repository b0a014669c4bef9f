package runner

import (
	"context"
	"fmt"

	"github.com/podyouths/rollcall/pkg/domain"
)

// Response is the wire shape of a reply for rich clients (HTTP, MCP, JSON-Lines).
type Response struct {
	Text          string      `json:"text"`
	Choices       []string    `json:"choices"`
	Keyboard      [][]string  `json:"keyboard,omitempty"`
	ClearKeyboard bool        `json:"clear_keyboard,omitempty"`
	State         domain.Step `json:"state"`
}

// NewResponse converts a reply to its wire shape.
func NewResponse(r domain.Reply) Response {
	choices := r.Choices()
	if choices == nil {
		choices = []string{}
	}
	return Response{
		Text:          r.Text,
		Choices:       choices,
		Keyboard:      r.Keyboard,
		ClearKeyboard: r.ClearKeyboard,
		State:         r.Step,
	}
}

// HandleAndRespond sanitizes the text, runs one turn and returns the wire response.
// This is the common path of every request/response transport.
func HandleAndRespond(ctx context.Context, engine MessageHandler, msg domain.Message) (*Response, error) {
	clean, err := SanitizeInput(msg.Text)
	if err != nil {
		return nil, err
	}
	msg.Text = clean

	reply, err := engine.Handle(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to handle message: %w", err)
	}
	resp := NewResponse(reply)
	return &resp, nil
}
