package runner

import (
	"context"

	"github.com/podyouths/rollcall/pkg/domain"
)

// MessageHandler processes one inbound message. *rollcall.Engine implements it.
type MessageHandler interface {
	Handle(ctx context.Context, msg domain.Message) (domain.Reply, error)
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (console) and JSON (structured) modes.
type IOHandler interface {
	// Output presents a reply to the user.
	Output(ctx context.Context, reply domain.Reply) error

	// Input reads the next message from the user. It returns io.EOF when the
	// input is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status, errors) distinct from replies.
	SystemOutput(ctx context.Context, msg string) error
}
