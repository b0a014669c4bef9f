package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
)

// DefaultChatID identifies the console conversation when none is configured.
const DefaultChatID = "console"

// Runner handles the console loop using the provided IO.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	ChatID     string
	SenderName string

	// AutoStart sends /start before reading input.
	AutoStart bool
}

// NewRunner creates a Runner with defaults applied.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		ChatID: DefaultChatID,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run feeds input lines to engine until the input ends or the process is
// interrupted. Interruption is not an error.
func (r *Runner) Run(ctx context.Context, engine MessageHandler) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	if r.AutoStart {
		if err := r.turn(ctx, engine, domain.CommandStart); err != nil {
			return err
		}
	}

	for {
		text, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Debug("console input closed", "chat_id", r.ChatID, "err", err)
				return nil
			}
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
				if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}
		if text == "" {
			continue
		}

		if err := r.turn(ctx, engine, text); err != nil {
			return err
		}
	}
}

func (r *Runner) turn(ctx context.Context, engine MessageHandler, text string) error {
	reply, err := engine.Handle(ctx, domain.Message{ChatID: r.ChatID, Text: text, SenderName: r.SenderName})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("engine error: %w", err)
	}
	r.Logger.Debug("reply", "chat_id", r.ChatID, "state", string(reply.Step))

	if err := r.Handler.Output(ctx, reply); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
