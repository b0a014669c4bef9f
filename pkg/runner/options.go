package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithChatID sets the chat the console speaks for.
func WithChatID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.ChatID = id
		}
	}
}

// WithSenderName sets the display name used in greetings.
func WithSenderName(name string) Option {
	return func(r *Runner) {
		r.SenderName = name
	}
}

// WithAutoStart sends /start before reading the first line.
func WithAutoStart(auto bool) Option {
	return func(r *Runner) {
		r.AutoStart = auto
	}
}
