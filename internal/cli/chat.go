package cli

import (
	"context"
	"io"

	"github.com/podyouths/rollcall/internal/presentation/tui"
	"github.com/podyouths/rollcall/pkg/runner"
)

// ChatOptions configures a console conversation.
type ChatOptions struct {
	ChatID     string
	SenderName string
	JSON       bool
	AutoStart  bool

	// Interactive enables the banner and Markdown rendering.
	Interactive bool
}

// RunChat holds a conversation on in/out until the input ends or the process is interrupted.
func RunChat(ctx context.Context, app *App, in io.Reader, out io.Writer, opts ChatOptions) error {
	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(in, out)
	case opts.Interactive:
		tui.PrintBanner(out)
		var handlerOpts []runner.TextHandlerOption
		if render, err := tui.NewRenderer(); err != nil {
			app.Logger.Warn("markdown rendering disabled", "err", err)
		} else {
			handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(render))
		}
		handler = runner.NewTextHandler(in, out, handlerOpts...)
	default:
		handler = runner.NewTextHandler(in, out)
	}

	r := runner.NewRunner(
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithChatID(opts.ChatID),
		runner.WithSenderName(opts.SenderName),
		runner.WithAutoStart(opts.AutoStart),
	)

	err := r.Run(ctx, app.Engine)
	if !opts.JSON && opts.Interactive {
		printSystemMessage(out, "Session '%s' closed.", r.ChatID)
	}
	return handleExecutionError(err)
}
