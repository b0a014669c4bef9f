package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	httpapi "github.com/podyouths/rollcall/pkg/adapters/http"
	"github.com/podyouths/rollcall/pkg/adapters/telegram"
)

// ErrNoTelegramToken is returned when a Telegram transport is requested without a bot token.
var ErrNoTelegramToken = errors.New("telegram.token is required")

const shutdownTimeout = 5 * time.Second

// Handler builds the HTTP API. webhook, when non-nil, is mounted for Telegram.
func (a *App) Handler(webhook http.Handler) (http.Handler, error) {
	opts := []httpapi.Option{
		httpapi.WithLogger(a.Logger),
		httpapi.WithMetrics(a.Registry),
	}
	if webhook != nil {
		opts = append(opts, httpapi.WithTelegramWebhook(webhook))
	}
	return httpapi.NewHandler(a.Engine, opts...)
}

// Serve runs the HTTP API until ctx is done. With a Telegram token and a
// webhook URL, the webhook is registered and served on the same listener.
func Serve(ctx context.Context, app *App) error {
	var webhook http.Handler
	if tg := app.Config.Telegram; tg.Token != "" && tg.WebhookURL != "" {
		api, err := telegram.Connect(tg.Token, tg.Debug)
		if err != nil {
			return fmt.Errorf("failed to connect to telegram: %w", err)
		}
		if err := telegram.SetWebhook(api, tg.WebhookURL, tg.WebhookSecret); err != nil {
			return fmt.Errorf("failed to register telegram webhook: %w", err)
		}
		app.Logger.Info("telegram webhook registered", "url", tg.WebhookURL, "secret", tg.WebhookSecret != "")
		webhook = telegram.New(app.Engine, api,
			telegram.WithLogger(app.Logger),
			telegram.WithUsername(api.Self.UserName),
			telegram.WithSecretToken(tg.WebhookSecret),
		).WebhookHandler()
	}

	handler, err := app.Handler(webhook)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("starting rollcall server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return handleExecutionError(err)
	case <-ctx.Done():
		app.Logger.Info("shutting down rollcall server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		app.Logger.Info("rollcall server stopped gracefully")
		return nil
	}
}

// Poll answers Telegram updates by long polling until ctx is done.
func Poll(ctx context.Context, app *App) error {
	tg := app.Config.Telegram
	if tg.Token == "" {
		return ErrNoTelegramToken
	}

	api, err := telegram.Connect(tg.Token, tg.Debug)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	// getUpdates is refused while a webhook is set.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to remove telegram webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = tg.PollTimeout
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	app.Logger.Info("polling telegram", "bot", api.Self.UserName)
	bot := telegram.New(app.Engine, api, telegram.WithLogger(app.Logger), telegram.WithUsername(api.Self.UserName))
	return handleExecutionError(bot.Poll(ctx, updates))
}
