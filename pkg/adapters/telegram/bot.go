// Package telegram connects the engine to a Telegram bot, by webhook or long polling.
package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/runner"
)

// Sender delivers outbound messages. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot routes Telegram updates through the engine.
type Bot struct {
	engine runner.MessageHandler
	sender Sender
	logger *slog.Logger

	username string
	secret   string
}

// SecretTokenHeader carries the secret Telegram echoes on every webhook request.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithUsername sets the bot's own username. Commands addressed to another
// bot ("/start@OtherBot") are then ignored.
func WithUsername(username string) Option {
	return func(b *Bot) {
		b.username = strings.TrimPrefix(username, "@")
	}
}

// WithSecretToken makes the webhook reject requests whose secret token header
// does not match secret. Use the same value with SetWebhook.
func WithSecretToken(secret string) Option {
	return func(b *Bot) {
		b.secret = secret
	}
}

// New creates a bot that answers through sender.
func New(engine runner.MessageHandler, sender Sender, opts ...Option) *Bot {
	b := &Bot{engine: engine, sender: sender, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect logs in with token.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return api, nil
}

// SetWebhook registers url with Telegram. A non-empty secret is echoed back in
// the SecretTokenHeader of every update; an empty one clears it.
func SetWebhook(api *tgbotapi.BotAPI, url, secret string) error {
	hook, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	params := tgbotapi.Params{"url": hook.URL.String()}
	params.AddNonEmpty("secret_token", secret)
	_, err = api.MakeRequest("setWebhook", params)
	return err
}

// HandleUpdate processes one update. Updates without a text message are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return nil
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	text, err := runner.SanitizeInput(msg.Text)
	if err != nil {
		b.logger.Warn("message rejected", "chat_id", chatID, "size", len(msg.Text), "err", err)
		return nil
	}
	text, ok := b.stripMention(text)
	if !ok {
		b.logger.Debug("command for another bot ignored", "chat_id", chatID)
		return nil
	}

	in := domain.Message{ChatID: chatID, Text: text}
	if msg.From != nil {
		in.SenderName = msg.From.FirstName
	}

	reply, err := b.engine.Handle(ctx, in)
	if err != nil {
		return err
	}

	if _, err := b.sender.Send(NewMessage(msg.Chat.ID, reply)); err != nil {
		b.logger.Error("failed to send reply", "chat_id", chatID, "err", err)
		return err
	}
	return nil
}

// stripMention turns "/exit@Bot args" into "/exit args". It reports false
// when the command names a different bot.
func (b *Bot) stripMention(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return text, true
	}
	head, rest, spaced := strings.Cut(text, " ")
	command, mention, found := strings.Cut(head, "@")
	if !found {
		return text, true
	}
	if b.username != "" && !strings.EqualFold(mention, b.username) {
		return "", false
	}
	if spaced {
		return command + " " + rest, true
	}
	return command, true
}

// NewMessage renders a reply as a Telegram message in HTML parse mode.
// Suggestions become a one-time reply keyboard; ClearKeyboard removes it.
func NewMessage(chatID int64, reply domain.Reply) tgbotapi.MessageConfig {
	out := tgbotapi.NewMessage(chatID, reply.Text)
	out.ParseMode = tgbotapi.ModeHTML

	switch {
	case len(reply.Keyboard) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Keyboard))
		for _, row := range reply.Keyboard {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, choice := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(choice))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.OneTimeKeyboard = true
		out.ReplyMarkup = keyboard
	case reply.ClearKeyboard:
		out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	return out
}

// WebhookHandler accepts update payloads posted by Telegram. With a secret
// token configured, requests without the matching header get 401. Processing errors
// are logged and acknowledged so Telegram does not redeliver the update.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretTokenHeader)), []byte(b.secret)) != 1 {
			b.logger.Warn("webhook request with bad secret token", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}
		if err := b.HandleUpdate(r.Context(), update); err != nil {
			b.logger.Error("update failed", "update_id", update.UpdateID, "err", err)
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Poll handles updates until ctx is done or the channel closes.
// Per-update errors are logged and do not stop polling.
func (b *Bot) Poll(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				b.logger.Error("update failed", "update_id", update.UpdateID, "err", err)
			}
		}
	}
}
