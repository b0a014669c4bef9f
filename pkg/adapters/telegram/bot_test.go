package telegram_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/internal/testutils"
	"github.com/podyouths/rollcall/pkg/adapters/telegram"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return tgbotapi.Message{}, s.err
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

func newEngine(t *testing.T) *rollcall.Engine {
	t.Helper()
	return testutils.NewEngine(t, testutils.NewGateway(map[string][]string{"Bouquet": {"Alice", "Bob"}}))
}

func textUpdate(chatID int64, first, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{FirstName: first},
			Text: text,
		},
	}
}

func TestNewMessage(t *testing.T) {
	t.Run("keyboard", func(t *testing.T) {
		msg := telegram.NewMessage(42, domain.Reply{Text: "<b>Pick</b>", Keyboard: [][]string{{"Jan", "Feb"}, {"Mar"}}})
		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)

		kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
		require.True(t, ok)
		assert.True(t, kb.OneTimeKeyboard)
		require.Len(t, kb.Keyboard, 2)
		assert.Equal(t, "Feb", kb.Keyboard[0][1].Text)
		assert.Equal(t, "Mar", kb.Keyboard[1][0].Text)
	})

	t.Run("clear", func(t *testing.T) {
		msg := telegram.NewMessage(42, domain.Reply{Text: "bye", ClearKeyboard: true})
		rm, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
		require.True(t, ok)
		assert.True(t, rm.RemoveKeyboard)
	})

	t.Run("plain", func(t *testing.T) {
		msg := telegram.NewMessage(42, domain.Reply{Text: "hi"})
		assert.Nil(t, msg.ReplyMarkup)
	})
}

func TestHandleUpdate_Conversation(t *testing.T) {
	eng := newEngine(t)
	sender := &recordingSender{}
	bot := telegram.New(eng, sender)
	ctx := context.Background()

	require.NoError(t, bot.HandleUpdate(ctx, textUpdate(42, "Grace", "/start")))
	require.NoError(t, bot.HandleUpdate(ctx, textUpdate(42, "Grace", "secret")))

	last := sender.last(t)
	assert.Contains(t, last.Text, "Grace", "the sender's first name is used in the greeting")
	kb, ok := last.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Bouquet", kb.Keyboard[0][0].Text)

	s, err := eng.Session(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingCell, s.Step)
}

func TestHandleUpdate_IgnoresNonText(t *testing.T) {
	sender := &recordingSender{}
	bot := telegram.New(newEngine(t), sender)

	require.NoError(t, bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 9}))
	require.NoError(t, bot.HandleUpdate(context.Background(), textUpdate(42, "Grace", "")))
	assert.Empty(t, sender.sent)
}

func TestHandleUpdate_RejectsOversizedInput(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "8")
	sender := &recordingSender{}
	bot := telegram.New(newEngine(t), sender)

	require.NoError(t, bot.HandleUpdate(context.Background(), textUpdate(42, "Grace", "way too long a message")))
	assert.Empty(t, sender.sent)
}

func TestHandleUpdate_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("network down")}
	bot := telegram.New(newEngine(t), sender)

	err := bot.HandleUpdate(context.Background(), textUpdate(42, "Grace", "/start"))
	assert.ErrorContains(t, err, "network down")
}

func TestWebhookHandler(t *testing.T) {
	sender := &recordingSender{}
	bot := telegram.New(newEngine(t), sender)
	h := bot.WebhookHandler()

	body := `{"update_id":5,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":"Grace"},"text":"/start"}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(42), sender.last(t).ChatID)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookHandler_SecretToken(t *testing.T) {
	sender := &recordingSender{}
	h := telegram.New(newEngine(t), sender, telegram.WithSecretToken("s3cret")).WebhookHandler()
	body := `{"update_id":5,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"/start"}}`

	for name, header := range map[string]string{"missing": "", "wrong": "guess"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
			if header != "" {
				req.Header.Set(telegram.SecretTokenHeader, header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
	assert.Empty(t, sender.sent)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set(telegram.SecretTokenHeader, "s3cret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, sender.sent, 1)
}

func TestHandleUpdate_CommandMentions(t *testing.T) {
	eng := newEngine(t)
	sender := &recordingSender{}
	bot := telegram.New(eng, sender, telegram.WithUsername("@RollcallBot"))
	ctx := context.Background()

	require.NoError(t, bot.HandleUpdate(ctx, textUpdate(-100, "Grace", "/start@RollcallBot")))
	s, err := eng.Session(ctx, "-100")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingVerification, s.Step)

	// Addressed to someone else: no reply, no state change.
	require.NoError(t, bot.HandleUpdate(ctx, textUpdate(-100, "Grace", "/exit@OtherBot")))
	assert.Len(t, sender.sent, 1)

	require.NoError(t, bot.HandleUpdate(ctx, textUpdate(-100, "Grace", "/exit@rollcallbot")))
	assert.Len(t, sender.sent, 2)
	_, err = eng.Session(ctx, "-100")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestHandleUpdate_CommandMentionWithoutUsername(t *testing.T) {
	eng := newEngine(t)
	bot := telegram.New(eng, &recordingSender{})
	ctx := context.Background()

	require.NoError(t, bot.HandleUpdate(ctx, textUpdate(7, "Grace", "/start@AnyBot")))
	s, err := eng.Session(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingVerification, s.Step)
}

func TestPoll(t *testing.T) {
	sender := &recordingSender{err: nil}
	bot := telegram.New(newEngine(t), sender)

	updates := make(chan tgbotapi.Update, 2)
	updates <- textUpdate(1, "A", "/start")
	updates <- textUpdate(2, "B", "/start")
	close(updates)

	require.NoError(t, bot.Poll(context.Background(), updates))
	assert.Len(t, sender.sent, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, bot.Poll(ctx, make(chan tgbotapi.Update)))
}
