package rollcall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/internal/runtime"
	"github.com/podyouths/rollcall/pkg/adapters/memory"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
	"github.com/podyouths/rollcall/pkg/session"
)

// ErrMissingChatID is returned when a message carries no chat identity.
var ErrMissingChatID = errors.New("chat id is required")

// Engine is the high-level entry point of the attendance bot.
// It wraps the internal state machine with per-chat session handling.
type Engine struct {
	runtime  *runtime.Engine
	gateway  ports.Gateway
	sessions *session.Manager

	store      ports.SessionStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	clock      func() time.Time
	enrollment runtime.Enrollment
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSessionStore sets where in-progress conversations are kept (default: memory).
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed per-chat locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithClock overrides the time source. The current year completes the chosen date.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithEnrollmentDefaults sets the role and birth date given to auto-enrolled newcomers.
func WithEnrollmentDefaults(role string, birthDate domain.Date) Option {
	return func(e *Engine) {
		e.enrollment = runtime.Enrollment{Role: role, BirthDate: birthDate}
	}
}

// New initializes an Engine over gateway. verificationCode is the shared secret
// users must send after /start.
func New(gateway ports.Gateway, verificationCode string, opts ...Option) (*Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if verificationCode == "" {
		return nil, fmt.Errorf("verification code is required")
	}

	eng := &Engine{
		gateway:    gateway,
		clock:      time.Now,
		enrollment: runtime.DefaultEnrollment,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	managerOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithClock(eng.clock),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, managerOpts...)

	eng.runtime = runtime.NewEngine(gateway, verificationCode,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithClock(eng.clock),
		runtime.WithEnrollment(eng.enrollment),
	)
	return eng, nil
}

// Handle processes one inbound message and returns the reply to deliver.
//
// When the attendance store cannot be read the conversation is left untouched
// and the reply asks the user to resend; no error is returned in that case.
func (e *Engine) Handle(ctx context.Context, msg domain.Message) (domain.Reply, error) {
	if msg.ChatID == "" {
		return domain.Reply{}, ErrMissingChatID
	}

	var reply domain.Reply
	err := e.sessions.WithLock(ctx, msg.ChatID, func(ctx context.Context) error {
		// The manager lock is held; use the store directly from here on.
		store := e.sessions.Store()

		current, err := e.sessions.LoadOrIdle(ctx, msg.ChatID)
		if err != nil {
			return err
		}

		next, r, err := e.runtime.Navigate(ctx, current, msg)
		if err != nil {
			var gwErr *domain.GatewayError
			if errors.As(err, &gwErr) {
				e.logger.Error("attendance store unavailable",
					"chat_id", msg.ChatID,
					"state", string(current.Step),
					"op", gwErr.Op,
					"err", err,
				)
				reply = runtime.RetryReply(current)
				return nil
			}
			return err
		}

		if next.Step == domain.StepIdle {
			if current.Step != domain.StepIdle {
				if err := store.Delete(ctx, msg.ChatID); err != nil {
					return fmt.Errorf("failed to clear session: %w", err)
				}
			}
		} else if err := store.Save(ctx, msg.ChatID, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		reply = r
		return nil
	})
	return reply, err
}

// Session returns the in-progress conversation of a chat.
func (e *Engine) Session(ctx context.Context, chatID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, chatID)
}

// Sessions lists the chats with a conversation in progress.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// DeleteSession discards a chat's conversation without persisting anything.
func (e *Engine) DeleteSession(ctx context.Context, chatID string) error {
	return e.sessions.Delete(ctx, chatID)
}

// Gateway returns the roster and attendance store used by the engine.
func (e *Engine) Gateway() ports.Gateway {
	return e.gateway
}

// Transitions returns the conversation graph for visualization.
func (e *Engine) Transitions() []domain.Edge {
	return runtime.Transitions()
}
