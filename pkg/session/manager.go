package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring at most one turn runs per chat.
// Unused locks are garbage collected through reference counting.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	clock   func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source used to stamp new sessions.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a new session Manager over the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(chatID) after unlocking.
func (m *Manager) acquire(chatID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[chatID]
	if !exists {
		entry = &lockEntry{}
		m.locks[chatID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[chatID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, chatID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, chatID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, chatID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, chatID)
		return err
	})
	return s, err
}

// LoadOrIdle returns the stored session, or an idle one when the chat is unknown.
// The idle session is not persisted. It does not take the chat lock, so it is
// meant to be called from inside WithLock.
func (m *Manager) LoadOrIdle(ctx context.Context, chatID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, chatID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &domain.Session{ChatID: chatID, Step: domain.StepIdle, UpdatedAt: m.clock()}, nil
}

// Start replaces any stored session for chatID with a fresh one awaiting verification.
func (m *Manager) Start(ctx context.Context, chatID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, chatID, func(ctx context.Context) error {
		s = domain.NewSession(chatID, m.clock())
		if err := m.store.Save(ctx, chatID, s); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return s, err
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, chatID string, s *domain.Session) error {
	return m.WithLock(ctx, chatID, func(ctx context.Context) error {
		return m.store.Save(ctx, chatID, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, chatID string) error {
	return m.WithLock(ctx, chatID, func(ctx context.Context) error {
		return m.store.Delete(ctx, chatID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
// Callers already inside WithLock must use it directly since the lock is not reentrant.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes fn while holding the lock for the chat.
func (m *Manager) WithLock(ctx context.Context, chatID string, fn func(context.Context) error) error {
	entry := m.acquire(chatID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(chatID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, chatID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"chat_id", chatID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
