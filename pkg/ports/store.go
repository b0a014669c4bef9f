package ports

import (
	"context"

	"github.com/podyouths/rollcall/pkg/domain"
)

// SessionStore defines the interface for persisting in-progress conversations.
// This allows a conversation to survive restarts when a durable backend is used.
type SessionStore interface {
	// Save persists the session for a given chat ID.
	Save(ctx context.Context, chatID string, session *domain.Session) error

	// Load retrieves the session for a given chat ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, chatID string) (*domain.Session, error)

	// Delete removes the session for a given chat ID.
	Delete(ctx context.Context, chatID string) error

	// List returns the chat IDs with a stored session.
	List(ctx context.Context) ([]string, error)
}
