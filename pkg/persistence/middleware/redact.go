package middleware

import (
	"context"
	"unicode/utf8"

	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
)

type redactionMiddleware struct {
	next ports.SessionStore
}

// NewRedactionMiddleware masks collected names on Load, keeping only their
// first letter. Saves pass through unchanged, so it is meant for read-only
// inspection of live sessions.
func NewRedactionMiddleware() Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionMiddleware{next: next}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, chatID string, s *domain.Session) error {
	return m.next.Save(ctx, chatID, s)
}

func (m *redactionMiddleware) Load(ctx context.Context, chatID string) (*domain.Session, error) {
	s, err := m.next.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	masked := s.Clone()
	masked.Attendees = maskNames(s.Attendees)
	masked.ValidAbsentees = maskNames(s.ValidAbsentees)
	return masked, nil
}

func (m *redactionMiddleware) Delete(ctx context.Context, chatID string) error {
	return m.next.Delete(ctx, chatID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskNames keeps the order and count of names. Distinct names may collide
// once masked, so the result is a plain slice rather than a deduplicated set.
func maskNames(names domain.NameSet) domain.NameSet {
	if names == nil {
		return nil
	}
	out := make(domain.NameSet, 0, len(names))
	for _, name := range names {
		out = append(out, mask(name))
	}
	return out
}

func mask(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return "***"
	}
	return string(r) + "***"
}
