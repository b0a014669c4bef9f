package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/podyouths/rollcall/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, chatID string, s *domain.Session) error { return nil }
func (nopStore) Load(ctx context.Context, chatID string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, chatID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)      { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("chat-%d", i)
		_ = mgr.Save(ctx, id, &domain.Session{ChatID: id})
		_ = mgr.Delete(ctx, id)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("memory leak: %d locks remaining after %d save/delete cycles", lockCount, count)
	}
}
