package middleware_test

import (
	"context"
	"testing"

	"github.com/podyouths/rollcall/pkg/adapters/memory"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_MasksOnLoad(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware()(underlying)
	ctx := context.Background()

	s := sampleSession()
	s.Attendees = domain.NewNameSet("Alice", "Ánh")
	require.NoError(t, store.Save(ctx, "chat-1", s))

	masked, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A***", "Á***"}, masked.Attendees.Names())
	assert.Equal(t, []string{"C***"}, masked.ValidAbsentees.Names())
	assert.Equal(t, "Bouquet", masked.CellGroup)

	raw, err := underlying.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Ánh"}, raw.Attendees.Names(), "stored data is untouched")
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.Chain(underlying, middleware.NewRedactionMiddleware(), mustSeal(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "chat-1", sampleSession()))

	loaded, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A***", "B***"}, loaded.Attendees.Names())

	raw, err := underlying.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
}

func mustSeal(t *testing.T) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewSealingMiddleware(middleware.SealingConfig{Identity: newIdentity(t)})
	require.NoError(t, err)
	return mw
}
