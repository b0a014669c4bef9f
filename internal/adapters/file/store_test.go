package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/podyouths/rollcall/internal/adapters/file"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_EscapesChatIDs(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()
	id := "../escape/attempt"

	require.NoError(t, store.Save(ctx, id, &domain.Session{ChatID: id, Step: domain.StepAwaitingCell}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingCell, loaded.Step)
}

func TestFileStore_AtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "42", &domain.Session{ChatID: "42", Step: domain.StepAwaitingMonth}))
	require.NoError(t, store.Save(ctx, "42", &domain.Session{ChatID: "42", Step: domain.StepAwaitingDay}))

	matches, err := filepath.Glob(filepath.Join(dir, "tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files must not be left behind")

	loaded, err := store.Load(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingDay, loaded.Step)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	ids, err := file.New(filepath.Join(t.TempDir(), "missing")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
