package rollcall_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/pkg/adapters/memory"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const code = "podYouths#159"

var fixedNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...rollcall.Option) (*rollcall.Engine, *memory.Gateway, *memory.Store) {
	t.Helper()
	gw := memory.NewGatewayWithRoster(map[string][]string{
		"Bouquet": {"Alice", "Bob", "Carol"},
		"Gilead":  {"Zoe"},
	}, "Member", domain.MustParseDate("2001-02-03"))
	store := memory.NewStore()
	opts = append([]rollcall.Option{
		rollcall.WithSessionStore(store),
		rollcall.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	eng, err := rollcall.New(gw, code, opts...)
	require.NoError(t, err)
	return eng, gw, store
}

func say(t *testing.T, eng *rollcall.Engine, chatID string, texts ...string) domain.Reply {
	t.Helper()
	var reply domain.Reply
	for _, text := range texts {
		var err error
		reply, err = eng.Handle(context.Background(), domain.Message{ChatID: chatID, Text: text, SenderName: "Ana"})
		require.NoError(t, err, "sending %q", text)
	}
	return reply
}

func TestNew_Validation(t *testing.T) {
	_, err := rollcall.New(nil, code)
	assert.Error(t, err)

	_, err = rollcall.New(memory.NewGateway(), "")
	assert.Error(t, err)
}

func TestEngine_HandlePersistsSessionBetweenTurns(t *testing.T) {
	eng, _, store := newEngine(t)
	ctx := context.Background()

	say(t, eng, "42", "/start", code, "Bouquet")

	s, err := store.Load(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingMonth, s.Step)
	assert.Equal(t, "Bouquet", s.CellGroup)
	assert.Equal(t, fixedNow, s.UpdatedAt)

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids)
}

func TestEngine_HandleFullFlowClearsSession(t *testing.T) {
	eng, gw, store := newEngine(t)
	ctx := context.Background()

	reply := say(t, eng, "42", "/start", code, "Bouquet", "Jun", "1", "Alice", "Dan", "DONE", "Bob", "DONE")
	assert.Equal(t, domain.StepIdle, reply.Step)
	assert.True(t, reply.ClearKeyboard)

	_, err := store.Load(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	date := domain.MustParseDate("2024-06-01")
	present, err := gw.AlreadyPresent(ctx, "Bouquet", date)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Dan"}, present)

	absent, err := gw.AlreadyAbsentValid(ctx, "Bouquet", date)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, absent)

	_, ok := gw.Member("Bouquet", "Dan")
	assert.True(t, ok)
}

func TestEngine_EnrollmentDefaults(t *testing.T) {
	eng, gw, _ := newEngine(t, rollcall.WithEnrollmentDefaults("Guest", domain.MustParseDate("1980-12-25")))

	say(t, eng, "42", "/start", code, "Gilead", "Jun", "1", "Yan", "NONE", "NONE")

	yan, ok := gw.Member("Gilead", "Yan")
	require.True(t, ok)
	assert.Equal(t, "Guest", yan.Role)
	assert.Equal(t, domain.MustParseDate("1980-12-25"), yan.BirthDate)
}

func TestEngine_HandleRequiresChatID(t *testing.T) {
	eng, _, _ := newEngine(t)
	_, err := eng.Handle(context.Background(), domain.Message{Text: "/start"})
	assert.ErrorIs(t, err, rollcall.ErrMissingChatID)
}

func TestEngine_IdleMessagesAreNotPersisted(t *testing.T) {
	eng, _, store := newEngine(t)

	reply := say(t, eng, "7", "hello")
	assert.Contains(t, reply.Text, "/start")

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// flakyGateway fails every roster read while down is set.
type flakyGateway struct {
	*memory.Gateway
	mu   sync.Mutex
	down bool
}

func (f *flakyGateway) setDown(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = v
}

func (f *flakyGateway) CellGroups(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errors.New("connection refused")
	}
	return f.Gateway.CellGroups(ctx)
}

func TestEngine_HandleRetriesOnStoreOutage(t *testing.T) {
	gw := &flakyGateway{Gateway: memory.NewGatewayWithRoster(map[string][]string{"Bouquet": {"Alice"}}, "Member", domain.MustParseDate("2000-01-01"))}
	store := memory.NewStore()
	eng, err := rollcall.New(gw, code, rollcall.WithSessionStore(store))
	require.NoError(t, err)

	say(t, eng, "42", "/start")
	gw.setDown(true)

	reply := say(t, eng, "42", code)
	assert.Contains(t, reply.Text, "send your last message again")
	assert.Equal(t, domain.StepAwaitingVerification, reply.Step)

	s, err := store.Load(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingVerification, s.Step, "session unchanged after a failed read")

	gw.setDown(false)
	reply = say(t, eng, "42", code)
	assert.Equal(t, domain.StepAwaitingCell, reply.Step)
}

func TestEngine_ChatsAreIndependent(t *testing.T) {
	eng, _, _ := newEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat := fmt.Sprintf("chat-%d", i)
			for _, text := range []string{"/start", code, "Bouquet", "Jun"} {
				_, err := eng.Handle(context.Background(), domain.Message{ChatID: chat, Text: text})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	ids, err := eng.Sessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 8)
	for _, id := range ids {
		s, err := eng.Session(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StepAwaitingDay, s.Step)
	}
}

func TestEngine_DeleteSession(t *testing.T) {
	eng, _, _ := newEngine(t)
	ctx := context.Background()
	say(t, eng, "42", "/start")

	require.NoError(t, eng.DeleteSession(ctx, "42"))
	_, err := eng.Session(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_Hooks(t *testing.T) {
	var mu sync.Mutex
	var commits int
	eng, _, _ := newEngine(t, rollcall.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			mu.Lock()
			defer mu.Unlock()
			commits++
		},
	}))

	say(t, eng, "42", "/start", code, "Bouquet", "Jun", "1", "NONE", "NONE")
	assert.Equal(t, 1, commits)
	assert.NotEmpty(t, eng.Transitions())
}
