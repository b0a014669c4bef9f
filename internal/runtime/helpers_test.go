package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/podyouths/rollcall/internal/runtime"
	"github.com/podyouths/rollcall/pkg/adapters/memory"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/stretchr/testify/require"
)

const testCode = "podYouths#159"

var (
	errBoom   = errors.New("store unavailable")
	testNow   = time.Date(2024, time.March, 10, 18, 0, 0, 0, time.UTC)
	testBirth = domain.MustParseDate("1999-09-09")
	jan5      = domain.MustParseDate("2024-01-05")
)

// faultyGateway wraps the memory gateway with switchable failures and a delete log.
type faultyGateway struct {
	*memory.Gateway
	failMembers bool
	failRecord  map[string]bool
	failDelete  bool
	deleted     []domain.Record
}

func newGateway(roster map[string][]string) *faultyGateway {
	return &faultyGateway{
		Gateway:    memory.NewGatewayWithRoster(roster, "Member", testBirth),
		failRecord: map[string]bool{},
	}
}

func (f *faultyGateway) Members(ctx context.Context, cell string) ([]string, error) {
	if f.failMembers {
		return nil, errBoom
	}
	return f.Gateway.Members(ctx, cell)
}

func (f *faultyGateway) RecordAttendance(ctx context.Context, rec domain.Record) error {
	if f.failRecord[rec.Name] {
		return errBoom
	}
	return f.Gateway.RecordAttendance(ctx, rec)
}

func (f *faultyGateway) DeleteAttendance(ctx context.Context, rec domain.Record) error {
	if f.failDelete {
		return errBoom
	}
	f.deleted = append(f.deleted, rec)
	return f.Gateway.DeleteAttendance(ctx, rec)
}

type harness struct {
	t       *testing.T
	engine  *runtime.Engine
	gw      *faultyGateway
	session *domain.Session
	reply   domain.Reply
}

func newHarness(t *testing.T, gw *faultyGateway, opts ...runtime.EngineOption) *harness {
	t.Helper()
	opts = append([]runtime.EngineOption{runtime.WithClock(func() time.Time { return testNow })}, opts...)
	return &harness{
		t:      t,
		engine: runtime.NewEngine(gw, testCode, opts...),
		gw:     gw,
	}
}

func bouquet() *faultyGateway {
	return newGateway(map[string][]string{
		"Bouquet": {"Alice", "Bob", "Carol"},
		"Kadesh":  {"Eve"},
	})
}

// send delivers one message and requires the turn to succeed.
func (h *harness) send(text string) domain.Reply {
	h.t.Helper()
	next, reply, err := h.engine.Navigate(context.Background(), h.session, domain.Message{ChatID: "chat-1", Text: text, SenderName: "Ana"})
	require.NoError(h.t, err, "sending %q", text)
	h.session = next
	h.reply = reply
	return reply
}

// toAttendees drives a fresh session up to the attendee step for cell on 5 Jan.
func (h *harness) toAttendees(cell string) {
	h.t.Helper()
	for _, text := range []string{"/start", testCode, cell, "Jan", "5"} {
		h.send(text)
	}
	require.Equal(h.t, domain.StepAwaitingAttendees, h.session.Step)
}

func (h *harness) record(name string, status domain.Status) {
	h.t.Helper()
	require.NoError(h.t, h.gw.Gateway.RecordAttendance(context.Background(), domain.Record{
		CellGroup: "Bouquet", Date: jan5, Name: name, Status: status,
	}))
}
