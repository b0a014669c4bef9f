package runtime_test

import (
	"context"
	"testing"

	"github.com/podyouths/rollcall/internal/runtime"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_BouquetScenario(t *testing.T) {
	h := newHarness(t, bouquet())
	ctx := context.Background()

	reply := h.send("/start")
	assert.Equal(t, domain.StepAwaitingVerification, reply.Step)
	assert.True(t, reply.ClearKeyboard)

	reply = h.send(testCode)
	assert.Equal(t, domain.StepAwaitingCell, reply.Step)
	assert.Contains(t, reply.Text, "Welcome Ana!")
	assert.Equal(t, [][]string{{"Bouquet"}, {"Kadesh"}}, reply.Keyboard)

	reply = h.send("Bouquet")
	assert.Equal(t, domain.StepAwaitingMonth, reply.Step)
	assert.Len(t, reply.Keyboard, 4)

	reply = h.send("Jan")
	assert.Equal(t, domain.StepAwaitingDay, reply.Step)
	assert.Equal(t, []string{"31"}, reply.Keyboard[len(reply.Keyboard)-1])

	reply = h.send("5")
	assert.Equal(t, domain.StepAwaitingAttendees, reply.Step)
	assert.Equal(t, jan5, h.session.Date)
	assert.Equal(t, []string{"Alice", "Bob", "Carol", "REMOVE", "NONE"}, reply.Choices())

	reply = h.send("Alice")
	assert.Equal(t, []string{"Bob", "Carol", "REMOVE", "DONE"}, reply.Choices())
	h.send("Bob")

	reply = h.send("NONE")
	assert.Equal(t, domain.StepAwaitingValidAbsentees, reply.Step)
	assert.Equal(t, []string{"Carol", "REMOVE", "NONE"}, reply.Choices())

	h.send("Carol")
	reply = h.send("DONE")
	assert.Equal(t, domain.StepIdle, reply.Step)
	assert.True(t, reply.ClearKeyboard)
	assert.Contains(t, reply.Text, "Thank you Ana.")
	assert.Contains(t, reply.Text, "Attendees (2):\n1. Alice\n2. Bob")
	assert.Contains(t, reply.Text, "Valid Absentees (1):\n1. Carol")
	assert.Equal(t, domain.StepIdle, h.session.Step)
	assert.Empty(t, h.session.Attendees)

	records, err := h.gw.Attendance(ctx, "Bouquet", jan5)
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{
		{CellGroup: "Bouquet", Date: jan5, Name: "Alice", Status: domain.StatusPresent},
		{CellGroup: "Bouquet", Date: jan5, Name: "Bob", Status: domain.StatusPresent},
		{CellGroup: "Bouquet", Date: jan5, Name: "Carol", Status: domain.StatusAbsentValid},
	}, records)

	members, err := h.gw.Members(ctx, "Bouquet")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, members, "no auto-enrollment for known members")
}

func TestEngine_AutoEnrollsNewcomer(t *testing.T) {
	h := newHarness(t, bouquet())
	ctx := context.Background()

	h.toAttendees("Bouquet")
	h.send("Dan")
	h.send("DONE")
	reply := h.send("NONE")
	assert.Contains(t, reply.Text, "New friends added to Bouquet: Dan")

	present, err := h.gw.AlreadyPresent(ctx, "Bouquet", jan5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dan"}, present)

	dan, ok := h.gw.Member("Bouquet", "Dan")
	require.True(t, ok)
	assert.Equal(t, "New Friend", dan.Role)
	assert.Equal(t, domain.MustParseDate("2000-01-01"), dan.BirthDate)
	assert.Nil(t, dan.ExternalID)
}

func TestEngine_EnrollmentDefaultsAreConfigurable(t *testing.T) {
	enrollment := runtime.Enrollment{Role: "Visitor", BirthDate: domain.MustParseDate("1990-06-01")}
	h := newHarness(t, bouquet(), runtime.WithEnrollment(enrollment))

	h.toAttendees("Bouquet")
	h.send("Dan")
	h.send("DONE")
	h.send("NONE")

	dan, ok := h.gw.Member("Bouquet", "Dan")
	require.True(t, ok)
	assert.Equal(t, "Visitor", dan.Role)
	assert.Equal(t, enrollment.BirthDate, dan.BirthDate)
}

func TestEngine_ExitMidFlow(t *testing.T) {
	h := newHarness(t, bouquet())
	ctx := context.Background()

	h.send("/start")
	h.send(testCode)
	h.send("Bouquet")
	reply := h.send("/exit")

	assert.Equal(t, domain.StepIdle, reply.Step)
	assert.True(t, reply.ClearKeyboard)
	assert.Equal(t, "Type '/start' to begin a new attendance.", reply.Text)
	assert.False(t, h.session.HasCellGroup())

	entered, err := h.gw.AlreadyEntered(ctx, "Bouquet", jan5)
	require.NoError(t, err)
	assert.Empty(t, entered)

	reply = h.send("/start")
	assert.Equal(t, domain.StepAwaitingVerification, reply.Step)
	assert.False(t, h.session.HasCellGroup())
	assert.True(t, h.session.Date.IsZero())
	assert.Empty(t, h.session.Attendees)
}

func TestEngine_StartDiscardsProgress(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")
	h.send("Alice")

	reply := h.send("/start")
	assert.Equal(t, domain.StepAwaitingVerification, reply.Step)
	assert.Empty(t, h.session.Attendees)
	assert.False(t, h.session.HasCellGroup())
}

func TestEngine_ResumeSeedsExistingRecords(t *testing.T) {
	gw := newGateway(map[string][]string{"Bouquet": {"Alice", "Bob", "Carol", "Eve"}})
	h := newHarness(t, gw)
	h.record("Bob", domain.StatusPresent)
	h.record("Alice", domain.StatusPresent)
	h.record("Carol", domain.StatusAbsentValid)

	h.toAttendees("Bouquet")

	assert.Equal(t, []string{"Alice", "Bob"}, h.session.Attendees.Names())
	assert.Equal(t, []string{"Carol"}, h.session.ValidAbsentees.Names())
	assert.Equal(t, []string{"Eve", "REMOVE", "NONE"}, h.reply.Choices())
	assert.Contains(t, h.reply.Text, "Attendees (2):")
}

func TestEngine_IdempotentAdd(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")

	h.send("Alice")
	h.send("Alice")
	assert.Equal(t, []string{"Alice"}, h.session.Attendees.Names())
	assert.Equal(t, domain.StepAwaitingAttendees, h.session.Step)
}

func TestEngine_RemovalDeletesPersistedRecord(t *testing.T) {
	h := newHarness(t, bouquet())
	ctx := context.Background()
	h.record("Alice", domain.StatusPresent)

	h.toAttendees("Bouquet")
	require.True(t, h.session.Attendees.Contains("Alice"))
	h.send("Bob")

	reply := h.send("REMOVE")
	assert.Equal(t, domain.StepAwaitingAttendeeRemoval, reply.Step)
	assert.Equal(t, []string{"Alice", "Bob", "DONE"}, reply.Choices())

	reply = h.send("Alice")
	assert.Equal(t, domain.StepAwaitingAttendeeRemoval, reply.Step)
	assert.Equal(t, []string{"Bob", "DONE"}, reply.Choices())
	assert.Equal(t, []domain.Record{{CellGroup: "Bouquet", Date: jan5, Name: "Alice", Status: domain.StatusPresent}}, h.gw.deleted)

	// Bob was never persisted, so no delete is issued for him.
	h.send("Bob")
	assert.Len(t, h.gw.deleted, 1)

	reply = h.send("DONE")
	assert.Equal(t, domain.StepAwaitingAttendees, reply.Step)
	assert.Equal(t, []string{"Alice", "Bob", "Carol", "REMOVE", "DONE"}, reply.Choices())
	assert.Empty(t, h.session.Attendees)

	present, err := h.gw.AlreadyPresent(ctx, "Bouquet", jan5)
	require.NoError(t, err)
	assert.Empty(t, present)
}

func TestEngine_AbsenteeRemovalDeletesWithMatchingStatus(t *testing.T) {
	h := newHarness(t, bouquet())
	h.record("Carol", domain.StatusAbsentValid)

	h.toAttendees("Bouquet")
	h.send("NONE")
	h.send("REMOVE")
	h.send("Carol")

	assert.Equal(t, []domain.Record{{CellGroup: "Bouquet", Date: jan5, Name: "Carol", Status: domain.StatusAbsentValid}}, h.gw.deleted)
	assert.Empty(t, h.session.ValidAbsentees)

	reply := h.send("DONE")
	assert.Equal(t, domain.StepAwaitingValidAbsentees, reply.Step)
	assert.Contains(t, reply.Text, "Any more valid absentees?")
}

func TestEngine_RemovalDeleteFailureKeepsName(t *testing.T) {
	h := newHarness(t, bouquet())
	h.record("Alice", domain.StatusPresent)

	h.toAttendees("Bouquet")
	h.send("REMOVE")
	h.gw.failDelete = true
	reply := h.send("Alice")

	assert.Contains(t, reply.Text, "could not remove Alice")
	assert.True(t, h.session.Attendees.Contains("Alice"))
	assert.Equal(t, domain.StepAwaitingAttendeeRemoval, reply.Step)
}

func TestEngine_RemovalOfUnknownNameRePrompts(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")
	h.send("Alice")
	h.send("REMOVE")

	reply := h.send("Zed")
	assert.Equal(t, domain.StepAwaitingAttendeeRemoval, reply.Step)
	assert.Contains(t, reply.Text, "Zed is not in the list of attendees")
	assert.Equal(t, []string{"Alice"}, h.session.Attendees.Names())
	assert.Empty(t, h.gw.deleted)
}

func TestEngine_SetsStayDisjoint(t *testing.T) {
	h := newHarness(t, bouquet())
	h.record("Carol", domain.StatusAbsentValid)

	script := []string{
		"/start", testCode, "Bouquet", "Jan", "5",
		"Alice", "Carol", "Bob", "REMOVE", "Bob", "DONE",
		"DONE", "Alice", "Bob", "REMOVE", "Carol", "DONE", "Carol",
	}
	for _, text := range script {
		h.send(text)
		for _, name := range h.session.Attendees {
			assert.False(t, h.session.ValidAbsentees.Contains(name), "%q in both sets after %q", name, text)
		}
	}

	assert.Equal(t, []string{"Alice"}, h.session.Attendees.Names())
	assert.Equal(t, []string{"Bob", "Carol"}, h.session.ValidAbsentees.Names())
}

func TestEngine_ConflictingAddIsRejectedWithHint(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")
	h.send("Alice")
	h.send("DONE")

	reply := h.send("Alice")
	assert.Equal(t, domain.StepAwaitingValidAbsentees, reply.Step)
	assert.Contains(t, reply.Text, "Alice is already listed as an attendee")
	assert.Empty(t, h.session.ValidAbsentees)
}

func TestEngine_UnmatchedInputRePrompts(t *testing.T) {
	h := newHarness(t, bouquet())

	h.send("/start")
	reply := h.send("letmein")
	assert.Equal(t, domain.StepAwaitingVerification, reply.Step)
	assert.Contains(t, reply.Text, "not valid")

	h.send(testCode)
	reply = h.send("Gilead")
	assert.Equal(t, domain.StepAwaitingCell, reply.Step)
	assert.Equal(t, [][]string{{"Bouquet"}, {"Kadesh"}}, reply.Keyboard)

	reply = h.send("Bouquet.*")
	assert.Equal(t, domain.StepAwaitingCell, reply.Step, "cell names are matched literally")

	h.send("Bouquet")
	reply = h.send("January")
	assert.Equal(t, domain.StepAwaitingMonth, reply.Step)
	reply = h.send("jan")
	assert.Equal(t, domain.StepAwaitingMonth, reply.Step)

	h.send("Feb")
	reply = h.send("32")
	assert.Equal(t, domain.StepAwaitingDay, reply.Step)
	reply = h.send("05")
	assert.Equal(t, domain.StepAwaitingDay, reply.Step)
	reply = h.send("30")
	assert.Equal(t, domain.StepAwaitingDay, reply.Step)
	assert.Contains(t, reply.Text, "Feb 30 does not exist in 2024")

	reply = h.send("29")
	assert.Equal(t, domain.StepAwaitingAttendees, reply.Step)
	assert.Equal(t, domain.MustParseDate("2024-02-29"), h.session.Date)
}

func TestEngine_ReservedAndBlankInputAreNeverNames(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")

	for _, text := range []string{"", "   ", "/help"} {
		reply := h.send(text)
		assert.Equal(t, domain.StepAwaitingAttendees, reply.Step)
	}
	assert.Empty(t, h.session.Attendees)

	h.send("  Alice  ")
	assert.Equal(t, []string{"Alice"}, h.session.Attendees.Names(), "input is trimmed")
}

func TestEngine_IdleChat(t *testing.T) {
	h := newHarness(t, bouquet())

	reply := h.send("hello")
	assert.Equal(t, domain.StepIdle, reply.Step)
	assert.Contains(t, reply.Text, "/start")

	reply = h.send("/exit")
	assert.Equal(t, domain.StepIdle, reply.Step)
}

func TestEngine_HTMLEscapesNames(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")

	reply := h.send("<b>Mallory</b>")
	assert.Contains(t, reply.Text, "&lt;b&gt;Mallory&lt;/b&gt;")
	assert.True(t, h.session.Attendees.Contains("<b>Mallory</b>"))
}

func TestEngine_GatewayReadFailureLeavesSessionUnchanged(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")
	before := h.session.Clone()

	h.gw.failMembers = true
	next, _, err := h.engine.Navigate(context.Background(), h.session, domain.Message{ChatID: "chat-1", Text: "Alice"})

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "members", gwErr.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, before, next)

	retry := runtime.RetryReply(next)
	assert.Equal(t, domain.StepAwaitingAttendees, retry.Step)
	assert.Contains(t, retry.Text, "send your last message again")
}

func TestEngine_CommitReadFailureKeepsAbsenteeStep(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")
	h.send("Alice")
	h.send("DONE")

	h.gw.failMembers = true
	next, _, err := h.engine.Navigate(context.Background(), h.session, domain.Message{ChatID: "chat-1", Text: "NONE"})
	require.Error(t, err)
	assert.Equal(t, domain.StepAwaitingValidAbsentees, next.Step)

	entered, err := h.gw.AlreadyEntered(context.Background(), "Bouquet", jan5)
	require.NoError(t, err)
	assert.Empty(t, entered, "nothing is written when a residual read fails")
}

func TestEngine_PartialCommitFailureIsReported(t *testing.T) {
	h := newHarness(t, bouquet())
	h.toAttendees("Bouquet")
	h.send("Alice")
	h.send("Bob")
	h.send("DONE")
	h.send("Carol")

	h.gw.failRecord["Bob"] = true
	reply := h.send("DONE")

	assert.Equal(t, domain.StepIdle, reply.Step, "the session is cleared even on partial failure")
	assert.Contains(t, reply.Text, "Some entries could not be saved")
	assert.Contains(t, reply.Text, "1. Bob (record)")

	entered, err := h.gw.AlreadyEntered(context.Background(), "Bouquet", jan5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Carol"}, entered)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var transitions []domain.Edge
	var commits []*domain.CommitEvent
	hooks := domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			transitions = append(transitions, domain.Edge{From: e.From, To: e.To})
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			commits = append(commits, e)
		},
	}
	h := newHarness(t, bouquet(), runtime.WithLifecycleHooks(hooks))

	h.toAttendees("Bouquet")
	h.send("Alice")
	h.send("DONE")
	h.send("NONE")

	require.Len(t, commits, 1)
	assert.Equal(t, "Bouquet", commits[0].CellGroup)
	assert.Equal(t, jan5, commits[0].Date)
	assert.Len(t, commits[0].Report.Written, 1)

	require.Len(t, transitions, 9)
	assert.Equal(t, domain.Edge{From: domain.StepIdle, To: domain.StepAwaitingVerification}, transitions[0])
	assert.Equal(t, domain.Edge{From: domain.StepAwaitingValidAbsentees, To: domain.StepCommitting}, transitions[7])
	assert.Equal(t, domain.Edge{From: domain.StepCommitting, To: domain.StepIdle}, transitions[8])
}

func TestTransitions_CoverEveryStep(t *testing.T) {
	seen := map[domain.Step]bool{}
	for _, e := range runtime.Transitions() {
		seen[e.From] = true
		seen[e.To] = true
	}
	for _, s := range domain.Steps {
		assert.True(t, seen[s], "step %s missing from graph", s)
	}
	assert.True(t, seen[domain.StepIdle])
}
