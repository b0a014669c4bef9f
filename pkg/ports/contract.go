package ports

import (
	"context"
	"testing"
	"time"

	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	chatID := "contract-chat-" + time.Now().Format("20060102150405")
	now := time.Date(2024, time.January, 5, 10, 30, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(chatID, now)
		s.Step = domain.StepAwaitingAttendees
		s.CellGroup = "Bouquet"
		s.Month = time.January
		s.Date = domain.MustParseDate("2024-01-05")
		s.Attendees = domain.NewNameSet("Bob", "Alice")
		s.ValidAbsentees = domain.NewNameSet("Carol")

		require.NoError(t, store.Save(ctx, chatID, s), "Save should not return error")

		loaded, err := store.Load(ctx, chatID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.Step, loaded.Step)
		assert.Equal(t, "Bouquet", loaded.CellGroup)
		assert.Equal(t, time.January, loaded.Month)
		assert.Equal(t, s.Date, loaded.Date)
		assert.Equal(t, []string{"Bob", "Alice"}, loaded.Attendees.Names(), "insertion order must survive persistence")
		assert.Equal(t, []string{"Carol"}, loaded.ValidAbsentees.Names())
		assert.True(t, loaded.UpdatedAt.Equal(now))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, chatID)
		require.NoError(t, err)
		loaded.Attendees.Add("Mallory")

		again, err := store.Load(ctx, chatID)
		require.NoError(t, err)
		assert.False(t, again.Attendees.Contains("Mallory"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+chatID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, chatID, domain.NewSession(chatID, now)))

		require.NoError(t, store.Delete(ctx, chatID), "Delete should not return error")

		_, err := store.Load(ctx, chatID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, chatID), "Deleting a missing session is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := chatID + "-1"
		id2 := chatID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, now))
		_ = store.Save(ctx, id2, domain.NewSession(id2, now))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunGatewayContract verifies a Gateway implementation. newGateway must return
// an empty gateway on every call.
func RunGatewayContract(t *testing.T, newGateway func(t *testing.T) Gateway) {
	ctx := context.Background()
	date := domain.MustParseDate("2024-01-05")
	birth := domain.MustParseDate("2000-01-01")

	seed := func(t *testing.T, gw Gateway) {
		t.Helper()
		for _, m := range []domain.Member{
			{Name: "Alice", Role: "Member", CellGroup: "Bouquet", BirthDate: birth},
			{Name: "Bob", Role: "Member", CellGroup: "Bouquet", BirthDate: birth},
			{Name: "Carol", Role: "Leader", CellGroup: "Bouquet", BirthDate: birth},
			{Name: "Eve", Role: "Member", CellGroup: "Kadesh", BirthDate: birth},
		} {
			require.NoError(t, gw.EnrollMember(ctx, m))
		}
	}

	t.Run("Roster reads", func(t *testing.T) {
		gw := newGateway(t)
		seed(t, gw)

		cells, err := gw.CellGroups(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bouquet", "Kadesh"}, cells)

		members, err := gw.Members(ctx, "Bouquet")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, members)

		members, err = gw.Members(ctx, "Gilead")
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("Duplicate enrollment", func(t *testing.T) {
		gw := newGateway(t)
		seed(t, gw)

		err := gw.EnrollMember(ctx, domain.Member{Name: "Alice", Role: "Member", CellGroup: "Bouquet", BirthDate: birth})
		assert.ErrorIs(t, err, domain.ErrDuplicateMember)

		// The same name in another cell group is a different roster entry.
		assert.NoError(t, gw.EnrollMember(ctx, domain.Member{Name: "Alice", Role: "Member", CellGroup: "Kadesh", BirthDate: birth}))
	})

	t.Run("Attendance reads by status", func(t *testing.T) {
		gw := newGateway(t)
		seed(t, gw)

		require.NoError(t, gw.RecordAttendance(ctx, domain.Record{CellGroup: "Bouquet", Date: date, Name: "Bob", Status: domain.StatusPresent}))
		require.NoError(t, gw.RecordAttendance(ctx, domain.Record{CellGroup: "Bouquet", Date: date, Name: "Alice", Status: domain.StatusPresent}))
		require.NoError(t, gw.RecordAttendance(ctx, domain.Record{CellGroup: "Bouquet", Date: date, Name: "Carol", Status: domain.StatusAbsentValid}))
		require.NoError(t, gw.RecordAttendance(ctx, domain.Record{CellGroup: "Bouquet", Date: domain.MustParseDate("2024-01-12"), Name: "Alice", Status: domain.StatusPresent}))
		require.NoError(t, gw.RecordAttendance(ctx, domain.Record{CellGroup: "Kadesh", Date: date, Name: "Eve", Status: domain.StatusPresent}))

		present, err := gw.AlreadyPresent(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, present)

		absent, err := gw.AlreadyAbsentValid(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Equal(t, []string{"Carol"}, absent)

		entered, err := gw.AlreadyEntered(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, entered)

		if reader, ok := gw.(AttendanceReader); ok {
			records, err := reader.Attendance(ctx, "Bouquet", date)
			require.NoError(t, err)
			assert.Len(t, records, 3)
			for _, rec := range records {
				assert.Equal(t, "Bouquet", rec.CellGroup)
				assert.Equal(t, date, rec.Date)
			}
		}
	})

	t.Run("No upsert", func(t *testing.T) {
		gw := newGateway(t)
		seed(t, gw)

		rec := domain.Record{CellGroup: "Bouquet", Date: date, Name: "Alice", Status: domain.StatusPresent}
		require.NoError(t, gw.RecordAttendance(ctx, rec))

		rec.Status = domain.StatusAbsentValid
		err := gw.RecordAttendance(ctx, rec)
		assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

		present, err := gw.AlreadyPresent(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, present, "the original record must be untouched")
	})

	t.Run("Delete matches status", func(t *testing.T) {
		gw := newGateway(t)
		seed(t, gw)

		rec := domain.Record{CellGroup: "Bouquet", Date: date, Name: "Alice", Status: domain.StatusPresent}
		require.NoError(t, gw.RecordAttendance(ctx, rec))

		wrong := rec
		wrong.Status = domain.StatusAbsentValid
		require.NoError(t, gw.DeleteAttendance(ctx, wrong))

		entered, err := gw.AlreadyEntered(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, entered, "delete with another status must not match")

		require.NoError(t, gw.DeleteAttendance(ctx, rec))
		entered, err = gw.AlreadyEntered(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Empty(t, entered)

		// Re-adding after removal is the update path.
		require.NoError(t, gw.RecordAttendance(ctx, wrong))
		absent, err := gw.AlreadyAbsentValid(ctx, "Bouquet", date)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, absent)
	})
}
