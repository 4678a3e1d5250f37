package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/followup-engine/generic"
	"github.com/warp/followup-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var drivers = []string{sqlite.DriverMattn, sqlite.DriverModernc}

// eachDriver runs fn against a fresh in-memory database per driver.
func eachDriver(t *testing.T, fn func(t *testing.T, s *sqlite.Store)) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s, err := sqlite.New(driver, ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func day(s string) generic.Date { return generic.MustParseDate(s) }

func task(id, client, date string, title string) generic.Task {
	return generic.Task{
		ID:         generic.TaskID(id),
		ClientID:   generic.ClientID(client),
		ClientName: "Ann Lee",
		Date:       day(date),
		Type:       generic.TaskCall,
		Title:      title,
		Label:      "Unreached Day 1",
		Source:     generic.SourceAuto,
		Status:     generic.TaskOpen,
	}
}

func ids(tasks []generic.Task) []generic.TaskID {
	out := make([]generic.TaskID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew_UnknownDriver(t *testing.T) {
	_, err := sqlite.New("postgres", ":memory:")
	assert.Error(t, err)
}

func TestStore_ClientRoundTrip(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		c := generic.Client{
			Lead: generic.Lead{
				Name: "Ann Lee", Email: "ann@example.com", Phone: "+1 212 555 0199",
				Route: "JFK-LHR", Dates: "Mar 10 - Mar 17", Pax: "2", LeadID: "123456", Cabin: "Business",
			},
			ID:        "c1",
			Status:    generic.StatusUnreached,
			StartDate: day("2025-03-10"),
			CreatedAt: day("2025-03-10"),
		}
		require.NoError(t, s.SaveClient(ctx, c))

		got, err := s.GetClient(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, c, *got)

		// Upsert keeps creation order
		require.NoError(t, s.SaveClient(ctx, generic.Client{ID: "c2", Status: generic.StatusUnreached}))
		c.Status = generic.StatusReached
		c.ReachedStart = day("2025-03-12")
		require.NoError(t, s.SaveClient(ctx, c))

		list, err := s.ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, generic.ClientID("c1"), list[0].ID)
		assert.Equal(t, generic.StatusReached, list[0].Status)
		assert.Equal(t, "2025-03-12", list[0].ReachedStart.String())

		_, err = s.GetClient(ctx, "missing")
		assert.ErrorIs(t, err, generic.ErrClientNotFound)
	})
}

func TestStore_TaskKeyIsUnique(t *testing.T) {
	// GIVEN: A stored auto task
	// WHEN: A batch containing the same key is inserted
	// THEN: ErrDuplicateTask, and no row from the batch survives

	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertTasks(ctx, []generic.Task{task("1", "c1", "2025-03-10", "Call")}))

		err := s.InsertTasks(ctx, []generic.Task{
			task("2", "c1", "2025-03-11", "Call"),
			task("3", "c1", "2025-03-10", "Call"),
		})
		var dup *generic.DuplicateTaskError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "2025-03-10", dup.Key.Date)

		all, err := s.ListTasks(ctx, generic.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []generic.TaskID{"1"}, ids(all))

		// Same key under a different source is a different task
		manual := task("4", "c1", "2025-03-10", "Call")
		manual.Source = generic.SourceManual
		require.NoError(t, s.InsertTasks(ctx, []generic.Task{manual}))
	})
}

func TestStore_TaskRoundTripAndFilters(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		custom := generic.Task{
			ID: "x", Date: day("2025-03-11"), Type: generic.TaskCustom, Title: "Renew passport",
			Source: generic.SourceCustom, Status: generic.TaskOpen, Notes: "bring photos",
			Importance: generic.ImportanceHigh, Notify: true,
		}
		require.NoError(t, s.InsertTasks(ctx, []generic.Task{
			task("3", "c1", "2025-03-12", "Call"),
			task("1", "c1", "2025-03-10", "Call"),
			task("2", "c2", "2025-03-10", "Call"),
			custom,
		}))

		got, err := s.GetTask(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, custom, *got)

		all, err := s.ListTasks(ctx, generic.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []generic.TaskID{"1", "2", "x", "3"}, ids(all))

		c1, err := s.ListTasks(ctx, generic.TaskFilter{ClientIDs: []generic.ClientID{"c1"}, From: day("2025-03-11")})
		require.NoError(t, err)
		assert.Equal(t, []generic.TaskID{"3"}, ids(c1))

		auto, err := s.ListTasks(ctx, generic.TaskFilter{Source: generic.SourceAuto, Status: generic.TaskOpen, To: day("2025-03-10")})
		require.NoError(t, err)
		assert.Equal(t, []generic.TaskID{"1", "2"}, ids(auto))
	})
}

func TestStore_TaskStatusAndDelete(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertTasks(ctx, []generic.Task{
			task("1", "c1", "2025-03-10", "Call"),
			task("2", "c1", "2025-03-11", "Call"),
			task("3", "c1", "2025-03-12", "Call"),
		}))

		require.NoError(t, s.SetTaskStatus(ctx, "1", generic.TaskDone))
		got, err := s.GetTask(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, generic.TaskDone, got.Status)
		assert.ErrorIs(t, s.SetTaskStatus(ctx, "nope", generic.TaskDone), generic.ErrTaskNotFound)

		n, err := s.DeleteTasks(ctx, generic.FutureOpenAuto(day("2025-03-10"), "c1"))
		require.NoError(t, err)
		assert.Equal(t, 2, n, "done task survives")

		require.NoError(t, s.DeleteTask(ctx, "1"))
		assert.ErrorIs(t, s.DeleteTask(ctx, "1"), generic.ErrTaskNotFound)
		_, err = s.GetTask(ctx, "1")
		assert.ErrorIs(t, err, generic.ErrTaskNotFound)
	})
}

func TestStore_DeleteClientCascades(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		require.NoError(t, s.SaveClient(ctx, generic.Client{ID: "c1", Status: generic.StatusUnreached}))
		require.NoError(t, s.InsertTasks(ctx, []generic.Task{
			task("1", "c1", "2025-03-10", "Call"),
			task("2", "c2", "2025-03-10", "Call"),
		}))

		require.NoError(t, s.DeleteClient(ctx, "c1"))
		all, err := s.ListTasks(ctx, generic.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []generic.TaskID{"2"}, ids(all))

		assert.ErrorIs(t, s.DeleteClient(ctx, "c1"), generic.ErrClientNotFound)
	})
}

func TestStore_Settings(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		cal, err := s.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, generic.DefaultCalendarSettings(), cal)

		cal.WorkingDays.Sat = true
		cal.MoveOffDays = false
		cal.SetOverride(day("2025-12-25"), generic.OverrideOff)
		require.NoError(t, s.SaveSettings(ctx, cal))
		require.NoError(t, s.SaveSettings(ctx, cal))

		got, err := s.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, cal, got)
	})
}

func TestStore_WithTxRollsBack(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		require.NoError(t, s.SaveClient(ctx, generic.Client{ID: "c1", Status: generic.StatusUnreached}))

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx generic.Store) error {
			require.NoError(t, tx.InsertTasks(ctx, []generic.Task{task("1", "c1", "2025-03-10", "Call")}))
			require.NoError(t, tx.DeleteClient(ctx, "c1"))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.GetClient(ctx, "c1")
		assert.NoError(t, err)
		all, err := s.ListTasks(ctx, generic.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestStore_DuplicateInsideTxKeepsEarlierWrites(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		err := s.WithTx(ctx, func(tx generic.Store) error {
			require.NoError(t, tx.InsertTasks(ctx, []generic.Task{task("1", "c1", "2025-03-10", "Call")}))
			dupErr := tx.InsertTasks(ctx, []generic.Task{
				task("2", "c1", "2025-03-11", "Call"),
				task("3", "c1", "2025-03-10", "Call"),
			})
			assert.True(t, generic.IsConflict(dupErr))
			return nil
		})
		require.NoError(t, err)

		all, err := s.ListTasks(ctx, generic.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []generic.TaskID{"1"}, ids(all))
	})
}
