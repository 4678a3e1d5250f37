package followup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/followup-engine/followup"
	"github.com/warp/followup-engine/generic"
)

func TestSortTasks(t *testing.T) {
	tasks := []generic.Task{
		{ID: "1", ClientName: "bob", Date: d("2025-03-11")},
		{ID: "2", ClientName: "Ann", Date: d("2025-03-12")},
		{ID: "3", ClientName: "Ann", Date: d("2025-03-10")},
	}

	followup.SortTasks(tasks, followup.SortByClient)
	assert.Equal(t, []generic.TaskID{"3", "2", "1"}, taskIDs(tasks))

	followup.SortTasks(tasks, followup.SortByDate)
	assert.Equal(t, []generic.TaskID{"3", "1", "2"}, taskIDs(tasks))
}

func taskIDs(tasks []generic.Task) []generic.TaskID {
	out := make([]generic.TaskID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestService_Agenda(t *testing.T) {
	svc := newTestService(t, "2025-03-10")
	ctx := context.Background()
	c := importOne(t, svc)
	first := clientTasks(t, svc, c.ID)[0]
	_, err := svc.SetTaskStatus(ctx, first.ID, generic.TaskDone)
	require.NoError(t, err)

	agenda, err := svc.Agenda(ctx, generic.Date{})
	require.NoError(t, err)
	assert.Len(t, agenda, 20)
	for i := 1; i < len(agenda); i++ {
		assert.False(t, agenda[i].Date.Before(agenda[i-1].Date))
	}

	later, err := svc.Agenda(ctx, d("2025-03-14"))
	require.NoError(t, err)
	assert.Len(t, later, 4)
}

func TestService_CalendarView(t *testing.T) {
	svc := newTestService(t, "2025-03-10")
	ctx := context.Background()
	importOne(t, svc)

	days, err := svc.CalendarView(ctx, 0)
	require.NoError(t, err)
	require.Len(t, days, followup.DefaultCalendarDays)

	assert.Equal(t, "2025-03-10", days[0].Date.String())
	assert.True(t, days[0].Working)
	assert.Len(t, days[0].Tasks, 5)
	assert.False(t, days[5].Working, "Saturday")
	assert.Empty(t, days[5].Tasks)
	assert.Equal(t, "2025-04-08", days[29].Date.String())
}

func TestService_ClientSummaries(t *testing.T) {
	svc := newTestService(t, "2025-03-10")
	ctx := context.Background()

	_, err := svc.ImportLeads(ctx, []generic.Lead{{Name: "Zed", Email: "z@x.com"}})
	require.NoError(t, err)
	_, err = svc.CreateClient(ctx, generic.Client{
		Lead:      generic.Lead{Name: "amy", Email: "a@x.com"},
		StartDate: d("2025-03-17"),
	})
	require.NoError(t, err)

	byName, err := svc.ClientSummaries(ctx, followup.SortByClient)
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "amy", byName[0].Name)
	assert.Equal(t, "2025-03-17", byName[0].NextAction.String())
	assert.Equal(t, 21, byName[0].OpenTasks)
	assert.True(t, byName[0].Progress.Completion.IsZero())

	byDate, err := svc.ClientSummaries(ctx, followup.SortByDate)
	require.NoError(t, err)
	assert.Equal(t, "Zed", byDate[0].Name)
	assert.Equal(t, "2025-03-10", byDate[0].NextAction.String())
}

func TestService_DueToday(t *testing.T) {
	svc := newTestService(t, "2025-03-10")
	ctx := context.Background()
	c := importOne(t, svc)

	_, err := svc.AddTask(ctx, generic.Task{ClientID: c.ID, Date: d("2025-03-10"), Title: "Ping", Notify: true})
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, generic.Task{ClientID: c.ID, Date: d("2025-03-11"), Title: "Later", Notify: true})
	require.NoError(t, err)

	due, err := svc.DueToday(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Ping", due[0].Title)
}
