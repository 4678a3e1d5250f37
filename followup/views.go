package followup

import (
	"context"
	"sort"
	"strings"

	"github.com/warp/followup-engine/generic"
)

// =============================================================================
// READ MODELS - Data behind the agenda, calendar and client table
// =============================================================================

// SortMode orders clients and tasks.
type SortMode string

const (
	SortByClient SortMode = "client"
	SortByDate   SortMode = "date"
)

func (m SortMode) Valid() bool { return m == "" || m == SortByClient || m == SortByDate }

// DefaultCalendarDays is the calendar view horizon.
const DefaultCalendarDays = 30

const maxCalendarDays = 366

// CalendarDay is one cell of the calendar view.
type CalendarDay struct {
	Date    generic.Date   `json:"date"`
	Working bool           `json:"working"`
	Tasks   []generic.Task `json:"tasks"`
}

// ClientSummary is one row of the client table.
type ClientSummary struct {
	generic.Client
	NextAction generic.Date     `json:"nextAction"`
	OpenTasks  int              `json:"openTasks"`
	Progress   generic.Progress `json:"progress"`
}

// SortTasks orders by client name then date, or by date then client name.
func SortTasks(tasks []generic.Task, mode SortMode) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		byName := strings.Compare(strings.ToLower(a.ClientName), strings.ToLower(b.ClientName))
		if mode == SortByDate {
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return byName < 0
		}
		if byName != 0 {
			return byName < 0
		}
		return a.Date.Before(b.Date)
	})
}

// Agenda lists open tasks dated on or after from (today when zero), by date.
func (s *Service) Agenda(ctx context.Context, from generic.Date) ([]generic.Task, error) {
	today := s.today()
	if from.Before(today) {
		from = today
	}
	tasks, err := s.Store.ListTasks(ctx, generic.TaskFilter{Status: generic.TaskOpen, From: from})
	if err != nil {
		return nil, err
	}
	SortTasks(tasks, SortByDate)
	return tasks, nil
}

// DueToday lists open tasks due today that asked for a notification.
func (s *Service) DueToday(ctx context.Context) ([]generic.Task, error) {
	today := s.today()
	tasks, err := s.Store.ListTasks(ctx, generic.TaskFilter{Status: generic.TaskOpen, From: today, To: today})
	if err != nil {
		return nil, err
	}
	var out []generic.Task
	for _, t := range tasks {
		if t.Notify {
			out = append(out, t)
		}
	}
	return out, nil
}

// CalendarView returns days consecutive days from today with their open tasks.
func (s *Service) CalendarView(ctx context.Context, days int) ([]CalendarDay, error) {
	if days <= 0 {
		days = DefaultCalendarDays
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}
	today := s.today()
	cal, err := s.Store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.Store.ListTasks(ctx, generic.TaskFilter{
		Status: generic.TaskOpen,
		From:   today,
		To:     today.AddDays(days - 1),
	})
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][]generic.Task)
	for _, t := range tasks {
		byDate[t.Date.String()] = append(byDate[t.Date.String()], t)
	}

	out := make([]CalendarDay, 0, days)
	for _, d := range generic.DateRange(today, days) {
		out = append(out, CalendarDay{
			Date:    d,
			Working: cal.IsWorkingDay(d),
			Tasks:   byDate[d.String()],
		})
	}
	return out, nil
}

// ClientSummaries returns every client with its next open action and progress.
// Sorted by name, or by next action date with clients lacking one last.
func (s *Service) ClientSummaries(ctx context.Context, mode SortMode) ([]ClientSummary, error) {
	clients, err := s.Store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.Store.ListTasks(ctx, generic.TaskFilter{})
	if err != nil {
		return nil, err
	}
	byClient := make(map[generic.ClientID][]generic.Task)
	for _, t := range tasks {
		if t.ClientID != "" {
			byClient[t.ClientID] = append(byClient[t.ClientID], t)
		}
	}

	out := make([]ClientSummary, 0, len(clients))
	for _, c := range clients {
		ts := byClient[c.ID]
		sum := ClientSummary{Client: c, Progress: generic.ProgressOf(ts)}
		for _, t := range ts {
			if t.Status != generic.TaskOpen {
				continue
			}
			sum.OpenTasks++
			if sum.NextAction.IsZero() || t.Date.Before(sum.NextAction) {
				sum.NextAction = t.Date
			}
		}
		out = append(out, sum)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if mode == SortByDate {
			switch {
			case a.NextAction.IsZero() != b.NextAction.IsZero():
				return b.NextAction.IsZero()
			case !a.NextAction.Equal(b.NextAction):
				return a.NextAction.Before(b.NextAction)
			}
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out, nil
}
