/*
service.go - The single writer of clients, tasks and settings

PURPOSE:
  Applies CRUD actions and the recompute protocol through a transactional
  store. Every mutating operation captures "today" once and runs inside
  Store.WithTx, so a regeneration is never observed half-done.

RECOMPUTE PROTOCOL:
  Calendar change (mask, moveOffDays, override add/remove):
    clear future open auto tasks of every client, reschedule everyone.
  Anchor edit on a client:
    clear that client's future open auto tasks, reschedule it.
  Status change:
    reached   -> ReachedStart = today, reschedule
    unreached -> StartDate = today, reschedule

  Done tasks and manual/custom tasks are never touched by any of these.

SEE ALSO:
  - scheduler.go: Planner (pure cadence emission)
  - views.go: read models (agenda, calendar, summaries)
  - generic/store.go: TxStore
*/
package followup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/followup-engine/generic"
)

// Service owns every mutation of the client/task collection.
type Service struct {
	Store  generic.TxStore
	Logger *zap.Logger
	Now    func() time.Time

	// NewID generates client and task ids. Defaults to uuid.
	NewID func() string
}

func NewService(store generic.TxStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Logger: logger, Now: time.Now, NewID: uuid.NewString}
}

func (s *Service) today() generic.Date {
	if s.Now == nil {
		return generic.Today()
	}
	return generic.DateOf(s.Now())
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) planner(cal generic.CalendarSettings, today generic.Date) *Planner {
	return &Planner{
		Calendar: cal,
		Today:    today,
		NewID:    func() generic.TaskID { return generic.TaskID(s.newID()) },
	}
}

// =============================================================================
// CLIENTS
// =============================================================================

// ImportLeads creates one unreached client per lead, anchored today, and
// schedules its cadence.
func (s *Service) ImportLeads(ctx context.Context, leads []generic.Lead) ([]generic.Client, error) {
	if len(leads) == 0 {
		return nil, generic.ErrNoLeads
	}
	today := s.today()
	var created []generic.Client
	scheduled := 0

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		created = created[:0]
		scheduled = 0
		cal, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		p := s.planner(cal, today)
		for _, l := range leads {
			c := generic.Client{Lead: l, Status: generic.StatusUnreached, StartDate: today}
			c, n, err := s.createClient(ctx, tx, p, c, today)
			if err != nil {
				return err
			}
			created = append(created, c)
			scheduled += n
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import leads: %w", err)
	}

	s.log().Info("imported leads",
		zap.Int("clients", len(created)),
		zap.Int("tasks", scheduled))
	return created, nil
}

// CreateClient saves a new client and schedules its cadence. Missing id,
// status and anchors default to a fresh uuid, unreached and today.
func (s *Service) CreateClient(ctx context.Context, c generic.Client) (*generic.Client, error) {
	if c.Status == "" {
		c.Status = generic.StatusUnreached
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", generic.ErrInvalidStatus, c.Status)
	}
	today := s.today()

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		cal, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		c, _, err = s.createClient(ctx, tx, s.planner(cal, today), c, today)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &c, nil
}

func (s *Service) createClient(ctx context.Context, tx generic.Store, p *Planner, c generic.Client, today generic.Date) (generic.Client, int, error) {
	if c.ID == "" {
		c.ID = generic.ClientID(s.newID())
	}
	c.CreatedAt = today
	c.StartDate = c.StartDate.OrDefault(today)
	if c.Status == generic.StatusReached {
		c.ReachedStart = c.ReachedStart.OrDefault(today)
	}
	if err := tx.SaveClient(ctx, c); err != nil {
		return c, 0, err
	}
	tasks := p.ScheduleForClient(c, nil)
	if err := tx.InsertTasks(ctx, tasks); err != nil {
		return c, 0, err
	}
	return c, len(tasks), nil
}

// UpdateClient replaces a client's lead fields and anchors. Status is kept;
// use SetStatus to change it. Changing the active anchor reschedules.
func (s *Service) UpdateClient(ctx context.Context, c generic.Client) (*generic.Client, error) {
	today := s.today()
	var out generic.Client

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		cur, err := tx.GetClient(ctx, c.ID)
		if err != nil {
			return err
		}
		next := *cur
		next.Lead = c.Lead
		if !c.StartDate.IsZero() {
			next.StartDate = c.StartDate
		}
		if !c.ReachedStart.IsZero() {
			next.ReachedStart = c.ReachedStart
		}
		if err := tx.SaveClient(ctx, next); err != nil {
			return err
		}
		out = next
		if next.Anchor().Equal(cur.Anchor()) {
			return nil
		}
		cal, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		_, err = s.reschedule(ctx, tx, s.planner(cal, today), next)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update client %s: %w", c.ID, err)
	}
	return &out, nil
}

// SetStatus moves a client between unreached and reached, re-anchoring the
// new cadence at today.
func (s *Service) SetStatus(ctx context.Context, id generic.ClientID, status generic.ClientStatus) (*generic.Client, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", generic.ErrInvalidStatus, status)
	}
	today := s.today()
	var out generic.Client
	rescheduled := 0

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		c, err := tx.GetClient(ctx, id)
		if err != nil {
			return err
		}
		out = *c
		if c.Status == status {
			return nil
		}
		out.Status = status
		if status == generic.StatusReached {
			out.ReachedStart = today
		} else {
			out.StartDate = today
		}
		if err := tx.SaveClient(ctx, out); err != nil {
			return err
		}
		cal, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		rescheduled, err = s.reschedule(ctx, tx, s.planner(cal, today), out)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("set status %s: %w", id, err)
	}

	s.log().Info("client status changed",
		zap.String("client_id", string(id)),
		zap.String("status", string(status)),
		zap.Int("tasks", rescheduled))
	return &out, nil
}

// reschedule clears the client's future open auto tasks and emits its cadence again.
func (s *Service) reschedule(ctx context.Context, tx generic.Store, p *Planner, c generic.Client) (int, error) {
	if _, err := tx.DeleteTasks(ctx, generic.FutureOpenAuto(p.Today, c.ID)); err != nil {
		return 0, err
	}
	existing, err := tx.ListTasks(ctx, generic.TaskFilter{ClientIDs: []generic.ClientID{c.ID}})
	if err != nil {
		return 0, err
	}
	tasks := p.ScheduleForClient(c, existing)
	if err := tx.InsertTasks(ctx, tasks); err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// DeleteClient removes the client and every task attached to it.
func (s *Service) DeleteClient(ctx context.Context, id generic.ClientID) error {
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		return tx.DeleteClient(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	return nil
}

func (s *Service) GetClient(ctx context.Context, id generic.ClientID) (*generic.Client, error) {
	return s.Store.GetClient(ctx, id)
}

func (s *Service) ListClients(ctx context.Context) ([]generic.Client, error) {
	return s.Store.ListClients(ctx)
}

// =============================================================================
// TASKS
// =============================================================================

// AddTask records a manual or custom task. Manual tasks need a client;
// custom tasks may stand alone.
func (s *Service) AddTask(ctx context.Context, t generic.Task) (*generic.Task, error) {
	if err := validateNewTask(&t); err != nil {
		return nil, err
	}
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		if t.ClientID != "" {
			c, err := tx.GetClient(ctx, t.ClientID)
			if err != nil {
				return err
			}
			t.ClientName = c.Name
		}
		t.ID = generic.TaskID(s.newID())
		return tx.InsertTasks(ctx, []generic.Task{t})
	})
	if err != nil {
		return nil, fmt.Errorf("add task: %w", err)
	}
	return &t, nil
}

func validateNewTask(t *generic.Task) error {
	if t.Source == "" {
		t.Source = generic.SourceManual
	}
	if t.Status == "" {
		t.Status = generic.TaskOpen
	}
	if t.Type == "" {
		t.Type = generic.TaskCustom
	}
	switch {
	case t.Source == generic.SourceAuto || !t.Source.Valid():
		return fmt.Errorf("%w: source %q", generic.ErrInvalidTask, t.Source)
	case !t.Type.Valid():
		return fmt.Errorf("%w: type %q", generic.ErrInvalidTask, t.Type)
	case !t.Status.Valid():
		return fmt.Errorf("%w: %q", generic.ErrInvalidStatus, t.Status)
	case t.Date.IsZero():
		return fmt.Errorf("%w: task date required", generic.ErrInvalidTask)
	case t.Source == generic.SourceManual && t.ClientID == "":
		return fmt.Errorf("%w: manual task without client", generic.ErrInvalidTask)
	}
	if strings.TrimSpace(t.Title) == "" {
		t.Title = defaultTitle(t.Type)
	}
	return nil
}

func defaultTitle(typ generic.TaskType) string {
	switch typ {
	case generic.TaskCall:
		return TitleCall
	case generic.TaskCallVM:
		return TitleCallVM
	case generic.TaskSMS:
		return TitleSMS
	case generic.TaskEmail:
		return TitleEmail
	}
	return "Task"
}

// SetTaskStatus marks a task done or reopens it.
func (s *Service) SetTaskStatus(ctx context.Context, id generic.TaskID, status generic.TaskStatus) (*generic.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", generic.ErrInvalidStatus, status)
	}
	var out *generic.Task
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		if err := tx.SetTaskStatus(ctx, id, status); err != nil {
			return err
		}
		var err error
		out, err = tx.GetTask(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("set task %s %s: %w", id, status, err)
	}
	return out, nil
}

func (s *Service) DeleteTask(ctx context.Context, id generic.TaskID) error {
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		return tx.DeleteTask(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// ClearManualTasks removes a client's open manual tasks.
func (s *Service) ClearManualTasks(ctx context.Context, id generic.ClientID) (int, error) {
	removed := 0
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		if _, err := tx.GetClient(ctx, id); err != nil {
			return err
		}
		var err error
		removed, err = tx.DeleteTasks(ctx, generic.TaskFilter{
			ClientIDs: []generic.ClientID{id},
			Status:    generic.TaskOpen,
			Source:    generic.SourceManual,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear manual tasks %s: %w", id, err)
	}
	return removed, nil
}

// ListTasks returns tasks matching filter in the given order.
func (s *Service) ListTasks(ctx context.Context, filter generic.TaskFilter, order SortMode) ([]generic.Task, error) {
	tasks, err := s.Store.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	SortTasks(tasks, order)
	return tasks, nil
}

// =============================================================================
// CALENDAR SETTINGS
// =============================================================================

func (s *Service) Settings(ctx context.Context) (generic.CalendarSettings, error) {
	return s.Store.GetSettings(ctx)
}

// UpdateSettings replaces the calendar and regenerates every cadence.
func (s *Service) UpdateSettings(ctx context.Context, cal generic.CalendarSettings) (int, error) {
	if err := cal.Validate(); err != nil {
		return 0, err
	}
	return s.mutateCalendar(ctx, "update settings", func(c *generic.CalendarSettings) {
		*c = cal.Clone()
	})
}

// SetOverride forces date to work/off and regenerates.
func (s *Service) SetOverride(ctx context.Context, date generic.Date, kind generic.Override) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: override %q", generic.ErrInvalidSettings, kind)
	}
	if date.IsZero() {
		return 0, fmt.Errorf("%w: override date required", generic.ErrInvalidDate)
	}
	return s.mutateCalendar(ctx, "set override", func(c *generic.CalendarSettings) {
		c.SetOverride(date, kind)
	})
}

// ClearOverride drops the override for date and regenerates.
func (s *Service) ClearOverride(ctx context.Context, date generic.Date) (int, error) {
	return s.mutateCalendar(ctx, "clear override", func(c *generic.CalendarSettings) {
		c.ClearOverride(date)
	})
}

// Regenerate rebuilds future open auto tasks for every client.
func (s *Service) Regenerate(ctx context.Context) (int, error) {
	return s.mutateCalendar(ctx, "regenerate", nil)
}

func (s *Service) mutateCalendar(ctx context.Context, op string, mutate func(*generic.CalendarSettings)) (int, error) {
	today := s.today()
	created := 0

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		cal, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		if mutate != nil {
			mutate(&cal)
			if err := tx.SaveSettings(ctx, cal); err != nil {
				return err
			}
		}
		created, err = s.regenerateAll(ctx, tx, s.planner(cal, today))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log().Info("regenerated cadences", zap.String("op", op), zap.Int("tasks", created))
	return created, nil
}

func (s *Service) regenerateAll(ctx context.Context, tx generic.Store, p *Planner) (int, error) {
	clients, err := tx.ListClients(ctx)
	if err != nil {
		return 0, err
	}
	existing, err := tx.ListTasks(ctx, generic.TaskFilter{})
	if err != nil {
		return 0, err
	}
	known := make(map[generic.TaskID]struct{}, len(existing))
	for _, t := range existing {
		known[t.ID] = struct{}{}
	}

	if _, err := tx.DeleteTasks(ctx, generic.FutureOpenAuto(p.Today)); err != nil {
		return 0, err
	}
	var fresh []generic.Task
	for _, t := range p.RegenerateAll(clients, existing) {
		if _, ok := known[t.ID]; !ok {
			fresh = append(fresh, t)
		}
	}
	if err := tx.InsertTasks(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
