/*
store.go - Persistence interface for clients, tasks and calendar settings

PURPOSE:
  Defines the interface between the follow-up service and the database.
  The store owns the shared client/task collection; nothing else keeps a
  copy across operations.

KEY INTERFACES:
  ClientStore:   Client CRUD (delete cascades to tasks)
  TaskStore:     Task insert, status flip, delete, bulk clear
  SettingsStore: The single CalendarSettings document
  TxStore:       Atomic multi-step operations (regeneration)

DUPLICATE SUPPRESSION:
  InsertTasks rejects any task whose TaskKey already exists, with
  ErrDuplicateTask. The planner never produces such tasks, so hitting it
  means two writers raced outside WithTx.

ATOMIC REGENERATION:
  "Clear future auto tasks, then reschedule all clients" must never be
  observed half-done. The service runs it inside WithTx.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (mattn or modernc driver)
  - generic/store/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - followup/service.go: The only caller that mutates through these
*/
package generic

import "context"

// =============================================================================
// STORE - Interfaces for persistence
// =============================================================================

type ClientStore interface {
	// SaveClient inserts or replaces a client by ID.
	SaveClient(ctx context.Context, c Client) error

	// GetClient returns ErrClientNotFound if missing.
	GetClient(ctx context.Context, id ClientID) (*Client, error)

	// ListClients returns clients in creation order.
	ListClients(ctx context.Context) ([]Client, error)

	// DeleteClient removes the client and all of its tasks.
	DeleteClient(ctx context.Context, id ClientID) error
}

type TaskStore interface {
	// InsertTasks adds tasks atomically. Fails with ErrDuplicateTask on key collision.
	InsertTasks(ctx context.Context, tasks []Task) error

	// GetTask returns ErrTaskNotFound if missing.
	GetTask(ctx context.Context, id TaskID) (*Task, error)

	// ListTasks returns tasks matching filter, ordered by date then insertion.
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)

	// SetTaskStatus flips a task between open and done.
	SetTaskStatus(ctx context.Context, id TaskID, status TaskStatus) error

	// DeleteTask removes one task.
	DeleteTask(ctx context.Context, id TaskID) error

	// DeleteTasks removes all tasks matching filter and reports how many.
	DeleteTasks(ctx context.Context, filter TaskFilter) (int, error)
}

type SettingsStore interface {
	// GetSettings returns DefaultCalendarSettings when nothing is stored yet.
	GetSettings(ctx context.Context) (CalendarSettings, error)
	SaveSettings(ctx context.Context, s CalendarSettings) error
}

// Store is the full persistence surface.
type Store interface {
	ClientStore
	TaskStore
	SettingsStore
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the given Store is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// TASK FILTER
// =============================================================================

// TaskFilter narrows task queries. Zero-valued fields match everything.
type TaskFilter struct {
	ClientIDs []ClientID
	Status    TaskStatus
	Source    TaskSource
	From      Date // inclusive
	To        Date // inclusive
}

// FutureOpenAuto selects the tasks regeneration replaces.
func FutureOpenAuto(today Date, clients ...ClientID) TaskFilter {
	return TaskFilter{ClientIDs: clients, Status: TaskOpen, Source: SourceAuto, From: today}
}

// Matches applies the filter in memory.
func (f TaskFilter) Matches(t Task) bool {
	if len(f.ClientIDs) > 0 {
		found := false
		for _, id := range f.ClientIDs {
			if t.ClientID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	return true
}
