/*
Package sqlite provides a SQLite-backed implementation of generic.TxStore.

PURPOSE:
  Persists clients, tasks and the calendar settings document. Two drivers
  are supported behind database/sql:
    "sqlite3" - github.com/mattn/go-sqlite3 (cgo)
    "sqlite"  - modernc.org/sqlite (pure Go, for CGO_ENABLED=0 builds)

KEY TABLES:
  clients:  Lead fields + status and anchor dates (rowid = creation order)
  tasks:    Dated outreach actions
  settings: Single-row JSON calendar document

INDEXES:
  - idx_tasks_key: UNIQUE (client_id, date, type, title, source).
    Enforces duplicate suppression; violations surface as ErrDuplicateTask.
  - idx_tasks_date: Agenda and calendar range scans

DATES:
  Stored as "YYYY-MM-DD" TEXT, so lexical order is chronological order.

CONCURRENCY:
  The pool is pinned to one connection, which keeps ":memory:" databases
  alive and makes WithTx the only writer while it runs. A mutex serializes
  Go-side callers the same way the in-memory store does.

USAGE:
  store, err := sqlite.New(sqlite.DriverMattn, "./followup.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/warp/followup-engine/generic"
)

// Supported database/sql driver names.
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	driver string
}

var _ generic.TxStore = (*Store)(nil)

// New opens (and migrates) the database at dbPath with the given driver.
// Use ":memory:" for an in-memory database. An empty driver means DriverMattn.
func New(driver, dbPath string) (*Store, error) {
	if driver == "" {
		driver = DriverMattn
	}
	if driver != DriverMattn && driver != DriverModernc {
		return nil, eris.Errorf("sqlite: unknown driver %q", driver)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"}
	if dbPath != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	store := &Store{db: db, driver: driver}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Driver reports which database/sql driver the store was opened with.
func (s *Store) Driver() string { return s.driver }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	route         TEXT NOT NULL DEFAULT '',
	dates         TEXT NOT NULL DEFAULT '',
	pax           TEXT NOT NULL DEFAULT '',
	lead_id       TEXT NOT NULL DEFAULT '',
	cabin         TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	start_date    TEXT NOT NULL DEFAULT '',
	reached_start TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL DEFAULT '',
	client_name TEXT NOT NULL DEFAULT '',
	date        TEXT NOT NULL,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'open',
	notes       TEXT NOT NULL DEFAULT '',
	importance  TEXT NOT NULL DEFAULT '',
	notify      INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_key
	ON tasks(client_id, date, type, title, source);
CREATE INDEX IF NOT EXISTS idx_tasks_date
	ON tasks(date);
CREATE INDEX IF NOT EXISTS idx_tasks_client
	ON tasks(client_id);

CREATE TABLE IF NOT EXISTS settings (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	calendar_json TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return eris.Wrap(err, "sqlite: migrate")
}

// =============================================================================
// LOCKED OPERATIONS - Store implements generic.Store
// =============================================================================

func (s *Store) q() queries { return queries{db: s.db} }

func (s *Store) SaveClient(ctx context.Context, c generic.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().SaveClient(ctx, c)
}

func (s *Store) GetClient(ctx context.Context, id generic.ClientID) (*generic.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetClient(ctx, id)
}

func (s *Store) ListClients(ctx context.Context) ([]generic.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListClients(ctx)
}

func (s *Store) DeleteClient(ctx context.Context, id generic.ClientID) error {
	return s.WithTx(ctx, func(tx generic.Store) error {
		return tx.DeleteClient(ctx, id)
	})
}

// InsertTasks adds tasks atomically.
func (s *Store) InsertTasks(ctx context.Context, tasks []generic.Task) error {
	return s.WithTx(ctx, func(tx generic.Store) error {
		return tx.InsertTasks(ctx, tasks)
	})
}

func (s *Store) GetTask(ctx context.Context, id generic.TaskID) (*generic.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetTask(ctx, id)
}

func (s *Store) ListTasks(ctx context.Context, filter generic.TaskFilter) ([]generic.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListTasks(ctx, filter)
}

func (s *Store) SetTaskStatus(ctx context.Context, id generic.TaskID, status generic.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().SetTaskStatus(ctx, id, status)
}

func (s *Store) DeleteTask(ctx context.Context, id generic.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteTask(ctx, id)
}

func (s *Store) DeleteTasks(ctx context.Context, filter generic.TaskFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteTasks(ctx, filter)
}

func (s *Store) GetSettings(ctx context.Context) (generic.CalendarSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetSettings(ctx)
}

func (s *Store) SaveSettings(ctx context.Context, cal generic.CalendarSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().SaveSettings(ctx, cal)
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin transaction")
	}
	defer sqlTx.Rollback()

	if err := fn(queries{db: sqlTx}); err != nil {
		return err
	}
	return eris.Wrap(sqlTx.Commit(), "sqlite: commit")
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements generic.Store without locking, over a DB or a Tx.
type queries struct {
	db queryer
}

// =============================================================================
// CLIENTS
// =============================================================================

const clientColumns = `id, name, email, phone, route, dates, pax, lead_id, cabin, notes,
	status, start_date, reached_start, created_at`

func (q queries) SaveClient(ctx context.Context, c generic.Client) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email, phone = excluded.phone,
			route = excluded.route, dates = excluded.dates, pax = excluded.pax,
			lead_id = excluded.lead_id, cabin = excluded.cabin, notes = excluded.notes,
			status = excluded.status, start_date = excluded.start_date,
			reached_start = excluded.reached_start, created_at = excluded.created_at
	`,
		string(c.ID), c.Name, c.Email, c.Phone, c.Route, c.Dates, c.Pax, c.LeadID, c.Cabin, c.Notes,
		string(c.Status), c.StartDate.String(), c.ReachedStart.String(), c.CreatedAt.String(),
	)
	return eris.Wrapf(err, "sqlite: save client %s", c.ID)
}

func (q queries) GetClient(ctx context.Context, id generic.ClientID) (*generic.Client, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, string(id))
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrClientNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get client %s", id)
	}
	return &c, nil
}

func (q queries) ListClients(ctx context.Context) ([]generic.Client, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clients")
	}
	defer rows.Close()

	var out []generic.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan client")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list clients")
}

// DeleteClient removes the client's tasks, then the client.
func (q queries) DeleteClient(ctx context.Context, id generic.ClientID) error {
	if _, err := q.GetClient(ctx, id); err != nil {
		return err
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE client_id = ?`, string(id)); err != nil {
		return eris.Wrapf(err, "sqlite: delete tasks of %s", id)
	}
	_, err := q.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, string(id))
	return eris.Wrapf(err, "sqlite: delete client %s", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (generic.Client, error) {
	var c generic.Client
	var start, reached, created string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Route, &c.Dates, &c.Pax, &c.LeadID,
		&c.Cabin, &c.Notes, &c.Status, &start, &reached, &created)
	if err != nil {
		return c, err
	}
	if c.StartDate, err = generic.ParseDate(start); err != nil {
		return c, err
	}
	if c.ReachedStart, err = generic.ParseDate(reached); err != nil {
		return c, err
	}
	c.CreatedAt, err = generic.ParseDate(created)
	return c, err
}

// =============================================================================
// TASKS
// =============================================================================

const taskColumns = `id, client_id, client_name, date, type, title, label, source, status,
	notes, importance, notify`

// InsertTasks runs under a savepoint so a failing batch leaves no rows behind
// even inside a larger transaction.
func (q queries) InsertTasks(ctx context.Context, tasks []generic.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	batch := make(generic.TaskIndex, len(tasks))
	for _, t := range tasks {
		if !batch.Add(t) {
			return &generic.DuplicateTaskError{Key: t.Key()}
		}
	}

	if _, err := q.db.ExecContext(ctx, `SAVEPOINT insert_tasks`); err != nil {
		return eris.Wrap(err, "sqlite: savepoint")
	}
	for _, t := range tasks {
		if err := q.insertTask(ctx, t); err != nil {
			q.db.ExecContext(ctx, `ROLLBACK TO insert_tasks`)
			q.db.ExecContext(ctx, `RELEASE insert_tasks`)
			return err
		}
	}
	_, err := q.db.ExecContext(ctx, `RELEASE insert_tasks`)
	return eris.Wrap(err, "sqlite: release savepoint")
}

func (q queries) insertTask(ctx context.Context, t generic.Task) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(t.ID), string(t.ClientID), t.ClientName, t.Date.String(), string(t.Type), t.Title, t.Label,
		string(t.Source), string(t.Status), t.Notes, string(t.Importance), t.Notify,
	)
	if isUniqueConstraintError(err) {
		return &generic.DuplicateTaskError{Key: t.Key()}
	}
	return eris.Wrapf(err, "sqlite: insert task %s", t.ID)
}

func (q queries) GetTask(ctx context.Context, id generic.TaskID) (*generic.Task, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, string(id))
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrTaskNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get task %s", id)
	}
	return &t, nil
}

// ListTasks orders by date, then insertion.
func (q queries) ListTasks(ctx context.Context, filter generic.TaskFilter) ([]generic.Task, error) {
	where, args := filterClause(filter)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+where+` ORDER BY date ASC, rowid ASC`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close()

	var out []generic.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list tasks")
}

func (q queries) SetTaskStatus(ctx context.Context, id generic.TaskID, status generic.TaskStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), string(id))
	if err != nil {
		return eris.Wrapf(err, "sqlite: set task status %s", id)
	}
	return affectedOrNotFound(res, generic.ErrTaskNotFound)
}

func (q queries) DeleteTask(ctx context.Context, id generic.TaskID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, string(id))
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete task %s", id)
	}
	return affectedOrNotFound(res, generic.ErrTaskNotFound)
}

func (q queries) DeleteTasks(ctx context.Context, filter generic.TaskFilter) (int, error) {
	where, args := filterClause(filter)
	res, err := q.db.ExecContext(ctx, `DELETE FROM tasks`+where, args...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete tasks")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: delete tasks")
}

// filterClause renders a TaskFilter as a WHERE clause. Zero fields add nothing.
func filterClause(f generic.TaskFilter) (string, []any) {
	var conds []string
	var args []any
	if len(f.ClientIDs) > 0 {
		marks := make([]string, len(f.ClientIDs))
		for i, id := range f.ClientIDs {
			marks[i] = "?"
			args = append(args, string(id))
		}
		conds = append(conds, "client_id IN ("+strings.Join(marks, ", ")+")")
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, string(f.Source))
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTask(row scanner) (generic.Task, error) {
	var t generic.Task
	var date string
	err := row.Scan(&t.ID, &t.ClientID, &t.ClientName, &date, &t.Type, &t.Title, &t.Label,
		&t.Source, &t.Status, &t.Notes, &t.Importance, &t.Notify)
	if err != nil {
		return t, err
	}
	t.Date, err = generic.ParseDate(date)
	return t, err
}

// =============================================================================
// SETTINGS
// =============================================================================

func (q queries) GetSettings(ctx context.Context) (generic.CalendarSettings, error) {
	var raw string
	err := q.db.QueryRowContext(ctx, `SELECT calendar_json FROM settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.DefaultCalendarSettings(), nil
	}
	if err != nil {
		return generic.CalendarSettings{}, eris.Wrap(err, "sqlite: get settings")
	}
	var cal generic.CalendarSettings
	if err := json.Unmarshal([]byte(raw), &cal); err != nil {
		return generic.CalendarSettings{}, eris.Wrap(err, "sqlite: decode settings")
	}
	if cal.Overrides == nil {
		cal.Overrides = map[string]generic.Override{}
	}
	return cal, nil
}

func (q queries) SaveSettings(ctx context.Context, cal generic.CalendarSettings) error {
	raw, err := json.Marshal(cal)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode settings")
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO settings (id, calendar_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET calendar_json = excluded.calendar_json, updated_at = excluded.updated_at
	`, string(raw), time.Now().UTC().Format(time.RFC3339))
	return eris.Wrap(err, "sqlite: save settings")
}

// Helper functions

func affectedOrNotFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
