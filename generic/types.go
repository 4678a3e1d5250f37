/*
Package generic provides the core types of the follow-up engine.

PURPOSE:
  Domain types shared by the lead parser, the follow-up scheduler, the
  stores and the API. Nothing in here knows how leads are parsed or how
  cadences are built; it only defines what a lead, a client and a task are,
  plus the working-day calendar both sides agree on.

KEY CONCEPTS IN THIS FILE (types.go):
  - Lead: transient record extracted from a pasted lead dump
  - Client: persisted lead with an outreach status and anchor dates
  - Task: dated outreach action (call, sms, email, ...)
  - TaskKey / TaskIndex: duplicate suppression for task emission
  - Progress: per-client completion summary

INVARIANTS:
  1. No two tasks share a TaskKey (clientId, date, type, title, source)
  2. Auto tasks are never dated before "today"
  3. ReachedStart is set only on transition to reached

SEE ALSO:
  - calendar.go: CalendarSettings and working-day stepping
  - time.go: Date, the "YYYY-MM-DD" day type
  - store.go: persistence interfaces
*/
package generic

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID string
type TaskID string

// =============================================================================
// LEAD - Transient parse result
// =============================================================================

// Lead is one prospective customer extracted from pasted text.
// Unmatched fields are empty strings.
type Lead struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Route  string `json:"route"`
	Dates  string `json:"dates"`
	Pax    string `json:"pax"`
	LeadID string `json:"leadId"`
	Cabin  string `json:"cabin"`
	Notes  string `json:"notes"`
}

var nonDigits = regexp.MustCompile(`\D`)

// PhoneDigits strips everything but digits.
func PhoneDigits(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// IdentityKey is email (lowercased), else phone digits, else lead id, else name.
func (l Lead) IdentityKey() string {
	if e := strings.ToLower(strings.TrimSpace(l.Email)); e != "" {
		return e
	}
	if p := PhoneDigits(l.Phone); p != "" {
		return p
	}
	if l.LeadID != "" {
		return l.LeadID
	}
	return l.Name
}

// Identifiable reports whether the lead carries at least one identifying field.
func (l Lead) Identifiable() bool {
	return l.Name != "" || l.Email != "" || l.Phone != "" || l.LeadID != ""
}

// =============================================================================
// CLIENT - Persisted lead with outreach status
// =============================================================================

type ClientStatus string

const (
	StatusUnreached ClientStatus = "unreached"
	StatusReached   ClientStatus = "reached"
)

func (s ClientStatus) Valid() bool { return s == StatusUnreached || s == StatusReached }

type Client struct {
	Lead
	ID           ClientID     `json:"id"`
	Status       ClientStatus `json:"status"`
	StartDate    Date         `json:"startDate"`
	ReachedStart Date         `json:"reachedStart"`
	CreatedAt    Date         `json:"createdAt"`
}

// Anchor returns the date the client's current cadence is computed from.
func (c Client) Anchor() Date {
	if c.Status == StatusReached {
		return c.ReachedStart
	}
	return c.StartDate
}

// =============================================================================
// TASK - Dated outreach action
// =============================================================================

type TaskType string

const (
	TaskCall   TaskType = "call"
	TaskCallVM TaskType = "callvm"
	TaskSMS    TaskType = "sms"
	TaskEmail  TaskType = "email"
	TaskCustom TaskType = "custom"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskCall, TaskCallVM, TaskSMS, TaskEmail, TaskCustom:
		return true
	}
	return false
}

type TaskSource string

const (
	SourceAuto   TaskSource = "auto"   // emitted by the scheduler
	SourceManual TaskSource = "manual" // explicit action on a client
	SourceCustom TaskSource = "custom" // ad-hoc, possibly without a client
)

func (s TaskSource) Valid() bool {
	return s == SourceAuto || s == SourceManual || s == SourceCustom
}

type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

func (s TaskStatus) Valid() bool { return s == TaskOpen || s == TaskDone }

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceNormal Importance = "normal"
	ImportanceHigh   Importance = "high"
)

type Task struct {
	ID         TaskID     `json:"id"`
	ClientID   ClientID   `json:"clientId,omitempty"`
	ClientName string     `json:"clientName"`
	Date       Date       `json:"date"`
	Type       TaskType   `json:"type"`
	Title      string     `json:"title"`
	Label      string     `json:"label,omitempty"`
	Source     TaskSource `json:"source"`
	Status     TaskStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	Importance Importance `json:"importance,omitempty"`
	Notify     bool       `json:"notify,omitempty"`
}

// IsFutureOpenAuto reports whether regeneration may replace this task.
func (t Task) IsFutureOpenAuto(today Date) bool {
	return t.Source == SourceAuto && t.Status != TaskDone && t.Date.AfterOrEqual(today)
}

// =============================================================================
// TASK KEY / INDEX - Duplicate suppression
// =============================================================================

// TaskKey is the composite identity used to suppress duplicate tasks.
type TaskKey struct {
	ClientID ClientID
	Date     string
	Type     TaskType
	Title    string
	Source   TaskSource
}

func (t Task) Key() TaskKey {
	return TaskKey{
		ClientID: t.ClientID,
		Date:     t.Date.String(),
		Type:     t.Type,
		Title:    t.Title,
		Source:   t.Source,
	}
}

// TaskIndex is a set of task keys.
type TaskIndex map[TaskKey]struct{}

func NewTaskIndex(tasks []Task) TaskIndex {
	idx := make(TaskIndex, len(tasks))
	for _, t := range tasks {
		idx[t.Key()] = struct{}{}
	}
	return idx
}

func (idx TaskIndex) Has(t Task) bool {
	_, ok := idx[t.Key()]
	return ok
}

// Add inserts the task's key. Returns false if it was already present.
func (idx TaskIndex) Add(t Task) bool {
	k := t.Key()
	if _, ok := idx[k]; ok {
		return false
	}
	idx[k] = struct{}{}
	return true
}

func (idx TaskIndex) Remove(t Task) {
	delete(idx, t.Key())
}

// =============================================================================
// PROGRESS - Per-client completion summary
// =============================================================================

type Progress struct {
	Open       int             `json:"open"`
	Done       int             `json:"done"`
	Completion decimal.Decimal `json:"completion"` // percent, 2 places
}

// ProgressOf summarizes the tasks of one client.
func ProgressOf(tasks []Task) Progress {
	var p Progress
	for _, t := range tasks {
		if t.Status == TaskDone {
			p.Done++
		} else {
			p.Open++
		}
	}
	total := p.Open + p.Done
	if total == 0 {
		p.Completion = decimal.Zero
		return p
	}
	p.Completion = decimal.NewFromInt(int64(p.Done)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
	return p
}
