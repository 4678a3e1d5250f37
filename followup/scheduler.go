/*
scheduler.go - Follow-up cadence planner

PURPOSE:
  Turns a client's status and anchor date into dated outreach tasks under
  the working-day calendar. The planner is pure: it receives the calendar,
  "today" and the existing tasks, and returns the tasks to add.

CADENCES:
  Unreached: 5 working days from StartDate. Day 1 carries the two named
             intro emails instead of the generic email.
  Reached:   Phase 1 on 3 consecutive working days from ReachedStart, then
             phases 2-6 at calendar gaps [3,5,7,7,7], each pushed off
             non-working days when MoveOffDays is set.

EMISSION RULES:
  1. A task is emitted only if no existing task (any status) has its TaskKey
  2. Auto tasks dated before Today are never emitted
  3. A zero anchor means Today

  Calling ScheduleForClient twice with the output of the first call merged
  into existing yields nothing the second time.

SEE ALSO:
  - cadence.go: slot layout and per-day profiles
  - service.go: recompute protocol around the planner
*/
package followup

import (
	"github.com/google/uuid"

	"github.com/warp/followup-engine/generic"
)

// Planner emits cadence tasks for clients.
type Planner struct {
	Calendar generic.CalendarSettings
	Today    generic.Date
	NewID    func() generic.TaskID
}

// NewPlanner returns a planner with uuid task ids.
func NewPlanner(cal generic.CalendarSettings, today generic.Date) *Planner {
	return &Planner{Calendar: cal, Today: today, NewID: NewTaskID}
}

// NewTaskID returns a random uuid task id.
func NewTaskID() generic.TaskID {
	return generic.TaskID(uuid.NewString())
}

// Slots returns the cadence days for a client's current status.
func (p *Planner) Slots(c generic.Client) []Slot {
	anchor := c.Anchor().OrDefault(p.Today)
	if c.Status == generic.StatusReached {
		return ReachedSlots(p.Calendar, anchor)
	}
	return UnreachedSlots(p.Calendar, anchor)
}

// ScheduleForClient returns the new tasks for c. Existing is not modified.
func (p *Planner) ScheduleForClient(c generic.Client, existing []generic.Task) []generic.Task {
	return p.emit(c, generic.NewTaskIndex(existing))
}

func (p *Planner) emit(c generic.Client, idx generic.TaskIndex) []generic.Task {
	var out []generic.Task
	for _, slot := range p.Slots(c) {
		if slot.Date.Before(p.Today) {
			continue
		}
		for _, t := range slot.Templates(c) {
			if !idx.Add(t) {
				continue
			}
			t.ID = p.newID()
			out = append(out, t)
		}
	}
	return out
}

// RegenerateAll returns the full replacement task set: existing minus
// future open auto tasks, plus freshly scheduled cadences for every client.
func (p *Planner) RegenerateAll(clients []generic.Client, existing []generic.Task) []generic.Task {
	kept := make([]generic.Task, 0, len(existing))
	for _, t := range existing {
		if !t.IsFutureOpenAuto(p.Today) {
			kept = append(kept, t)
		}
	}
	idx := generic.NewTaskIndex(kept)
	for _, c := range clients {
		kept = append(kept, p.emit(c, idx)...)
	}
	return kept
}

func (p *Planner) newID() generic.TaskID {
	if p.NewID == nil {
		return NewTaskID()
	}
	return p.NewID()
}
