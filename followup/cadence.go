package followup

import (
	"fmt"

	"github.com/warp/followup-engine/generic"
)

// =============================================================================
// CADENCE - Which days get outreach and how much
// =============================================================================

// Task titles emitted by the cadences.
const (
	TitleCall        = "Call"
	TitleCallVM      = "Call + Voicemail"
	TitleCall2       = "Call 2"
	TitleSMS         = "SMS"
	TitleEmail       = "Email"
	TitleIntroEmails = "Introduction & Info Emails"
	TitleFeedback    = "3PQ + Feedback Request Email"
)

// UnreachedDays is the length of the unreached cadence.
const UnreachedDays = 5

// ReachedGaps are the calendar-day gaps between reached phases 2..6.
var ReachedGaps = []int{3, 5, 7, 7, 7}

// Profile is the action quota for one cadence day.
type Profile struct {
	Calls     int
	Voicemail int
	SMS       int
	Emails    int
	// IntroEmails replaces the generic email quota with the two named emails.
	IntroEmails bool
}

// UnreachedProfile returns the quota for unreached day n (1-based).
func UnreachedProfile(day int) Profile {
	p := Profile{Calls: 2, Voicemail: 1, SMS: 1, Emails: 1}
	if day == 1 {
		p.Emails = 2
		p.IntroEmails = true
	}
	return p
}

// ReachedProfile is the same for every reached phase day.
var ReachedProfile = Profile{Calls: 2, Voicemail: 1, SMS: 1, Emails: 1}

// Slot is one scheduled cadence day.
type Slot struct {
	Date    generic.Date
	Label   string
	Profile Profile
}

// UnreachedSlots lays out the five unreached days from anchor.
func UnreachedSlots(cal generic.CalendarSettings, anchor generic.Date) []Slot {
	slots := make([]Slot, 0, UnreachedDays)
	day := cal.NextWorkingDay(anchor)
	for n := 1; n <= UnreachedDays; n++ {
		slots = append(slots, Slot{
			Date:    cal.AdjustAutoDateIfNeeded(day),
			Label:   fmt.Sprintf("Unreached Day %d", n),
			Profile: UnreachedProfile(n),
		})
		if n < UnreachedDays {
			day = cal.StepByWorkingDays(day, 1)
		}
	}
	return slots
}

// ReachedSlots lays out phase 1 (three consecutive working days) and the
// gap-spaced phases after it.
func ReachedSlots(cal generic.CalendarSettings, anchor generic.Date) []Slot {
	d1 := cal.AdjustAutoDateIfNeeded(cal.NextWorkingDay(anchor))
	d2 := cal.AdjustAutoDateIfNeeded(cal.StepByWorkingDays(d1, 1))
	d3 := cal.AdjustAutoDateIfNeeded(cal.StepByWorkingDays(d2, 1))

	slots := make([]Slot, 0, 3+len(ReachedGaps))
	for i, d := range []generic.Date{d1, d2, d3} {
		slots = append(slots, Slot{
			Date:    d,
			Label:   fmt.Sprintf("Phase 1 (Day %d/3)", i+1),
			Profile: ReachedProfile,
		})
	}

	last := d3
	for i, gap := range ReachedGaps {
		target := cal.AdjustAutoDateIfNeeded(last.AddDays(gap))
		slots = append(slots, Slot{
			Date:    target,
			Label:   fmt.Sprintf("Phase %d", i+2),
			Profile: ReachedProfile,
		})
		last = target
	}
	return slots
}

// Templates expands a slot's profile into task templates (no ID yet).
// Repeated quota entries share a key, so only one of each is kept.
func (s Slot) Templates(c generic.Client) []generic.Task {
	base := generic.Task{
		ClientID:   c.ID,
		ClientName: c.Name,
		Date:       s.Date,
		Source:     generic.SourceAuto,
		Status:     generic.TaskOpen,
		Label:      s.Label,
	}
	with := func(typ generic.TaskType, title string) generic.Task {
		t := base
		t.Type = typ
		t.Title = title
		return t
	}

	p := s.Profile
	var out []generic.Task
	if p.Calls >= 1 {
		out = append(out, with(generic.TaskCall, TitleCall))
	}
	if p.Voicemail >= 1 {
		out = append(out, with(generic.TaskCallVM, TitleCallVM))
	} else if p.Calls >= 2 {
		out = append(out, with(generic.TaskCall, TitleCall2))
	}
	if p.SMS >= 1 {
		out = append(out, with(generic.TaskSMS, TitleSMS))
	}
	switch {
	case p.IntroEmails:
		out = append(out, with(generic.TaskEmail, TitleIntroEmails), with(generic.TaskEmail, TitleFeedback))
	case p.Emails >= 1:
		out = append(out, with(generic.TaskEmail, TitleEmail))
	}
	return out
}
