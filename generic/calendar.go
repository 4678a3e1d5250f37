package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// WORKING-DAY CALENDAR
// =============================================================================

// WeekMask marks which weekdays are working days.
type WeekMask struct {
	Mon bool `json:"mon"`
	Tue bool `json:"tue"`
	Wed bool `json:"wed"`
	Thu bool `json:"thu"`
	Fri bool `json:"fri"`
	Sat bool `json:"sat"`
	Sun bool `json:"sun"`
}

// MondayToFriday is the default working week.
var MondayToFriday = WeekMask{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true}

// EveryDay marks all seven days as working.
var EveryDay = WeekMask{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true, Sat: true, Sun: true}

// Works reports whether the weekday is a working day.
func (m WeekMask) Works(wd time.Weekday) bool {
	switch wd {
	case time.Monday:
		return m.Mon
	case time.Tuesday:
		return m.Tue
	case time.Wednesday:
		return m.Wed
	case time.Thursday:
		return m.Thu
	case time.Friday:
		return m.Fri
	case time.Saturday:
		return m.Sat
	default:
		return m.Sun
	}
}

// Any reports whether at least one weekday is working.
func (m WeekMask) Any() bool {
	return m.Mon || m.Tue || m.Wed || m.Thu || m.Fri || m.Sat || m.Sun
}

// Override forces a single date to be working or off.
type Override string

const (
	OverrideWork Override = "work"
	OverrideOff  Override = "off"
)

func (o Override) Valid() bool { return o == OverrideWork || o == OverrideOff }

// CalendarSettings drives every working-day decision.
// Overrides are keyed by the canonical "YYYY-MM-DD" date string.
type CalendarSettings struct {
	WorkingDays WeekMask            `json:"workingDays"`
	MoveOffDays bool                `json:"moveOffDays"`
	Overrides   map[string]Override `json:"overrides"`
}

// DefaultCalendarSettings is Monday-Friday with off-day shifting enabled.
func DefaultCalendarSettings() CalendarSettings {
	return CalendarSettings{
		WorkingDays: MondayToFriday,
		MoveOffDays: true,
		Overrides:   map[string]Override{},
	}
}

// Clone returns a deep copy so callers can mutate overrides safely.
func (c CalendarSettings) Clone() CalendarSettings {
	out := c
	out.Overrides = make(map[string]Override, len(c.Overrides))
	for k, v := range c.Overrides {
		out.Overrides[k] = v
	}
	return out
}

// Validate checks override keys and values.
func (c CalendarSettings) Validate() error {
	for k, v := range c.Overrides {
		if _, err := ParseDate(k); err != nil || k == "" {
			return fmt.Errorf("%w: override date %q", ErrInvalidSettings, k)
		}
		if !v.Valid() {
			return fmt.Errorf("%w: override %s=%q", ErrInvalidSettings, k, v)
		}
	}
	return nil
}

// SetOverride records a work/off override for date.
func (c *CalendarSettings) SetOverride(date Date, kind Override) {
	if c.Overrides == nil {
		c.Overrides = map[string]Override{}
	}
	c.Overrides[date.String()] = kind
}

// ClearOverride drops the override for date, if any.
func (c *CalendarSettings) ClearOverride(date Date) {
	delete(c.Overrides, date.String())
}

// IsWorkingDay checks the override first, then the weekly mask.
func (c CalendarSettings) IsWorkingDay(date Date) bool {
	switch c.Overrides[date.String()] {
	case OverrideWork:
		return true
	case OverrideOff:
		return false
	}
	return c.WorkingDays.Works(date.Weekday())
}

// NextWorkingDay returns date if it is working, else the first working day after it.
// When no working day can ever occur, date is returned unchanged.
func (c CalendarSettings) NextWorkingDay(date Date) Date {
	if c.IsWorkingDay(date) {
		return date
	}
	if !c.WorkingDays.Any() {
		next, ok := c.nextWorkOverride(date)
		if !ok {
			return date
		}
		return next
	}
	d := date
	for !c.IsWorkingDay(d) {
		d = d.AddDays(1)
	}
	return d
}

// nextWorkOverride finds the earliest "work" override strictly after date.
func (c CalendarSettings) nextWorkOverride(date Date) (Date, bool) {
	var best Date
	found := false
	for k, v := range c.Overrides {
		if v != OverrideWork {
			continue
		}
		d, err := ParseDate(k)
		if err != nil || !d.After(date) {
			continue
		}
		if !found || d.Before(best) {
			best, found = d, true
		}
	}
	return best, found
}

// StepByWorkingDays repeats "advance one day, then forward to a working day" n times.
func (c CalendarSettings) StepByWorkingDays(date Date, n int) Date {
	d := date
	for i := 0; i < n; i++ {
		d = c.NextWorkingDay(d.AddDays(1))
	}
	return d
}

// AdjustAutoDateIfNeeded moves auto-task dates off non-working days when MoveOffDays is set.
func (c CalendarSettings) AdjustAutoDateIfNeeded(date Date) Date {
	if !c.MoveOffDays {
		return date
	}
	return c.NextWorkingDay(date)
}
