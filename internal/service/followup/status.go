package followup

import "time"

// DueStatus classifies a schedule relative to the current day.
type DueStatus string

const (
	StatusNone     DueStatus = "none"
	StatusDone     DueStatus = "done"
	StatusUpcoming DueStatus = "upcoming"
	StatusDueToday DueStatus = "due_today"
	StatusOverdue  DueStatus = "overdue"
)

func (s DueStatus) String() string { return string(s) }

// IsActionable reports whether the reminder should be surfaced now.
func (s DueStatus) IsActionable() bool {
	return s == StatusDueToday || s == StatusOverdue
}

// Status classifies the schedule at now, with "today" taken in loc.
// A reminder dated today is due_today, never overdue: overdue means the
// reminder day is strictly before today.
func Status(now time.Time, s Schedule, loc *time.Location) DueStatus {
	switch {
	case s.Date == nil:
		return StatusNone
	case s.Done:
		return StatusDone
	}

	today := Today(now, loc)
	due := CalendarDay(*s.Date)
	switch {
	case due.After(today):
		return StatusUpcoming
	case due.Equal(today):
		return StatusDueToday
	default:
		return StatusOverdue
	}
}

// DaysPending returns the whole calendar days elapsed since the proposal
// date, never negative.
func DaysPending(now time.Time, proposalDate time.Time, loc *time.Location) int {
	days := int(Today(now, loc).Sub(CalendarDay(proposalDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Today returns the calendar day of now in loc, as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CalendarDay(now.In(loc))
}

// ParseTimezone parses an IANA zone name, falling back to UTC.
func ParseTimezone(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
