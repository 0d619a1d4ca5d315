// Package followup computes quote reminder schedules. Everything here is a
// pure function of its arguments; callers pass the proposal date and the
// current time explicitly.
package followup

import (
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// None is the offset spec meaning "no reminder".
const None = "none"

// Schedule is the reminder state embedded in a quote.
//
// Date is the next reminder day (nil when no reminder is configured).
// Sequence holds the day offsets from the proposal date for multi-step
// schedules and is nil for single-step ones. Done reports that the current
// step was acknowledged and no further step exists.
type Schedule struct {
	Date     *time.Time
	Sequence []int
	Done     bool
}

// IsNone reports whether spec is the no-reminder sentinel.
func IsNone(spec string) bool {
	return strings.TrimSpace(spec) == None
}

// ParseOffsets parses a comma separated, strictly ascending list of
// non-negative day offsets, for example "5,15,30".
func ParseOffsets(spec string) ([]int, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, &domain.ScheduleError{Input: spec, Reason: "empty offset list"}
	}
	if trimmed == None {
		return nil, &domain.ScheduleError{Input: spec, Reason: "no offsets in the no-reminder value"}
	}

	parts := strings.Split(trimmed, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &domain.ScheduleError{Input: spec, Reason: "offset " + strconv.Quote(p) + " is not an integer"}
		}
		if n < 0 {
			return nil, &domain.ScheduleError{Input: spec, Reason: "offset " + p + " is negative"}
		}
		if len(offsets) > 0 && n <= offsets[len(offsets)-1] {
			return nil, &domain.ScheduleError{Input: spec, Reason: "offsets must be strictly ascending"}
		}
		offsets = append(offsets, n)
	}
	return offsets, nil
}

// ValidateSpec accepts None or a valid offset list.
func ValidateSpec(spec string) error {
	if IsNone(spec) {
		return nil
	}
	_, err := ParseOffsets(spec)
	return err
}

// ComputeInitial builds the schedule of a new (or re-dated) quote.
func ComputeInitial(proposalDate time.Time, spec string) (Schedule, error) {
	if IsNone(spec) {
		return Schedule{}, nil
	}
	offsets, err := ParseOffsets(spec)
	if err != nil {
		return Schedule{}, err
	}

	date := AddDays(proposalDate, offsets[0])
	s := Schedule{Date: &date}
	if len(offsets) > 1 {
		s.Sequence = offsets
	}
	return s, nil
}

// Advance acknowledges the current reminder.
//
// An acknowledged schedule is reopened (undo) with its date unchanged. A
// single-step schedule becomes done. A multi-step schedule moves to the next
// offset after the one matching the current date; when the current date is
// the last step, or matches no step, the schedule becomes done. A schedule
// without a reminder is returned unchanged so Advance stays total; callers
// that must reject it, such as quote.Service.ToggleFollowUpAck, check Date
// first and return a validation error.
func Advance(s Schedule, proposalDate time.Time) Schedule {
	if s.Date == nil {
		return s
	}
	if s.Done {
		s.Done = false
		return s
	}
	if len(s.Sequence) == 0 {
		s.Done = true
		return s
	}

	current := CalendarDay(*s.Date)
	for i, offset := range s.Sequence {
		if !AddDays(proposalDate, offset).Equal(current) {
			continue
		}
		if i == len(s.Sequence)-1 {
			break
		}
		next := AddDays(proposalDate, s.Sequence[i+1])
		return Schedule{Date: &next, Sequence: s.Sequence, Done: false}
	}
	s.Done = true
	return s
}

// CalendarDay truncates t to midnight UTC of its own calendar date.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar day n days after t's calendar day.
func AddDays(t time.Time, n int) time.Time {
	return CalendarDay(t).AddDate(0, 0, n)
}
