package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	due := day(2024, 1, 15)
	pending := Schedule{Date: &due}
	now := func(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		now  time.Time
		s    Schedule
		want DueStatus
	}{
		{"no reminder", now(2024, 1, 15, 9), Schedule{}, StatusNone},
		{"acknowledged", now(2024, 1, 20, 9), Schedule{Date: &due, Done: true}, StatusDone},
		{"day before", now(2024, 1, 14, 23), pending, StatusUpcoming},
		{"due today morning", now(2024, 1, 15, 0), pending, StatusDueToday},
		{"due today evening", now(2024, 1, 15, 23), pending, StatusDueToday},
		{"day after", now(2024, 1, 16, 0), pending, StatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Status(tt.now, tt.s, time.UTC))
		})
	}
}

func TestStatus_UsesLocationForToday(t *testing.T) {
	t.Parallel()

	due := day(2024, 1, 15)
	s := Schedule{Date: &due}
	tokyo := time.FixedZone("JST", 9*3600)

	// 20:00 UTC on the 14th is already the 15th in Tokyo.
	instant := time.Date(2024, 1, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusUpcoming, Status(instant, s, time.UTC))
	assert.Equal(t, StatusDueToday, Status(instant, s, tokyo))
	assert.Equal(t, StatusUpcoming, Status(instant, s, nil))
}

func TestDueStatus_IsActionable(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusDueToday.IsActionable())
	assert.True(t, StatusOverdue.IsActionable())
	assert.False(t, StatusUpcoming.IsActionable())
	assert.False(t, StatusDone.IsActionable())
	assert.False(t, StatusNone.IsActionable())
}

func TestDaysPending(t *testing.T) {
	t.Parallel()

	proposal := day(2024, 1, 10)
	assert.Equal(t, 0, DaysPending(time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC), proposal, time.UTC))
	assert.Equal(t, 5, DaysPending(time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC), proposal, time.UTC))
	assert.Equal(t, 0, DaysPending(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), proposal, time.UTC))
}

func TestParseTimezone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.UTC, ParseTimezone("Not/AZone"))
	assert.Equal(t, "UTC", ParseTimezone("UTC").String())
}
