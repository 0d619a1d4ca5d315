package followup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseOffsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		want    []int
		wantErr bool
	}{
		{"5", []int{5}, false},
		{"5,15,30", []int{5, 15, 30}, false},
		{" 0, 7 ", []int{0, 7}, false},
		{"", nil, true},
		{"   ", nil, true},
		{"none", nil, true},
		{"5,x", nil, true},
		{"5,,15", nil, true},
		{"-1", nil, true},
		{"15,5", nil, true},
		{"5,5", nil, true},
		{"1.5", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()
			got, err := ParseOffsets(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrSchedule), "error must wrap ErrSchedule: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSpec(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSpec(None))
	assert.NoError(t, ValidateSpec("3,10"))
	assert.Error(t, ValidateSpec("ten"))
}

func TestComputeInitial_MultiStep(t *testing.T) {
	t.Parallel()

	s, err := ComputeInitial(day(2024, 1, 10), "5,15,30")
	require.NoError(t, err)

	require.NotNil(t, s.Date)
	assert.Equal(t, day(2024, 1, 15), *s.Date)
	assert.Equal(t, []int{5, 15, 30}, s.Sequence)
	assert.False(t, s.Done)
}

func TestComputeInitial_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	s, err := ComputeInitial(time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC), "5")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 15), *s.Date)
}

func TestComputeInitial_None(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Time{day(2024, 1, 10), day(1999, 12, 31), {}} {
		s, err := ComputeInitial(d, None)
		require.NoError(t, err)
		assert.Nil(t, s.Date)
		assert.Nil(t, s.Sequence)
		assert.False(t, s.Done)
	}
}

func TestComputeInitial_SingleOffsetIsTerminal(t *testing.T) {
	t.Parallel()

	proposal := day(2024, 1, 10)
	s, err := ComputeInitial(proposal, "5")
	require.NoError(t, err)
	assert.Nil(t, s.Sequence)
	assert.Equal(t, day(2024, 1, 15), *s.Date)

	next := Advance(s, proposal)
	assert.True(t, next.Done)
	assert.Equal(t, day(2024, 1, 15), *next.Date)
}

func TestComputeInitial_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ComputeInitial(day(2024, 1, 10), "soon")
	var se *domain.ScheduleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "soon", se.Input)
}

func TestAdvance_WalksSequence(t *testing.T) {
	t.Parallel()

	proposal := day(2024, 1, 10)
	s, err := ComputeInitial(proposal, "5,15,30")
	require.NoError(t, err)

	s = Advance(s, proposal)
	assert.Equal(t, day(2024, 1, 25), *s.Date)
	assert.False(t, s.Done)

	s = Advance(s, proposal)
	assert.Equal(t, day(2024, 2, 9), *s.Date)
	assert.False(t, s.Done)

	s = Advance(s, proposal)
	assert.Equal(t, day(2024, 2, 9), *s.Date)
	assert.True(t, s.Done)
}

func TestAdvance_UndoIsIdempotent(t *testing.T) {
	t.Parallel()

	proposal := day(2024, 1, 10)
	last := day(2024, 2, 9)
	done := Schedule{Date: &last, Sequence: []int{5, 15, 30}, Done: true}

	undone := Advance(done, proposal)
	assert.False(t, undone.Done)
	assert.Equal(t, last, *undone.Date)

	redone := Advance(undone, proposal)
	assert.True(t, redone.Done)
	assert.Equal(t, last, *redone.Date)
}

func TestAdvance_UnmatchedDateRetires(t *testing.T) {
	t.Parallel()

	// Proposal date edited after the schedule was stored.
	stale := day(2024, 3, 1)
	s := Schedule{Date: &stale, Sequence: []int{5, 15}}

	next := Advance(s, day(2024, 1, 10))
	assert.True(t, next.Done)
	assert.Equal(t, stale, *next.Date)
}

func TestAdvance_NeverLeavesSequence(t *testing.T) {
	t.Parallel()

	proposal := day(2024, 1, 31)
	offsets := []int{1, 29, 60}
	s, err := ComputeInitial(proposal, "1,29,60")
	require.NoError(t, err)

	allowed := map[time.Time]bool{}
	for _, o := range offsets {
		allowed[AddDays(proposal, o)] = true
	}
	for i := 0; i < 10; i++ {
		s = Advance(s, proposal)
		require.True(t, allowed[*s.Date], "date %s not in sequence", s.Date)
	}
}

func TestAdvance_NoReminderUnchanged(t *testing.T) {
	t.Parallel()

	s := Advance(Schedule{}, day(2024, 1, 10))
	assert.Equal(t, Schedule{}, s)
}

func TestAdvance_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	proposal := day(2024, 1, 10)
	s, err := ComputeInitial(proposal, "5,15")
	require.NoError(t, err)
	before := *s.Date

	_ = Advance(s, proposal)
	assert.Equal(t, before, *s.Date)
}
