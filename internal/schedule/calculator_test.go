package schedule

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-tracker/internal/workflow"
)

func joiningOn(y int, m time.Month, d int) *workflow.CandidateProfile {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &workflow.CandidateProfile{ExpectedJoiningDate: &t}
}

func TestCalculateRelativeToJoining(t *testing.T) {
	// Joining 2024-01-10, three days later at 14:00 org-local is
	// 2024-01-13T08:30:00Z.
	tpl := workflow.StepTemplate{DueDateOffset: 3, ScheduledTime: "14:00"}
	c := joiningOn(2024, time.January, 10)

	slot, err := Calculate(RelativeToJoining(tpl, c, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 13, 8, 30, 0, 0, time.UTC), slot.Start)
	assert.Equal(t, DefaultDuration, slot.End.Sub(slot.Start))
}

func TestCalculateRelativeToJoiningNegativeOffset(t *testing.T) {
	tpl := workflow.StepTemplate{DueDateOffset: -7, ScheduledTime: "10:00"}
	c := joiningOn(2024, time.January, 10)

	slot, err := Calculate(RelativeToJoining(tpl, c, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 3, 4, 30, 0, 0, time.UTC), slot.Start)
	assert.Equal(t, time.Hour, slot.End.Sub(slot.Start))
}

func TestCalculateRelativeToJoiningFallbackTime(t *testing.T) {
	// A template without a scheduled time lands at 09:00 org-local.
	tpl := workflow.StepTemplate{DueDateOffset: 0}
	c := joiningOn(2024, time.January, 10)

	slot, err := Calculate(RelativeToJoining(tpl, c, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 3, 30, 0, 0, time.UTC), slot.Start)
}

func TestCalculateMissingJoiningDate(t *testing.T) {
	tpl := workflow.StepTemplate{DueDateOffset: 3, ScheduledTime: "14:00"}

	_, err := Calculate(RelativeToJoining(tpl, &workflow.CandidateProfile{}, 0))
	assert.True(t, errors.Is(err, ErrMissingBaseDate))

	_, err = Calculate(RelativeToJoining(tpl, nil, 0))
	assert.True(t, errors.Is(err, ErrMissingBaseDate))
}

func TestCalculateExact(t *testing.T) {
	// The components of the supplied time are read as org-local wall clock
	// regardless of its location.
	local := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	slot, err := Calculate(Exact(local, 45*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 4, 30, 0, 0, time.UTC), slot.Start)
	assert.Equal(t, 45*time.Minute, slot.End.Sub(slot.Start))
}

func TestCalculateRelativeToEvent(t *testing.T) {
	tpl := workflow.StepTemplate{DueDateOffset: 1, ScheduledTime: "10:00"}

	t.Run("anchors on the reference event start", func(t *testing.T) {
		ref := &workflow.CalendarEvent{
			StartTime: time.Date(2024, 2, 1, 3, 30, 0, 0, time.UTC), // 09:00 local
		}
		slot, err := Calculate(RelativeToEvent(tpl, ref, nil, 0))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 2, 4, 30, 0, 0, time.UTC), slot.Start)
	})

	t.Run("falls back to the sent timestamp", func(t *testing.T) {
		sent := time.Date(2024, 2, 1, 5, 0, 0, 0, time.UTC)
		slot, err := Calculate(RelativeToEvent(tpl, nil, &sent, 0))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 2, 4, 30, 0, 0, time.UTC), slot.Start)
	})

	t.Run("falls back to now when nothing is known", func(t *testing.T) {
		in := Intent{
			Mode:     ModeRelativeToEvent,
			Template: tpl,
			Now:      time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		}
		slot, err := Calculate(in)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 2, 4, 30, 0, 0, time.UTC), slot.Start)
	})

	t.Run("event fallback time is 14:00", func(t *testing.T) {
		bare := workflow.StepTemplate{DueDateOffset: 1}
		ref := &workflow.CalendarEvent{
			StartTime: time.Date(2024, 2, 1, 3, 30, 0, 0, time.UTC),
		}
		slot, err := Calculate(RelativeToEvent(bare, ref, nil, 0))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 2, 8, 30, 0, 0, time.UTC), slot.Start)
	})
}

func TestCalculateRejectsBadInput(t *testing.T) {
	_, err := Calculate(Intent{Mode: "sometime"})
	assert.Error(t, err)

	tpl := workflow.StepTemplate{ScheduledTime: "25:99"}
	_, err = Calculate(RelativeToJoining(tpl, joiningOn(2024, time.January, 10), 0))
	assert.Error(t, err)
}

func TestLocalRoundTrip(t *testing.T) {
	// The fixed offset makes local<->UTC conversion lossless in both
	// directions.
	local := time.Date(2024, 6, 15, 18, 45, 0, 0, OrgZone)
	assert.True(t, ToLocal(ToUTC(local)).Equal(local))

	utc := time.Date(2024, 6, 15, 13, 15, 0, 0, time.UTC)
	assert.True(t, ToUTC(ToLocal(utc)).Equal(utc))
}

func TestFormatLocal(t *testing.T) {
	utc := time.Date(2024, 1, 13, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-13 14:00 (UTC+05:30)", FormatLocal(utc))
}
