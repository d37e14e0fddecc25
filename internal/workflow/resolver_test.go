package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func tplOf(n int, t StepType) StepTemplate {
	return StepTemplate{Department: "Engineering", StepNumber: n, Type: t}
}

func TestResolvePriorityOrder(t *testing.T) {
	tpl := tplOf(3, StepWelcomeEmail)
	sent := timePtr(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		c      *CandidateProfile
		events []CalendarEvent
		want   StepStatus
	}{
		{
			name: "completed event wins over everything",
			c:    &CandidateProfile{},
			events: []CalendarEvent{
				{Type: "WELCOME_EMAIL", StepNumber: intPtr(3), Status: EventCompleted},
			},
			want: StatusCompleted,
		},
		{
			name: "flag beats live event",
			c:    &CandidateProfile{WelcomeEmailSentAt: sent},
			events: []CalendarEvent{
				{Type: "WELCOME_EMAIL", StepNumber: intPtr(3), Status: EventScheduled},
			},
			want: StatusCompleted,
		},
		{
			name: "live event resolves scheduled",
			c:    &CandidateProfile{},
			events: []CalendarEvent{
				{Type: "WELCOME_EMAIL", StepNumber: intPtr(3), Status: EventRescheduled},
			},
			want: StatusScheduled,
		},
		{
			name:   "nothing resolves waiting",
			c:      &CandidateProfile{},
			events: nil,
			want:   StatusWaiting,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tpl, tt.c, tt.events))
		})
	}
}

func TestResolveCancellationRevertsEventOnlySteps(t *testing.T) {
	tpl := tplOf(6, StepHRInduction)
	cancelled := []CalendarEvent{
		{Type: "HR_INDUCTION", StepNumber: intPtr(6), Status: EventCancelled},
	}

	// HR induction has no independent flag, so cancelling its only event
	// drops the step all the way back to waiting.
	assert.Equal(t, StatusWaiting, Resolve(tpl, &CandidateProfile{}, cancelled))

	// A flag-backed step survives cancellation of its event.
	flagTpl := tplOf(3, StepWelcomeEmail)
	c := &CandidateProfile{WelcomeEmailSentAt: timePtr(time.Now())}
	ev := []CalendarEvent{
		{Type: "WELCOME_EMAIL", StepNumber: intPtr(3), Status: EventCancelled},
	}
	assert.Equal(t, StatusCompleted, Resolve(flagTpl, c, ev))
}

func TestResolvePendingSignals(t *testing.T) {
	sent := timePtr(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))

	formTpl := tplOf(4, StepOnboardingForm)
	c := &CandidateProfile{OnboardingFormSentAt: sent}
	assert.Equal(t, StatusPending, Resolve(formTpl, c, nil))

	// Completion of the form overrides the pending signal.
	c.OnboardingFormCompletedAt = sent
	assert.Equal(t, StatusCompleted, Resolve(formTpl, c, nil))

	// Offer reminder is pending between offer sent and offer signed.
	remTpl := tplOf(2, StepOfferReminder)
	c2 := &CandidateProfile{OfferSentAt: sent}
	assert.Equal(t, StatusPending, Resolve(remTpl, c2, nil))
	c2.OfferSignedAt = sent
	assert.Equal(t, StatusCompleted, Resolve(remTpl, c2, nil))
}

func TestResolveStepsSharingATypeNeverCrossResolve(t *testing.T) {
	// Two custom steps in one department. Both store their events under the
	// MANUAL alias, so only the step number keeps them apart.
	step4 := tplOf(4, StepCustom)
	step9 := tplOf(9, StepCustom)
	events := []CalendarEvent{
		{ID: "a", Type: EventTypeManual, StepNumber: intPtr(4), Status: EventCompleted},
	}

	c := &CandidateProfile{}
	assert.Equal(t, StatusCompleted, Resolve(step4, c, events))
	assert.Equal(t, StatusWaiting, Resolve(step9, c, events))
}

func TestMatchEvent(t *testing.T) {
	t.Run("event without step number does not match a numbered lookup", func(t *testing.T) {
		events := []CalendarEvent{
			{ID: "legacy", Type: "HR_INDUCTION", Status: EventScheduled},
		}
		assert.Nil(t, MatchEvent(events, StepHRInduction, intPtr(6)))
		// Type-only fallback still finds it when the caller has no number.
		got := MatchEvent(events, StepHRInduction, nil)
		require.NotNil(t, got)
		assert.Equal(t, "legacy", got.ID)
	})

	t.Run("best status rank wins", func(t *testing.T) {
		events := []CalendarEvent{
			{ID: "old", Type: "HR_INDUCTION", StepNumber: intPtr(6), Status: EventCancelled},
			{ID: "live", Type: "HR_INDUCTION", StepNumber: intPtr(6), Status: EventScheduled},
		}
		got := MatchEvent(events, StepHRInduction, intPtr(6))
		require.NotNil(t, got)
		assert.Equal(t, "live", got.ID)
	})

	t.Run("rank ties go to the latest start", func(t *testing.T) {
		events := []CalendarEvent{
			{ID: "early", Type: "HR_INDUCTION", StepNumber: intPtr(6), Status: EventScheduled,
				StartTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
			{ID: "late", Type: "HR_INDUCTION", StepNumber: intPtr(6), Status: EventScheduled,
				StartTime: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
		}
		got := MatchEvent(events, StepHRInduction, intPtr(6))
		require.NotNil(t, got)
		assert.Equal(t, "late", got.ID)
	})

	t.Run("aliased types search under the alias", func(t *testing.T) {
		events := []CalendarEvent{
			{ID: "wa", Type: EventTypeWhatsappTask, StepNumber: intPtr(5), Status: EventScheduled},
		}
		got := MatchEvent(events, StepWhatsappAddition, intPtr(5))
		require.NotNil(t, got)
		assert.Equal(t, "wa", got.ID)
	})
}
