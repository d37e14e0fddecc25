package calendar

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/workflow"
)

// fakeStore is an in-memory EventStore, CandidateStore and TemplateStore
// rolled into one, with counters for asserting write traffic.
type fakeStore struct {
	events     map[string]*workflow.CalendarEvent
	order      []string
	candidates map[int64]*workflow.CandidateProfile
	templates  map[string][]workflow.StepTemplate

	inserts  int
	updates  int
	notified []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:     map[string]*workflow.CalendarEvent{},
		candidates: map[int64]*workflow.CandidateProfile{},
		templates:  map[string][]workflow.StepTemplate{},
	}
}

func (f *fakeStore) ListEvents(_ context.Context, candidateID int64) ([]workflow.CalendarEvent, error) {
	var out []workflow.CalendarEvent
	for _, id := range f.order {
		if ev := f.events[id]; ev.CandidateID == candidateID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (*workflow.CalendarEvent, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeStore) InsertEvent(_ context.Context, ev *workflow.CalendarEvent) error {
	cp := *ev
	f.events[ev.ID] = &cp
	f.order = append(f.order, ev.ID)
	f.inserts++
	return nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, ev *workflow.CalendarEvent) error {
	if _, ok := f.events[ev.ID]; !ok {
		return errors.Errorf("event %s not found", ev.ID)
	}
	cp := *ev
	f.events[ev.ID] = &cp
	f.updates++
	return nil
}

func (f *fakeStore) GetCandidate(_ context.Context, id int64) (*workflow.CandidateProfile, error) {
	c, ok := f.candidates[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) MarkStepCompleted(_ context.Context, id int64, t workflow.StepType, at time.Time) error {
	c, ok := f.candidates[id]
	if !ok {
		return errors.Errorf("candidate %d not found", id)
	}
	switch t {
	case workflow.StepOfferLetter:
		if c.OfferSentAt == nil {
			c.OfferSentAt = &at
		}
	case workflow.StepOfferReminder:
		if c.OfferSignedAt == nil {
			c.OfferSignedAt = &at
		}
	case workflow.StepWelcomeEmail:
		if c.WelcomeEmailSentAt == nil {
			c.WelcomeEmailSentAt = &at
		}
	case workflow.StepOnboardingForm:
		if c.OnboardingFormCompletedAt == nil {
			c.OnboardingFormCompletedAt = &at
		}
	case workflow.StepWhatsappAddition:
		c.WhatsappGroupsAdded = true
	case workflow.StepTrainingPlan:
		c.TrainingPlanSent = true
	}
	return nil
}

func (f *fakeStore) ListStepTemplates(_ context.Context, department string) ([]workflow.StepTemplate, error) {
	return f.templates[department], nil
}

func (f *fakeStore) NotifyEvent(_ context.Context, action string, _ *workflow.CalendarEvent) {
	f.notified = append(f.notified, action)
}

func (f *fakeStore) eventsOfType(t workflow.EventType) []*workflow.CalendarEvent {
	var out []*workflow.CalendarEvent
	for _, id := range f.order {
		if f.events[id].Type == t {
			out = append(out, f.events[id])
		}
	}
	return out
}

var testNow = time.Date(2024, 2, 1, 5, 0, 0, 0, time.UTC)

func newTestReconciler(f *fakeStore) *Reconciler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewReconciler(f, f, f, f, log)
	r.now = func() time.Time { return testNow }
	return r
}

func seedEngineering(f *fakeStore) *workflow.CandidateProfile {
	f.templates["Engineering"] = []workflow.StepTemplate{
		{Department: "Engineering", StepNumber: 1, Type: workflow.StepOfferLetter,
			Title: "Send Offer Letter to {{firstName}}", ScheduledTime: "10:00"},
		{Department: "Engineering", StepNumber: 2, Type: workflow.StepOfferReminder,
			Title: "Offer Signing Reminder", IsAuto: true, DueDateOffset: 1, ScheduledTime: "14:00"},
		{Department: "Engineering", StepNumber: 3, Type: workflow.StepWelcomeEmail,
			Title: "Welcome Email"},
		{Department: "Engineering", StepNumber: 4, Type: workflow.StepHRInduction,
			Title: "HR Induction for {{firstName}}"},
	}
	c := &workflow.CandidateProfile{
		ID:         1,
		FirstName:  "Maya",
		LastName:   "Iyer",
		Email:      "maya@example.com",
		Department: "Engineering",
	}
	f.candidates[1] = c
	return c
}

func slotAt(start time.Time) schedule.Slot {
	return schedule.Slot{Start: start, End: start.Add(30 * time.Minute)}
}

func TestCreateRefusesDuplicateLiveEvent(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	tpl := f.templates["Engineering"][2] // welcome email

	_, err := r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow)})
	require.NoError(t, err)

	_, err = r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow.Add(time.Hour))})
	assert.True(t, errors.Is(err, ErrConflictingEvent))

	// Cancelling frees the slot for a new create.
	ev := f.eventsOfType("WELCOME_EMAIL")[0]
	_, err = r.Cancel(ctx, ev.ID, "moved")
	require.NoError(t, err)
	_, err = r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow.Add(time.Hour))})
	assert.NoError(t, err)
}

func TestCreateRendersAndAddsCandidateAttendee(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	c.OfferLetterPath = "/uploads/offer.pdf"
	r := newTestReconciler(f)
	tpl := f.templates["Engineering"][2]

	ev, err := r.Create(context.Background(), CreateInput{
		Candidate: c,
		Template:  tpl,
		Slot:      slotAt(testNow),
		Attendees: []string{"hr@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"maya@example.com", "hr@example.com"}, ev.Attendees)
	assert.Equal(t, workflow.EventScheduled, ev.Status)
	require.NotNil(t, ev.StepNumber)
	assert.Equal(t, 3, *ev.StepNumber)
	assert.Equal(t, []string{"create"}, f.notified)
}

func TestOfferLetterCreateAutoSchedulesReminder(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	offerTpl := f.templates["Engineering"][0]

	// Offer event at 09:00 org-local on Feb 1.
	offerStart := time.Date(2024, 2, 1, 3, 30, 0, 0, time.UTC)
	_, err := r.Create(ctx, CreateInput{Candidate: c, Template: offerTpl, Slot: slotAt(offerStart)})
	require.NoError(t, err)

	reminders := f.eventsOfType("OFFER_REMINDER")
	require.Len(t, reminders, 1)
	// One day after the offer event at 14:00 org-local.
	assert.Equal(t, time.Date(2024, 2, 2, 8, 30, 0, 0, time.UTC), reminders[0].StartTime)
	require.NotNil(t, reminders[0].StepNumber)
	assert.Equal(t, 2, *reminders[0].StepNumber)

	// Completing the offer event re-triggers the side effect; it must not
	// produce a second reminder.
	offerEv := f.eventsOfType("OFFER_LETTER")[0]
	_, err = r.Complete(ctx, offerEv.ID)
	require.NoError(t, err)
	assert.Len(t, f.eventsOfType("OFFER_REMINDER"), 1)
}

func TestCompleteStepOfferLetterWithoutEventAnchorsOnSentTime(t *testing.T) {
	f := newFakeStore()
	seedEngineering(f)
	r := newTestReconciler(f)

	// Completing the offer step directly (no event ever scheduled) sets the
	// sent flag and the reminder anchors on it.
	status, err := r.CompleteStep(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)
	require.NotNil(t, f.candidates[1].OfferSentAt)

	reminders := f.eventsOfType("OFFER_REMINDER")
	require.Len(t, reminders, 1)
	// testNow is 10:30 org-local on Feb 1; offset +1 day at 14:00 local.
	assert.Equal(t, time.Date(2024, 2, 2, 8, 30, 0, 0, time.UTC), reminders[0].StartTime)
}

func TestRescheduleMergesAttachments(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	tpl := f.templates["Engineering"][2]

	ev, err := r.Create(ctx, CreateInput{
		Candidate:   c,
		Template:    tpl,
		Slot:        slotAt(testNow),
		Attachments: []string{"a.pdf", "b.pdf"},
	})
	require.NoError(t, err)

	got, err := r.Reschedule(ctx, ev.ID, EditInput{
		AddAttachments:    []string{"c.pdf", "b.pdf"},
		RemoveAttachments: []string{"a.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf", "c.pdf"}, got.Attachments)
	// No slot change keeps the status.
	assert.Equal(t, workflow.EventScheduled, got.Status)

	// Moving the slot marks it rescheduled.
	newSlot := slotAt(testNow.Add(24 * time.Hour))
	got, err = r.Reschedule(ctx, ev.ID, EditInput{Slot: &newSlot})
	require.NoError(t, err)
	assert.Equal(t, workflow.EventRescheduled, got.Status)
	assert.Equal(t, newSlot.Start, got.StartTime)
}

func TestRescheduleCancelledEvent(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	tpl := f.templates["Engineering"][2]

	ev, err := r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow)})
	require.NoError(t, err)
	_, err = r.Cancel(ctx, ev.ID, "candidate unavailable")
	require.NoError(t, err)

	_, err = r.Reschedule(ctx, ev.ID, EditInput{})
	assert.True(t, errors.Is(err, ErrEventCancelled))
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	tpl := f.templates["Engineering"][2]

	ev, err := r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow)})
	require.NoError(t, err)

	first, err := r.Cancel(ctx, ev.ID, "no longer needed")
	require.NoError(t, err)
	assert.Equal(t, workflow.EventCancelled, first.Status)
	assert.Equal(t, "no longer needed", first.CancelReason)
	updatesAfterFirst := f.updates

	second, err := r.Cancel(ctx, ev.ID, "again")
	require.NoError(t, err)
	assert.Equal(t, workflow.EventCancelled, second.Status)
	assert.Equal(t, "no longer needed", second.CancelReason)
	assert.Equal(t, updatesAfterFirst, f.updates)
}

func TestCancelUnknownEvent(t *testing.T) {
	f := newFakeStore()
	seedEngineering(f)
	r := newTestReconciler(f)

	_, err := r.Cancel(context.Background(), "nope", "")
	assert.True(t, errors.Is(err, ErrEventNotFound))
}

func TestCompleteStepIsIdempotent(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	tpl := f.templates["Engineering"][2]

	ev, err := r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow)})
	require.NoError(t, err)

	status, err := r.CompleteStep(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)

	got, err := f.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.EventCompleted, got.Status)
	require.NotNil(t, f.candidates[1].WelcomeEmailSentAt)

	insertsBefore, updatesBefore := f.inserts, f.updates
	status, err = r.CompleteStep(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)
	assert.Equal(t, insertsBefore, f.inserts)
	assert.Equal(t, updatesBefore, f.updates)
}

func TestCompleteStepEventOnlyTypeStaysCompleted(t *testing.T) {
	f := newFakeStore()
	seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()

	// HR induction has no independent completion flag. Completing it with no
	// event on the calendar must still leave a durable completion behind.
	status, err := r.CompleteStep(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)

	recorded := f.eventsOfType("HR_INDUCTION")
	require.Len(t, recorded, 1)
	assert.Equal(t, workflow.EventCompleted, recorded[0].Status)
	require.NotNil(t, recorded[0].StepNumber)
	assert.Equal(t, 4, *recorded[0].StepNumber)
	assert.Equal(t, "HR Induction for Maya", recorded[0].Title)

	// A fresh resolve over the store agrees with the returned status.
	events, err := f.ListEvents(ctx, 1)
	require.NoError(t, err)
	tpl := f.templates["Engineering"][3]
	assert.Equal(t, workflow.StatusCompleted, workflow.Resolve(tpl, f.candidates[1], events))

	// Repeating the call is a no-op, not a second marker.
	insertsBefore := f.inserts
	status, err = r.CompleteStep(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, status)
	assert.Equal(t, insertsBefore, f.inserts)
}

func TestCompleteCancelledEvent(t *testing.T) {
	f := newFakeStore()
	c := seedEngineering(f)
	r := newTestReconciler(f)
	ctx := context.Background()
	tpl := f.templates["Engineering"][2]

	ev, err := r.Create(ctx, CreateInput{Candidate: c, Template: tpl, Slot: slotAt(testNow)})
	require.NoError(t, err)
	_, err = r.Cancel(ctx, ev.ID, "candidate unavailable")
	require.NoError(t, err)

	// A cancelled event stays cancelled; completing it would resurrect a
	// scheduling signal the cancel removed.
	_, err = r.Complete(ctx, ev.ID)
	assert.True(t, errors.Is(err, ErrEventCancelled))

	got, err := f.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.EventCancelled, got.Status)
}

func TestMergeAttachments(t *testing.T) {
	got := mergeAttachments(
		[]string{"a", "b", "b"},
		[]string{"a"},
		[]string{"c", "b"},
	)
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestRenderTemplate(t *testing.T) {
	c := &workflow.CandidateProfile{
		FirstName: "Maya", LastName: "Iyer",
		Position: "Backend Engineer", Department: "Engineering",
	}
	got := RenderTemplate("{{firstName}} {{lastName}} joins {{department}} as {{position}}", c)
	assert.Equal(t, "Maya Iyer joins Engineering as Backend Engineer", got)
}
