// Package calendar applies create/update/cancel operations to a candidate's
// step events, preserving event identity and attachment sets. Events are
// cancelled, never hard-deleted.
package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/workflow"
)

// ErrConflictingEvent means a create was attempted for a (type, stepNumber)
// that already has a live event. Recoverable: the caller chooses edit vs.
// create.
var ErrConflictingEvent = errors.New("a scheduled event already exists for this step")

// ErrEventNotFound means the referenced event id is unknown.
var ErrEventNotFound = errors.New("event not found")

// ErrEventCancelled means an edit was attempted on a cancelled event.
var ErrEventCancelled = errors.New("event is cancelled")

// EventStore persists calendar events.
type EventStore interface {
	ListEvents(ctx context.Context, candidateID int64) ([]workflow.CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (*workflow.CalendarEvent, error)
	InsertEvent(ctx context.Context, ev *workflow.CalendarEvent) error
	UpdateEvent(ctx context.Context, ev *workflow.CalendarEvent) error
}

// CandidateStore reads candidate snapshots and sets completion flags.
type CandidateStore interface {
	GetCandidate(ctx context.Context, id int64) (*workflow.CandidateProfile, error)
	// MarkStepCompleted sets the step's completion flag if it is not
	// already set; a second call is a no-op.
	MarkStepCompleted(ctx context.Context, id int64, t workflow.StepType, at time.Time) error
}

// TemplateStore reads a department's ordered step templates.
type TemplateStore interface {
	ListStepTemplates(ctx context.Context, department string) ([]workflow.StepTemplate, error)
}

// Notifier pushes event changes to the external calendar provider.
// Implementations are best-effort; the reconciler never checks an error
// here because there is none to check.
type Notifier interface {
	NotifyEvent(ctx context.Context, action string, ev *workflow.CalendarEvent)
}

// Reconciler is the single write path for step events.
type Reconciler struct {
	events     EventStore
	candidates CandidateStore
	templates  TemplateStore
	notifier   Notifier
	log        *slog.Logger
	now        func() time.Time
}

func NewReconciler(events EventStore, candidates CandidateStore, templates TemplateStore, notifier Notifier, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		events:     events,
		candidates: candidates,
		templates:  templates,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// CreateInput describes one event creation.
type CreateInput struct {
	Candidate   *workflow.CandidateProfile
	Template    workflow.StepTemplate
	Slot        schedule.Slot
	Attendees   []string
	Attachments []string
}

// Create schedules a new event for the step. It refuses to create a second
// live event for the same (type, stepNumber) and surfaces
// ErrConflictingEvent instead. Scheduling the offer letter also triggers the
// reminder auto-schedule side effect.
func (r *Reconciler) Create(ctx context.Context, in CreateInput) (*workflow.CalendarEvent, error) {
	existing, err := r.events.ListEvents(ctx, in.Candidate.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	n := in.Template.StepNumber
	if dup := workflow.MatchLiveEvent(existing, in.Template.Type, &n); dup != nil {
		return nil, errors.Wrapf(ErrConflictingEvent, "event %s", dup.ID)
	}

	ev, err := r.insert(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.Template.Type == workflow.StepOfferLetter {
		r.autoScheduleReminder(ctx, in.Candidate)
	}
	return ev, nil
}

func (r *Reconciler) insert(ctx context.Context, in CreateInput) (*workflow.CalendarEvent, error) {
	now := r.now().UTC()
	n := in.Template.StepNumber
	ev := &workflow.CalendarEvent{
		ID:          uuid.NewString(),
		CandidateID: in.Candidate.ID,
		Type:        workflow.EventTypeFor(in.Template.Type),
		StepNumber:  &n,
		Title:       RenderTemplate(in.Template.Title, in.Candidate),
		Description: RenderTemplate(in.Template.Description, in.Candidate),
		StartTime:   in.Slot.Start,
		EndTime:     in.Slot.End,
		Status:      workflow.EventScheduled,
		Attendees:   append([]string{in.Candidate.Email}, in.Attendees...),
		Attachments: append([]string(nil), in.Attachments...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.events.InsertEvent(ctx, ev); err != nil {
		return nil, errors.Wrap(err, "insert event")
	}
	r.notify(ctx, "create", ev)
	r.log.Info("event scheduled",
		"event_id", ev.ID,
		"candidate_id", ev.CandidateID,
		"type", ev.Type,
		"step", n,
		"start", ev.StartTime.Format(time.RFC3339))
	return ev, nil
}

// insertCompleted records a step done outside any scheduled occurrence as an
// already-completed event, so the resolver sees the completion.
func (r *Reconciler) insertCompleted(ctx context.Context, c *workflow.CandidateProfile, tpl workflow.StepTemplate) error {
	now := r.now().UTC()
	n := tpl.StepNumber
	ev := &workflow.CalendarEvent{
		ID:          uuid.NewString(),
		CandidateID: c.ID,
		Type:        workflow.EventTypeFor(tpl.Type),
		StepNumber:  &n,
		Title:       RenderTemplate(tpl.Title, c),
		Description: RenderTemplate(tpl.Description, c),
		StartTime:   now,
		EndTime:     now,
		Status:      workflow.EventCompleted,
		Attendees:   []string{c.Email},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.events.InsertEvent(ctx, ev); err != nil {
		return errors.Wrap(err, "insert event")
	}
	r.notify(ctx, "complete", ev)
	r.log.Info("step completion recorded",
		"event_id", ev.ID,
		"candidate_id", ev.CandidateID,
		"type", ev.Type,
		"step", n)
	return nil
}

// EditInput describes an in-place update of an existing event. Nil fields
// stay untouched. The attachment set becomes
// (existing - RemoveAttachments) + AddAttachments; attachments are never
// silently dropped.
type EditInput struct {
	Slot              *schedule.Slot
	Title             *string
	Description       *string
	AddAttachments    []string
	RemoveAttachments []string
}

// Reschedule updates the matched event in place, keeping its identity.
func (r *Reconciler) Reschedule(ctx context.Context, eventID string, in EditInput) (*workflow.CalendarEvent, error) {
	ev, err := r.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "get event")
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	if ev.Status == workflow.EventCancelled {
		return nil, ErrEventCancelled
	}

	if in.Slot != nil {
		ev.StartTime = in.Slot.Start
		ev.EndTime = in.Slot.End
		if ev.Status == workflow.EventScheduled {
			ev.Status = workflow.EventRescheduled
		}
	}
	if in.Title != nil {
		ev.Title = *in.Title
	}
	if in.Description != nil {
		ev.Description = *in.Description
	}
	ev.Attachments = mergeAttachments(ev.Attachments, in.RemoveAttachments, in.AddAttachments)
	ev.UpdatedAt = r.now().UTC()

	if err := r.events.UpdateEvent(ctx, ev); err != nil {
		return nil, errors.Wrap(err, "update event")
	}
	r.notify(ctx, "reschedule", ev)
	r.log.Info("event rescheduled", "event_id", ev.ID, "start", ev.StartTime.Format(time.RFC3339))
	return ev, nil
}

// Cancel marks the event CANCELLED. The step's resolved status reverts to
// waiting unless an independent completion flag is separately true;
// cancellation removes the scheduling signal only.
func (r *Reconciler) Cancel(ctx context.Context, eventID, reason string) (*workflow.CalendarEvent, error) {
	ev, err := r.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "get event")
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	if ev.Status == workflow.EventCancelled {
		return ev, nil
	}

	ev.Status = workflow.EventCancelled
	ev.CancelReason = reason
	ev.UpdatedAt = r.now().UTC()
	if err := r.events.UpdateEvent(ctx, ev); err != nil {
		return nil, errors.Wrap(err, "update event")
	}
	r.notify(ctx, "cancel", ev)
	r.log.Info("event cancelled", "event_id", ev.ID, "reason", reason)
	return ev, nil
}

// Complete marks the event COMPLETED. Completing an offer-letter event
// triggers the reminder auto-schedule side effect.
func (r *Reconciler) Complete(ctx context.Context, eventID string) (*workflow.CalendarEvent, error) {
	ev, err := r.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "get event")
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	if ev.Status == workflow.EventCompleted {
		return ev, nil
	}
	if ev.Status == workflow.EventCancelled {
		return nil, ErrEventCancelled
	}

	ev.Status = workflow.EventCompleted
	ev.UpdatedAt = r.now().UTC()
	if err := r.events.UpdateEvent(ctx, ev); err != nil {
		return nil, errors.Wrap(err, "update event")
	}
	r.notify(ctx, "complete", ev)

	if ev.Type == workflow.EventTypeFor(workflow.StepOfferLetter) {
		if c, err := r.candidates.GetCandidate(ctx, ev.CandidateID); err == nil && c != nil {
			r.autoScheduleReminder(ctx, c)
		}
	}
	return ev, nil
}

// CompleteStep is the idempotent complete-step operation: it completes the
// step's live event (if any), sets the step's completion flag and re-resolves.
// Re-invoking on an already-completed step is a no-op, not a duplicate side
// effect.
func (r *Reconciler) CompleteStep(ctx context.Context, candidateID int64, stepNumber int) (workflow.StepStatus, error) {
	c, err := r.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return "", errors.Wrap(err, "get candidate")
	}
	if c == nil {
		return "", errors.Errorf("candidate %d not found", candidateID)
	}
	tpls, err := r.templates.ListStepTemplates(ctx, c.Department)
	if err != nil {
		return "", errors.Wrap(err, "list step templates")
	}
	var tpl *workflow.StepTemplate
	for i := range tpls {
		if tpls[i].StepNumber == stepNumber {
			tpl = &tpls[i]
			break
		}
	}
	if tpl == nil {
		return "", errors.Errorf("no step %d in department %s", stepNumber, c.Department)
	}

	events, err := r.events.ListEvents(ctx, candidateID)
	if err != nil {
		return "", errors.Wrap(err, "list events")
	}
	if workflow.Resolve(*tpl, c, events) == workflow.StatusCompleted {
		return workflow.StatusCompleted, nil
	}

	n := tpl.StepNumber
	if ev := workflow.MatchLiveEvent(events, tpl.Type, &n); ev != nil {
		if _, err := r.Complete(ctx, ev.ID); err != nil {
			return "", err
		}
	} else if !workflow.TracksCompletionFlag(tpl.Type) {
		// No live event and no flag to set. Record a completed marker event
		// so the step actually resolves completed instead of reverting to
		// waiting on the next refresh.
		if err := r.insertCompleted(ctx, c, *tpl); err != nil {
			return "", err
		}
	}
	if err := r.candidates.MarkStepCompleted(ctx, candidateID, tpl.Type, r.now().UTC()); err != nil {
		return "", errors.Wrap(err, "mark step completed")
	}

	if tpl.Type == workflow.StepOfferLetter {
		if fresh, err := r.candidates.GetCandidate(ctx, candidateID); err == nil && fresh != nil {
			r.autoScheduleReminder(ctx, fresh)
		}
	}
	return workflow.StatusCompleted, nil
}

// autoScheduleReminder creates the offer-reminder event after the offer
// letter is scheduled or completed, if none exists yet. Best-effort: every
// failure is logged and swallowed, never failing the primary operation, and
// re-triggering never duplicates.
func (r *Reconciler) autoScheduleReminder(ctx context.Context, c *workflow.CandidateProfile) {
	tpls, err := r.templates.ListStepTemplates(ctx, c.Department)
	if err != nil {
		r.log.Warn("auto-schedule reminder: list templates failed", "candidate_id", c.ID, "err", err)
		return
	}
	var reminder *workflow.StepTemplate
	for i := range tpls {
		if tpls[i].Type == workflow.StepOfferReminder {
			reminder = &tpls[i]
			break
		}
	}
	if reminder == nil {
		return // department has no reminder step configured
	}

	events, err := r.events.ListEvents(ctx, c.ID)
	if err != nil {
		r.log.Warn("auto-schedule reminder: list events failed", "candidate_id", c.ID, "err", err)
		return
	}
	n := reminder.StepNumber
	if ev := workflow.MatchEvent(events, workflow.StepOfferReminder, &n); ev != nil && ev.Status != workflow.EventCancelled {
		return // already scheduled or done, never duplicate
	}

	var offerTpl *workflow.StepTemplate
	for i := range tpls {
		if tpls[i].Type == workflow.StepOfferLetter {
			offerTpl = &tpls[i]
			break
		}
	}
	var ref *workflow.CalendarEvent
	if offerTpl != nil {
		on := offerTpl.StepNumber
		if ev := workflow.MatchEvent(events, workflow.StepOfferLetter, &on); ev != nil && ev.Status != workflow.EventCancelled {
			ref = ev
		}
	}

	slot, err := schedule.Calculate(schedule.RelativeToEvent(*reminder, ref, c.OfferSentAt, 0))
	if err != nil {
		r.log.Warn("auto-schedule reminder: calculate failed", "candidate_id", c.ID, "err", err)
		return
	}
	if _, err := r.insert(ctx, CreateInput{Candidate: c, Template: *reminder, Slot: slot}); err != nil {
		r.log.Warn("auto-schedule reminder: create failed", "candidate_id", c.ID, "err", err)
		return
	}
	r.log.Info("offer reminder auto-scheduled", "candidate_id", c.ID, "start", slot.Start.Format(time.RFC3339))
}

func (r *Reconciler) notify(ctx context.Context, action string, ev *workflow.CalendarEvent) {
	if r.notifier == nil {
		return
	}
	r.notifier.NotifyEvent(ctx, action, ev)
}

// mergeAttachments computes (existing - removed) + added, preserving order
// and dropping duplicates.
func mergeAttachments(existing, removed, added []string) []string {
	drop := make(map[string]bool, len(removed))
	for _, p := range removed {
		drop[p] = true
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(existing)+len(added))
	for _, p := range existing {
		if !drop[p] && !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	for _, p := range added {
		if !drop[p] && !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	return out
}
