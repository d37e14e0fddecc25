// Package batch applies one schedule computation and one event creation
// across many candidates sharing a department and step.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"onboarding-tracker/internal/calendar"
	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/workflow"
)

// Request is one batch scheduling run.
type Request struct {
	Department      string        `json:"department"`
	StepNumber      int           `json:"step_number"`
	Mode            schedule.Mode `json:"mode"`
	LocalTime       time.Time     `json:"local_time,omitempty"` // exact mode, org-local wall clock
	DurationMinutes int           `json:"duration_minutes,omitempty"`
	CandidateIDs    []int64       `json:"candidate_ids"`
	Attendees       []string      `json:"attendees,omitempty"`
	Attachments     []string      `json:"attachments,omitempty"`
}

// ItemResult reports the outcome for one candidate. Per-item semantics: one
// candidate failing never aborts or hides the rest.
type ItemResult struct {
	CandidateID int64  `json:"candidate_id"`
	EventID     string `json:"event_id,omitempty"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

// Result aggregates a run.
type Result struct {
	RunID     string       `json:"run_id"`
	Scheduled int          `json:"scheduled"`
	Failed    int          `json:"failed"`
	Items     []ItemResult `json:"items"`
}

// Scheduler fans one step schedule out over a candidate list.
type Scheduler struct {
	rec        *calendar.Reconciler
	candidates calendar.CandidateStore
	templates  calendar.TemplateStore
	log        *slog.Logger
}

func NewScheduler(rec *calendar.Reconciler, candidates calendar.CandidateStore, templates calendar.TemplateStore, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{rec: rec, candidates: candidates, templates: templates, log: log}
}

// Run schedules the step for every candidate in the request. Each creation
// is independent; errors are collected per item.
func (s *Scheduler) Run(ctx context.Context, req Request) (*Result, error) {
	tpls, err := s.templates.ListStepTemplates(ctx, req.Department)
	if err != nil {
		return nil, errors.Wrap(err, "list step templates")
	}
	var tpl *workflow.StepTemplate
	for i := range tpls {
		if tpls[i].StepNumber == req.StepNumber {
			tpl = &tpls[i]
			break
		}
	}
	if tpl == nil {
		return nil, errors.Errorf("no step %d in department %s", req.StepNumber, req.Department)
	}

	res := &Result{RunID: uuid.NewString(), Items: make([]ItemResult, 0, len(req.CandidateIDs))}
	dur := time.Duration(req.DurationMinutes) * time.Minute

	for _, id := range req.CandidateIDs {
		item := s.scheduleOne(ctx, *tpl, req, id, dur)
		if item.OK {
			res.Scheduled++
		} else {
			res.Failed++
		}
		res.Items = append(res.Items, item)
	}

	s.log.Info("batch schedule run finished",
		"run_id", res.RunID,
		"department", req.Department,
		"step", req.StepNumber,
		"scheduled", res.Scheduled,
		"failed", res.Failed)
	return res, nil
}

func (s *Scheduler) scheduleOne(ctx context.Context, tpl workflow.StepTemplate, req Request, candidateID int64, dur time.Duration) ItemResult {
	item := ItemResult{CandidateID: candidateID}

	c, err := s.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	if c == nil {
		item.Error = "candidate not found"
		return item
	}

	var intent schedule.Intent
	switch req.Mode {
	case schedule.ModeExact:
		intent = schedule.Exact(req.LocalTime, dur)
	case schedule.ModeRelativeToJoining:
		intent = schedule.RelativeToJoining(tpl, c, dur)
	case schedule.ModeRelativeToEvent:
		intent = schedule.RelativeToEvent(tpl, nil, c.OfferSentAt, dur)
	default:
		item.Error = "unknown scheduling mode"
		return item
	}

	slot, err := schedule.Calculate(intent)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	ev, err := s.rec.Create(ctx, calendar.CreateInput{
		Candidate:   c,
		Template:    tpl,
		Slot:        slot,
		Attendees:   req.Attendees,
		Attachments: req.Attachments,
	})
	if err != nil {
		s.log.Warn("batch item failed", "candidate_id", candidateID, "err", err)
		item.Error = err.Error()
		return item
	}
	item.EventID = ev.ID
	item.OK = true
	return item
}
