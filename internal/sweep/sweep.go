// Package sweep runs the periodic pass that schedules is_auto steps whose
// time has come.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"onboarding-tracker/internal/calendar"
	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/storage"
	"onboarding-tracker/internal/workflow"
)

// Service scans every department's auto templates and schedules the ones
// that are due, gated and still waiting. Each candidate is best-effort: a
// failure is logged and the sweep moves on.
type Service struct {
	db  *storage.DB
	rec *calendar.Reconciler
	log *slog.Logger
	c   *cron.Cron
	now func() time.Time
}

func New(db *storage.DB, rec *calendar.Reconciler, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:  db,
		rec: rec,
		log: log,
		c:   cron.New(cron.WithLocation(schedule.OrgZone)),
		now: time.Now,
	}
}

// Start registers the sweep under the given cron spec and starts the cron
// runner. An empty spec disables the sweep.
func (s *Service) Start(spec string) error {
	if spec == "" {
		s.log.Info("auto-step sweep disabled")
		return nil
	}
	if _, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return err
	}
	s.c.Start()
	s.log.Info("auto-step sweep started", "spec", spec)
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *Service) Stop() {
	<-s.c.Stop().Done()
}

// RunOnce performs a single sweep pass.
func (s *Service) RunOnce(ctx context.Context) {
	departments, err := s.db.ListDepartments(ctx)
	if err != nil {
		s.log.Error("sweep: list departments failed", "err", err)
		return
	}

	var scheduled, skipped int
	for _, dept := range departments {
		sc, sk := s.sweepDepartment(ctx, dept)
		scheduled += sc
		skipped += sk
	}
	s.log.Info("sweep finished", "scheduled", scheduled, "skipped", skipped)
}

func (s *Service) sweepDepartment(ctx context.Context, dept string) (scheduled, skipped int) {
	tpls, err := s.db.ListStepTemplates(ctx, dept)
	if err != nil {
		s.log.Error("sweep: list templates failed", "department", dept, "err", err)
		return
	}
	hasAuto := false
	for _, t := range tpls {
		if t.IsAuto {
			hasAuto = true
			break
		}
	}
	if !hasAuto {
		return
	}

	candidates, err := s.db.ListCandidatesByDepartment(ctx, dept)
	if err != nil {
		s.log.Error("sweep: list candidates failed", "department", dept, "err", err)
		return
	}

	for _, c := range candidates {
		events, err := s.db.ListEvents(ctx, c.ID)
		if err != nil {
			s.log.Warn("sweep: list events failed", "candidate_id", c.ID, "err", err)
			continue
		}
		for _, tpl := range tpls {
			if !tpl.IsAuto {
				continue
			}
			if s.scheduleIfDue(ctx, tpl, tpls, c, events) {
				scheduled++
				// refetch so later steps of this candidate see the new event
				if refreshed, err := s.db.ListEvents(ctx, c.ID); err == nil {
					events = refreshed
				}
			} else {
				skipped++
			}
		}
	}
	return
}

// scheduleIfDue schedules one auto step when it is still waiting, its gate
// passes and its computed run time has arrived.
func (s *Service) scheduleIfDue(ctx context.Context, tpl workflow.StepTemplate, tpls []workflow.StepTemplate, c *workflow.CandidateProfile, events []workflow.CalendarEvent) bool {
	if workflow.Resolve(tpl, c, events) != workflow.StatusWaiting {
		return false
	}
	if ok, _ := workflow.CanAct(tpls, tpl.StepNumber, c, events); !ok {
		return false
	}

	slot, err := schedule.Calculate(schedule.RelativeToJoining(tpl, c, 0))
	if err != nil {
		// No joining date yet; auto steps wait for one rather than guess.
		return false
	}
	if slot.Start.After(s.now().UTC()) {
		return false
	}

	if _, err := s.rec.Create(ctx, calendar.CreateInput{Candidate: c, Template: tpl, Slot: slot}); err != nil {
		s.log.Warn("sweep: create failed", "candidate_id", c.ID, "step", tpl.StepNumber, "err", err)
		return false
	}
	return true
}
