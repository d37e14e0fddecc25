package api

import (
	"net/http"
	"strconv"
	"time"

	"onboarding-tracker/internal/calendar"
	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/workflow"
)

// stepView is one resolved step as the UI consumes it: template, matched
// event, status, gate verdict and the computed joining-relative due time.
type stepView struct {
	workflow.StepInstance
	CanAct     bool                `json:"can_act"`
	GateReason workflow.GateReason `json:"gate_reason"`
	DueAt      *time.Time          `json:"due_at,omitempty"` // UTC
	DueAtLocal string              `json:"due_at_local,omitempty"`
}

// ListStepsHandler resolves the candidate's full step list
// @Summary List resolved onboarding steps
// @Description Resolve every step of the candidate's department against their current progress and events
// @Tags steps
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {array} stepView
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /candidates/{id}/steps [get]
func (a *API) ListStepsHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid candidate id")
		return
	}

	c, err := a.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "candidate not found", Code: "candidate_not_found"})
		return
	}

	tpls, err := a.db.ListStepTemplates(r.Context(), c.Department)
	if err != nil {
		a.writeError(w, err)
		return
	}
	events, err := a.db.ListEvents(r.Context(), candidateID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	instances := workflow.ResolveAll(tpls, c, events)
	out := make([]stepView, 0, len(instances))
	for _, inst := range instances {
		ok, reason := workflow.CanAct(tpls, inst.Template.StepNumber, c, events)
		view := stepView{StepInstance: inst, CanAct: ok, GateReason: reason}
		if slot, err := schedule.Calculate(schedule.RelativeToJoining(inst.Template, c, 0)); err == nil {
			due := slot.Start
			view.DueAt = &due
			view.DueAtLocal = schedule.FormatLocal(due)
		}
		out = append(out, view)
	}

	writeJSON(w, http.StatusOK, out)
}

// scheduleRequest is the body of a step scheduling call. Mode picks the
// calculator variant; local_time is an org-local wall clock for exact mode;
// reference_step names the anchor step for relative_to_event.
type scheduleRequest struct {
	Mode            schedule.Mode `json:"mode"`
	LocalTime       string        `json:"local_time,omitempty"` // "2006-01-02T15:04"
	ReferenceStep   *int          `json:"reference_step,omitempty"`
	DurationMinutes int           `json:"duration_minutes,omitempty"`
	Attendees       []string      `json:"attendees,omitempty"`
	Attachments     []string      `json:"attachments,omitempty"`
}

const localTimeLayout = "2006-01-02T15:04"

// ScheduleStepHandler schedules one step's calendar event
// @Summary Schedule a step
// @Description Gate-check the step, compute its target instant and create the calendar event
// @Tags steps
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Param stepNumber path int true "Step number"
// @Param request body scheduleRequest true "Scheduling intent"
// @Success 201 {object} workflow.CalendarEvent
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Router /candidates/{id}/steps/{stepNumber}/schedule [post]
func (a *API) ScheduleStepHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid candidate id")
		return
	}
	stepNumber, err := strconv.Atoi(r.PathValue("stepNumber"))
	if err != nil {
		badRequest(w, "invalid step number")
		return
	}
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	c, err := a.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "candidate not found", Code: "candidate_not_found"})
		return
	}
	tpls, err := a.db.ListStepTemplates(r.Context(), c.Department)
	if err != nil {
		a.writeError(w, err)
		return
	}
	events, err := a.db.ListEvents(r.Context(), candidateID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var tpl *workflow.StepTemplate
	for i := range tpls {
		if tpls[i].StepNumber == stepNumber {
			tpl = &tpls[i]
			break
		}
	}
	if tpl == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown step", Code: "unknown_step"})
		return
	}

	if ok, reason := workflow.CanAct(tpls, stepNumber, c, events); !ok {
		// missing_offer_document is the MissingPrerequisite case: the UI
		// prompts for an upload and retries.
		writeJSON(w, http.StatusConflict, errorResponse{Error: "step action not permitted", Code: string(reason)})
		return
	}

	intent, err := a.buildIntent(req, *tpl, c, tpls, events)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	slot, err := schedule.Calculate(intent)
	if err != nil {
		a.writeError(w, err)
		return
	}

	ev, err := a.rec.Create(r.Context(), calendar.CreateInput{
		Candidate:   c,
		Template:    *tpl,
		Slot:        slot,
		Attendees:   req.Attendees,
		Attachments: req.Attachments,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// CompleteStepHandler marks a step completed (idempotent)
// @Summary Complete a step
// @Description Complete the step's live event and set its completion flag; repeating the call is a no-op
// @Tags steps
// @Produce json
// @Param id path int true "Candidate ID"
// @Param stepNumber path int true "Step number"
// @Success 200 {object} map[string]string
// @Failure 500 {object} errorResponse
// @Router /candidates/{id}/steps/{stepNumber}/complete [post]
func (a *API) CompleteStepHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid candidate id")
		return
	}
	stepNumber, err := strconv.Atoi(r.PathValue("stepNumber"))
	if err != nil {
		badRequest(w, "invalid step number")
		return
	}

	status, err := a.rec.CompleteStep(r.Context(), candidateID, stepNumber)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// buildIntent translates the request body into a calculator intent.
func (a *API) buildIntent(req scheduleRequest, tpl workflow.StepTemplate, c *workflow.CandidateProfile, tpls []workflow.StepTemplate, events []workflow.CalendarEvent) (schedule.Intent, error) {
	dur := time.Duration(req.DurationMinutes) * time.Minute

	switch req.Mode {
	case schedule.ModeExact:
		lt, err := time.ParseInLocation(localTimeLayout, req.LocalTime, schedule.OrgZone)
		if err != nil {
			return schedule.Intent{}, errBadLocalTime
		}
		return schedule.Exact(lt, dur), nil

	case schedule.ModeRelativeToJoining:
		return schedule.RelativeToJoining(tpl, c, dur), nil

	case schedule.ModeRelativeToEvent:
		refNumber := tpl.StepNumber
		if req.ReferenceStep != nil {
			refNumber = *req.ReferenceStep
		}
		var refTpl *workflow.StepTemplate
		for i := range tpls {
			if tpls[i].StepNumber == refNumber {
				refTpl = &tpls[i]
				break
			}
		}
		if refTpl == nil {
			return schedule.Intent{}, errBadReferenceStep
		}
		n := refTpl.StepNumber
		ref := workflow.MatchEvent(events, refTpl.Type, &n)
		if ref != nil && ref.Status == workflow.EventCancelled {
			ref = nil
		}
		return schedule.RelativeToEvent(tpl, ref, workflow.CompletionTimeFor(c, refTpl.Type), dur), nil
	}
	return schedule.Intent{}, errBadMode
}
