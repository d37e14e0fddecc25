package api

import (
	"net/http"
	"time"

	"onboarding-tracker/internal/calendar"
	"onboarding-tracker/internal/schedule"
)

// rescheduleRequest edits an event in place. local_time moves the slot;
// attachment changes are explicit so nothing is silently dropped.
type rescheduleRequest struct {
	LocalTime         string   `json:"local_time,omitempty"` // "2006-01-02T15:04", org-local
	DurationMinutes   int      `json:"duration_minutes,omitempty"`
	Title             *string  `json:"title,omitempty"`
	Description       *string  `json:"description,omitempty"`
	AddAttachments    []string `json:"add_attachments,omitempty"`
	RemoveAttachments []string `json:"remove_attachments,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// RescheduleEventHandler updates an event in place
// @Summary Reschedule or edit an event
// @Description Move the event and/or adjust its attachment set, preserving identity
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body rescheduleRequest true "Changes"
// @Success 200 {object} workflow.CalendarEvent
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /events/{id}/reschedule [post]
func (a *API) RescheduleEventHandler(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	in := calendar.EditInput{
		Title:             req.Title,
		Description:       req.Description,
		AddAttachments:    req.AddAttachments,
		RemoveAttachments: req.RemoveAttachments,
	}
	if req.LocalTime != "" {
		lt, err := time.ParseInLocation(localTimeLayout, req.LocalTime, schedule.OrgZone)
		if err != nil {
			badRequest(w, errBadLocalTime.Error())
			return
		}
		dur := time.Duration(req.DurationMinutes) * time.Minute
		slot, err := schedule.Calculate(schedule.Exact(lt, dur))
		if err != nil {
			a.writeError(w, err)
			return
		}
		in.Slot = &slot
	}

	ev, err := a.rec.Reschedule(r.Context(), r.PathValue("id"), in)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// CancelEventHandler cancels an event
// @Summary Cancel an event
// @Description Set the event CANCELLED; the step reverts to waiting unless an independent flag holds it completed
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body cancelRequest true "Cancellation reason"
// @Success 200 {object} workflow.CalendarEvent
// @Failure 404 {object} errorResponse
// @Router /events/{id}/cancel [post]
func (a *API) CancelEventHandler(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	ev, err := a.rec.Cancel(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// CompleteEventHandler completes an event
// @Summary Complete an event
// @Description Mark the event COMPLETED; completing an offer-letter event auto-schedules the reminder. Cancelled events stay cancelled
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} workflow.CalendarEvent
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /events/{id}/complete [post]
func (a *API) CompleteEventHandler(w http.ResponseWriter, r *http.Request) {
	ev, err := a.rec.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
