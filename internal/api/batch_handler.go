package api

import (
	"net/http"
	"time"

	"onboarding-tracker/internal/batch"
	"onboarding-tracker/internal/schedule"
)

// batchScheduleRequest fans one step schedule out over many candidates.
// With async=true the run is queued to the background workers and only the
// acceptance is returned.
type batchScheduleRequest struct {
	batch.Request
	LocalTime string `json:"local_time,omitempty"` // "2006-01-02T15:04", org-local, exact mode
	Async     bool   `json:"async,omitempty"`
}

// BatchScheduleHandler schedules one step for many candidates
// @Summary Batch-schedule a step
// @Description Apply one schedule computation and one event creation per candidate; failures are reported per item
// @Tags batch
// @Accept json
// @Produce json
// @Param request body batchScheduleRequest true "Batch run"
// @Success 200 {object} batch.Result
// @Success 202 {object} map[string]string
// @Failure 400 {object} errorResponse
// @Router /batch/schedule [post]
func (a *API) BatchScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req batchScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if len(req.CandidateIDs) == 0 {
		badRequest(w, "candidate_ids is required")
		return
	}
	if req.Mode == schedule.ModeExact {
		lt, err := time.ParseInLocation(localTimeLayout, req.LocalTime, schedule.OrgZone)
		if err != nil {
			badRequest(w, errBadLocalTime.Error())
			return
		}
		req.Request.LocalTime = lt
	}

	if req.Async {
		select {
		case a.batchQueue <- req.Request:
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		default:
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "batch queue full", Code: "queue_full"})
		}
		return
	}

	res, err := a.batch.Run(r.Context(), req.Request)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
