package api

import (
	"net/http"
	"strconv"
	"time"

	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/workflow"
)

type createCandidateRequest struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email"`
	Position            string `json:"position"`
	Department          string `json:"department"`
	ExpectedJoiningDate string `json:"expected_joining_date,omitempty"` // "2006-01-02", org-local
}

// CreateCandidateHandler registers a new candidate
// @Summary Create a candidate
// @Description Register a candidate so their department's onboarding steps can be resolved and scheduled
// @Tags candidates
// @Accept json
// @Produce json
// @Param request body createCandidateRequest true "Candidate"
// @Success 201 {object} workflow.CandidateProfile
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /candidates [post]
func (a *API) CreateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if req.FirstName == "" || req.Email == "" || req.Department == "" {
		badRequest(w, "first_name, email and department are required")
		return
	}

	c := &workflow.CandidateProfile{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Position:   req.Position,
		Department: req.Department,
	}
	if req.ExpectedJoiningDate != "" {
		d, err := time.ParseInLocation("2006-01-02", req.ExpectedJoiningDate, schedule.OrgZone)
		if err != nil {
			badRequest(w, "expected_joining_date must be formatted 2006-01-02")
			return
		}
		c.ExpectedJoiningDate = &d
	}

	if err := a.db.InsertCandidate(r.Context(), c); err != nil {
		a.writeError(w, err)
		return
	}
	a.log.Info("candidate created", "candidate_id", c.ID, "department", c.Department)
	writeJSON(w, http.StatusCreated, c)
}

// FormSentHandler records the onboarding form going out
// @Summary Mark the onboarding form sent
// @Description Record the form-sent signal; the onboarding form and form reminder steps resolve pending until the form is completed
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorResponse
// @Router /candidates/{id}/form/sent [post]
func (a *API) FormSentHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := a.db.MarkFormSent(r.Context(), candidateID, time.Now().UTC()); err != nil {
		a.writeError(w, err)
		return
	}
	a.log.Info("onboarding form marked sent", "candidate_id", candidateID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "form_sent"})
}
