package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"onboarding-tracker/internal/batch"
	"onboarding-tracker/internal/calendar"
	"onboarding-tracker/internal/schedule"
	"onboarding-tracker/internal/storage"
)

type API struct {
	db         *storage.DB
	rec        *calendar.Reconciler
	batch      *batch.Scheduler
	log        *slog.Logger
	uploadsDir string

	batchQueue chan batch.Request // background queue for async batch runs
}

func NewAPI(db *storage.DB, rec *calendar.Reconciler, batchSched *batch.Scheduler, uploadsDir string, workers int, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	a := &API{
		db:         db,
		rec:        rec,
		batch:      batchSched,
		log:        log,
		uploadsDir: uploadsDir,
		batchQueue: make(chan batch.Request, 50),
	}
	a.StartBackgroundWorkers(workers)
	return a
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps the workflow error taxonomy onto status codes. Anything
// unrecognized is a transport error and surfaces verbatim with no retry.
func (a *API) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrMissingBaseDate):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "missing_base_date"})
	case errors.Is(err, calendar.ErrConflictingEvent):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "conflicting_event"})
	case errors.Is(err, calendar.ErrEventNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "event_not_found"})
	case errors.Is(err, calendar.ErrEventCancelled):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "event_cancelled"})
	default:
		a.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "transport_error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

var (
	errBadMode          = errors.New("unknown scheduling mode")
	errBadLocalTime     = errors.New("local_time must be formatted 2006-01-02T15:04")
	errBadReferenceStep = errors.New("reference_step does not exist in this department")
)
