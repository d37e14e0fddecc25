package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation - must be registered first
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Health check (for Railway, k8s, etc.)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Candidate endpoints
	mux.HandleFunc("POST /api/candidates", a.CreateCandidateHandler)
	mux.HandleFunc("POST /api/candidates/{id}/form/sent", a.FormSentHandler)

	// Step workflow endpoints
	mux.HandleFunc("GET /api/candidates/{id}/steps", a.ListStepsHandler)
	mux.HandleFunc("POST /api/candidates/{id}/steps/{stepNumber}/schedule", a.ScheduleStepHandler)
	mux.HandleFunc("POST /api/candidates/{id}/steps/{stepNumber}/complete", a.CompleteStepHandler)

	// Calendar event endpoints
	mux.HandleFunc("POST /api/events/{id}/reschedule", a.RescheduleEventHandler)
	mux.HandleFunc("POST /api/events/{id}/cancel", a.CancelEventHandler)
	mux.HandleFunc("POST /api/events/{id}/complete", a.CompleteEventHandler)

	// Batch scheduling
	mux.HandleFunc("POST /api/batch/schedule", a.BatchScheduleHandler)

	// Offer document upload
	mux.HandleFunc("POST /api/candidates/{id}/documents/offer", a.OfferDocumentHandler)

	return mux
}
