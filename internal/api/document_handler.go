package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"onboarding-tracker/internal/storage"
)

// OfferDocumentHandler handles offer document uploads
// @Summary Upload an offer document
// @Description Store the signed/unsigned offer document and attach its reference to the candidate
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Candidate ID"
// @Param file formData file true "Offer document (PDF or DOCX)"
// @Success 200 {object} storage.Document
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /candidates/{id}/documents/offer [post]
func (a *API) OfferDocumentHandler(w http.ResponseWriter, r *http.Request) {
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

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequest(w, "file too large or invalid (max 10MB)")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext != ".pdf" && ext != ".docx" && ext != ".doc" {
		badRequest(w, "invalid file type (supported: PDF, DOCX)")
		return
	}

	if err := os.MkdirAll(a.uploadsDir, 0o755); err != nil {
		a.writeError(w, err)
		return
	}
	path := filepath.Join(a.uploadsDir, fmt.Sprintf("offer_%d_%d%s", candidateID, time.Now().Unix(), ext))
	dst, err := os.Create(path)
	if err != nil {
		a.writeError(w, err)
		return
	}
	size, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		a.writeError(w, err)
		return
	}

	doc := &storage.Document{
		CandidateID: candidateID,
		DocType:     "offer_letter",
		Filename:    header.Filename,
		FilePath:    path,
		FileSize:    size,
	}
	if err := a.db.SaveDocument(r.Context(), doc); err != nil {
		a.writeError(w, err)
		return
	}
	// The path on the candidate record is what unblocks the offer step's
	// document gate.
	if err := a.db.SetOfferLetterPath(r.Context(), candidateID, path); err != nil {
		a.writeError(w, err)
		return
	}

	a.log.Info("offer document uploaded", "candidate_id", candidateID, "path", path, "size", size)
	writeJSON(w, http.StatusOK, doc)
}
