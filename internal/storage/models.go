package storage

import "time"

// Document is the stored metadata of an uploaded offer document. Content is
// opaque to this service; only the reference travels through the workflow.
type Document struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidate_id"`
	DocType     string    `json:"doc_type"` // e.g. "offer_letter"
	Filename    string    `json:"filename"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
