package sqlite

import "time"

// Recording status values. A row is created as StatusSaved once both the
// audio artifact and the metadata write succeeded; StatusDeleting flags a
// row whose delete started, so the sweeper can reap it if the two-step
// delete was interrupted.
const (
	StatusProcessing = "processing"
	StatusSaved      = "saved"
	StatusError      = "error"
	StatusDeleting   = "deleting"
)

// RecordingRecord is the persisted metadata for one stored audio capture
type RecordingRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Duration         string    `json:"duration"`
	FilePath         string    `json:"file_path"`
	DetectedKeywords []string  `json:"detected_keywords"`
	Date             time.Time `json:"date"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
