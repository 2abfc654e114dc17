package recordings

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
	"github.com/chippagiri-sritha/naariguard-server/internal/storage/blob"
	"github.com/chippagiri-sritha/naariguard-server/internal/storage/sqlite"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// ErrPersistenceFailed indicates a recording could not be saved.
var ErrPersistenceFailed = errors.New("failed to persist recording")

// ErrNotFound indicates the requested recording does not exist.
var ErrNotFound = errors.New("recording not found")

// Recording is the API-facing view of a stored capture.
type Recording struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Duration         string    `json:"duration"`
	FilePath         string    `json:"file_path"`
	DetectedKeywords []string  `json:"detected_keywords"`
	Date             time.Time `json:"date"`
	Status           string    `json:"status"`
	AudioURL         string    `json:"audio_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store persists recordings as a blob plus a metadata row. The blob is
// written first so a metadata row never points at a missing object.
type Store struct {
	blobs   *blob.Store
	records *sqlite.RecordingStorage
	signer  *blob.Signer
	logger  *logger.Logger
}

// NewStore creates a recording store over the given blob and metadata
// storage.
func NewStore(blobs *blob.Store, records *sqlite.RecordingStorage, signer *blob.Signer, logger *logger.Logger) *Store {
	return &Store{
		blobs:   blobs,
		records: records,
		signer:  signer,
		logger:  logger.Named("recordings"),
	}
}

// Save uploads the artifact and inserts its metadata row. Any failure
// on either step surfaces as ErrPersistenceFailed.
func (s *Store) Save(ownerID string, artifact *capture.Artifact, detectedKeywords []string) (*Recording, error) {
	now := time.Now().UTC()
	path := fmt.Sprintf("%s/%d.webm", ownerID, now.UnixMilli())

	if err := s.blobs.Put(path, artifact.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if detectedKeywords == nil {
		detectedKeywords = []string{}
	}

	record := &sqlite.RecordingRecord{
		ID:               uuid.NewString(),
		UserID:           ownerID,
		Duration:         artifact.DurationLabel(),
		FilePath:         path,
		DetectedKeywords: detectedKeywords,
		Date:             now,
		Status:           sqlite.StatusSaved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.records.Store(record); err != nil {
		// Best effort cleanup so the blob does not linger unreferenced.
		if rmErr := s.blobs.Remove(path); rmErr != nil {
			s.logger.Warn("Failed to remove blob after insert failure",
				logger.String("path", path), logger.Error(rmErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("Saved recording",
		logger.String("id", record.ID),
		logger.String("user_id", ownerID),
		logger.Int("keywords", len(detectedKeywords)))

	return s.toRecording(record), nil
}

// Get returns a single recording by ID.
func (s *Store) Get(id string) (*Recording, error) {
	record, err := s.records.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.toRecording(record), nil
}

// List returns the owner's recordings, newest first, each carrying a
// freshly signed playback URL.
func (s *Store) List(ownerID string) ([]*Recording, error) {
	records, err := s.records.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	result := make([]*Recording, 0, len(records))
	for _, record := range records {
		result = append(result, s.toRecording(record))
	}
	return result, nil
}

// OpenAudio verifies the signed locator and returns a reader over the
// recording's audio blob.
func (s *Store) OpenAudio(id string, exp int64, sig string) (io.ReadCloser, error) {
	record, err := s.records.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.signer.Verify(record.FilePath, exp, sig, time.Now()); err != nil {
		return nil, err
	}
	return s.blobs.Open(record.FilePath)
}

// Delete removes a recording in three steps: the metadata row is
// flagged as deleting, the blob is removed, then the row is deleted.
// A crash between steps leaves a flagged row for the sweeper to reap
// rather than an orphaned blob with live metadata.
func (s *Store) Delete(id string) error {
	record, err := s.records.GetByID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.records.UpdateStatus(id, sqlite.StatusDeleting); err != nil {
		return fmt.Errorf("failed to flag recording for deletion: %w", err)
	}
	if err := s.blobs.Remove(record.FilePath); err != nil {
		return fmt.Errorf("failed to remove recording audio: %w", err)
	}
	if err := s.records.Delete(id); err != nil {
		return fmt.Errorf("failed to delete recording metadata: %w", err)
	}

	s.logger.Info("Deleted recording", logger.String("id", id))
	return nil
}

func (s *Store) toRecording(record *sqlite.RecordingRecord) *Recording {
	keywords := record.DetectedKeywords
	if keywords == nil {
		keywords = []string{}
	}

	rec := &Recording{
		ID:               record.ID,
		UserID:           record.UserID,
		Duration:         record.Duration,
		FilePath:         record.FilePath,
		DetectedKeywords: keywords,
		Date:             record.Date,
		Status:           record.Status,
		CreatedAt:        record.CreatedAt,
	}
	if record.Status == sqlite.StatusSaved {
		exp, sig := s.signer.Sign(record.FilePath, time.Now())
		rec.AudioURL = fmt.Sprintf("/api/v1/recordings/%s/audio?exp=%d&sig=%s", record.ID, exp, sig)
	}
	return rec
}
