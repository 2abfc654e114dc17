package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// RecordingStorage handles storage of recording metadata
type RecordingStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRecordingStorage creates a new SQLite recording storage
func NewRecordingStorage(db *sql.DB, logger *logger.Logger) (*RecordingStorage, error) {
	storage := &RecordingStorage{
		db:     db,
		logger: logger.Named("sqlite-recordings"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize recording storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *RecordingStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS audio_recordings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			duration TEXT NOT NULL,
			file_path TEXT NOT NULL,
			detected_keywords TEXT NOT NULL DEFAULT '[]',
			date TIMESTAMP NOT NULL,
			status TEXT NOT NULL DEFAULT 'saved',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create audio_recordings table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_recordings_user_id ON audio_recordings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_date ON audio_recordings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_status ON audio_recordings(status)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create recording index: %w", err)
		}
	}

	return nil
}

// Store inserts a recording metadata row
func (s *RecordingStorage) Store(record *RecordingRecord) error {
	keywords, err := json.Marshal(record.DetectedKeywords)
	if err != nil {
		return fmt.Errorf("failed to encode detected keywords: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO audio_recordings
		(id, user_id, duration, file_path, detected_keywords, date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Duration,
		record.FilePath,
		string(keywords),
		record.Date.Format(time.RFC3339),
		record.Status,
		record.CreatedAt.Format(time.RFC3339),
		record.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recording: %w", err)
	}

	return nil
}

// GetByID returns a single recording by ID
func (s *RecordingStorage) GetByID(id string) (*RecordingRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, duration, file_path, detected_keywords, date, status, created_at, updated_at
		FROM audio_recordings
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recording by id: %w", err)
	}
	defer rows.Close()

	records, err := s.scanRecordingRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("recording %s: %w", id, sql.ErrNoRows)
	}
	return records[0], nil
}

// ListByOwner returns all recordings for a user, newest first
func (s *RecordingStorage) ListByOwner(userID string) ([]*RecordingRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, duration, file_path, detected_keywords, date, status, created_at, updated_at
		FROM audio_recordings
		WHERE user_id = ?
		ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings by owner: %w", err)
	}
	defer rows.Close()

	return s.scanRecordingRows(rows)
}

// ListByStatus returns recordings with the given status not touched since
// the cutoff. Used by the orphan sweeper.
func (s *RecordingStorage) ListByStatus(status string, updatedBefore time.Time) ([]*RecordingRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, duration, file_path, detected_keywords, date, status, created_at, updated_at
		FROM audio_recordings
		WHERE status = ? AND updated_at < ?
		ORDER BY updated_at ASC`,
		status, updatedBefore.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings by status: %w", err)
	}
	defer rows.Close()

	return s.scanRecordingRows(rows)
}

// ListFilePaths returns the storage paths of every metadata row
func (s *RecordingStorage) ListFilePaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT file_path FROM audio_recordings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recording file paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// UpdateStatus transitions a recording's status
func (s *RecordingStorage) UpdateStatus(id, status string) error {
	_, err := s.db.Exec(
		`UPDATE audio_recordings
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update recording status: %w", err)
	}
	return nil
}

// Delete removes a recording metadata row
func (s *RecordingStorage) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM audio_recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	return nil
}

// scanRecordingRows scans database rows into RecordingRecord structs
func (s *RecordingStorage) scanRecordingRows(rows *sql.Rows) ([]*RecordingRecord, error) {
	var records []*RecordingRecord
	for rows.Next() {
		var record RecordingRecord
		var keywords, date, createdAt, updatedAt string

		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Duration,
			&record.FilePath,
			&keywords,
			&date,
			&record.Status,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}

		if err := json.Unmarshal([]byte(keywords), &record.DetectedKeywords); err != nil {
			return nil, fmt.Errorf("failed to decode detected keywords: %w", err)
		}
		if record.DetectedKeywords == nil {
			record.DetectedKeywords = []string{}
		}

		var err error
		record.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
