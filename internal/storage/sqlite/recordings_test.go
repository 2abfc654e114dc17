package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newRecordingStorage(t *testing.T) *RecordingStorage {
	t.Helper()
	storage, err := NewRecordingStorage(newTestDB(t), logger.Nop())
	if err != nil {
		t.Fatalf("NewRecordingStorage: %v", err)
	}
	return storage
}

func testRecording(id, userID string, date time.Time) *RecordingRecord {
	return &RecordingRecord{
		ID:               id,
		UserID:           userID,
		Duration:         "0:30",
		FilePath:         userID + "/" + id + ".webm",
		DetectedKeywords: []string{"help", "help me"},
		Date:             date,
		Status:           StatusSaved,
		CreatedAt:        date,
		UpdatedAt:        date,
	}
}

func TestRecordingStorageRoundTrip(t *testing.T) {
	t.Parallel()

	storage := newRecordingStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	record := testRecording("rec-1", "user-1", now)
	if err := storage.Store(record); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := storage.GetByID("rec-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != "user-1" || got.Duration != "0:30" || got.Status != StatusSaved {
		t.Errorf("unexpected record: %+v", got)
	}
	if !slices.Equal(got.DetectedKeywords, []string{"help", "help me"}) {
		t.Errorf("DetectedKeywords = %v", got.DetectedKeywords)
	}
	if !got.Date.Equal(now) {
		t.Errorf("Date = %v, want %v", got.Date, now)
	}
}

func TestRecordingStorageGetByIDMissing(t *testing.T) {
	t.Parallel()

	storage := newRecordingStorage(t)
	_, err := storage.GetByID("nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestRecordingStorageListByOwner(t *testing.T) {
	t.Parallel()

	storage := newRecordingStorage(t)
	base := time.Now().UTC().Truncate(time.Second)

	// Inserted out of order; listing must come back newest first.
	offsets := map[string]time.Duration{"old": -2 * time.Hour, "newest": 0, "mid": -time.Hour}
	for _, id := range []string{"old", "newest", "mid"} {
		rec := testRecording(id, "user-1", base.Add(offsets[id]))
		if err := storage.Store(rec); err != nil {
			t.Fatalf("Store(%s): %v", id, err)
		}
	}
	if err := storage.Store(testRecording("other", "user-2", base)); err != nil {
		t.Fatalf("Store(other): %v", err)
	}

	list, err := storage.ListByOwner("user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}

	var ids []string
	for _, rec := range list {
		ids = append(ids, rec.ID)
	}
	if !slices.Equal(ids, []string{"newest", "mid", "old"}) {
		t.Errorf("order = %v, want newest first", ids)
	}
}

func TestRecordingStorageEmptyKeywords(t *testing.T) {
	t.Parallel()

	storage := newRecordingStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	rec := testRecording("rec-1", "user-1", now)
	rec.DetectedKeywords = nil
	if err := storage.Store(rec); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := storage.GetByID("rec-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DetectedKeywords == nil || len(got.DetectedKeywords) != 0 {
		t.Errorf("DetectedKeywords = %#v, want empty non-nil", got.DetectedKeywords)
	}
}

func TestRecordingStorageUpdateStatusAndSweep(t *testing.T) {
	t.Parallel()

	storage := newRecordingStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := storage.Store(testRecording("rec-1", "user-1", now)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := storage.UpdateStatus("rec-1", StatusDeleting); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := storage.GetByID("rec-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusDeleting {
		t.Errorf("Status = %q, want %q", got.Status, StatusDeleting)
	}
	if !got.UpdatedAt.After(now.Add(-time.Second)) {
		t.Errorf("UpdatedAt not refreshed: %v", got.UpdatedAt)
	}

	// A freshly flagged row is inside the grace window.
	stuck, err := storage.ListByStatus(StatusDeleting, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(stuck) != 0 {
		t.Errorf("expected no rows before cutoff, got %d", len(stuck))
	}

	stuck, err = storage.ListByStatus(StatusDeleting, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(stuck) != 1 || stuck[0].ID != "rec-1" {
		t.Errorf("stuck = %+v, want rec-1", stuck)
	}
}

func TestRecordingStorageDeleteAndFilePaths(t *testing.T) {
	t.Parallel()

	storage := newRecordingStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := storage.Store(testRecording("rec-1", "user-1", now)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := storage.Store(testRecording("rec-2", "user-1", now)); err != nil {
		t.Fatalf("Store: %v", err)
	}

	paths, err := storage.ListFilePaths()
	if err != nil {
		t.Fatalf("ListFilePaths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 entries", paths)
	}

	if err := storage.Delete("rec-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := storage.GetByID("rec-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID after delete err = %v, want sql.ErrNoRows", err)
	}

	paths, err = storage.ListFilePaths()
	if err != nil {
		t.Fatalf("ListFilePaths: %v", err)
	}
	if len(paths) != 1 || paths[0] != "user-1/rec-2.webm" {
		t.Errorf("paths = %v, want only rec-2", paths)
	}
}
