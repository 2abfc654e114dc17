package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/internal/storage/blob"
	"github.com/chippagiri-sritha/naariguard-server/internal/storage/sqlite"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Sweeper reaps the leftovers of interrupted deletes: metadata rows
// stuck in the deleting state and audio blobs with no metadata row.
// Only rows and blobs older than the grace period are touched so the
// sweeper never races an in-flight save or delete.
type Sweeper struct {
	records  *sqlite.RecordingStorage
	blobs    *blob.Store
	interval time.Duration
	grace    time.Duration
	logger   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates an orphan sweeper.
func NewSweeper(records *sqlite.RecordingStorage, blobs *blob.Store, interval, grace time.Duration, logger *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	return &Sweeper{
		records:  records,
		blobs:    blobs,
		interval: interval,
		grace:    grace,
		logger:   logger.Named("sweeper"),
	}
}

// Start begins the periodic sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
	s.logger.Info("Orphan sweeper started", logger.Duration("interval", s.interval))
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Orphan sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pass over flagged rows and stray blobs.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.grace)

	s.reapDeletingRows(cutoff)
	s.reapStrayBlobs(cutoff)
}

func (s *Sweeper) reapDeletingRows(cutoff time.Time) {
	stuck, err := s.records.ListByStatus(sqlite.StatusDeleting, cutoff)
	if err != nil {
		s.logger.Error("Failed to list stuck deletions", logger.Error(err))
		return
	}

	for _, record := range stuck {
		if err := s.blobs.Remove(record.FilePath); err != nil {
			s.logger.Warn("Failed to remove stuck blob",
				logger.String("path", record.FilePath), logger.Error(err))
			continue
		}
		if err := s.records.Delete(record.ID); err != nil {
			s.logger.Warn("Failed to delete stuck row",
				logger.String("id", record.ID), logger.Error(err))
			continue
		}
		s.logger.Info("Reaped interrupted deletion", logger.String("id", record.ID))
	}
}

func (s *Sweeper) reapStrayBlobs(cutoff time.Time) {
	referenced, err := s.records.ListFilePaths()
	if err != nil {
		s.logger.Error("Failed to list referenced paths", logger.Error(err))
		return
	}

	live := make(map[string]struct{}, len(referenced))
	for _, path := range referenced {
		live[path] = struct{}{}
	}

	stored, err := s.blobs.ListOlderThan(cutoff)
	if err != nil {
		s.logger.Error("Failed to list blobs", logger.Error(err))
		return
	}

	for _, path := range stored {
		if _, ok := live[path]; ok {
			continue
		}
		if err := s.blobs.Remove(path); err != nil {
			s.logger.Warn("Failed to remove stray blob",
				logger.String("path", path), logger.Error(err))
			continue
		}
		s.logger.Info("Reaped stray blob", logger.String("path", path))
	}
}
