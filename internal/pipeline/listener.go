package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Listener continuously captures fixed windows of audio from a source
// and feeds each window through the processor. It implements the
// passive monitoring mode where the device records in the background
// on behalf of a single owner.
type Listener struct {
	source    capture.Source
	processor *Processor
	ownerID   string
	window    time.Duration
	chunk     time.Duration
	logger    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewListener creates a passive listener over the given audio source.
func NewListener(source capture.Source, processor *Processor, ownerID string, window, chunk time.Duration, logger *logger.Logger) *Listener {
	if window <= 0 {
		window = 30 * time.Second
	}
	return &Listener{
		source:    source,
		processor: processor,
		ownerID:   ownerID,
		window:    window,
		chunk:     chunk,
		logger:    logger.Named("listener"),
	}
}

// Start begins the capture loop in a background goroutine.
func (l *Listener) Start(ctx context.Context) {
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go l.run()
	l.logger.Info("Passive listener started",
		logger.String("owner", l.ownerID),
		logger.Duration("window", l.window))
}

// Stop halts the capture loop and waits for the in-flight window to
// finish processing.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	l.logger.Info("Passive listener stopped")
}

func (l *Listener) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		if err := l.captureWindow(); err != nil {
			if l.ctx.Err() != nil {
				return
			}
			l.logger.Error("Capture window failed", logger.Error(err))
			// Back off before retrying so a dead source does not spin.
			select {
			case <-l.ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (l *Listener) captureWindow() error {
	session := capture.NewSession(l.source, l.chunk, l.logger)
	if err := session.Start(l.ctx); err != nil {
		return err
	}

	select {
	case <-l.ctx.Done():
	case <-time.After(l.window):
	}

	artifact, err := session.Stop()
	if err != nil {
		if errors.Is(err, capture.ErrEmptyCapture) {
			l.logger.Debug("Capture window produced no audio")
			return nil
		}
		return err
	}

	// Process with a fresh context so shutdown does not abandon a
	// window that was already captured.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := l.processor.Process(ctx, l.ownerID, artifact, nil); err != nil {
		return err
	}
	return nil
}
