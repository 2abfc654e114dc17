// Package capture acquires audio from a Source and buffers it into timed
// segments until the session is stopped and the segments are finalized into
// a single Artifact.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

var (
	// ErrDeviceUnavailable indicates the audio source could not be opened
	// (no input device, permission denied, unreachable feed).
	ErrDeviceUnavailable = errors.New("audio source unavailable")

	// ErrEmptyCapture indicates Stop was called before any audio segment
	// was collected.
	ErrEmptyCapture = errors.New("no audio captured")

	// ErrSessionActive indicates Start was called while a capture was
	// already in progress.
	ErrSessionActive = errors.New("capture session already active")

	// ErrNotRecording indicates Stop was called without an active capture.
	ErrNotRecording = errors.New("no active capture session")
)

// Status is the capture session state
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRecording Status = "recording"
	StatusStopping  Status = "stopping"
)

// Session owns one microphone/source handle at a time and the segment buffer
// for the capture in progress. Exactly one capture may be active per Session;
// concurrent Start calls are rejected with ErrSessionActive, but callers that
// own several Sessions must serialize access to the underlying device
// themselves.
type Session struct {
	source        Source
	chunkInterval time.Duration
	logger        *logger.Logger

	mu       sync.Mutex
	status   Status
	segments [][]byte
	started  time.Time
	cancel   context.CancelFunc
	done     chan struct{}
	reader   io.ReadCloser
}

// NewSession creates an idle capture session reading from source. Segments
// are sealed once per chunkInterval (1s when zero, matching the original
// recorder cadence).
func NewSession(source Source, chunkInterval time.Duration, logger *logger.Logger) *Session {
	if chunkInterval <= 0 {
		chunkInterval = time.Second
	}
	return &Session{
		source:        source,
		chunkInterval: chunkInterval,
		logger:        logger.Named("capture"),
		status:        StatusIdle,
	}
}

// Status returns the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start opens the audio source and begins buffering segments. Returns
// ErrDeviceUnavailable when the source cannot be opened and ErrSessionActive
// when a capture is already running.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusIdle {
		return ErrSessionActive
	}

	reader, err := s.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	captureCtx, cancel := context.WithCancel(ctx)
	s.status = StatusRecording
	s.segments = nil
	s.started = time.Now()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.reader = reader

	chunks := make(chan []byte, 16)
	go s.readLoop(captureCtx, reader, chunks)
	go s.collectLoop(captureCtx, chunks)

	s.logger.Debug("Capture started",
		logger.Duration("chunk_interval", s.chunkInterval))
	return nil
}

// readLoop pulls raw bytes off the source until the capture is cancelled or
// the source ends.
func (s *Session) readLoop(ctx context.Context, reader io.ReadCloser, chunks chan<- []byte) {
	defer close(chunks)

	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				s.logger.Warn("Audio source read ended", logger.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// collectLoop accumulates raw bytes and seals them into one segment per tick.
func (s *Session) collectLoop(ctx context.Context, chunks <-chan []byte) {
	defer close(s.done)

	ticker := time.NewTicker(s.chunkInterval)
	defer ticker.Stop()

	var pending []byte
	seal := func() {
		if len(pending) == 0 {
			return
		}
		s.mu.Lock()
		s.segments = append(s.segments, pending)
		s.mu.Unlock()
		pending = nil
	}

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				seal()
				return
			}
			pending = append(pending, chunk...)
		case <-ticker.C:
			seal()
		case <-ctx.Done():
			// Drain whatever the reader already produced, then seal.
			for {
				select {
				case chunk, ok := <-chunks:
					if !ok {
						seal()
						return
					}
					pending = append(pending, chunk...)
				default:
					seal()
					return
				}
			}
		}
	}
}

// Stop finalizes the capture: the source is released, buffered segments are
// concatenated into a single Artifact and the buffer is destroyed. Returns
// ErrEmptyCapture when no segment was collected. There is no cancellation
// once Stop has been called.
func (s *Session) Stop() (*Artifact, error) {
	s.mu.Lock()
	if s.status != StatusRecording {
		s.mu.Unlock()
		return nil, ErrNotRecording
	}
	// Claim the stop before releasing the lock so a concurrent Stop is
	// rejected instead of racing the finalization.
	s.status = StatusStopping
	cancel, done, reader := s.cancel, s.done, s.reader
	s.mu.Unlock()

	cancel()
	<-done
	if err := reader.Close(); err != nil {
		s.logger.Debug("Failed to close audio source", logger.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	segments := s.segments
	duration := time.Since(s.started)
	s.segments = nil
	s.status = StatusIdle
	s.cancel = nil
	s.done = nil
	s.reader = nil

	if len(segments) == 0 {
		return nil, ErrEmptyCapture
	}

	size := 0
	for _, seg := range segments {
		size += len(seg)
	}
	data := make([]byte, 0, size)
	for _, seg := range segments {
		data = append(data, seg...)
	}

	s.logger.Debug("Capture finalized",
		logger.Int("segments", len(segments)),
		logger.Int("bytes", size),
		logger.Duration("duration", duration))

	return &Artifact{
		Data:        data,
		ContentType: ContentType,
		Duration:    duration,
	}, nil
}
