// Package transcription converts finalized audio artifacts to text through
// an OpenAI-compatible speech-to-text endpoint.
package transcription

import (
	"context"
	"errors"

	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
)

var (
	// ErrRateLimited indicates the upstream service rejected the request
	// for rate reasons. Retryable after backing off; this package never
	// retries on its own.
	ErrRateLimited = errors.New("transcription rate limited")

	// ErrQuotaExceeded indicates the upstream account is out of credits.
	// Fatal until billing or configuration is resolved.
	ErrQuotaExceeded = errors.New("transcription quota exceeded")

	// ErrTranscriptionFailed wraps any other upstream failure.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Transcriber converts one audio artifact to plain text. Implementations
// suspend the caller for the duration of the upstream round trip and surface
// all failures unretried. An empty transcript is a valid result (silence).
type Transcriber interface {
	Transcribe(ctx context.Context, artifact *capture.Artifact) (string, error)
}
