package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
	"github.com/chippagiri-sritha/naariguard-server/internal/detection"
	"github.com/chippagiri-sritha/naariguard-server/internal/escalation"
	"github.com/chippagiri-sritha/naariguard-server/internal/recordings"
	"github.com/chippagiri-sritha/naariguard-server/internal/transcription"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Outcome is the result of running one capture through the pipeline.
type Outcome struct {
	Detection     *detection.Result
	Recording     *recordings.Recording
	Notifications []escalation.Notification
}

// Processor runs a captured artifact through transcription, keyword
// detection, escalation, and persistence.
type Processor struct {
	transcriber transcription.Transcriber
	matcher     *detection.Matcher
	keywords    *detection.KeywordSet
	recordings  *recordings.Store
	dispatcher  *escalation.Dispatcher
	logger      *logger.Logger
}

// NewProcessor creates a pipeline processor.
func NewProcessor(
	transcriber transcription.Transcriber,
	matcher *detection.Matcher,
	keywords *detection.KeywordSet,
	recordingStore *recordings.Store,
	dispatcher *escalation.Dispatcher,
	logger *logger.Logger,
) *Processor {
	return &Processor{
		transcriber: transcriber,
		matcher:     matcher,
		keywords:    keywords,
		recordings:  recordingStore,
		dispatcher:  dispatcher,
		logger:      logger.Named("pipeline"),
	}
}

// Process transcribes the artifact, scans for emergency keywords and
// urgency phrases, escalates on a high alert, and saves the recording.
// The recording is saved regardless of the detection outcome, and a
// failed escalation never fails the pipeline.
func (p *Processor) Process(ctx context.Context, ownerID string, artifact *capture.Artifact, extraKeywords []string) (*Outcome, error) {
	transcript, err := p.transcriber.Transcribe(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	set := p.keywords
	if len(extraKeywords) > 0 {
		set = set.With(extraKeywords...)
	}

	matched := p.matcher.Match(transcript, set)
	result := detection.NewResult(transcript, matched, set.Len())

	p.logger.Info("Processed capture",
		logger.String("user_id", ownerID),
		logger.Int("transcript_len", len(transcript)),
		logger.Int("matched", len(matched)),
		logger.String("safety_level", string(result.SafetyLevel)))

	outcome := &Outcome{Detection: result}

	if result.SafetyLevel == detection.LevelHighAlert {
		message := fmt.Sprintf("Emergency keywords detected: %v", matched)
		notifications, err := p.dispatcher.Dispatch(ctx, ownerID, message, "")
		if err != nil {
			if errors.Is(err, escalation.ErrNoContactsConfigured) {
				p.logger.Warn("High alert with no emergency contacts configured",
					logger.String("user_id", ownerID))
			} else {
				p.logger.Error("Failed to dispatch alert", logger.Error(err))
			}
		}
		outcome.Notifications = notifications
	}

	recording, err := p.recordings.Save(ownerID, artifact, matched)
	if err != nil {
		return nil, err
	}
	outcome.Recording = recording

	return outcome, nil
}
