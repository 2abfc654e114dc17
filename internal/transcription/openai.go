package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Config represents the transcription client configuration
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// OpenAIClient transcribes audio through the OpenAI audio transcriptions
// API (or any compatible gateway selected via BaseURL).
type OpenAIClient struct {
	client openai.Client
	model  string
	logger *logger.Logger
}

// NewOpenAIClient creates a transcription client. The API key is required
// for real calls; an empty key is tolerated at construction so the server
// can start without transcription configured.
func NewOpenAIClient(cfg Config, logger *logger.Logger) *OpenAIClient {
	if cfg.APIKey == "" {
		logger.Warn("Transcription API key is empty - keyword detection will not work")
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		// Request paths resolve relative to the base URL; without the
		// trailing slash its last segment would be dropped.
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger.Named("transcription"),
	}
}

// Transcribe sends the artifact as a multipart upload and returns the plain
// transcript text. Upstream failures map onto the package error taxonomy and
// are never retried here; an empty transcript is returned as-is.
func (c *OpenAIClient) Transcribe(ctx context.Context, artifact *capture.Artifact) (string, error) {
	if artifact == nil || len(artifact.Data) == 0 {
		return "", fmt.Errorf("%w: empty audio artifact", ErrTranscriptionFailed)
	}

	c.logger.Debug("Transcribing audio artifact",
		logger.Int("bytes", artifact.Size()),
		logger.String("model", c.model))

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(artifact.Data), "audio.webm", artifact.ContentType),
		Model: openai.AudioModel(c.model),
	})
	if err != nil {
		return "", c.classifyError(err)
	}

	c.logger.Debug("Transcription completed",
		logger.Int("transcript_chars", len(resp.Text)))

	return resp.Text, nil
}

// classifyError maps upstream failures onto the package error taxonomy.
func (c *OpenAIClient) classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := gjson.Get(apiErr.RawJSON(), "error.message").String()
		if message == "" {
			message = apiErr.Error()
		}

		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			c.logger.Warn("Transcription rate limited", logger.String("upstream", message))
			return fmt.Errorf("%w: %s", ErrRateLimited, message)
		case http.StatusPaymentRequired:
			c.logger.Error("Transcription quota exceeded", logger.String("upstream", message))
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, message)
		default:
			c.logger.Error("Transcription request failed",
				logger.Int("status_code", apiErr.StatusCode),
				logger.String("upstream", message))
			return fmt.Errorf("%w: %s", ErrTranscriptionFailed, message)
		}
	}

	c.logger.Error("Transcription request failed", logger.Error(err))
	return fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
}
