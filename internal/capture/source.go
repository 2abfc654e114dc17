package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Source provides the raw audio byte stream for a capture session. Open
// acquires the underlying input exclusively; the returned reader is owned by
// the session and closed when the capture stops.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// HTTPSource streams audio from a network feed such as an IP microphone.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewHTTPSource creates a source for the given feed URL.
func NewHTTPSource(url string, timeout time.Duration, logger *logger.Logger) *HTTPSource {
	transport := &http.Transport{
		MaxIdleConns:       10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: true, // audio payloads don't compress
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Transport: transport,
		},
		logger: logger.Named("http-source"),
	}
}

// Open connects to the audio feed, retrying with exponential backoff before
// giving up.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.withCacheBreaker(s.url), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("User-Agent", "NaariGuard/1.0")

	maxRetries := 3
	retryDelay := 1 * time.Second

	var resp *http.Response
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err = s.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, err)
			}
			return nil, fmt.Errorf("unexpected status code after %d attempts: %d", maxRetries, resp.StatusCode)
		}

		s.logger.Warn("Retrying connection to audio feed",
			logger.String("url", s.url),
			logger.Int("attempt", attempt+1),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay *= 2
		}
	}

	s.logger.Debug("Connected to audio feed",
		logger.String("url", s.url),
		logger.String("content_type", resp.Header.Get("Content-Type")))

	return &bufferedReadCloser{
		reader: bufio.NewReaderSize(resp.Body, 64*1024),
		closer: resp.Body,
	}, nil
}

// withCacheBreaker appends a timestamp parameter so intermediaries never
// serve a stale stream.
func (s *HTTPSource) withCacheBreaker(url string) string {
	separator := "?"
	if strings.Contains(url, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%snocache=%d", url, separator, time.Now().UnixNano())
}

// bufferedReadCloser combines a buffered reader with the response body closer
type bufferedReadCloser struct {
	reader *bufio.Reader
	closer io.Closer
}

func (b *bufferedReadCloser) Read(p []byte) (n int, err error) {
	return b.reader.Read(p)
}

func (b *bufferedReadCloser) Close() error {
	return b.closer.Close()
}
