package snapshothttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"

	"evedash/pkg/models"
)

// Writer posts snapshots to a remote HTTP endpoint.
type Writer struct {
	url      string
	headers  map[string]string
	client   *http.Client
	attempts uint
	delay    time.Duration
}

// Config configures the HTTP writer.
type Config struct {
	URL      string
	Timeout  time.Duration
	Headers  map[string]string
	Attempts uint
	Delay    time.Duration
}

// statusError is a non-2xx response.
type statusError struct {
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("http request failed with status %s", e.status)
	}
	return fmt.Sprintf("http request failed with status %s: %s", e.status, e.body)
}

// requestError is a request that could not be built.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "failed to create request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// NewWriter creates an HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http snapshot URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 200 * time.Millisecond
	}
	return &Writer{
		url:      cfg.URL,
		headers:  cfg.Headers,
		client:   &http.Client{Timeout: timeout},
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
	}, nil
}

// WriteSnapshot posts one snapshot. Network errors and 5xx responses are
// retried with backoff; other statuses fail at once.
func (w *Writer) WriteSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
	)
	return r.Do(func() error {
		return w.post(ctx, body)
	})
}

func (w *Writer) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &requestError{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(respBody))}
	}
	return nil
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var re *requestError
	if errors.As(err, &re) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Close releases HTTP resources.
func (w *Writer) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
