package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/httpclient"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"go.uber.org/zap"
)

// StatusError is returned when the trigger endpoint answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
	// Wait is the Retry-After hint of a 429 or 503, zero when absent
	Wait time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trigger %s returned status %d", e.URL, e.StatusCode)
}

// Temporary reports whether the call may succeed when repeated
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RetryAfter lets the retry loop wait as long as the endpoint asked
func (e *StatusError) RetryAfter() time.Duration {
	return e.Wait
}

// parseRetryAfter reads the delta-seconds form, HTTP dates are ignored
func parseRetryAfter(value string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Call posts payload as JSON to triggerURL. An empty URL is a no-op.
func Call(ctx context.Context, httpClient httpclient.Client, triggerURL string, payload any) error {
	if triggerURL == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, triggerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Calling trigger URL", zap.String("url", triggerURL))

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call trigger URL: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			URL:        triggerURL,
			StatusCode: resp.StatusCode,
			Wait:       parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	logger.Info("Trigger URL called successfully",
		zap.String("url", triggerURL),
		zap.Int("status_code", resp.StatusCode))
	return nil
}
