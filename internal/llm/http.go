package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxAttempts bounds backend calls per request: one try, one retry.
const maxAttempts = 2

// PostJSON posts a JSON body to a full URL with optional headers and
// returns the raw response body. A failed attempt, whether a transport
// error or a non-2xx status, is retried once after the given backoff.
// Context errors are returned as-is and never retried, so a caller's
// deadline is distinguishable from a backend fault. The helper assumes
// no provider; callers decide the URL and headers.
func PostJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, backoff time.Duration, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	reqID := uuid.New().String()
	start := time.Now()

	var raw []byte
	var status int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, status, err = postOnce(ctx, client, url, bs, headers, reqID, attempt, logger)
		if err == nil {
			return raw, status, nil
		}
		if ctx.Err() != nil {
			return nil, status, ctx.Err()
		}
		if attempt == maxAttempts {
			break
		}
		logger.Warn("llm.http.retry", "req_id", reqID, "attempt", attempt, "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, status, ctx.Err()
		case <-time.After(backoff):
		}
	}

	logger.Warn("llm.http.failed",
		"req_id", reqID,
		"attempts", maxAttempts,
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, status, err
}

func postOnce(ctx context.Context, client *http.Client, url string, bs []byte, headers map[string]string, reqID string, attempt int, logger *slog.Logger) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	// Default headers; allow caller overrides.
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request", "req_id", reqID, "attempt", attempt, "url", url, "content_length", len(bs))

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	logger.Debug("llm.http.response",
		"req_id", reqID,
		"attempt", attempt,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
