// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RetryDelay controls the fixed wait between fetch attempts on transient
// failures. Tests override this to avoid real sleeps.
var RetryDelay = 1 * time.Second

const defaultMaxRetries = 3

// ErrNotFound marks an HTTP 404 response. Not-found resources are
// terminal: callers must not retry them.
var ErrNotFound = errors.New("resource not found")

// GetWithRetry executes a GET request and retries transport errors and
// non-404 error statuses with a fixed delay between attempts. maxRetries
// bounds the total number of attempts; when it is 0 the default (3) is
// used. An HTTP 404 returns ErrNotFound immediately, without retrying.
//
// If the context is cancelled during a wait the function returns
// ctx.Err(). After exhausting attempts the last transient error is
// returned. On success the caller owns the response body.
func GetWithRetry(ctx context.Context, client *http.Client, url, userAgent string, maxRetries int, log *slog.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			log.Warn("retrying fetch",
				"url", url, "attempt", attempt, "max", maxRetries, "err", lastErr)
			if err := Wait(ctx, RetryDelay); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			drain(resp)
			return nil, ErrNotFound
		}

		if resp.StatusCode >= 400 {
			drain(resp)
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
			continue
		}

		return resp, nil
	}
	return nil, lastErr
}

// ContentLength issues a HEAD request and reports the remote byte length.
// A response without a Content-Length header reports 0. Only transport
// failures are errors; error statuses still yield whatever length the
// response carried.
func ContentLength(ctx context.Context, client *http.Client, url, userAgent string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD request: %w", err)
	}
	drain(resp)

	if resp.ContentLength < 0 {
		return 0, nil
	}
	return resp.ContentLength, nil
}

// Wait blocks for d or until the context is cancelled, whichever comes
// first. It exists so a future scheduler can replace the blocking sleep
// without changing the retry contract.
func Wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
