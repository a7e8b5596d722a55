// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the fetch session used for every outbound
// request: fixed headers, a per-request timeout and status-code retries.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// RetryPolicy decides which responses are retried and how long to wait.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles each time.
	BaseDelay time.Duration

	// StatusCodes lists the statuses that trigger a retry.
	StatusCodes []int
}

// PolicyFromConfig converts the configured retry settings, applying defaults
// to zero fields.
func PolicyFromConfig(cfg types.RetryConfig) RetryPolicy {
	p := RetryPolicy{
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   cfg.BaseDelay,
		StatusCodes: cfg.StatusCodes,
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = types.DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = types.DefaultRetryBaseDelay
	}
	if len(p.StatusCodes) == 0 {
		p.StatusCodes = types.DefaultRetryStatusCodes
	}
	return p
}

func (p RetryPolicy) retryable(status int) bool {
	return slices.Contains(p.StatusCodes, status)
}

// backoff returns the wait before retry number attempt (0-based):
// BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
func (p RetryPolicy) backoff(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

// retryAfterStatuses are the statuses whose Retry-After header is honoured.
var retryAfterStatuses = []int{http.StatusRequestEntityTooLarge, http.StatusTooManyRequests, http.StatusServiceUnavailable}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date. ok is false when the header is absent or unparseable.
func retryAfter(resp *http.Response, now time.Time) (wait time.Duration, ok bool) {
	if !slices.Contains(retryAfterStatuses, resp.StatusCode) {
		return 0, false
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0), true
	}
	return 0, false
}

// DoWithRetry executes req and retries while the response status is in the
// policy's retry set, sleeping with exponential backoff between attempts.
//
// A Retry-After header on 413, 429 and 503 responses replaces the computed
// backoff. Transport errors are returned immediately. On each retried
// response the body is drained and closed before sleeping. If ctx is cancelled during a
// backoff wait the function returns ctx.Err(). After exhausting retries the
// last response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy, log *slog.Logger) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !policy.retryable(resp.StatusCode) || attempt >= policy.MaxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait, fromHeader := retryAfter(resp, time.Now())
		if !fromHeader {
			wait = policy.backoff(attempt)
		}
		log.WarnContext(ctx, "retrying request",
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
			slog.Duration("backoff", wait),
			slog.Bool("retry_after", fromHeader),
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", policy.MaxRetries),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
