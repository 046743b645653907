package platform

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"

	log "github.com/ecohq/eco/internal/logging"
)

// RetryConfig bounds the backoff applied to transient platform failures.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig matches the bounded-backoff contract: three attempts,
// 1s initial, doubling, capped at 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// retryOperation retries a GitHub API call on transient failures (rate
// limit, 5xx, network). Structural 4xx failures return immediately.
func retryOperation(ctx context.Context, cfg RetryConfig, op func() (*github.Response, error)) error {
	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		resp, err := op()
		if err == nil {
			if attempt > 0 {
				log.Infof("platform call recovered after %d retries", attempt)
			}
			return nil
		}
		lastErr = err

		if !isRetryable(err, resp) {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		log.Warnf("transient platform failure (attempt %d/%d), backing off %s: %v",
			attempt+1, cfg.MaxRetries, backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
	return lastErr
}

// IsPermanent reports whether an error needs human input to resolve. A
// structural 4xx from the API (bad request, missing permission, not found)
// will not succeed on retry; everything else is treated as transient.
func IsPermanent(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		code := errResp.Response.StatusCode
		return code >= http.StatusBadRequest &&
			code < http.StatusInternalServerError &&
			code != http.StatusTooManyRequests
	}
	return false
}

func isRetryable(err error, resp *github.Response) bool {
	switch err.(type) {
	case *github.RateLimitError, *github.AbuseRateLimitError:
		return true
	}
	if resp != nil {
		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return true
		case resp.StatusCode == http.StatusTooManyRequests:
			return true
		case resp.StatusCode >= http.StatusBadRequest:
			return false
		}
	}
	// No HTTP response at all: treat as a network failure.
	return resp == nil
}
