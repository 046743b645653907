package platform

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
)

func ghResponse(code int) *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: code}}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2.0}
}

func TestRetryOperationRecovers(t *testing.T) {
	calls := 0
	err := retryOperation(context.Background(), fastRetry(), func() (*github.Response, error) {
		calls++
		if calls < 3 {
			return ghResponse(http.StatusBadGateway), errors.New("bad gateway")
		}
		return ghResponse(http.StatusOK), nil
	})
	if err != nil {
		t.Fatalf("retryOperation failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryOperationStopsOnStructuralFailure(t *testing.T) {
	calls := 0
	err := retryOperation(context.Background(), fastRetry(), func() (*github.Response, error) {
		calls++
		return ghResponse(http.StatusNotFound), errors.New("not found")
	})
	if err == nil {
		t.Fatal("expected the 404 to propagate")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls)
	}
}

func TestRetryOperationExhaustsRetries(t *testing.T) {
	calls := 0
	err := retryOperation(context.Background(), fastRetry(), func() (*github.Response, error) {
		calls++
		return ghResponse(http.StatusInternalServerError), errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected the final error to propagate")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (initial + 3 retries)", calls)
	}
}

func TestRetryOperationHonorsConfiguredAttempts(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxRetries = 1

	calls := 0
	err := retryOperation(context.Background(), cfg, func() (*github.Response, error) {
		calls++
		return ghResponse(http.StatusInternalServerError), errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected the final error to propagate")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (initial + 1 retry)", calls)
	}
}

func TestNewGitHubUsesSuppliedRetryConfig(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 7, InitialBackoff: 2 * time.Second, MaxBackoff: time.Minute, Multiplier: 3.0}
	gh, err := NewGitHub(context.Background(), "ecohq/eco", "token", cfg)
	if err != nil {
		t.Fatalf("NewGitHub failed: %v", err)
	}
	if gh.retry != cfg {
		t.Errorf("retry = %+v, want %+v", gh.retry, cfg)
	}
}

func TestNewGitHubDefaultsZeroRetryConfig(t *testing.T) {
	gh, err := NewGitHub(context.Background(), "ecohq/eco", "token", RetryConfig{})
	if err != nil {
		t.Fatalf("NewGitHub failed: %v", err)
	}
	if gh.retry != DefaultRetryConfig() {
		t.Errorf("retry = %+v, want defaults", gh.retry)
	}
}

func TestRetryOperationHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryOperation(ctx, fastRetry(), func() (*github.Response, error) {
		return ghResponse(http.StatusBadGateway), errors.New("bad gateway")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		resp *github.Response
		want bool
	}{
		{"rate limit", &github.RateLimitError{}, nil, true},
		{"abuse rate limit", &github.AbuseRateLimitError{}, nil, true},
		{"server error", errors.New("x"), ghResponse(http.StatusServiceUnavailable), true},
		{"too many requests", errors.New("x"), ghResponse(http.StatusTooManyRequests), true},
		{"unauthorized", errors.New("x"), ghResponse(http.StatusUnauthorized), false},
		{"network failure", errors.New("x"), nil, true},
		{"ok response with error", errors.New("x"), ghResponse(http.StatusOK), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err, tt.resp); got != tt.want {
				t.Errorf("isRetryable = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	notFound := &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}
	if !IsPermanent(notFound) {
		t.Error("404 should be permanent")
	}
	tooMany := &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	if IsPermanent(tooMany) {
		t.Error("429 should be transient")
	}
	server := &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusBadGateway}}
	if IsPermanent(server) {
		t.Error("5xx should be transient")
	}
	if IsPermanent(errors.New("connection refused")) {
		t.Error("plain network errors should be transient")
	}
}
