package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRetryAfter(t *testing.T) {
	def := 5 * time.Second

	resp := &http.Response{Header: http.Header{}}
	if got := RetryAfter(resp, def); got != def {
		t.Fatalf("expected default when header absent, got %v", got)
	}

	resp.Header.Set("Retry-After", "2")
	if got := RetryAfter(resp, def); got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}

	resp.Header.Set("Retry-After", "garbage")
	if got := RetryAfter(resp, def); got != def {
		t.Fatalf("expected default on malformed header, got %v", got)
	}

	resp.Header.Set("Retry-After", "-1")
	if got := RetryAfter(resp, def); got != def {
		t.Fatalf("expected default on negative header, got %v", got)
	}

	if got := RetryAfter(nil, def); got != def {
		t.Fatalf("expected default on nil response, got %v", got)
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(&http.Response{StatusCode: 429}, nil) {
		t.Fatal("429 should be rate limited")
	}
	if IsRateLimited(&http.Response{StatusCode: 500}, nil) {
		t.Fatal("500 is not rate limited")
	}
	if IsRateLimited(nil, context.DeadlineExceeded) {
		t.Fatal("transport errors are not rate limited")
	}
}

func TestRateLimitExecutorRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor := NewRateLimitExecutor(RateLimitConfig{MaxAttempts: 3, DefaultWait: time.Millisecond})
	resp, err := ExecuteHTTP(context.Background(), executor, func() (*http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := server.Client().Do(req)
		if IsRateLimited(resp, err) {
			_ = resp.Body.Close()
		}
		return resp, err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRateLimitExecutorGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	executor := NewRateLimitExecutor(RateLimitConfig{MaxAttempts: 3, DefaultWait: time.Millisecond})
	resp, err := ExecuteHTTP(context.Background(), executor, func() (*http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := server.Client().Do(req)
		if IsRateLimited(resp, err) {
			_ = resp.Body.Close()
		}
		return resp, err
	})
	if err != nil {
		t.Fatalf("expected last response, not error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected final 429, got %d", resp.StatusCode)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestRateLimitExecutorDoesNotRetryServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	executor := NewRateLimitExecutor(DefaultRateLimitConfig())
	resp, err := ExecuteHTTP(context.Background(), executor, func() (*http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		return server.Client().Do(req)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 passed through, got %d", resp.StatusCode)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestRateLimitExecutorRespectsContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	executor := NewRateLimitExecutor(DefaultRateLimitConfig())
	start := time.Now()
	_, err := ExecuteHTTP(ctx, executor, func() (*http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := server.Client().Do(req)
		if IsRateLimited(resp, err) {
			_ = resp.Body.Close()
		}
		return resp, err
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancellation should interrupt the backoff wait, took %v", elapsed)
	}
}
