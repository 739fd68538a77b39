package clients

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/mereck/moltbook/pkg/logging"
)

// RateLimitConfig configures retry behavior for upstream APIs that signal
// congestion with 429 responses. Only rate-limit responses are retried;
// transport errors and other HTTP statuses are returned to the caller as-is.
type RateLimitConfig struct {
	// MaxAttempts is the total number of attempts per call, including the
	// first. Default: 3.
	MaxAttempts int

	// DefaultWait is used when the server sends no Retry-After header or one
	// that cannot be parsed. Default: 5 seconds.
	DefaultWait time.Duration

	// MaxWait caps a single between-attempt wait regardless of what the
	// server asks for. Default: 60 seconds.
	MaxWait time.Duration

	// Breaker optionally trips the call path open during sustained 5xx or
	// transport failures.
	Breaker *BreakerConfig

	// Logger for retry notifications
	Logger logging.Logger
}

// BreakerConfig configures the optional circuit breaker in front of the
// retry policy.
type BreakerConfig struct {
	// FailureThreshold failures out of MinRequests trip the breaker.
	FailureThreshold uint
	MinRequests      uint
	// Delay is how long the breaker stays open before probing. Default: 15s.
	Delay time.Duration
}

// DefaultRateLimitConfig returns the defaults used by the moltbook client.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts: 3,
		DefaultWait: 5 * time.Second,
		MaxWait:     60 * time.Second,
	}
}

func normalizeRateLimitConfig(cfg RateLimitConfig) RateLimitConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.DefaultWait <= 0 {
		cfg.DefaultWait = 5 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 60 * time.Second
	}
	return cfg
}

// IsRateLimited reports whether the attempt ended in a 429 response.
func IsRateLimited(resp *http.Response, err error) bool {
	return err == nil && resp != nil && resp.StatusCode == http.StatusTooManyRequests
}

// RetryAfter reads the server-provided wait from a 429 response, expressed in
// delta-seconds. Absent or malformed headers fall back to def.
func RetryAfter(resp *http.Response, def time.Duration) time.Duration {
	if resp == nil {
		return def
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return def
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}

// NewRateLimitExecutor builds a failsafe executor that retries rate-limited
// responses, waiting out the server-directed interval between attempts. The
// wait is context-cancellable when the executor is used through ExecuteHTTP
// with a live context. After MaxAttempts the last 429 response is returned,
// not an error, so callers can degrade to "no data".
//
//nolint:bodyclose // [*http.Response] is a type parameter here, not a live response
func NewRateLimitExecutor(cfg RateLimitConfig) failsafe.Executor[*http.Response] {
	cfg = normalizeRateLimitConfig(cfg)

	builder := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(IsRateLimited).
		WithMaxAttempts(cfg.MaxAttempts).
		WithDelayFunc(func(exec failsafe.ExecutionAttempt[*http.Response]) time.Duration {
			wait := RetryAfter(exec.LastResult(), cfg.DefaultWait)
			if wait > cfg.MaxWait {
				wait = cfg.MaxWait
			}
			return wait
		}).
		ReturnLastFailure()

	if cfg.Logger != nil {
		logger := cfg.Logger
		builder = builder.OnRetry(func(event failsafe.ExecutionEvent[*http.Response]) {
			logger.WithFields(logging.Fields{
				"attempt": event.Attempts(),
				"wait":    RetryAfter(event.LastResult(), cfg.DefaultWait).String(),
			}).Warn("Rate limited by upstream, backing off")
		})
	}

	retry := builder.Build()

	if cfg.Breaker != nil {
		return failsafe.With(retry, newHTTPBreaker(*cfg.Breaker))
	}
	return failsafe.With(retry)
}

//nolint:bodyclose // [*http.Response] is a type parameter here, not a live response
func newHTTPBreaker(cfg BreakerConfig) circuitbreaker.CircuitBreaker[*http.Response] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 15 * time.Second
	}
	return circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.MinRequests).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		}).
		Build()
}

// ExecuteHTTP runs an HTTP request through the executor with the given context.
func ExecuteHTTP(ctx context.Context, executor failsafe.Executor[*http.Response], fn func() (*http.Response, error)) (*http.Response, error) {
	return executor.WithContext(ctx).Get(fn)
}
