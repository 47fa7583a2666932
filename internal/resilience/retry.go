// Package resilience guards the pipeline's outbound AI calls with bounded
// retries and a circuit breaker. Catalog clients carry their own HTTP-level
// retry; this package classifies the errors they surface so wrapped failures
// retry consistently wherever they bubble up.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls DoVal. Zero values fall back to the defaults noted
// per field.
type RetryConfig struct {
	// Attempts is the total number of calls, first try included. Default 3.
	Attempts int

	// BaseDelay is the sleep before the first retry; it doubles per attempt
	// up to MaxDelay. Defaults 500ms and 15s.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter widens each delay by a random factor in [-Jitter, +Jitter].
	// Default 0.2.
	Jitter float64

	// Name tags retry log lines with the guarded operation.
	Name string

	// Retryable overrides the package-level classification when set.
	Retryable func(error) bool
}

// DefaultRetryConfig returns the retry settings used for AI calls.
func DefaultRetryConfig(name string) RetryConfig {
	return RetryConfig{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  15 * time.Second,
		Jitter:    0.2,
		Name:      name,
	}
}

// DoVal calls fn until it succeeds, the error classifies as permanent, the
// attempts run out, or ctx ends. The error of the final attempt is returned
// unwrapped so callers can still classify it.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 15 * time.Second
	}
	classify := cfg.Retryable
	if classify == nil {
		classify = Retryable
	}

	var zero T
	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || attempt >= cfg.Attempts || !classify(err) {
			return zero, err
		}

		delay := nextDelay(cfg, attempt)
		zap.L().Warn("resilience: retrying",
			zap.String("name", cfg.Name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

func nextDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay << (attempt - 1)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter > 0 {
		delay += time.Duration((rand.Float64()*2 - 1) * cfg.Jitter * float64(delay))
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// retryablePatterns matches the failure modes this pipeline actually sees:
// Anthropic API throttling and outages, catalog endpoint 429/5xx statuses as
// worded by the pkg clients, and network-level failures from direct HTTP or
// the curl fallback.
var retryablePatterns = []string{
	// Anthropic API
	"rate_limit",
	"overloaded",
	"too many requests",
	"internal server error",
	"status 429",
	"status 500",
	"status 502",
	"status 503",
	"status 529",
	// catalog endpoints and network
	"service unavailable",
	"bad gateway",
	"connection reset by peer",
	"broken pipe",
	"operation timed out",
	"empty reply from server",
	"tls handshake timeout",
	"i/o timeout",
}

// Retryable reports whether a failed outbound call is worth repeating.
// Context cancellation is never retryable; auth errors, invalid requests,
// and blocked-access responses classify as permanent by falling through.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
