package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when a call is rejected without being attempted.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// BreakerConfig controls the circuit breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker. Default 5.
	Threshold int

	// Cooldown is how long calls are rejected before one probe call is
	// admitted. Default 30s.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for AI calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Cooldown: 30 * time.Second}
}

// Breaker rejects calls after Threshold consecutive failures. Once the
// cooldown elapses a single probe is admitted; its outcome either closes the
// breaker or re-arms the cooldown. Context cancellation never counts as a
// failure, so a shutdown cannot open the breaker.
type Breaker struct {
	cfg BreakerConfig

	mu        sync.Mutex
	failures  int
	openUntil time.Time
	probing   bool

	now func() time.Time
}

// NewBreaker creates a Breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.cfg.Threshold && b.now().Before(b.openUntil)
}

// ExecuteVal runs fn through the breaker, preserving its return value.
func ExecuteVal[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !b.admit() {
		return zero, ErrBreakerOpen
	}
	val, err := fn(ctx)
	b.observe(err)
	if err != nil {
		return zero, err
	}
	return val, nil
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.cfg.Threshold {
		return true
	}
	if b.now().Before(b.openUntil) {
		return false
	}
	// Cooldown elapsed; admit exactly one probe.
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

func (b *Breaker) observe(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	if err == nil {
		if b.failures >= b.cfg.Threshold {
			zap.L().Info("resilience: breaker closed")
		}
		b.failures = 0
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	b.failures++
	if b.failures >= b.cfg.Threshold {
		b.openUntil = b.now().Add(b.cfg.Cooldown)
		zap.L().Warn("resilience: breaker opened",
			zap.Int("failures", b.failures),
			zap.Duration("cooldown", b.cfg.Cooldown),
		)
	}
}
