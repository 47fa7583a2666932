// Package fetch retrieves raw page content, working around fingerprint-based
// bot defenses by falling back from net/http to a process-level HTTP client
// with a different TLS fingerprint.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Result is the outcome of a fetch. OK is false only on total failure of
// both strategies; callers never see an error because they run inside
// best-effort background pipelines where one failed fetch must not abort
// the whole job.
type Result struct {
	OK     bool
	Status int
	Body   string
}

// Runner is the fallback process-level HTTP client.
type Runner interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, int, error)
}

// Options configures a Resolver.
type Options struct {
	Timeout   time.Duration // primary client timeout, capped at 15s
	MaxBody   int64         // response body cap in bytes
	UserAgent string
	RateLimit rate.Limit // outbound requests per second, 0 disables limiting
	Burst     int
}

// Resolver fetches a URL via net/http first and retries through the fallback
// runner when the primary path is blocked by bot defenses.
type Resolver struct {
	client    *http.Client
	runner    Runner
	limiter   *rate.Limiter
	maxBody   int64
	userAgent string
}

// NewResolver creates a Resolver with the given fallback runner. A nil
// runner disables the fallback path.
func NewResolver(runner Runner, opts Options) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 || timeout > 15*time.Second {
		timeout = 15 * time.Second
	}
	maxBody := opts.MaxBody
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; SiteIntelBot/1.0)"
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		runner:    runner,
		limiter:   limiter,
		maxBody:   maxBody,
		userAgent: userAgent,
	}
}

// Fetch retrieves the URL with optional header overrides. It never returns
// an error; total failure of both strategies yields {OK: false, Status: 0}.
func (r *Resolver) Fetch(ctx context.Context, targetURL string, headers map[string]string) Result {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return Result{}
		}
	}

	resp, body, err := r.primary(ctx, targetURL, headers)
	if err != nil {
		blocked, blockType := DetectTransportBlock(err)
		if !blocked {
			zap.L().Debug("fetch: primary failed",
				zap.String("url", targetURL),
				zap.Error(err),
			)
			return Result{}
		}
		zap.L().Info("fetch: primary blocked, using fallback client",
			zap.String("url", targetURL),
			zap.String("block_type", string(blockType)),
		)
		return r.fallback(ctx, targetURL, headers)
	}

	if blocked, blockType := DetectResponseBlock(resp, body); blocked {
		zap.L().Info("fetch: challenge page detected, using fallback client",
			zap.String("url", targetURL),
			zap.String("block_type", string(blockType)),
		)
		return r.fallback(ctx, targetURL, headers)
	}

	return Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 400,
		Status: resp.StatusCode,
		Body:   string(body),
	}
}

func (r *Resolver) primary(ctx context.Context, targetURL string, headers map[string]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody))
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (r *Resolver) fallback(ctx context.Context, targetURL string, headers map[string]string) Result {
	if r.runner == nil {
		return Result{}
	}

	body, status, err := r.runner.Fetch(ctx, targetURL, headers)
	if err != nil {
		zap.L().Warn("fetch: fallback client failed",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return Result{}
	}
	if status == 0 {
		return Result{}
	}
	return Result{
		OK:     status >= 200 && status < 400,
		Status: status,
		Body:   string(body),
	}
}
