// Package transport issues outbound HTTP requests on behalf of the provider
// clients: one global minimum interval between requests, bounded
// exponential-backoff retries on 429/503/504 with Retry-After support, an
// optional curl fallback for connectivity-level failures, and an optional
// circuit breaker so a persistently dead upstream stops consuming the retry
// budget.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/metrics"
)

const (
	defaultMaxRetries  = 3
	defaultBaseDelay   = time.Second
	defaultTimeout     = 15 * time.Second
	maxResponseBytes   = 16 << 20
	breakerFailures    = 5
	breakerOpenTimeout = 30 * time.Second
)

// Doer abstracts *http.Client for testing.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls a Transport.
type Config struct {
	Name           string // provider label used in logs and metrics
	MinInterval    time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	HTTPClient     *http.Client
	UserAgent      string
	CurlFallback   bool
	BreakerEnabled bool
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
}

// Transport is safe for concurrent use. The shared last-request state lives
// inside the rate limiter, which serializes the check-then-update sequence.
type Transport struct {
	name       string
	limiter    *rate.Limiter
	client     Doer
	maxRetries int
	baseDelay  time.Duration
	userAgent  string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    *metrics.Recorder

	// Injectable for tests.
	runFallback func(ctx context.Context, url string) ([]byte, error)
	sleep       func(ctx context.Context, d time.Duration) error
}

// New constructs a Transport with the provided configuration.
func New(cfg Config) *Transport {
	t := &Transport{
		name:       cfg.Name,
		client:     resolveHTTPClient(cfg.HTTPClient),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		sleep:      sleepCtx,
	}
	if t.maxRetries < 0 {
		t.maxRetries = 0
	} else if t.maxRetries == 0 {
		t.maxRetries = defaultMaxRetries
	}
	if t.baseDelay <= 0 {
		t.baseDelay = defaultBaseDelay
	}
	if cfg.MinInterval > 0 {
		t.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	if cfg.CurlFallback {
		t.runFallback = runCurl
	}
	if cfg.BreakerEnabled {
		t.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    cfg.Name,
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			// Rate limiting is the upstream protecting itself, not an
			// outage; it must not open the breaker.
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				_, rateLimited := AsRateLimit(err)
				return rateLimited
			},
		})
	}
	return t
}

// NoRetry configures a transport with retries disabled, for upstreams with
// loose rate limits where a failed call should surface immediately.
const NoRetry = -1

// Get fetches the URL body, honoring the minimum inter-request interval and
// the retry policy. Errors are *NetworkError, *RateLimitError, or
// *UpstreamError; context cancellation passes through unchanged.
func (t *Transport) Get(ctx context.Context, url string) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if t.breaker != nil {
		body, err := t.breaker.Execute(func() ([]byte, error) {
			return t.fetch(ctx, url)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &NetworkError{URL: url, Err: err}
		}
		return body, err
	}
	return t.fetch(ctx, url)
}

func (t *Transport) fetch(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	for attempt := 0; ; attempt++ {
		start := time.Now()
		body, status, header, err := t.do(ctx, url)
		t.metrics.RecordProviderAttempt(t.name, time.Since(start), err)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if t.runFallback != nil {
				logging.Warn(t.logger, "transport unreachable, trying fallback",
					slog.String(logging.FieldProvider, t.name), "error", err)
				if fbBody, fbErr := t.runFallback(ctx, url); fbErr == nil {
					return fbBody, nil
				}
			}
			return nil, &NetworkError{URL: url, Err: err}
		}

		if status >= 200 && status < 300 {
			return body, nil
		}

		retryAfter := parseRetryAfter(header.Get("Retry-After"))
		switch status {
		case http.StatusTooManyRequests:
			t.metrics.RecordRateLimit(t.name, retryAfter)
			if attempt >= t.maxRetries {
				return nil, &RateLimitError{RetryAfter: retryAfter}
			}
		case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			if attempt >= t.maxRetries {
				return nil, &UpstreamError{StatusCode: status}
			}
		default:
			return nil, &UpstreamError{StatusCode: status}
		}

		delay := bo.NextBackOff()
		if retryAfter > 0 {
			delay = retryAfter
		}
		logging.Warn(t.logger, "retrying after upstream pushback",
			slog.String(logging.FieldProvider, t.name),
			slog.Int(logging.FieldStatusCode, status),
			slog.Int64(logging.FieldDurationMS, delay.Milliseconds()),
			"attempt", attempt+1,
		)
		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (t *Transport) do(ctx context.Context, url string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, nil, err
	}
	return body, resp.StatusCode, resp.Header, nil
}

func resolveHTTPClient(client *http.Client) Doer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultTimeout}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// runCurl shells out to curl as a second network path when the in-process
// client cannot reach the upstream at all.
func runCurl(ctx context.Context, url string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "curl", "-fsSL", "--max-time", "30", url).Output()
	if err != nil {
		return nil, fmt.Errorf("curl fallback: %w", err)
	}
	return out, nil
}
