package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newTestTransport(client *http.Client) (*Transport, *[]time.Duration) {
	t := New(Config{Name: "test", HTTPClient: client, BaseDelay: 10 * time.Millisecond})
	var slept []time.Duration
	var mu sync.Mutex
	t.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
		return nil
	}
	return t, &slept
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr, _ := newTestTransport(srv.Client())
	body, err := tr.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRetryAfterHeaderHonored(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr, slept := newTestTransport(srv.Client())
	if _, err := tr.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(*slept) != 1 || (*slept)[0] != 2*time.Second {
		t.Fatalf("expected a single 2s delay, got %v", *slept)
	}
}

func TestBackoffDoublesWithoutRetryAfter(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr, slept := newTestTransport(srv.Client())
	if _, err := tr.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("delay %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
}

func TestRateLimitExhaustion(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr, _ := newTestTransport(srv.Client())
	_, err := tr.Get(context.Background(), srv.URL)
	rlErr, ok := AsRateLimit(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rlErr.RetryAfter != time.Second {
		t.Fatalf("expected retry-after carried, got %v", rlErr.RetryAfter)
	}
	// Initial attempt plus the default three retries.
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
}

func TestNonRetryableStatusFailsImmediately(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr, _ := newTestTransport(srv.Client())
	_, err := tr.Get(context.Background(), srv.URL)
	upErr, ok := AsUpstream(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", upErr.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}

func TestMinIntervalThrottles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	interval := 60 * time.Millisecond
	tr := New(Config{Name: "test", HTTPClient: srv.Client(), MinInterval: interval})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := tr.Get(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// First request may fire immediately; the next two must wait one
	// interval each.
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("expected at least %v elapsed, got %v", 2*interval, elapsed)
	}
}

type failingDoer struct{ err error }

func (f failingDoer) Do(*http.Request) (*http.Response, error) { return nil, f.err }

func TestFallbackUsedOnConnectivityFailure(t *testing.T) {
	tr := New(Config{Name: "test", CurlFallback: true})
	tr.client = failingDoer{err: errors.New("dial tcp: no route to host")}
	var fallbackCalls int
	tr.runFallback = func(_ context.Context, _ string) ([]byte, error) {
		fallbackCalls++
		return []byte("from-fallback"), nil
	}

	body, err := tr.Get(context.Background(), "http://unreachable.invalid/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "from-fallback" {
		t.Fatalf("unexpected body %q", body)
	}
	if fallbackCalls != 1 {
		t.Fatalf("expected one fallback call, got %d", fallbackCalls)
	}
}

func TestFallbackFailurePropagatesNetworkError(t *testing.T) {
	tr := New(Config{Name: "test", CurlFallback: true})
	tr.client = failingDoer{err: errors.New("dial tcp: no route to host")}
	tr.runFallback = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("curl: (6) could not resolve host")
	}

	_, err := tr.Get(context.Background(), "http://unreachable.invalid/x")
	if _, ok := AsNetwork(err); !ok {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestNoFallbackPropagatesNetworkError(t *testing.T) {
	tr := New(Config{Name: "test"})
	tr.client = failingDoer{err: errors.New("dial tcp: connection refused")}

	_, err := tr.Get(context.Background(), "http://unreachable.invalid/x")
	if _, ok := AsNetwork(err); !ok {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	tr := New(Config{Name: "test", BreakerEnabled: true, MaxRetries: NoRetry})
	tr.client = failingDoer{err: errors.New("dial tcp: connection refused")}

	for i := 0; i < breakerFailures; i++ {
		if _, err := tr.Get(context.Background(), "http://unreachable.invalid/x"); err == nil {
			t.Fatal("expected failure")
		}
	}

	// The breaker should now be open: no further calls reach the client.
	tr.client = failingDoer{err: errors.New("should not be reached")}
	_, err := tr.Get(context.Background(), "http://unreachable.invalid/x")
	netErr, ok := AsNetwork(err)
	if !ok {
		t.Fatalf("expected NetworkError from open breaker, got %v", err)
	}
	if netErr.Err == nil {
		t.Fatal("expected wrapped breaker error")
	}
}

func TestNoRetryDisablesRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := New(Config{Name: "test", HTTPClient: srv.Client(), MaxRetries: NoRetry})
	if _, err := tr.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := parseRetryAfter("-1"); got != 0 {
		t.Fatalf("expected negative values ignored, got %v", got)
	}
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 10*time.Second {
		t.Fatalf("expected positive duration from HTTP date, got %v", got)
	}
}
