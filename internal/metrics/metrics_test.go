package metrics

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecordProviderAttempt(t *testing.T) {
	r := NewRecorder()
	r.RecordProviderAttempt("ergast", 120*time.Millisecond, nil)
	r.RecordProviderAttempt("ergast", 80*time.Millisecond, errors.New("boom"))

	snap := r.Snapshot("ergast")
	if snap.Calls != 2 {
		t.Fatalf("expected 2 calls, got %d", snap.Calls)
	}
	if snap.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", snap.Errors)
	}
	if snap.LastCallLatency != 80*time.Millisecond {
		t.Fatalf("expected last latency recorded, got %v", snap.LastCallLatency)
	}
}

func TestRecordRateLimit(t *testing.T) {
	r := NewRecorder()
	r.RecordRateLimit("ergast", 2*time.Second)
	r.RecordRateLimit("ergast", 0)

	snap := r.Snapshot("ergast")
	if snap.RateLimitHits != 2 {
		t.Fatalf("expected 2 hits, got %d", snap.RateLimitHits)
	}
	if snap.LastRetryAfter != 2*time.Second {
		t.Fatalf("expected zero retry-after to be ignored, got %v", snap.LastRetryAfter)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	r := NewRecorder()
	r.RecordCacheLookup("laps", true)
	r.RecordCacheLookup("laps", true)
	r.RecordCacheLookup("laps", false)

	if got := r.CacheHits("laps"); got != 2 {
		t.Fatalf("expected 2 hits, got %d", got)
	}
	if got := r.CacheMisses("laps"); got != 1 {
		t.Fatalf("expected 1 miss, got %d", got)
	}
	if got := r.CacheHits("schedule"); got != 0 {
		t.Fatalf("expected untouched dataset to be zero, got %d", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.RecordProviderAttempt("x", time.Second, nil)
	r.RecordRateLimit("x", time.Second)
	r.RecordCacheLookup("x", true)
	r.RecordBatchDriver(false)
	r.RecordHTTPRequest("GET", "/", 200, time.Second)
	r.RecordPollerCycle(time.Second, nil)
	if snap := r.Snapshot("x"); snap.Calls != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSetupDisabled(t *testing.T) {
	rec, handler, shutdown, err := Setup(context.Background(), TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a recorder even when disabled")
	}
	if handler != nil {
		t.Fatal("expected no handler when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown should be a no-op, got %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	rec, handler, shutdown, err := Setup(context.Background(), TelemetryConfig{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if rec == nil || handler == nil {
		t.Fatal("expected recorder and prometheus handler")
	}
	rec.RecordProviderAttempt("ergast", time.Millisecond, nil)
	rec.RecordCacheLookup("laps", false)
	rec.RecordBatchDriver(true)
}
