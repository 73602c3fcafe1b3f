package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type cacheStats struct {
	hits   int
	misses int
}

// Recorder captures lightweight, in-memory metrics about provider calls,
// cache behavior, and batch progress. It mirrors everything to the otel
// instruments when telemetry is enabled.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*providerStats
	cache map[string]*cacheStats
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		cache: make(map[string]*cacheStats),
		otel:  otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores
// the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats := r.ensureStats(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and
// stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats := r.ensureStats(provider)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// RecordCacheLookup tracks a cache hit or miss for a logical dataset.
func (r *Recorder) RecordCacheLookup(dataset string, hit bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats, ok := r.cache[dataset]
	if !ok {
		stats = &cacheStats{}
		r.cache[dataset] = stats
	}
	if hit {
		stats.hits++
	} else {
		stats.misses++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordCacheLookup(dataset, hit)
	}
}

// RecordBatchDriver tracks one completed driver fetch inside a batch.
func (r *Recorder) RecordBatchDriver(failed bool) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordBatchDriver(failed)
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordPollerCycle tracks cache-warming cycles and errors.
func (r *Recorder) RecordPollerCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordPoller(duration, err)
}

// Snapshot is a copy of the current stats for a provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[provider]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// CacheHits returns recorded hits for a dataset.
func (r *Recorder) CacheHits(dataset string) int {
	h, _ := r.cacheCounts(dataset)
	return h
}

// CacheMisses returns recorded misses for a dataset.
func (r *Recorder) CacheMisses(dataset string) int {
	_, m := r.cacheCounts(dataset)
	return m
}

func (r *Recorder) cacheCounts(dataset string) (int, int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.cache[dataset]; ok {
		return stats.hits, stats.misses
	}
	return 0, 0
}

// ensureStats must be called with r.mu held.
func (r *Recorder) ensureStats(provider string) *providerStats {
	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}
