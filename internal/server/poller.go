package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/metrics"
)

const defaultPollInterval = 30 * time.Minute

// ScheduleProvider is the slice of the primary client the poller needs.
type ScheduleProvider interface {
	SeasonSchedule(ctx context.Context, season string) ([]domain.Race, error)
}

// Poller refreshes the current season schedule on an interval so the cache
// stays warm and readiness reflects upstream health.
type Poller struct {
	provider ScheduleProvider
	logger   *slog.Logger
	metrics  *metrics.Recorder
	interval time.Duration

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the poller loop.
type Status struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// IsReady reports whether the poller has had a recent success and is not
// failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// NewPoller constructs a Poller with sane defaults.
func NewPoller(provider ScheduleProvider, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		provider: provider,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	p.ticker = time.NewTicker(p.interval)

	go func() {
		logging.Info(p.logger, "schedule poller started",
			slog.Int64(logging.FieldDurationMS, p.interval.Milliseconds()))
		// Initial fetch to warm the schedule on boot.
		p.fetchOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				p.stopTicker()
				logging.Info(p.logger, "schedule poller stopped")
				return
			case <-p.done:
				p.stopTicker()
				logging.Info(p.logger, "schedule poller stopped")
				return
			case <-p.ticker.C:
				p.fetchOnce(ctx)
			}
		}
	}()
}

// Stop halts the polling loop.
func (p *Poller) Stop(context.Context) error {
	p.stopOnce.Do(func() {
		close(p.done)
		p.stopTicker()
	})
	return nil
}

// Status returns a copy of the current poller status.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

func (p *Poller) fetchOnce(ctx context.Context) {
	start := time.Now()
	races, err := p.provider.SeasonSchedule(ctx, domain.SeasonCurrent)
	p.metrics.RecordPollerCycle(time.Since(start), err)

	p.statusMu.Lock()
	p.status.LastAttempt = start
	if err != nil {
		p.status.ConsecutiveFailures++
		p.status.LastError = err.Error()
	} else {
		p.status.ConsecutiveFailures = 0
		p.status.LastError = ""
		p.status.LastSuccess = start
	}
	p.statusMu.Unlock()

	if err != nil {
		logging.Error(p.logger, "schedule refresh failed", err,
			slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()))
		return
	}
	logging.Info(p.logger, "schedule refreshed",
		slog.Int(logging.FieldCount, len(races)),
		slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()))
}

func (p *Poller) stopTicker() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}
