package laps

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/providers"
)

// BatchResult is one driver's outcome within a batch fetch. Error carries a
// lap annotation when the fetch degraded; Laps may still hold partial data.
type BatchResult struct {
	DriverID string             `json:"driverId"`
	Laps     []domain.LapRecord `json:"laps"`
	Error    string             `json:"error,omitempty"`
	Total    int                `json:"total"`
}

// ProgressFunc is invoked after each individual driver completes, not after
// each group.
type ProgressFunc func(completed, total int, driverID string)

// FetchBatch fetches laps for a set of drivers in fixed-size concurrent
// groups, respecting upstream rate limits while still parallelizing. Each
// driver's failure is isolated: a panic or degraded fetch marks that entry
// and the rest of the batch proceeds.
func (e *Engine) FetchBatch(ctx context.Context, season string, round int, driverIDs []string, onProgress ProgressFunc) []BatchResult {
	results := make([]BatchResult, len(driverIDs))

	var mu sync.Mutex
	completed := 0
	progress := func(driverID string) {
		mu.Lock()
		completed++
		done := completed
		mu.Unlock()
		if onProgress != nil {
			onProgress(done, len(driverIDs), driverID)
		}
	}

	for start := 0; start < len(driverIDs); start += e.groupSize {
		end := start + e.groupSize
		if end > len(driverIDs) {
			end = len(driverIDs)
		}

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						logging.Error(e.logger, "lap fetch panicked",
							fmt.Errorf("%v", r), "driver", driverIDs[i])
						results[i] = BatchResult{
							DriverID: driverIDs[i],
							Laps:     []domain.LapRecord{},
							Error:    providers.LapErrorFetchFailed,
						}
						e.metrics.RecordBatchDriver(true)
						progress(driverIDs[i])
					}
				}()

				laps, annotation := e.lapsForDriver(ctx, season, round, driverIDs[i])
				results[i] = BatchResult{
					DriverID: driverIDs[i],
					Laps:     laps,
					Error:    annotation,
					Total:    len(laps),
				}
				e.metrics.RecordBatchDriver(annotation != "")
				progress(driverIDs[i])
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}
