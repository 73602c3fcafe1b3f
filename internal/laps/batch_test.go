package laps

import (
	"context"
	"sync"
	"testing"

	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/providers"
)

type panickyHistory struct {
	fakeHistory
	panicOn string
}

func (p *panickyHistory) DriverLaps(ctx context.Context, season string, round int, driverID string) providers.DriverLaps {
	if driverID == p.panicOn {
		panic("boom")
	}
	return p.fakeHistory.DriverLaps(ctx, season, round, driverID)
}

func TestBatchIsolation(t *testing.T) {
	history := &panickyHistory{
		fakeHistory: fakeHistory{
			raceLaps: providers.RaceLaps{Complete: true},
			driverLaps: map[string]providers.DriverLaps{
				"hamilton": {DriverID: "hamilton", Laps: lapSeq("1:31.000")},
				"russell":  {DriverID: "russell", Laps: lapSeq("1:31.100")},
				"alonso":   {DriverID: "alonso", Laps: lapSeq("1:31.300")},
				"stroll":   {DriverID: "stroll", Laps: lapSeq("1:31.400")},
			},
		},
		panicOn: "leclerc",
	}
	e := New(Config{History: history, Bulk: history, GroupSize: 5})

	drivers := []string{"hamilton", "russell", "leclerc", "alonso", "stroll"}
	results := e.FetchBatch(context.Background(), "2024", 1, drivers, nil)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.DriverID != drivers[i] {
			t.Fatalf("result %d: expected %s, got %s", i, drivers[i], r.DriverID)
		}
	}
	if results[2].Error != providers.LapErrorFetchFailed {
		t.Fatalf("expected panicked driver marked fetch_failed, got %q", results[2].Error)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if results[i].Error != "" || len(results[i].Laps) != 1 {
			t.Fatalf("result %d: expected valid data, got %+v", i, results[i])
		}
	}
}

func TestBatchProgressPerDriver(t *testing.T) {
	history := &fakeHistory{
		raceLaps: providers.RaceLaps{Complete: true},
		driverLaps: map[string]providers.DriverLaps{
			"hamilton": {DriverID: "hamilton", Laps: lapSeq("1:31.000")},
			"russell":  {DriverID: "russell", Laps: lapSeq("1:31.100")},
			"alonso":   {DriverID: "alonso", Laps: lapSeq("1:31.200")},
		},
	}
	e := New(Config{History: history, Bulk: history, GroupSize: 2})

	var mu sync.Mutex
	var counts []int
	total := 0
	e.FetchBatch(context.Background(), "2024", 1, []string{"hamilton", "russell", "alonso"},
		func(completed, batchTotal int, _ string) {
			mu.Lock()
			counts = append(counts, completed)
			total = batchTotal
			mu.Unlock()
		})

	if len(counts) != 3 {
		t.Fatalf("expected progress after every driver, got %d calls", len(counts))
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	seen := map[int]bool{}
	for _, c := range counts {
		seen[c] = true
	}
	for want := 1; want <= 3; want++ {
		if !seen[want] {
			t.Fatalf("expected running counts 1..3, got %v", counts)
		}
	}
}

// A group of drivers cache-missing together must coalesce onto one bulk
// race fetch rather than each paginating the primary independently.
func TestBatchSharesSingleBulkFetch(t *testing.T) {
	drivers := []string{"hamilton", "russell", "leclerc", "alonso", "stroll"}
	history := &fakeHistory{
		raceLaps: providers.RaceLaps{
			Laps: map[string][]domain.LapRecord{
				"hamilton": lapSeq("1:31.000"),
				"russell":  lapSeq("1:31.100"),
				"leclerc":  lapSeq("1:31.200"),
				"alonso":   lapSeq("1:31.300"),
				"stroll":   lapSeq("1:31.400"),
			},
			Complete: true,
		},
	}
	e := New(Config{History: history, Bulk: history, GroupSize: 5})

	results := e.FetchBatch(context.Background(), "2024", 1, drivers, nil)
	for i, r := range results {
		if r.Error != "" || len(r.Laps) != 1 {
			t.Fatalf("result %d: expected one clean lap, got %+v", i, r)
		}
	}
	if history.raceLapCalls != 1 {
		t.Fatalf("expected one bulk fetch for the group, got %d", history.raceLapCalls)
	}
	if history.driverLapCalls != 0 {
		t.Fatalf("expected no per-driver fallback, got %d calls", history.driverLapCalls)
	}
}

func TestBatchGroupSizeBounded(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	history := &gateHistory{enter: func() {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
	}, leave: func() {
		mu.Lock()
		inFlight--
		mu.Unlock()
	}}
	e := New(Config{History: history, Bulk: history, GroupSize: 2})

	e.FetchBatch(context.Background(), "2024", 1,
		[]string{"a", "b", "c", "d", "e", "f"}, nil)
	if maxInFlight > 2 {
		t.Fatalf("expected at most 2 concurrent fetches, got %d", maxInFlight)
	}
}

type gateHistory struct {
	fakeHistory
	enter func()
	leave func()
}

func (g *gateHistory) DriverLaps(_ context.Context, _ string, _ int, driverID string) providers.DriverLaps {
	g.enter()
	defer g.leave()
	return providers.DriverLaps{DriverID: driverID}
}
