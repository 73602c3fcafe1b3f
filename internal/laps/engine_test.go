package laps

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/providers"
)

type fakeHistory struct {
	mu             sync.Mutex
	driverLapCalls int
	raceLapCalls   int
	driverLaps     map[string]providers.DriverLaps
	raceLaps       providers.RaceLaps
}

func (f *fakeHistory) SeasonSchedule(context.Context, string) ([]domain.Race, error) {
	return nil, nil
}

func (f *fakeHistory) DriverStandings(context.Context, string, int) ([]domain.StandingEntry, error) {
	return nil, nil
}

func (f *fakeHistory) ConstructorStandings(context.Context, string) ([]domain.ConstructorStanding, error) {
	return nil, nil
}

func (f *fakeHistory) RaceResults(context.Context, string, int) (domain.Classification, bool, error) {
	return domain.Classification{}, false, nil
}

func (f *fakeHistory) DriverLaps(_ context.Context, _ string, _ int, driverID string) providers.DriverLaps {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.driverLapCalls++
	if result, ok := f.driverLaps[driverID]; ok {
		return result
	}
	return providers.DriverLaps{DriverID: driverID}
}

func (f *fakeHistory) RaceLaps(context.Context, string, int) providers.RaceLaps {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raceLapCalls++
	return f.raceLaps
}

type fakeTelemetry struct {
	sessionCalls int
	lapCalls     int
	sessionKey   int
	sessionOK    bool
	numbers      map[string]int
	laps         map[int][]domain.LapRecord
}

func (f *fakeTelemetry) ResolveSession(context.Context, string, int) (int, bool, error) {
	f.sessionCalls++
	return f.sessionKey, f.sessionOK, nil
}

func (f *fakeTelemetry) DriverNumber(_ context.Context, _ int, driverID string) (int, bool) {
	n, ok := f.numbers[driverID]
	return n, ok
}

func (f *fakeTelemetry) LapsForDriver(_ context.Context, _, driverNumber int) ([]domain.LapRecord, error) {
	f.lapCalls++
	return f.laps[driverNumber], nil
}

func lapSeq(times ...string) []domain.LapRecord {
	laps := make([]domain.LapRecord, 0, len(times))
	for i, tm := range times {
		laps = append(laps, domain.LapRecord{Lap: i + 1, Time: tm})
	}
	return laps
}

func TestReconcileDedupKeepsFastest(t *testing.T) {
	raw := []domain.LapRecord{
		{Lap: 3, Time: "1:32.100"},
		{Lap: 3, Time: "1:31.500"},
		{Lap: 3, Time: "1:33.000"},
		{Lap: 1, Time: "1:35.000"},
	}
	out := Reconcile(raw)
	if len(out) != 2 {
		t.Fatalf("expected 2 laps, got %d", len(out))
	}
	if out[1].Lap != 3 || out[1].Time != "1:31.500" {
		t.Fatalf("expected fastest duplicate kept, got %+v", out[1])
	}
}

func TestReconcileDropsUnparsableSilently(t *testing.T) {
	raw := []domain.LapRecord{
		{Lap: 1, Time: "1:30.000"},
		{Lap: 2, Time: "garbage"},
		{Lap: 3, Time: "1:31.000"},
		{Lap: 4, Time: ""},
	}
	out := Reconcile(raw)
	if len(out) != 2 {
		t.Fatalf("expected unparsable laps dropped, got %d entries", len(out))
	}
}

func TestReconcileOrdering(t *testing.T) {
	raw := []domain.LapRecord{
		{Lap: 14, Time: "1:31.000"},
		{Lap: 2, Time: "1:32.000"},
		{Lap: 7, Time: "1:33.000"},
	}
	out := Reconcile(raw)
	for i := 1; i < len(out); i++ {
		if out[i-1].Lap >= out[i].Lap {
			t.Fatalf("lap numbers not strictly increasing: %+v", out)
		}
	}
}

func TestBulkFanOutPopulatesDriverCache(t *testing.T) {
	history := &fakeHistory{
		raceLaps: providers.RaceLaps{
			Laps: map[string][]domain.LapRecord{
				"max_verstappen": lapSeq("1:31.000", "1:30.500"),
				"norris":         lapSeq("1:31.200", "1:30.900"),
			},
			Complete: true,
		},
	}
	e := New(Config{History: history, Bulk: history})

	race := e.LapsForRace(context.Background(), "2024", 1)
	if len(race) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(race))
	}

	// The single-driver lookup must be served from the fan-out, with no
	// further provider calls.
	laps := e.LapsForDriver(context.Background(), "2024", 1, "norris")
	if len(laps) != 2 {
		t.Fatalf("expected 2 laps, got %d", len(laps))
	}
	if history.raceLapCalls != 1 || history.driverLapCalls != 0 {
		t.Fatalf("expected no extra provider calls, got race=%d driver=%d",
			history.raceLapCalls, history.driverLapCalls)
	}
}

func TestPartialBulkNotCached(t *testing.T) {
	history := &fakeHistory{
		raceLaps: providers.RaceLaps{
			Laps: map[string][]domain.LapRecord{
				"max_verstappen": lapSeq("1:31.000"),
			},
			Complete: false,
			LapError: providers.LapErrorRateLimited,
		},
	}
	e := New(Config{History: history, Bulk: history})

	first := e.LapsForRace(context.Background(), "2024", 1)
	if len(first["max_verstappen"]) != 1 {
		t.Fatalf("expected partial data returned, got %+v", first)
	}
	_ = e.LapsForRace(context.Background(), "2024", 1)
	if history.raceLapCalls != 2 {
		t.Fatalf("expected partial aggregate refetched, got %d calls", history.raceLapCalls)
	}
}

func TestCompleteEmptyAggregateCached(t *testing.T) {
	history := &fakeHistory{raceLaps: providers.RaceLaps{Complete: true}}
	e := New(Config{History: history, Bulk: history})

	_ = e.LapsForDriver(context.Background(), "2024", 1, "norris")
	_ = e.LapsForDriver(context.Background(), "2024", 1, "alonso")
	if history.raceLapCalls != 1 {
		t.Fatalf("expected one bulk fetch for an empty round, got %d", history.raceLapCalls)
	}
}

func TestRaceAggregateSurvivesRestartViaArchive(t *testing.T) {
	archive, err := cache.OpenArchive(t.TempDir())
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer archive.Close()

	history := &fakeHistory{
		raceLaps: providers.RaceLaps{
			Laps: map[string][]domain.LapRecord{
				"norris": lapSeq("1:31.200", "1:30.900"),
			},
			Complete: true,
		},
	}
	warm := New(Config{History: history, Bulk: history, Archive: archive})
	_ = warm.LapsForRace(context.Background(), "2024", 1)

	// A fresh engine with a cold memory cache reads the aggregate back
	// from the archive instead of refetching.
	cold := New(Config{History: history, Bulk: history, Archive: archive})
	race := cold.LapsForRace(context.Background(), "2024", 1)
	if len(race["norris"]) != 2 {
		t.Fatalf("expected archived aggregate, got %+v", race)
	}
	if history.raceLapCalls != 1 {
		t.Fatalf("expected no second bulk fetch, got %d", history.raceLapCalls)
	}
}

func TestFallbackChainUsesTelemetry(t *testing.T) {
	history := &fakeHistory{raceLaps: providers.RaceLaps{Complete: true}}
	telemetryLaps := make([]domain.LapRecord, 58)
	for i := range telemetryLaps {
		telemetryLaps[i] = domain.LapRecord{Lap: i + 1, Time: fmt.Sprintf("1:31.%03d", i)}
	}
	telemetry := &fakeTelemetry{
		sessionKey: 9472,
		sessionOK:  true,
		numbers:    map[string]int{"max_verstappen": 1},
		laps:       map[int][]domain.LapRecord{1: telemetryLaps},
	}
	e := New(Config{History: history, Bulk: history, Telemetry: telemetry})

	laps := e.LapsForDriver(context.Background(), "2024", 1, "max_verstappen")
	if len(laps) != 58 {
		t.Fatalf("expected 58 telemetry laps, got %d", len(laps))
	}
	if telemetry.lapCalls != 1 {
		t.Fatalf("expected one telemetry fetch, got %d", telemetry.lapCalls)
	}
}

func TestTotalExhaustionCachesEmpty(t *testing.T) {
	history := &fakeHistory{}
	telemetry := &fakeTelemetry{sessionOK: false}
	e := New(Config{History: history, Bulk: history, Telemetry: telemetry})

	laps := e.LapsForDriver(context.Background(), "2024", 1, "ghost")
	if laps == nil || len(laps) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", laps)
	}

	// Second call within TTL must not re-invoke either provider.
	raceCalls, driverCalls, sessionCalls := history.raceLapCalls, history.driverLapCalls, telemetry.sessionCalls
	_ = e.LapsForDriver(context.Background(), "2024", 1, "ghost")
	if history.raceLapCalls != raceCalls || history.driverLapCalls != driverCalls || telemetry.sessionCalls != sessionCalls {
		t.Fatal("expected cached empty result to suppress provider calls")
	}
}

func TestPerDriverPaginationFallback(t *testing.T) {
	history := &fakeHistory{
		raceLaps: providers.RaceLaps{Complete: true},
		driverLaps: map[string]providers.DriverLaps{
			"alonso": {DriverID: "alonso", Laps: lapSeq("1:33.000", "1:32.500")},
		},
	}
	e := New(Config{History: history, Bulk: history})

	laps := e.LapsForDriver(context.Background(), "2024", 1, "alonso")
	if len(laps) != 2 {
		t.Fatalf("expected per-driver pagination data, got %d laps", len(laps))
	}
	if history.driverLapCalls != 1 {
		t.Fatalf("expected one per-driver fetch, got %d", history.driverLapCalls)
	}

	// Clean per-driver results are cached.
	_ = e.LapsForDriver(context.Background(), "2024", 1, "alonso")
	if history.driverLapCalls != 1 {
		t.Fatalf("expected cached result, got %d fetches", history.driverLapCalls)
	}
}

func TestAnnotatedPartialNotCached(t *testing.T) {
	history := &fakeHistory{
		raceLaps: providers.RaceLaps{Complete: true},
		driverLaps: map[string]providers.DriverLaps{
			"stroll": {
				DriverID: "stroll",
				Laps:     lapSeq("1:34.000"),
				LapError: providers.LapErrorRateLimited,
			},
		},
	}
	e := New(Config{History: history, Bulk: history})

	laps, annotation := e.lapsForDriver(context.Background(), "2024", 1, "stroll")
	if len(laps) != 1 || annotation != providers.LapErrorRateLimited {
		t.Fatalf("expected annotated partial, got %d laps %q", len(laps), annotation)
	}
	_, _ = e.lapsForDriver(context.Background(), "2024", 1, "stroll")
	if history.driverLapCalls != 2 {
		t.Fatalf("expected partial result refetched, got %d calls", history.driverLapCalls)
	}
}
