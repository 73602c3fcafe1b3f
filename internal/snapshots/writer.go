// Package snapshots persists lap data as JSON artifacts for offline
// consumption: a per-race index listing participating drivers, plus one
// file per driver with the raw lap sequence and identity metadata.
package snapshots

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"f1-stats-service/internal/domain"
)

// DriverSnapshot is the per-driver artifact payload.
type DriverSnapshot struct {
	Season      string             `json:"season"`
	Round       int                `json:"round"`
	RaceName    string             `json:"raceName"`
	Driver      domain.Driver      `json:"driver"`
	Constructor domain.Constructor `json:"constructor"`
	Laps        []domain.LapRecord `json:"laps"`
	LapError    string             `json:"lapError,omitempty"`
}

// IndexEntry summarizes one driver inside the per-race index.
type IndexEntry struct {
	DriverID    string             `json:"driverId"`
	Driver      domain.Driver      `json:"driver"`
	Constructor domain.Constructor `json:"constructor"`
	HasLapData  bool               `json:"hasLapData"`
	LapError    string             `json:"lapError,omitempty"`
	File        string             `json:"file"`
}

// RaceIndex is the per-race index artifact payload.
type RaceIndex struct {
	Season    string       `json:"season"`
	Round     int          `json:"round"`
	RaceName  string       `json:"raceName"`
	CircuitID string       `json:"circuitId,omitempty"`
	Drivers   []IndexEntry `json:"drivers"`
}

// Writer persists race artifacts and keeps the manifest current.
type Writer struct {
	basePath string
}

// NewWriter constructs a writer rooted at basePath.
func NewWriter(basePath string) *Writer {
	return &Writer{basePath: basePath}
}

// BasePath exposes the writer root path (primarily for testing).
func (w *Writer) BasePath() string {
	if w == nil {
		return ""
	}
	return w.basePath
}

// WriteDriverSnapshot writes one driver's lap artifact.
func (w *Writer) WriteDriverSnapshot(snapshot DriverSnapshot) error {
	if w == nil {
		return fmt.Errorf("snapshot writer not configured")
	}
	if snapshot.Season == "" || snapshot.Round < 1 {
		return fmt.Errorf("season and round required")
	}
	if snapshot.Laps == nil {
		snapshot.Laps = []domain.LapRecord{}
	}
	target := DriverPath(w.basePath, snapshot.Season, snapshot.Round, snapshot.Driver.DriverID)
	return w.writeJSON(target, snapshot)
}

// WriteRaceIndex writes the per-race index and updates the manifest.
// Entries are sorted by driver ID so repeated runs produce identical bytes.
func (w *Writer) WriteRaceIndex(index RaceIndex) error {
	if w == nil {
		return fmt.Errorf("snapshot writer not configured")
	}
	if index.Season == "" || index.Round < 1 {
		return fmt.Errorf("season and round required")
	}
	sort.Slice(index.Drivers, func(i, j int) bool {
		return index.Drivers[i].DriverID < index.Drivers[j].DriverID
	})
	target := IndexPath(w.basePath, index.Season, index.Round)
	if err := w.writeJSON(target, index); err != nil {
		return err
	}
	return w.updateManifest(index.Season, RaceKey(index.Season, index.Round))
}

// writeJSON writes atomically via a temp file and skips the write entirely
// when the content is unchanged.
func (w *Writer) writeJSON(target string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}
