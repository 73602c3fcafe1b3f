package snapshots

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

// Manifest tracks which race artifacts exist per season, so consumers can
// discover snapshots without listing the directory.
type Manifest struct {
	Seasons       map[string][]string `json:"seasons"`
	LastRefreshed time.Time           `json:"lastRefreshed"`
}

func manifestPath(basePath string) string {
	return filepath.Join(basePath, "manifest.json")
}

func readManifest(basePath string) Manifest {
	m := Manifest{Seasons: make(map[string][]string)}
	data, err := os.ReadFile(manifestPath(basePath))
	if err != nil {
		return m
	}
	_ = json.Unmarshal(data, &m)
	if m.Seasons == nil {
		m.Seasons = make(map[string][]string)
	}
	return m
}

func (w *Writer) updateManifest(season, raceKey string) error {
	m := readManifest(w.basePath)
	keys := m.Seasons[season]
	found := false
	for _, k := range keys {
		if k == raceKey {
			found = true
			break
		}
	}
	if !found {
		keys = append(keys, raceKey)
		sort.Strings(keys)
		m.Seasons[season] = keys
	}
	m.LastRefreshed = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := manifestPath(w.basePath) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, manifestPath(w.basePath))
}
