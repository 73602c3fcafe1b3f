package snapshots

import (
	"errors"
	"os"

	json "github.com/goccy/go-json"
)

// Store defines how persisted race artifacts are loaded back.
type Store interface {
	LoadRaceIndex(season string, round int) (RaceIndex, error)
	LoadDriverSnapshot(season string, round int, driverID string) (DriverSnapshot, error)
}

// FSStore loads artifacts from the filesystem layout the Writer produces.
type FSStore struct {
	basePath string
}

// NewFSStore constructs an FS-backed store rooted at basePath.
func NewFSStore(basePath string) *FSStore {
	return &FSStore{basePath: basePath}
}

// LoadRaceIndex reads the per-race index artifact.
func (s *FSStore) LoadRaceIndex(season string, round int) (RaceIndex, error) {
	var index RaceIndex
	if err := s.decodeFile(IndexPath(s.basePath, season, round), &index); err != nil {
		return RaceIndex{}, err
	}
	return index, nil
}

// LoadDriverSnapshot reads one driver's lap artifact.
func (s *FSStore) LoadDriverSnapshot(season string, round int, driverID string) (DriverSnapshot, error) {
	var snapshot DriverSnapshot
	if err := s.decodeFile(DriverPath(s.basePath, season, round, driverID), &snapshot); err != nil {
		return DriverSnapshot{}, err
	}
	return snapshot, nil
}

// Manifest reads the snapshot manifest; a missing manifest is an empty one.
func (s *FSStore) Manifest() Manifest {
	if s == nil {
		return Manifest{Seasons: map[string][]string{}}
	}
	return readManifest(s.basePath)
}

func (s *FSStore) decodeFile(path string, payload any) error {
	if s == nil {
		return errors.New("snapshot store not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(payload)
}
