package snapshots

import (
	"fmt"
	"path/filepath"
)

// RaceKey builds the canonical artifact prefix for one race, with the round
// zero-padded so lexical sorting matches calendar order.
func RaceKey(season string, round int) string {
	return fmt.Sprintf("%s-%02d", season, round)
}

// IndexPath builds the path to the per-race index artifact.
func IndexPath(basePath, season string, round int) string {
	return filepath.Join(basePath, RaceKey(season, round)+".json")
}

// DriverPath builds the path to one driver's lap artifact.
func DriverPath(basePath, season string, round int, driverID string) string {
	return filepath.Join(basePath, DriverFile(season, round, driverID))
}

// DriverFile is the bare file name of a driver artifact, as referenced from
// the index.
func DriverFile(season string, round int, driverID string) string {
	return fmt.Sprintf("%s-%s.json", RaceKey(season, round), driverID)
}
