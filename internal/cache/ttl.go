package cache

import "time"

// TTLs per logical dataset. Schedules move rarely; standings shift between
// sessions; the last race result is the freshest surface we serve.
const (
	TTLSchedule  = time.Hour
	TTLStandings = 30 * time.Minute
	TTLLastRace  = 5 * time.Minute
	TTLResults   = time.Hour
	TTLLaps      = time.Hour
	TTLSessions  = time.Hour
	TTLBiography = 24 * time.Hour
)
