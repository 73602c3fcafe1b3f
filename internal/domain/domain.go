package domain

import "time"

// SeasonCurrent is the sentinel season accepted wherever a year is expected.
const SeasonCurrent = "current"

// Race describes one round of a season's calendar.
type Race struct {
	Season    string `json:"season"`
	Round     int    `json:"round"`
	RaceName  string `json:"raceName"`
	CircuitID string `json:"circuitId"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
}

// IsPast reports whether the race start is before now. It is derived at read
// time, never stored. A race with an unparsable date is treated as upcoming.
func (r Race) IsPast(now time.Time) bool {
	start, ok := r.StartTime()
	if !ok {
		return false
	}
	return start.Before(now)
}

// StartTime combines the race date and optional time into a UTC instant.
func (r Race) StartTime() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}
	clock := r.Time
	if clock == "" {
		clock = "00:00:00Z"
	}
	t, err := time.Parse(time.RFC3339, r.Date+"T"+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Driver identifies a driver as known to the primary provider. DriverID is a
// stable join key only within that provider; the secondary provider has no
// equivalent and is matched by normalized family name.
type Driver struct {
	DriverID        string `json:"driverId"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	Nationality     string `json:"nationality,omitempty"`
	PermanentNumber string `json:"permanentNumber,omitempty"`
	Code            string `json:"code,omitempty"`
	URL             string `json:"url,omitempty"`
}

// FullName returns the display name.
func (d Driver) FullName() string {
	if d.GivenName == "" {
		return d.FamilyName
	}
	if d.FamilyName == "" {
		return d.GivenName
	}
	return d.GivenName + " " + d.FamilyName
}

// Constructor identifies a team. ConstructorID should be canonicalized
// through the teams alias table before lookups.
type Constructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality,omitempty"`
}

// StandingEntry is one driver's season-to-date championship position.
type StandingEntry struct {
	Position     int           `json:"position"`
	Points       float64       `json:"points"`
	Wins         int           `json:"wins"`
	Driver       Driver        `json:"driver"`
	Constructors []Constructor `json:"constructors,omitempty"`
}

// Constructor returns the entry's current constructor, if any.
func (s StandingEntry) Constructor() Constructor {
	if len(s.Constructors) == 0 {
		return Constructor{}
	}
	return s.Constructors[len(s.Constructors)-1]
}

// ConstructorStanding is one team's season-to-date championship position.
type ConstructorStanding struct {
	Position    int         `json:"position"`
	Points      float64     `json:"points"`
	Wins        int         `json:"wins"`
	Constructor Constructor `json:"constructor"`
}

// RaceResult is a single classified finisher of a race.
type RaceResult struct {
	Position    int         `json:"position"`
	Grid        int         `json:"grid"`
	Points      float64     `json:"points"`
	Status      string      `json:"status,omitempty"`
	Driver      Driver      `json:"driver"`
	Constructor Constructor `json:"constructor"`
	FastestLap  *FastestLap `json:"fastestLap,omitempty"`
}

// FastestLap is the fastest-lap annotation attached to a race result.
type FastestLap struct {
	Rank int    `json:"rank"`
	Lap  int    `json:"lap"`
	Time string `json:"time"`
}

// QualifyingResult is one driver's qualifying classification. Q2 and Q3 are
// empty for drivers eliminated in an earlier segment.
type QualifyingResult struct {
	Position    int         `json:"position"`
	Driver      Driver      `json:"driver"`
	Constructor Constructor `json:"constructor"`
	Q1          string      `json:"q1,omitempty"`
	Q2          string      `json:"q2,omitempty"`
	Q3          string      `json:"q3,omitempty"`
}

// Classification is the full result sheet of one race.
type Classification struct {
	Season   string       `json:"season"`
	Round    int          `json:"round"`
	RaceName string       `json:"raceName"`
	Results  []RaceResult `json:"results"`
}

// LapRecord is one completed lap. Within a driver's race, lap numbers are
// unique and strictly increasing once reconciled.
type LapRecord struct {
	Lap  int    `json:"lap"`
	Time string `json:"time"`
}
