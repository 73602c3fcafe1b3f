package ergast

import (
	"strconv"

	"f1-stats-service/internal/domain"
)

// The upstream wraps every payload in an MRData envelope and encodes all
// numbers as strings.
type mrData struct {
	MRData struct {
		Total          string          `json:"total"`
		RaceTable      *raceTable      `json:"RaceTable"`
		StandingsTable *standingsTable `json:"StandingsTable"`
		DriverTable    *driverTable    `json:"DriverTable"`
	} `json:"MRData"`
}

type raceTable struct {
	Races []raceWire `json:"Races"`
}

type raceWire struct {
	Season            string           `json:"season"`
	Round             string           `json:"round"`
	RaceName          string           `json:"raceName"`
	Circuit           circuitWire      `json:"Circuit"`
	Date              string           `json:"date"`
	Time              string           `json:"time"`
	Results           []resultWire     `json:"Results"`
	QualifyingResults []qualifyingWire `json:"QualifyingResults"`
	SprintResults     []resultWire     `json:"SprintResults"`
	Laps              []lapWire        `json:"Laps"`
}

type circuitWire struct {
	CircuitID   string `json:"circuitId"`
	CircuitName string `json:"circuitName"`
}

type driverWire struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	URL             string `json:"url"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	Nationality     string `json:"nationality"`
}

type constructorWire struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality"`
}

type resultWire struct {
	Position    string           `json:"position"`
	Grid        string           `json:"grid"`
	Points      string           `json:"points"`
	Status      string           `json:"status"`
	Driver      driverWire       `json:"Driver"`
	Constructor constructorWire  `json:"Constructor"`
	FastestLap  *fastestLapWire  `json:"FastestLap"`
}

type fastestLapWire struct {
	Rank string `json:"rank"`
	Lap  string `json:"lap"`
	Time struct {
		Time string `json:"time"`
	} `json:"Time"`
}

type qualifyingWire struct {
	Position    string          `json:"position"`
	Driver      driverWire      `json:"Driver"`
	Constructor constructorWire `json:"Constructor"`
	Q1          string          `json:"Q1"`
	Q2          string          `json:"Q2"`
	Q3          string          `json:"Q3"`
}

type standingsTable struct {
	StandingsLists []standingsList `json:"StandingsLists"`
}

type standingsList struct {
	Season               string                    `json:"season"`
	Round                string                    `json:"round"`
	DriverStandings      []driverStandingWire      `json:"DriverStandings"`
	ConstructorStandings []constructorStandingWire `json:"ConstructorStandings"`
}

type driverStandingWire struct {
	Position     string            `json:"position"`
	Points       string            `json:"points"`
	Wins         string            `json:"wins"`
	Driver       driverWire        `json:"Driver"`
	Constructors []constructorWire `json:"Constructors"`
}

type constructorStandingWire struct {
	Position    string          `json:"position"`
	Points      string          `json:"points"`
	Wins        string          `json:"wins"`
	Constructor constructorWire `json:"Constructor"`
}

type driverTable struct {
	Drivers []driverWire `json:"Drivers"`
}

type lapWire struct {
	Number  string       `json:"number"`
	Timings []timingWire `json:"Timings"`
}

type timingWire struct {
	DriverID string `json:"driverId"`
	Position string `json:"position"`
	Time     string `json:"time"`
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (d driverWire) toDomain() domain.Driver {
	return domain.Driver{
		DriverID:        d.DriverID,
		GivenName:       d.GivenName,
		FamilyName:      d.FamilyName,
		Nationality:     d.Nationality,
		PermanentNumber: d.PermanentNumber,
		Code:            d.Code,
		URL:             d.URL,
	}
}

func (c constructorWire) toDomain() domain.Constructor {
	return domain.Constructor{
		ConstructorID: c.ConstructorID,
		Name:          c.Name,
		Nationality:   c.Nationality,
	}
}

func (r raceWire) toDomain() domain.Race {
	return domain.Race{
		Season:    r.Season,
		Round:     atoi(r.Round),
		RaceName:  r.RaceName,
		CircuitID: r.Circuit.CircuitID,
		Date:      r.Date,
		Time:      r.Time,
	}
}

func (r resultWire) toDomain() domain.RaceResult {
	out := domain.RaceResult{
		Position:    atoi(r.Position),
		Grid:        atoi(r.Grid),
		Points:      atof(r.Points),
		Status:      r.Status,
		Driver:      r.Driver.toDomain(),
		Constructor: r.Constructor.toDomain(),
	}
	if r.FastestLap != nil {
		out.FastestLap = &domain.FastestLap{
			Rank: atoi(r.FastestLap.Rank),
			Lap:  atoi(r.FastestLap.Lap),
			Time: r.FastestLap.Time.Time,
		}
	}
	return out
}

func (r raceWire) toClassification(results []resultWire) domain.Classification {
	out := domain.Classification{
		Season:   r.Season,
		Round:    atoi(r.Round),
		RaceName: r.RaceName,
		Results:  make([]domain.RaceResult, 0, len(results)),
	}
	for _, res := range results {
		out.Results = append(out.Results, res.toDomain())
	}
	return out
}
