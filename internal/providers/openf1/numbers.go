package openf1

import "strings"

// staticDriverNumbers is the last-resort mapping from primary-provider
// driver identifiers to car numbers, used when the session driver list is
// unavailable or the family-name match misses. Covers recent grids only;
// a driver absent here simply resolves to "no telemetry".
var staticDriverNumbers = map[string]int{
	"max_verstappen":  1,
	"perez":           11,
	"leclerc":         16,
	"sainz":           55,
	"hamilton":        44,
	"russell":         63,
	"norris":          4,
	"piastri":         81,
	"alonso":          14,
	"stroll":          18,
	"ocon":            31,
	"gasly":           10,
	"tsunoda":         22,
	"albon":           23,
	"sargeant":        2,
	"bottas":          77,
	"zhou":            24,
	"kevin_magnussen": 20,
	"hulkenberg":      27,
	"ricciardo":       3,
	"lawson":          30,
	"bearman":         87,
	"colapinto":       43,
	"doohan":          7,
	"antonelli":       12,
	"hadjar":          6,
	"bortoleto":       5,
}

// familyNameFromID extracts the family-name portion of a primary-provider
// driver identifier: the last underscore-separated token
// ("max_verstappen" -> "verstappen", "hulkenberg" -> "hulkenberg").
func familyNameFromID(driverID string) string {
	id := normalizeName(driverID)
	if idx := strings.LastIndex(id, "_"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
