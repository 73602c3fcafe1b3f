// Package teams canonicalizes the many historical and branding names a
// constructor appears under into one stable internal identifier, and exposes
// the static presentation data keyed by that identifier.
package teams

import "strings"

// Team colors keyed by canonical constructor ID.
var teamColors = map[string]string{
	"red_bull":     "#4781D7",
	"rb":           "#6692FF",
	"ferrari":      "#ED1131",
	"mercedes":     "#00D7B6",
	"mclaren":      "#F47600",
	"aston_martin": "#229971",
	"alpine":       "#00A1E8",
	"williams":     "#1868DB",
	"haas":         "#9C9FA2",
	"kick_sauber":  "#01C00E",
	"sauber":       "#52E252",
	"alphatauri":   "#5E8FAA",
	"toro_rosso":   "#469BFF",
	"alfa_romeo":   "#B12039",
	"renault":      "#FFF500",
	"racing_point": "#F596C8",
	"force_india":  "#F596C8",
	"lotus_f1":     "#FFB800",
}

const defaultColor = "#FFFFFF"

var alias = map[string]string{}

func registerAliases(canonicalID string, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		lowered := strings.ToLower(name)
		alias[lowered] = canonicalID
		alias[underscored(lowered)] = canonicalID
		alias[compacted(lowered)] = canonicalID
	}
}

func init() {
	registerAliases("red_bull",
		"oracle red bull racing", "red bull racing", "red bull", "redbull")
	registerAliases("rb",
		"visa cash app rb formula one team", "visa cash app rb",
		"visa cash app rb f1 team", "rb formula one team", "rb f1 team",
		"rb f1", "racing bulls", "visa rb")
	registerAliases("ferrari", "scuderia ferrari", "ferrari", "scuderia")
	registerAliases("mercedes",
		"mercedes-amg petronas formula one team", "mercedes amg petronas",
		"mercedes-amg", "mercedes benz", "mercedes-benz", "mercedes")
	registerAliases("mclaren",
		"mclaren formula 1 team", "mclaren f1 team", "mclaren racing", "mclaren")
	registerAliases("aston_martin",
		"aston martin aramco cognizant formula one team", "aston martin aramco",
		"aston martin f1 team", "aston martin")
	registerAliases("alpine", "bwt alpine f1 team", "alpine f1 team", "alpine")
	registerAliases("williams",
		"williams racing", "williams grand prix engineering", "williams")
	registerAliases("haas",
		"moneygram haas f1 team", "haas f1 team", "haas formula 1 team", "haas")
	registerAliases("kick_sauber",
		"stake f1 team kick sauber", "stake f1 team", "kick sauber",
		"kick sauber f1 team")
	registerAliases("sauber", "sauber f1 team", "sauber formula 1 team", "sauber")
	registerAliases("alphatauri",
		"alpha tauri", "alpha-tauri", "scuderia alphatauri", "alphatauri",
		"alphatauri honda")
	registerAliases("toro_rosso", "toro rosso", "scuderia toro rosso")
	registerAliases("alfa_romeo",
		"alfa romeo", "alfa-romeo", "alfa romeo racing", "alfa")
	registerAliases("renault", "renault f1 team", "renault")
	registerAliases("racing_point", "racing point", "bwt racing point")
	registerAliases("force_india", "force india", "sahara force india")
	registerAliases("lotus_f1", "lotus f1", "lotus f1 team")
}

func underscored(s string) string {
	return sanitize(s, '_')
}

func compacted(s string) string {
	return sanitize(s, 0)
}

func sanitize(s string, sep byte) string {
	var b strings.Builder
	pendingSep := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingSep && sep != 0 && b.Len() > 0 {
				b.WriteByte(sep)
			}
			pendingSep = false
			b.WriteByte(c)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// CanonicalID maps any constructor name or identifier to its canonical ID.
// Unknown names fall back to their underscored form so callers still get a
// usable, if uncanonical, key.
func CanonicalID(name string) string {
	if name == "" {
		return ""
	}
	lowered := strings.ToLower(name)
	if id, ok := alias[lowered]; ok {
		return id
	}
	if id, ok := alias[underscored(lowered)]; ok {
		return id
	}
	if id, ok := alias[compacted(lowered)]; ok {
		return id
	}
	return underscored(lowered)
}

// Color returns the team color for a constructor name or ID.
func Color(name string) string {
	if c, ok := teamColors[CanonicalID(name)]; ok {
		return c
	}
	return defaultColor
}
