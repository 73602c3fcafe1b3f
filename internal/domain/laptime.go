package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Canonical lap time format: minutes (multi-digit allowed), two-digit
// seconds, three-digit milliseconds.
var lapTimePattern = regexp.MustCompile(`^(\d+):([0-5]\d)\.(\d{3})$`)

// ParseLapTime converts a canonical "M:SS.mmm" string to a duration.
// Upstream strings that do not match the pattern are rejected; callers in
// the reconciliation path drop such laps rather than erroring.
func ParseLapTime(s string) (time.Duration, error) {
	m := lapTimePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("lap time %q does not match M:SS.mmm", s)
	}
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])
	millis, _ := strconv.Atoi(m[3])

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatLapTime renders a duration in seconds as canonical "M:SS.mmm".
// The secondary provider reports lap durations as fractional seconds.
func FormatLapTime(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	minutes := int(total / time.Minute)
	rem := total - time.Duration(minutes)*time.Minute
	secs := int(rem / time.Second)
	millis := int((rem - time.Duration(secs)*time.Second) / time.Millisecond)
	return fmt.Sprintf("%d:%02d.%03d", minutes, secs, millis)
}
