package domain

import (
	"testing"
	"time"
)

func TestParseLapTime(t *testing.T) {
	d, err := ParseLapTime("1:23.456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Minute + 23*time.Second + 456*time.Millisecond
	if d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
}

func TestParseLapTimeMultiDigitMinutes(t *testing.T) {
	d, err := ParseLapTime("12:05.001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 12*time.Minute + 5*time.Second + time.Millisecond
	if d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
}

func TestParseLapTimeRejectsMalformed(t *testing.T) {
	cases := []string{"", "1:23", "1:23.45", "1:63.456", "83.456", "1:23.4567", "abc"}
	for _, c := range cases {
		if _, err := ParseLapTime(c); err == nil {
			t.Fatalf("expected %q to be rejected", c)
		}
	}
}

func TestFormatLapTime(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{83.456, "1:23.456"},
		{65.001, "1:05.001"},
		{125.0, "2:05.000"},
		{59.999, "0:59.999"},
		{0, ""},
	}
	for _, c := range cases {
		if got := FormatLapTime(c.seconds); got != c.want {
			t.Fatalf("FormatLapTime(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestFormatLapTimeRoundTrips(t *testing.T) {
	got := FormatLapTime(83.456)
	d, err := ParseLapTime(got)
	if err != nil {
		t.Fatalf("round trip failed to parse: %v", err)
	}
	if d != time.Minute+23*time.Second+456*time.Millisecond {
		t.Fatalf("round trip drifted: %v", d)
	}
}
