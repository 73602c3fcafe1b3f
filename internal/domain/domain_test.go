package domain

import (
	"testing"
	"time"
)

func TestRaceIsPast(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past := Race{Date: "2025-05-25", Time: "13:00:00Z"}
	if !past.IsPast(now) {
		t.Fatal("expected race before now to be past")
	}

	future := Race{Date: "2025-06-08", Time: "13:00:00Z"}
	if future.IsPast(now) {
		t.Fatal("expected race after now to be upcoming")
	}
}

func TestRaceIsPastWithoutTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := Race{Date: "2025-05-25"}
	if !r.IsPast(now) {
		t.Fatal("expected date-only race to use midnight UTC")
	}
}

func TestRaceIsPastUnparsableDate(t *testing.T) {
	r := Race{Date: "sometime"}
	if r.IsPast(time.Now()) {
		t.Fatal("expected unparsable date to be treated as upcoming")
	}
}

func TestDriverFullName(t *testing.T) {
	d := Driver{GivenName: "Oscar", FamilyName: "Piastri"}
	if got := d.FullName(); got != "Oscar Piastri" {
		t.Fatalf("unexpected full name %q", got)
	}
	if got := (Driver{FamilyName: "Piastri"}).FullName(); got != "Piastri" {
		t.Fatalf("unexpected full name %q", got)
	}
}

func TestStandingEntryConstructor(t *testing.T) {
	s := StandingEntry{Constructors: []Constructor{
		{ConstructorID: "alphatauri"},
		{ConstructorID: "rb"},
	}}
	if got := s.Constructor().ConstructorID; got != "rb" {
		t.Fatalf("expected most recent constructor, got %q", got)
	}
	if got := (StandingEntry{}).Constructor(); got.ConstructorID != "" {
		t.Fatalf("expected zero constructor, got %+v", got)
	}
}
