package teams

import "testing"

func TestCanonicalIDAliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Oracle Red Bull Racing", "red_bull"},
		{"red bull", "red_bull"},
		{"red_bull", "red_bull"},
		{"RedBull", "red_bull"},
		{"Visa Cash App RB F1 Team", "rb"},
		{"Racing Bulls", "rb"},
		{"Scuderia Ferrari", "ferrari"},
		{"Mercedes-AMG Petronas Formula One Team", "mercedes"},
		{"McLaren F1 Team", "mclaren"},
		{"Stake F1 Team Kick Sauber", "kick_sauber"},
		{"Scuderia AlphaTauri", "alphatauri"},
	}
	for _, c := range cases {
		if got := CanonicalID(c.in); got != c.want {
			t.Fatalf("CanonicalID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalIDUnknownFallsBackToUnderscored(t *testing.T) {
	if got := CanonicalID("Brawn GP"); got != "brawn_gp" {
		t.Fatalf("expected underscored fallback, got %q", got)
	}
}

func TestColorSameForAllAliases(t *testing.T) {
	full := Color("Oracle Red Bull Racing")
	short := Color("red bull")
	id := Color("red_bull")
	if full != short || short != id {
		t.Fatalf("expected one color for all aliases, got %q %q %q", full, short, id)
	}
	if full == defaultColor {
		t.Fatal("expected a real team color, got the default")
	}
}

func TestColorUnknownTeam(t *testing.T) {
	if got := Color("nonexistent racing"); got != defaultColor {
		t.Fatalf("expected default color, got %q", got)
	}
}
