package managers

import "testing"

func testDirectory() Directory {
	return Directory{
		"WIZ": {Name: "Whiz Kids", Manager: "Pat Jones", YahooTeamID: "3"},
		"B2J": {Name: "Back2Back Jacks", Manager: "Sam Lee", YahooTeamID: "7"},
	}
}

func TestResolve_Forms(t *testing.T) {
	d := testDirectory()
	cases := []struct {
		in   string
		want string
	}{
		{"WIZ", "WIZ"},
		{"wiz", "WIZ"},
		{"Whiz Kids", "WIZ"},
		{"Whiz Kids (WIZ)", "WIZ"},
		{"Whiz Kids [WIZ]", "WIZ"},
		{"WIZ - Whiz Kids", "WIZ"},
		{"Pat Jones", "WIZ"},
		{"Back2Back Jacks", "B2J"},
	}
	for _, tc := range cases {
		got, ok := d.Resolve(tc.in)
		if !ok || got != tc.want {
			t.Fatalf("Resolve(%q)=%q ok=%v, want %q", tc.in, got, ok, tc.want)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	d := testDirectory()
	if _, ok := d.Resolve("Totally Unknown"); ok {
		t.Fatal("unknown manager string must not resolve")
	}
	if _, ok := d.Resolve(""); ok {
		t.Fatal("empty string must not resolve")
	}
}

func TestByYahooTeamID(t *testing.T) {
	d := testDirectory()
	abbr, ok := d.ByYahooTeamID("7")
	if !ok || abbr != "B2J" {
		t.Fatalf("got %q ok=%v", abbr, ok)
	}
	if _, ok := d.ByYahooTeamID("99"); ok {
		t.Fatal("unknown yahoo id must not resolve")
	}
}

func TestName(t *testing.T) {
	d := testDirectory()
	if got := d.Name("wiz"); got != "Whiz Kids" {
		t.Fatalf("got %q", got)
	}
	if got := d.Name("XXX"); got != "" {
		t.Fatalf("unknown abbr must return empty, got %q", got)
	}
}
