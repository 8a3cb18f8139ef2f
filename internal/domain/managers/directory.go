// Package managers describes the fantasy league's franchises: the
// canonical FBP abbreviation, the full team name shown to users, and the
// Yahoo team id the roster snapshot arrives under.
package managers

import (
	"regexp"
	"strings"

	"github.com/fbphub/playerdb/internal/platform/textnorm"
)

type Team struct {
	Name        string `json:"name"`
	Manager     string `json:"manager,omitempty"`
	YahooTeamID string `json:"yahoo_team_id,omitempty"`
}

// Directory is keyed by FBP abbreviation ("WIZ", "B2J", ...).
type Directory map[string]Team

var (
	parenAbbr   = regexp.MustCompile(`[\(\[]([A-Za-z0-9_]{2,5})[\)\]]\s*$`)
	dashSplit   = regexp.MustCompile(`\s*[\-\x{2013}\x{2014}]\s*`)
	yahooLookup = func(d Directory, id string) (string, bool) {
		for abbr, t := range d {
			if t.YahooTeamID == id {
				return abbr, true
			}
		}
		return "", false
	}
)

// ByYahooTeamID maps a Yahoo numeric team id to the FBP abbreviation.
func (d Directory) ByYahooTeamID(id string) (string, bool) {
	return yahooLookup(d, strings.TrimSpace(id))
}

// Name returns the full franchise name for an abbreviation, "" if unknown.
func (d Directory) Name(abbr string) string {
	if t, ok := d[strings.ToUpper(strings.TrimSpace(abbr))]; ok {
		return t.Name
	}
	return ""
}

// Resolve normalizes any team identifier to the canonical abbreviation.
// Accepted forms: "WIZ", "Whiz Kids", "Whiz Kids (WIZ)", "WIZ - Whiz
// Kids", a manager's personal name. Unresolvable input returns ok=false.
func (d Directory) Resolve(raw string) (abbr string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	upper := strings.ToUpper(trimmed)
	if _, found := d[upper]; found {
		return upper, true
	}

	if m := parenAbbr.FindStringSubmatch(trimmed); m != nil {
		cand := strings.ToUpper(m[1])
		if _, found := d[cand]; found {
			return cand, true
		}
	}

	if parts := dashSplit.Split(trimmed, -1); len(parts) >= 2 {
		for _, candRaw := range []string{parts[0], parts[len(parts)-1]} {
			cand := strings.ToUpper(strings.TrimSpace(candRaw))
			if _, found := d[cand]; found {
				return cand, true
			}
		}
	}

	target := textnorm.Key(trimmed)
	if target == "" {
		return "", false
	}
	for a, t := range d {
		if textnorm.Key(t.Name) == target || (t.Manager != "" && textnorm.Key(t.Manager) == target) {
			return a, true
		}
	}
	return "", false
}
