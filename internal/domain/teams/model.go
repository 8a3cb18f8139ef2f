// Package teams maps every known spelling of an MLB franchise to one
// canonical form. Sheet maintainers type team codes freely ("SEA",
// "Mariners", "Seattle"), and the Stats API reports full franchise names;
// the alias map is what lets the two agree.
package teams

import "strings"

type Entry struct {
	Aliases []string `json:"aliases"`
}

// AliasMap is rebuilt fresh from the source sheet each run; there is no
// merge with prior versions. Every alias maps to exactly one canonical
// name and the canonical name self-aliases.
type AliasMap struct {
	Official map[string]Entry  `json:"official"`
	Aliases  map[string]string `json:"aliases"`
}

func NewAliasMap() AliasMap {
	return AliasMap{
		Official: make(map[string]Entry),
		Aliases:  make(map[string]string),
	}
}

// Add registers a canonical team name and any alias spellings.
func (m *AliasMap) Add(official string, aliases ...string) {
	official = strings.TrimSpace(official)
	if official == "" {
		return
	}

	entry := m.Official[official]
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if !containsFold(entry.Aliases, alias) {
			entry.Aliases = append(entry.Aliases, alias)
		}
		m.Aliases[strings.ToLower(alias)] = official
	}
	m.Official[official] = entry

	// The canonical name is its own alias so round-trips are identity.
	key := strings.ToLower(official)
	if _, ok := m.Aliases[key]; !ok {
		m.Aliases[key] = official
	}
}

// Canonical resolves any known spelling to the canonical team name.
// Unrecognized input is returned unchanged so downstream comparisons
// degrade to literal string equality instead of failing.
func (m AliasMap) Canonical(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if official, ok := m.Aliases[strings.ToLower(trimmed)]; ok {
		return official
	}
	return trimmed
}

// Known reports whether the spelling maps to a canonical team.
func (m AliasMap) Known(s string) bool {
	_, ok := m.Aliases[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func (m AliasMap) Len() int {
	return len(m.Official)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
