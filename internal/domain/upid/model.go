// Package upid models the externally-maintained Universal Player ID sheet,
// the primary key of the whole player database.
package upid

import (
	"fmt"
	"sort"

	"github.com/fbphub/playerdb/internal/platform/textnorm"
)

// Record is one row of the PlayerUPID sheet. The sheet is maintained by
// hand outside this system; records are rebuilt from source each run and
// never mutated locally.
type Record struct {
	UPID          string   `json:"upid"`
	Name          string   `json:"name"`
	Team          string   `json:"team"`
	Position      string   `json:"pos"`
	AltNames      []string `json:"alt_names"`
	ApprovedDupes string   `json:"approved_dupes,omitempty"`
}

func (r Record) Validate() error {
	if r.UPID == "" {
		return fmt.Errorf("upid is required")
	}
	if r.Name == "" {
		return fmt.Errorf("record %s: name is required", r.UPID)
	}
	return nil
}

// Database is the full UPID record set plus a name index. The index maps
// the normalized form of every primary and alternate name to all UPIDs
// that claim that spelling; two different players may share a nickname.
type Database struct {
	ByUPID    map[string]Record   `json:"by_upid"`
	NameIndex map[string][]string `json:"name_index"`
}

func NewDatabase() Database {
	return Database{
		ByUPID:    make(map[string]Record),
		NameIndex: make(map[string][]string),
	}
}

// Add inserts a record and indexes its primary and alternate names.
// A repeated UPID replaces the previous record (last sheet row wins).
func (d *Database) Add(rec Record) {
	d.ByUPID[rec.UPID] = rec
	d.index(rec.Name, rec.UPID)
	for _, alt := range rec.AltNames {
		d.index(alt, rec.UPID)
	}
}

func (d *Database) index(name, upid string) {
	key := textnorm.Key(name)
	if key == "" {
		return
	}
	for _, existing := range d.NameIndex[key] {
		if existing == upid {
			return
		}
	}
	d.NameIndex[key] = append(d.NameIndex[key], upid)
	sort.Strings(d.NameIndex[key])
}

func (d Database) Len() int {
	return len(d.ByUPID)
}

// Lookup returns every record claiming the given spelling, in UPID order.
// The lookup is case-, accent-, and punctuation-insensitive.
func (d Database) Lookup(name string) []Record {
	upids := d.NameIndex[textnorm.Key(name)]
	out := make([]Record, 0, len(upids))
	for _, id := range upids {
		if rec, ok := d.ByUPID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Outcome is the result kind of a disambiguation attempt. Ambiguous is a
// first-class outcome: callers must leave the field unresolved rather than
// guess among candidates.
type Outcome int

const (
	Unresolved Outcome = iota
	Resolved
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unresolved"
	}
}

// Disambiguate resolves a name to a single record, using the canonical
// team form (via canon, usually teams.AliasMap.Canonical) to split
// same-name candidates. When team information still leaves more than one
// candidate the result is Ambiguous and the candidate UPIDs are returned
// for the review log.
func (d Database) Disambiguate(name, team string, canon func(string) string) (Record, []string, Outcome) {
	candidates := d.Lookup(name)
	switch len(candidates) {
	case 0:
		return Record{}, nil, Unresolved
	case 1:
		return candidates[0], nil, Resolved
	}

	if canon == nil {
		canon = func(s string) string { return s }
	}

	all := make([]string, 0, len(candidates))
	for _, c := range candidates {
		all = append(all, c.UPID)
	}

	wantTeam := textnorm.Key(canon(team))
	if wantTeam == "" {
		return Record{}, all, Ambiguous
	}

	matched := make([]Record, 0, 1)
	for _, c := range candidates {
		if textnorm.Key(canon(c.Team)) == wantTeam {
			matched = append(matched, c)
		}
	}
	if len(matched) == 1 {
		return matched[0], nil, Resolved
	}
	return Record{}, all, Ambiguous
}
