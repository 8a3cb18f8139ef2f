// Package idcache holds resolved UPID -> external id pairings. The cache
// is additive: a wrong id silently corrupts stats downstream, so an
// accepted pairing is only ever replaced by strictly higher-confidence
// evidence, never deleted.
package idcache

import (
	"fmt"
	"sort"
	"time"

	"github.com/fbphub/playerdb/internal/platform/textnorm"
)

// MatchSource records how an id was resolved. The zero value means the
// entry predates provenance tracking and is treated as lowest confidence
// above generated.
type MatchSource string

const (
	SourceIDMap     MatchSource = "id_map_direct"
	SourceExact     MatchSource = "exact"
	SourceAPIDirect MatchSource = "api_direct"
	SourceFuzzy     MatchSource = "fuzzy"
	SourceGenerated MatchSource = "generated"
)

// Confidence orders sources; higher wins. An explicit sheet mapping beats
// an exact API name match beats a roster hit beats fuzzy beats generated.
func (s MatchSource) Confidence() int {
	switch s {
	case SourceIDMap:
		return 5
	case SourceExact:
		return 4
	case SourceAPIDirect:
		return 3
	case SourceFuzzy:
		return 2
	case SourceGenerated:
		return 1
	default:
		return 2
	}
}

type Entry struct {
	UPID        string      `json:"upid"`
	Name        string      `json:"name"`
	MLBID       int         `json:"mlb_id,omitempty"`
	BBRefID     string      `json:"bbref_id,omitempty"`
	MatchSource MatchSource `json:"match_source,omitempty"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Cache is the in-memory form of mlb_id_cache.json, keyed by UPID.
type Cache struct {
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

func FromMap(m map[string]Entry) *Cache {
	c := NewCache()
	for upid, e := range m {
		e.UPID = upid
		c.entries[upid] = e
	}
	return c
}

func (c *Cache) Get(upid string) (Entry, bool) {
	e, ok := c.entries[upid]
	return e, ok
}

func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) Map() map[string]Entry {
	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Entries returns all entries in UPID order.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UPID < out[j].UPID })
	return out
}

// Apply merges a new resolution into the cache under the never-downgrade
// policy. It reports whether the entry was stored and, when it was not,
// whether the reason was a conflicting id at equal-or-lower confidence
// (a condition worth surfacing in the review log).
func (c *Cache) Apply(e Entry, now time.Time) (applied bool, conflict bool) {
	if e.UPID == "" {
		return false, false
	}

	existing, ok := c.entries[e.UPID]
	if !ok {
		e.LastUpdated = now
		c.entries[e.UPID] = e
		return true, false
	}

	// Same id (or no authoritative id on either side): refresh name and
	// fill gaps, keep the higher-confidence provenance.
	if existing.MLBID == 0 || existing.MLBID == e.MLBID {
		if e.MLBID != 0 {
			existing.MLBID = e.MLBID
		}
		if e.BBRefID != "" && existing.BBRefID == "" {
			existing.BBRefID = e.BBRefID
		}
		if e.Name != "" {
			existing.Name = e.Name
		}
		if e.MatchSource.Confidence() > existing.MatchSource.Confidence() {
			existing.MatchSource = e.MatchSource
		}
		existing.LastUpdated = now
		c.entries[e.UPID] = existing
		return true, false
	}

	// Conflicting id: only strictly higher confidence may overwrite.
	if e.MLBID != 0 && e.MatchSource.Confidence() > existing.MatchSource.Confidence() {
		e.LastUpdated = now
		if e.BBRefID == "" {
			e.BBRefID = existing.BBRefID
		}
		c.entries[e.UPID] = e
		return true, false
	}

	return false, e.MLBID != 0
}

// GenerateBBRefID synthesizes a Baseball-Reference-style id when no
// authoritative source exists: first five letters of the last name, first
// two of the first name, two-digit ordinal. taken reports ids already in
// use so collisions advance the ordinal.
func GenerateBBRefID(name string, taken func(id string) bool) string {
	first, last := textnorm.SplitName(name)
	firstKey := textnorm.Key(first)
	lastKey := textnorm.Key(last)
	if firstKey == "" || lastKey == "" {
		return ""
	}

	if len(lastKey) > 5 {
		lastKey = lastKey[:5]
	}
	if len(firstKey) > 2 {
		firstKey = firstKey[:2]
	}

	for ordinal := 1; ordinal <= 99; ordinal++ {
		id := fmt.Sprintf("%s%s%02d", lastKey, firstKey, ordinal)
		if taken == nil || !taken(id) {
			return id
		}
	}
	return ""
}
