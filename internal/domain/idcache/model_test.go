package idcache

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestApply_NewEntry(t *testing.T) {
	c := NewCache()
	applied, conflict := c.Apply(Entry{UPID: "1", Name: "Mike Trout", MLBID: 545361, MatchSource: SourceExact}, testNow)
	if !applied || conflict {
		t.Fatalf("applied=%v conflict=%v", applied, conflict)
	}

	e, ok := c.Get("1")
	if !ok || e.MLBID != 545361 || !e.LastUpdated.Equal(testNow) {
		t.Fatalf("stored entry: %+v", e)
	}
}

func TestApply_ConflictingLowerConfidenceRejected(t *testing.T) {
	c := NewCache()
	c.Apply(Entry{UPID: "1", Name: "Mike Trout", MLBID: 545361, MatchSource: SourceExact}, testNow)

	applied, conflict := c.Apply(Entry{UPID: "1", MLBID: 999999, MatchSource: SourceFuzzy}, testNow.Add(time.Hour))
	if applied || !conflict {
		t.Fatalf("fuzzy must not overwrite exact: applied=%v conflict=%v", applied, conflict)
	}
	if e, _ := c.Get("1"); e.MLBID != 545361 {
		t.Fatalf("id was overwritten: %+v", e)
	}
}

func TestApply_EqualConfidenceConflictRejected(t *testing.T) {
	c := NewCache()
	c.Apply(Entry{UPID: "1", MLBID: 100, MatchSource: SourceExact}, testNow)

	applied, conflict := c.Apply(Entry{UPID: "1", MLBID: 200, MatchSource: SourceExact}, testNow)
	if applied || !conflict {
		t.Fatalf("equal confidence must not overwrite: applied=%v conflict=%v", applied, conflict)
	}
}

func TestApply_HigherConfidenceOverwrites(t *testing.T) {
	c := NewCache()
	c.Apply(Entry{UPID: "1", MLBID: 100, BBRefID: "troutmi01", MatchSource: SourceFuzzy}, testNow)

	applied, conflict := c.Apply(Entry{UPID: "1", MLBID: 200, MatchSource: SourceIDMap}, testNow.Add(time.Hour))
	if !applied || conflict {
		t.Fatalf("id map must overwrite fuzzy: applied=%v conflict=%v", applied, conflict)
	}
	e, _ := c.Get("1")
	if e.MLBID != 200 || e.MatchSource != SourceIDMap {
		t.Fatalf("entry after overwrite: %+v", e)
	}
	if e.BBRefID != "troutmi01" {
		t.Fatalf("bbref id must survive overwrite, got %q", e.BBRefID)
	}
}

func TestApply_SameIDRefreshesAndFillsGaps(t *testing.T) {
	c := NewCache()
	c.Apply(Entry{UPID: "1", Name: "Old Spelling", MLBID: 100, MatchSource: SourceFuzzy}, testNow)

	applied, conflict := c.Apply(Entry{UPID: "1", Name: "New Spelling", MLBID: 100, BBRefID: "newid01", MatchSource: SourceExact}, testNow.Add(time.Hour))
	if !applied || conflict {
		t.Fatalf("same id refresh: applied=%v conflict=%v", applied, conflict)
	}
	e, _ := c.Get("1")
	if e.Name != "New Spelling" || e.BBRefID != "newid01" || e.MatchSource != SourceExact {
		t.Fatalf("refreshed entry: %+v", e)
	}
}

func TestApply_LegacyEntryWithoutSource(t *testing.T) {
	// Pre-provenance entries rank between fuzzy and api_direct; a roster
	// hit may replace them, a generated id may not.
	c := FromMap(map[string]Entry{"1": {MLBID: 100}})

	if applied, _ := c.Apply(Entry{UPID: "1", MLBID: 200, MatchSource: SourceAPIDirect}, testNow); !applied {
		t.Fatal("api_direct must replace legacy entry")
	}
	if applied, _ := c.Apply(Entry{UPID: "1", MLBID: 300, MatchSource: SourceGenerated}, testNow); applied {
		t.Fatal("generated must not replace anything")
	}
}

func TestGenerateBBRefID(t *testing.T) {
	got := GenerateBBRefID("Mike Trout", nil)
	if got != "troutmi01" {
		t.Fatalf("got %q", got)
	}

	got = GenerateBBRefID("Ronald Acuña Jr.", nil)
	if got != "acunaro01" {
		t.Fatalf("suffix and accent handling: got %q", got)
	}

	taken := map[string]bool{"troutmi01": true, "troutmi02": true}
	got = GenerateBBRefID("Mike Trout", func(id string) bool { return taken[id] })
	if got != "troutmi03" {
		t.Fatalf("collision ordinal: got %q", got)
	}
}

func TestGenerateBBRefID_ShortNames(t *testing.T) {
	if got := GenerateBBRefID("Bo Day", nil); got != "daybo01" {
		t.Fatalf("short names keep their full length: got %q", got)
	}
	if got := GenerateBBRefID("", nil); got != "" {
		t.Fatalf("empty name must yield empty id, got %q", got)
	}
}

func TestEntries_SortedByUPID(t *testing.T) {
	c := FromMap(map[string]Entry{"3": {}, "1": {}, "2": {}})
	entries := c.Entries()
	if len(entries) != 3 || entries[0].UPID != "1" || entries[2].UPID != "3" {
		t.Fatalf("entries not in upid order: %+v", entries)
	}
}
