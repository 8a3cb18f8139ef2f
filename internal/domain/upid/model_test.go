package upid

import (
	"reflect"
	"testing"
)

func testDB() Database {
	db := NewDatabase()
	db.Add(Record{UPID: "1001", Name: "Will Smith", Team: "Los Angeles Dodgers", Position: "C"})
	db.Add(Record{UPID: "1002", Name: "Will Smith", Team: "Kansas City Royals", Position: "P"})
	db.Add(Record{UPID: "1003", Name: "Ronald Acuña Jr.", Team: "Atlanta Braves", AltNames: []string{"Ronald Acuna"}})
	return db
}

func TestAdd_IndexesAltNames(t *testing.T) {
	db := testDB()

	recs := db.Lookup("ronald acuna")
	if len(recs) != 1 || recs[0].UPID != "1003" {
		t.Fatalf("alt name lookup: got %+v", recs)
	}
	recs = db.Lookup("Ronald Acuña Jr.")
	if len(recs) != 1 || recs[0].UPID != "1003" {
		t.Fatalf("primary name lookup: got %+v", recs)
	}
}

func TestAdd_DuplicateUPIDLastWins(t *testing.T) {
	db := NewDatabase()
	db.Add(Record{UPID: "5", Name: "Old Name", Team: "A"})
	db.Add(Record{UPID: "5", Name: "New Name", Team: "B"})

	if db.Len() != 1 {
		t.Fatalf("expected one record, got %d", db.Len())
	}
	if rec := db.ByUPID["5"]; rec.Name != "New Name" {
		t.Fatalf("last row must win, got %+v", rec)
	}
}

func TestLookup_SharedNameReturnsAllInOrder(t *testing.T) {
	db := testDB()
	recs := db.Lookup("Will Smith")
	if len(recs) != 2 {
		t.Fatalf("expected both Will Smiths, got %+v", recs)
	}
	if recs[0].UPID != "1001" || recs[1].UPID != "1002" {
		t.Fatalf("expected UPID order, got %q %q", recs[0].UPID, recs[1].UPID)
	}
}

func TestDisambiguate_TeamSplitsSharedName(t *testing.T) {
	db := testDB()
	canon := func(s string) string {
		if s == "LAD" {
			return "Los Angeles Dodgers"
		}
		return s
	}

	rec, _, outcome := db.Disambiguate("Will Smith", "LAD", canon)
	if outcome != Resolved || rec.UPID != "1001" {
		t.Fatalf("got outcome=%s rec=%+v", outcome, rec)
	}
}

func TestDisambiguate_NoTeamIsAmbiguous(t *testing.T) {
	db := testDB()

	_, candidates, outcome := db.Disambiguate("Will Smith", "", nil)
	if outcome != Ambiguous {
		t.Fatalf("expected ambiguous, got %s", outcome)
	}
	if !reflect.DeepEqual(candidates, []string{"1001", "1002"}) {
		t.Fatalf("candidates: got %v", candidates)
	}
}

func TestDisambiguate_UnknownName(t *testing.T) {
	db := testDB()
	_, _, outcome := db.Disambiguate("Nobody Here", "Atlanta Braves", nil)
	if outcome != Unresolved {
		t.Fatalf("expected unresolved, got %s", outcome)
	}
}

func TestDisambiguate_TeamMatchesNeither(t *testing.T) {
	db := testDB()
	_, candidates, outcome := db.Disambiguate("Will Smith", "New York Mets", nil)
	if outcome != Ambiguous || len(candidates) != 2 {
		t.Fatalf("got outcome=%s candidates=%v", outcome, candidates)
	}
}

func TestValidate(t *testing.T) {
	if err := (Record{UPID: "1", Name: "A"}).Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	if err := (Record{Name: "A"}).Validate(); err == nil {
		t.Fatal("missing upid must fail validation")
	}
	if err := (Record{UPID: "1"}).Validate(); err == nil {
		t.Fatal("missing name must fail validation")
	}
}
