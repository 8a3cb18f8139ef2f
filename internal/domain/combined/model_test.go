package combined

import (
	"bytes"
	"testing"
)

func TestPlayer_Key(t *testing.T) {
	p := Player{UPID: "1921", Name: "Juan Soto"}
	if got := p.Key(); got != "upid:1921" {
		t.Fatalf("got %q", got)
	}

	p = Player{Name: "José Ramírez"}
	if got := p.Key(); got != "name:joseramirez" {
		t.Fatalf("upid-less key must use the normalized name, got %q", got)
	}
}

func TestMarshalJSON_AlwaysEmitsOwnershipFields(t *testing.T) {
	data, err := stdjson.Marshal(Player{Name: "Juan Soto"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"upid":""`, `"manager":""`, `"FBP_Team":""`, `"name":"Juan Soto"`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Fatalf("output missing %s: %s", want, data)
		}
	}
	if bytes.Contains(data, []byte(`"mlb_id"`)) {
		t.Fatalf("zero mlb_id must be omitted: %s", data)
	}
}

func TestJSON_ExtraFieldsRoundTrip(t *testing.T) {
	in := []byte(`{"upid":"42","name":"Juan Soto","manager":"The Wizards","FBP_Team":"WIZ","rank":5,"fypd":{"year":2027},"service_time":"2.071"}`)

	var p Player
	if err := stdjson.Unmarshal(in, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.UPID != "42" || p.Manager != "The Wizards" {
		t.Fatalf("owned fields: %+v", p)
	}
	if p.Extra["rank"] != float64(5) {
		t.Fatalf("rank must land in Extra, got %v", p.Extra)
	}

	// A re-run rewrites owned fields but must not touch collaborator data.
	p.Team = "New York Mets"
	out, err := stdjson.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"rank":5`, `"service_time":"2.071"`, `"fypd":{"year":2027}`, `"team":"New York Mets"`} {
		if !bytes.Contains(out, []byte(want)) {
			t.Fatalf("output missing %s: %s", want, out)
		}
	}
}

func TestMarshalJSON_ExtraCannotShadowOwnedFields(t *testing.T) {
	p := Player{
		Name:  "Juan Soto",
		UPID:  "42",
		Extra: map[string]any{"upid": "999", "rank": 1},
	}
	out, err := stdjson.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(out, []byte(`"upid":"42"`)) || bytes.Contains(out, []byte(`"upid":"999"`)) {
		t.Fatalf("owned field shadowed by Extra: %s", out)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	p := Player{
		UPID: "7", Name: "Julio Rodríguez", Team: "Seattle Mariners",
		Extra: map[string]any{"z_field": 1, "a_field": 2, "m_field": 3},
	}
	first, err := stdjson.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := stdjson.Marshal(p)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("marshal not deterministic:\n%s\n%s", first, again)
		}
	}
}
