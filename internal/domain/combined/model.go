// Package combined defines the canonical per-player output record of the
// merge engine, one row of combined_players.json.
package combined

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/fbphub/playerdb/internal/platform/textnorm"
)

const (
	PlayerTypeMLB  = "MLB"
	PlayerTypeFarm = "Farm"
)

// stdjson sorts map keys, which keeps re-runs byte-identical.
var stdjson = sonic.ConfigStd

// Player is one real-world player. Identity fields are nullable: a record
// may exist with only a name when no id resolved.
//
// Field ownership: the merge engine owns upid, yahoo_id, mlb_id, bbref_id,
// name, team, position, manager, FBP_Team and player_type. Every other
// field written by downstream collaborators (rank, fypd, service time,
// admin contract edits) rides in Extra and must survive a re-run
// untouched.
type Player struct {
	UPID         string
	YahooID      string
	MLBID        int
	BBRefID      string
	Name         string
	Team         string
	Position     string
	Age          int
	Bats         string
	Throws       string
	Manager      string
	FBPTeam      string
	PlayerType   string
	ContractType string
	YearsSimple  string
	Status       string

	// Extra carries collaborator-owned fields verbatim between runs.
	Extra map[string]any
}

func (p Player) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	return nil
}

// Key is the record's merge identity: UPID when assigned, otherwise the
// normalized name. Once a UPID is attached the key must stay stable
// across runs even as roster data changes.
func (p Player) Key() string {
	if p.UPID != "" {
		return "upid:" + p.UPID
	}
	return "name:" + textnorm.Key(p.Name)
}

// ownedKeys are the JSON fields the merge engine writes. Anything else in
// the file belongs to a collaborator and round-trips through Extra.
var ownedKeys = map[string]struct{}{
	"upid": {}, "yahoo_id": {}, "mlb_id": {}, "bbref_id": {},
	"name": {}, "team": {}, "position": {}, "age": {}, "bats": {}, "throws": {},
	"manager": {}, "FBP_Team": {}, "player_type": {},
	"contract_type": {}, "years_simple": {}, "status": {},
}

func (p Player) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(ownedKeys)+len(p.Extra))
	for k, v := range p.Extra {
		if _, owned := ownedKeys[k]; owned {
			continue
		}
		out[k] = v
	}

	out["upid"] = p.UPID
	out["name"] = p.Name
	out["manager"] = p.Manager
	out["FBP_Team"] = p.FBPTeam
	setNonEmpty(out, "yahoo_id", p.YahooID)
	setNonEmpty(out, "bbref_id", p.BBRefID)
	setNonEmpty(out, "team", p.Team)
	setNonEmpty(out, "position", p.Position)
	setNonEmpty(out, "bats", p.Bats)
	setNonEmpty(out, "throws", p.Throws)
	setNonEmpty(out, "player_type", p.PlayerType)
	setNonEmpty(out, "contract_type", p.ContractType)
	setNonEmpty(out, "years_simple", p.YearsSimple)
	setNonEmpty(out, "status", p.Status)
	if p.MLBID != 0 {
		out["mlb_id"] = p.MLBID
	}
	if p.Age != 0 {
		out["age"] = p.Age
	}

	return stdjson.Marshal(out)
}

func (p *Player) UnmarshalJSON(data []byte) error {
	raw := make(map[string]any)
	if err := stdjson.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.UPID = popString(raw, "upid")
	p.YahooID = popString(raw, "yahoo_id")
	p.MLBID = popInt(raw, "mlb_id")
	p.BBRefID = popString(raw, "bbref_id")
	p.Name = popString(raw, "name")
	p.Team = popString(raw, "team")
	p.Position = popString(raw, "position")
	p.Age = popInt(raw, "age")
	p.Bats = popString(raw, "bats")
	p.Throws = popString(raw, "throws")
	p.Manager = popString(raw, "manager")
	p.FBPTeam = popString(raw, "FBP_Team")
	p.PlayerType = popString(raw, "player_type")
	p.ContractType = popString(raw, "contract_type")
	p.YearsSimple = popString(raw, "years_simple")
	p.Status = popString(raw, "status")

	if len(raw) > 0 {
		p.Extra = raw
	} else {
		p.Extra = nil
	}
	return nil
}

func setNonEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func popString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	s, _ := v.(string)
	return s
}

func popInt(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	delete(m, key)
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
