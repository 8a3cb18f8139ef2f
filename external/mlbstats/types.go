package mlbstats

import (
	"strings"

	"github.com/fbphub/playerdb/internal/usecase"
)

type peopleEnvelope struct {
	People []personItem `json:"people"`
}

type teamsEnvelope struct {
	Teams []teamItem `json:"teams"`
}

type rosterEnvelope struct {
	Roster []rosterSlot `json:"roster"`
}

type rosterSlot struct {
	Person personItem `json:"person"`
}

type personItem struct {
	ID          int      `json:"id"`
	FullName    string   `json:"fullName"`
	Active      bool     `json:"active"`
	CurrentAge  int      `json:"currentAge"`
	BatSide     sideItem `json:"batSide"`
	PitchHand   sideItem `json:"pitchHand"`
	CurrentTeam teamItem `json:"currentTeam"`
}

type sideItem struct {
	Code string `json:"code"`
}

type teamItem struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// toPerson maps the provider shape to the matcher's view. Roster slots
// omit currentTeam, so the caller passes the team id it asked for.
func (p personItem) toPerson(teamID int) usecase.MLBPerson {
	currentTeamID := p.CurrentTeam.ID
	if currentTeamID == 0 {
		currentTeamID = teamID
	}
	return usecase.MLBPerson{
		ID:            p.ID,
		FullName:      strings.TrimSpace(p.FullName),
		Active:        p.Active,
		Age:           p.CurrentAge,
		Bats:          strings.TrimSpace(p.BatSide.Code),
		Throws:        strings.TrimSpace(p.PitchHand.Code),
		CurrentTeam:   strings.TrimSpace(p.CurrentTeam.Name),
		CurrentTeamID: currentTeamID,
	}
}
