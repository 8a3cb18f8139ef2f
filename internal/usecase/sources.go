package usecase

import "context"

// RowSource yields a spreadsheet range as padded rows of cells. Sheet and
// range wiring live in the infrastructure adapter; services only see rows.
type RowSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// RosterSource yields the current Yahoo roster snapshot.
type RosterSource interface {
	LeagueRosters(ctx context.Context) (RosterSnapshot, error)
}

// RosterSnapshot is the live Yahoo state, keyed by FBP team abbreviation.
type RosterSnapshot map[string][]RosterPlayer

type RosterPlayer struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	YahooID  string `json:"yahoo_id"`
}

// Players returns every rostered player count across teams.
func (s RosterSnapshot) Players() int {
	n := 0
	for _, roster := range s {
		n += len(roster)
	}
	return n
}

// MLBStatsAPI is the slice of the MLB Stats API the id matcher needs.
type MLBStatsAPI interface {
	SearchPeople(ctx context.Context, name string) ([]MLBPerson, error)
	Teams(ctx context.Context) ([]MLBTeam, error)
	TeamRoster(ctx context.Context, teamID int) ([]MLBPerson, error)
	SeasonPlayers(ctx context.Context, season int) ([]MLBPerson, error)
}

type MLBPerson struct {
	ID            int
	FullName      string
	Active        bool
	Age           int
	Bats          string
	Throws        string
	CurrentTeam   string
	CurrentTeamID int
}

type MLBTeam struct {
	ID           int
	Name         string
	Abbreviation string
}
