package yahoo

import (
	"encoding/xml"

	crerr "github.com/cockroachdb/errors"
)

// The fantasy API serves XML under the
// http://fantasysports.yahooapis.com/fantasy/v2/base.rng namespace.
// encoding/xml matches on local element names, so the structs below
// work with and without the namespace declaration.

type fantasyContent struct {
	XMLName xml.Name  `xml:"fantasy_content"`
	Teams   teamsNode `xml:"league>teams"`
}

type teamsNode struct {
	Teams []teamNode `xml:"team"`
}

type teamNode struct {
	TeamID string     `xml:"team_id"`
	Name   string     `xml:"name"`
	Roster rosterNode `xml:"roster"`
}

type rosterNode struct {
	Players playersNode `xml:"players"`
}

type playersNode struct {
	Players []playerNode `xml:"player"`
}

type playerNode struct {
	PlayerID          string   `xml:"player_id"`
	Name              nameNode `xml:"name"`
	DisplayPosition   string   `xml:"display_position"`
	EditorialTeamAbbr string   `xml:"editorial_team_abbr"`
}

type nameNode struct {
	Full string `xml:"full"`
}

func parseFantasyContent(body []byte) (fantasyContent, error) {
	var content fantasyContent
	if err := xml.Unmarshal(body, &content); err != nil {
		return fantasyContent{}, crerr.Wrap(err, "decode yahoo roster payload")
	}
	return content, nil
}
