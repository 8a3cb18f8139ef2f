// Package yahoo fetches league rosters from the Yahoo Fantasy Sports
// API. Auth is OAuth2 with a long-lived refresh token; the token source
// transparently renews access tokens.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/oauth2"

	"github.com/fbphub/playerdb/internal/domain/managers"
	"github.com/fbphub/playerdb/internal/platform/logging"
	"github.com/fbphub/playerdb/internal/usecase"
)

const (
	defaultBaseURL  = "https://fantasysports.yahooapis.com/fantasy/v2"
	authURL         = "https://api.login.yahoo.com/oauth2/request_auth"
	tokenURL        = "https://api.login.yahoo.com/oauth2/get_token"
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 16 << 20
)

type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	LeagueKey    string
	BaseURL      string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       *logging.Logger
	Managers     managers.Directory
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	leagueKey  string
	logger     *logging.Logger
	managers   managers.Directory
}

// NewClient builds a roster source for one league. The refresh token is
// obtained once out of band; access tokens renew automatically.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, crerr.New("yahoo client id, secret and refresh token are required")
	}
	if cfg.LeagueKey == "" {
		return nil, crerr.New("yahoo league key is required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}

	base := cfg.HTTPClient
	if base == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		base = &http.Client{Timeout: timeout}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	seed := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, seed))

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		leagueKey:  cfg.LeagueKey,
		logger:     logger,
		managers:   cfg.Managers,
	}, nil
}

// LeagueRosters fetches every team's roster in one request and returns
// the snapshot keyed by FBP team abbreviation. Teams with a Yahoo id the
// manager directory does not know are skipped with a warning.
func (c *Client) LeagueRosters(ctx context.Context) (usecase.RosterSnapshot, error) {
	u := fmt.Sprintf("%s/league/%s/teams;out=roster", c.baseURL, c.leagueKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build yahoo request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Wrapf(err, "fetch league rosters league=%s", c.leagueKey)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, crerr.Wrap(err, "read yahoo response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, crerr.Newf("yahoo API returned %d for league %s", resp.StatusCode, c.leagueKey)
	}

	content, err := parseFantasyContent(body)
	if err != nil {
		return nil, err
	}

	snapshot := make(usecase.RosterSnapshot, len(content.Teams.Teams))
	for _, team := range content.Teams.Teams {
		abbr, ok := c.managers.ByYahooTeamID(team.TeamID)
		if !ok {
			c.logger.WarnContext(ctx, "yahoo team id not in manager directory, skipping roster",
				"yahoo_team_id", team.TeamID, "team_name", team.Name)
			continue
		}

		players := make([]usecase.RosterPlayer, 0, len(team.Roster.Players.Players))
		for _, p := range team.Roster.Players.Players {
			name := strings.TrimSpace(p.Name.Full)
			if name == "" {
				continue
			}
			players = append(players, usecase.RosterPlayer{
				Name:     name,
				Position: strings.TrimSpace(p.DisplayPosition),
				Team:     strings.TrimSpace(p.EditorialTeamAbbr),
				YahooID:  strings.TrimSpace(p.PlayerID),
			})
		}
		snapshot[abbr] = players
	}

	c.logger.InfoContext(ctx, "yahoo rosters fetched",
		"league", c.leagueKey, "teams", len(snapshot), "players", snapshot.Players())
	return snapshot, nil
}
