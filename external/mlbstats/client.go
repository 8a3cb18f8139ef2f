// Package mlbstats is a thin client for the public MLB Stats API. It
// paces requests, retries transient failures with linear backoff, and
// trips a circuit breaker when the API is persistently down.
package mlbstats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/fbphub/playerdb/internal/platform/logging"
	"github.com/fbphub/playerdb/internal/platform/resilience"
	"github.com/fbphub/playerdb/internal/usecase"
)

const (
	defaultBaseURL     = "https://statsapi.mlb.com/api/v1"
	defaultTimeout     = 20 * time.Second
	maxResponseSize    = 24 << 20
	defaultPaceEvery   = time.Second
	mlbSportID         = "1"
	hydratePerson      = "currentTeam"
	seasonPlayerFields = "people,id,fullName,active,currentAge,batSide,pitchHand,currentTeam,id,name"
)

var errMLBTransient = crerr.New("mlb stats api transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	PaceInterval   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	pacer          *resilience.Pacer
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	pace := cfg.PaceInterval
	if pace <= 0 {
		pace = defaultPaceEvery
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		pacer:          resilience.NewPacer(pace),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// SearchPeople looks up people by full name.
func (c *Client) SearchPeople(ctx context.Context, name string) ([]usecase.MLBPerson, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("search name must not be empty")
	}

	var envelope peopleEnvelope
	query := map[string]string{
		"names":   name,
		"hydrate": hydratePerson,
	}
	if err := c.doJSON(ctx, "/people/search", query, &envelope); err != nil {
		return nil, fmt.Errorf("search people name=%q: %w", name, err)
	}

	out := make([]usecase.MLBPerson, 0, len(envelope.People))
	for _, p := range envelope.People {
		out = append(out, p.toPerson(0))
	}
	return out, nil
}

// Teams lists the current MLB franchises.
func (c *Client) Teams(ctx context.Context) ([]usecase.MLBTeam, error) {
	var envelope teamsEnvelope
	query := map[string]string{"sportId": mlbSportID}
	if err := c.doJSON(ctx, "/teams", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	out := make([]usecase.MLBTeam, 0, len(envelope.Teams))
	for _, t := range envelope.Teams {
		if t.ID <= 0 {
			continue
		}
		out = append(out, usecase.MLBTeam{
			ID:           t.ID,
			Name:         strings.TrimSpace(t.Name),
			Abbreviation: strings.TrimSpace(t.Abbreviation),
		})
	}
	return out, nil
}

// TeamRoster returns the active roster of one team.
func (c *Client) TeamRoster(ctx context.Context, teamID int) ([]usecase.MLBPerson, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("team id must be greater than zero")
	}

	var envelope rosterEnvelope
	path := fmt.Sprintf("/teams/%d/roster/active", teamID)
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch roster team_id=%d: %w", teamID, err)
	}

	out := make([]usecase.MLBPerson, 0, len(envelope.Roster))
	for _, slot := range envelope.Roster {
		if slot.Person.ID <= 0 {
			continue
		}
		out = append(out, slot.Person.toPerson(teamID))
	}
	return out, nil
}

// SeasonPlayers returns every player with a roster slot in the given
// season. This is the candidate pool for fuzzy matching, fetched once
// per run.
func (c *Client) SeasonPlayers(ctx context.Context, season int) ([]usecase.MLBPerson, error) {
	if season <= 0 {
		return nil, fmt.Errorf("season must be greater than zero")
	}

	var envelope peopleEnvelope
	query := map[string]string{
		"season": strconv.Itoa(season),
		"fields": seasonPlayerFields,
	}
	if err := c.doJSON(ctx, "/sports/1/players", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch season players season=%d: %w", season, err)
	}

	out := make([]usecase.MLBPerson, 0, len(envelope.People))
	for _, p := range envelope.People {
		if p.ID <= 0 {
			continue
		}
		out = append(out, p.toPerson(0))
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "mlb stats circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: stats provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err := c.executeRequest(ctx, fullURL)
	if c.circuitEnabled {
		// Definitive provider answers (404 and friends) say nothing about
		// provider health and leave the breaker untouched.
		switch {
		case err == nil:
			c.breaker.RecordSuccess()
		case crerr.Is(err, errMLBTransient):
			c.breaker.RecordFailure()
		}
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode stats payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errMLBTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errMLBTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errMLBTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "mlb stats request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
