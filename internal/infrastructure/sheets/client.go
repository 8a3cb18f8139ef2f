// Package sheets reads ranges from the Google Sheets v4 values API using
// a service-account credential. The pipeline only ever reads from
// spreadsheets, so the client requests the read-only scope.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/fbphub/playerdb/internal/platform/logging"
)

const (
	defaultBaseURL  = "https://sheets.googleapis.com"
	defaultTimeout  = 30 * time.Second
	scopeReadOnly   = "https://www.googleapis.com/auth/spreadsheets.readonly"
	maxResponseSize = 16 << 20
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient builds a client authenticated with the given service-account
// JSON key.
func NewClient(ctx context.Context, credentialsJSON []byte, cfg ClientConfig) (*Client, error) {
	jwtCfg, err := google.JWTConfigFromJSON(credentialsJSON, scopeReadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "parse service account credentials")
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

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		httpClient: jwtCfg.Client(ctx),
		baseURL:    baseURL,
		logger:     logger,
	}, nil
}

type valueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// Values fetches one A1-notation range and returns its rows. Trailing
// empty cells are absent from the API response; callers pad rows as
// needed.
func (c *Client) Values(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(readRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build sheets request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch range %s", readRange)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(err, "read sheets response for %s", readRange)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("sheets API returned %d for range %s", resp.StatusCode, readRange)
	}

	var vr valueRange
	if err := sonic.Unmarshal(body, &vr); err != nil {
		return nil, errors.Wrapf(err, "decode sheets response for %s", readRange)
	}

	c.logger.DebugContext(ctx, "sheet range fetched", "range", readRange, "rows", len(vr.Values))
	return vr.Values, nil
}

// RangeSource adapts one spreadsheet range to the row-source interface
// the services consume.
type RangeSource struct {
	Client        *Client
	SpreadsheetID string
	Range         string
}

func (s *RangeSource) Rows(ctx context.Context) ([][]string, error) {
	return s.Client.Values(ctx, s.SpreadsheetID, s.Range)
}
