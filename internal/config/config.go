// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fbphub/playerdb/internal/platform/logging"
)

const (
	defaultPaceInterval   = time.Second
	minPaceInterval       = 500 * time.Millisecond
	defaultFuzzyThreshold = 0.85
)

// Config stores runtime configuration for one pipeline run.
type Config struct {
	DataDir string

	GoogleCredsFile    string
	UPIDSpreadsheetID  string
	UPIDRange          string
	TeamMapRange       string
	PlayerDataRange    string
	IDMapRange         string
	SheetsBaseURL      string
	ManagersConfigPath string

	YahooClientID     string
	YahooClientSecret string
	YahooRefreshToken string
	YahooLeagueKey    string
	YahooBaseURL      string

	MLBBaseURL   string
	APITimeout   time.Duration
	MaxRetries   int
	PaceInterval time.Duration

	FuzzyMatchThreshold float64
	FuzzySeason         int

	LogLevel logging.Level
}

func Load() (Config, error) {
	cfg := Config{
		DataDir:            getEnv("DATA_DIR", "data"),
		GoogleCredsFile:    getEnv("GOOGLE_CREDS_FILE", "credentials.json"),
		UPIDSpreadsheetID:  strings.TrimSpace(os.Getenv("UPID_SPREADSHEET_ID")),
		UPIDRange:          getEnv("UPID_RANGE", "PlayerUPIDs!A1:I"),
		TeamMapRange:       getEnv("TEAM_MAP_RANGE", "ADMIN!L1:Q31"),
		PlayerDataRange:    getEnv("PLAYER_DATA_RANGE", "Player Data!A1:Z"),
		IDMapRange:         getEnv("ID_MAP_RANGE", "Player ID Map!A1:C"),
		SheetsBaseURL:      strings.TrimSpace(os.Getenv("SHEETS_BASE_URL")),
		ManagersConfigPath: getEnv("MANAGERS_CONFIG_PATH", "managers.json"),
		YahooClientID:      strings.TrimSpace(os.Getenv("YAHOO_CLIENT_ID")),
		YahooClientSecret:  strings.TrimSpace(os.Getenv("YAHOO_CLIENT_SECRET")),
		YahooRefreshToken:  strings.TrimSpace(os.Getenv("YAHOO_REFRESH_TOKEN")),
		YahooLeagueKey:     strings.TrimSpace(os.Getenv("YAHOO_LEAGUE_KEY")),
		YahooBaseURL:       strings.TrimSpace(os.Getenv("YAHOO_BASE_URL")),
		MLBBaseURL:         strings.TrimSpace(os.Getenv("MLB_BASE_URL")),
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.UPIDSpreadsheetID == "" {
		return Config{}, fmt.Errorf("UPID_SPREADSHEET_ID is required")
	}

	timeout, err := getEnvAsDuration("API_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.APITimeout = timeout

	maxRetries, err := getEnvAsInt("MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	cfg.MaxRetries = maxRetries

	pace, err := getEnvAsDuration("PACE_INTERVAL", defaultPaceInterval)
	if err != nil {
		return Config{}, err
	}
	// Below half a second the public stats API starts throttling.
	if pace < minPaceInterval {
		pace = minPaceInterval
	}
	cfg.PaceInterval = pace

	threshold, err := getEnvAsFloat("FUZZY_MATCH_THRESHOLD", defaultFuzzyThreshold)
	if err != nil {
		return Config{}, err
	}
	if threshold <= 0 || threshold > 1 {
		return Config{}, fmt.Errorf("FUZZY_MATCH_THRESHOLD must be in (0, 1], got %v", threshold)
	}
	cfg.FuzzyMatchThreshold = threshold

	season, err := getEnvAsInt("FUZZY_SEASON", time.Now().Year())
	if err != nil {
		return Config{}, err
	}
	cfg.FuzzySeason = season

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}
