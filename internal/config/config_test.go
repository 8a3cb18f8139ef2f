package config

import (
	"testing"
	"time"

	"github.com/fbphub/playerdb/internal/platform/logging"
)

func TestLoad_RequiresSpreadsheetID(t *testing.T) {
	t.Setenv("UPID_SPREADSHEET_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when UPID_SPREADSHEET_ID is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UPID_SPREADSHEET_ID", "sheet-123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UPIDRange != "PlayerUPIDs!A1:I" {
		t.Fatalf("upid range: %q", cfg.UPIDRange)
	}
	if cfg.TeamMapRange != "ADMIN!L1:Q31" {
		t.Fatalf("team map range: %q", cfg.TeamMapRange)
	}
	if cfg.APITimeout != 20*time.Second {
		t.Fatalf("timeout: %v", cfg.APITimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries: %d", cfg.MaxRetries)
	}
	if cfg.PaceInterval != time.Second {
		t.Fatalf("pace interval: %v", cfg.PaceInterval)
	}
	if cfg.FuzzyMatchThreshold != 0.85 {
		t.Fatalf("fuzzy threshold: %v", cfg.FuzzyMatchThreshold)
	}
	if cfg.FuzzySeason != time.Now().Year() {
		t.Fatalf("fuzzy season: %d", cfg.FuzzySeason)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("log level: %v", cfg.LogLevel)
	}
}

func TestLoad_PaceIntervalClamped(t *testing.T) {
	t.Setenv("UPID_SPREADSHEET_ID", "sheet-123")
	t.Setenv("PACE_INTERVAL", "50ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PaceInterval != 500*time.Millisecond {
		t.Fatalf("pace interval must be clamped, got %v", cfg.PaceInterval)
	}
}

func TestLoad_ThresholdBounds(t *testing.T) {
	for _, raw := range []string{"0", "-0.1", "1.5"} {
		t.Setenv("UPID_SPREADSHEET_ID", "sheet-123")
		t.Setenv("FUZZY_MATCH_THRESHOLD", raw)
		if _, err := Load(); err == nil {
			t.Fatalf("threshold %s should be rejected", raw)
		}
	}
}

func TestLoad_InvalidNumbers(t *testing.T) {
	t.Setenv("UPID_SPREADSHEET_ID", "sheet-123")
	t.Setenv("MAX_RETRIES", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error for MAX_RETRIES")
	}
}

func TestLoad_NegativeRetriesClampedToZero(t *testing.T) {
	t.Setenv("UPID_SPREADSHEET_ID", "sheet-123")
	t.Setenv("MAX_RETRIES", "-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxRetries != 0 {
		t.Fatalf("max retries: %d", cfg.MaxRetries)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"WARN":    logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"info":    logging.LevelInfo,
		"bogus":   logging.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
