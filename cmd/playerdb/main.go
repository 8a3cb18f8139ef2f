// Command playerdb runs the player identity pipeline: rebuild the UPID
// database and team alias map from their sheets, backfill external ids,
// and merge every source into combined_players.json.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fbphub/playerdb/external/mlbstats"
	"github.com/fbphub/playerdb/external/yahoo"
	"github.com/fbphub/playerdb/internal/config"
	"github.com/fbphub/playerdb/internal/domain/managers"
	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/domain/upid"
	"github.com/fbphub/playerdb/internal/infrastructure/repository/jsonfile"
	"github.com/fbphub/playerdb/internal/infrastructure/sheets"
	"github.com/fbphub/playerdb/internal/platform/logging"
	"github.com/fbphub/playerdb/internal/platform/resilience"
	"github.com/fbphub/playerdb/internal/usecase"
)

func main() {
	stage := flag.String("stage", "all", "pipeline stage to run: all, upid, teammap, match, merge")
	limit := flag.Int("limit", 0, "cap the number of players the id matcher processes (0 = all)")
	dryRun := flag.Bool("dry-run", false, "resolve and report without writing the id cache")
	flag.Parse()

	if err := run(*stage, *limit, *dryRun); err != nil {
		fmt.Fprintln(os.Stderr, "playerdb:", err)
		os.Exit(1)
	}
}

func run(stage string, limit int, dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := managers.LoadFile(cfg.ManagersConfigPath)
	if err != nil {
		return fmt.Errorf("load managers config: %w", err)
	}

	creds, err := os.ReadFile(cfg.GoogleCredsFile)
	if err != nil {
		return fmt.Errorf("read google credentials: %w", err)
	}
	sheetsClient, err := sheets.NewClient(ctx, creds, sheets.ClientConfig{
		BaseURL: cfg.SheetsBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build sheets client: %w", err)
	}
	rangeSource := func(rng string) *sheets.RangeSource {
		return &sheets.RangeSource{Client: sheetsClient, SpreadsheetID: cfg.UPIDSpreadsheetID, Range: rng}
	}

	store := jsonfile.NewStore()
	upidRepo := jsonfile.NewUPIDRepository(store, filepath.Join(cfg.DataDir, "upid_database.json"))
	teamsRepo := jsonfile.NewTeamsRepository(store, filepath.Join(cfg.DataDir, "team_aliases.json"))
	cacheRepo := jsonfile.NewIDCacheRepository(store, filepath.Join(cfg.DataDir, "player_id_cache.json"))
	combinedRepo := jsonfile.NewCombinedRepository(store, filepath.Join(cfg.DataDir, "combined_players.json"))

	upidSvc := usecase.NewUPIDService(rangeSource(cfg.UPIDRange), upidRepo, logger)
	teamSvc := usecase.NewTeamMapService(rangeSource(cfg.TeamMapRange), teamsRepo, logger)

	runUPID := stage == "all" || stage == "upid"
	runTeamMap := stage == "all" || stage == "teammap"
	runMatch := stage == "all" || stage == "match"
	runMerge := stage == "all" || stage == "merge"
	if !runUPID && !runTeamMap && !runMatch && !runMerge {
		return fmt.Errorf("unknown stage %q", stage)
	}

	var upidDB upid.Database
	if runUPID || runMatch || runMerge {
		db, stats, err := upidSvc.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh upid database: %w", err)
		}
		upidDB = db
		logger.InfoContext(ctx, "upid stage complete",
			"records", stats.Records, "skipped", stats.Skipped, "duplicates", stats.Duplicates)
	}

	var aliasMap teams.AliasMap
	if runTeamMap || runMatch || runMerge {
		m, err := teamSvc.Refresh(ctx)
		if err != nil {
			logger.WarnContext(ctx, "team map unavailable, continuing with literal team comparison", "error", err)
			m = teams.NewAliasMap()
		}
		aliasMap = m
	}

	if runMatch {
		mlbClient := mlbstats.NewClient(mlbstats.ClientConfig{
			BaseURL:        cfg.MLBBaseURL,
			Timeout:        cfg.APITimeout,
			MaxRetries:     cfg.MaxRetries,
			PaceInterval:   cfg.PaceInterval,
			Logger:         logger,
			CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		})
		matcher := usecase.NewIDMatcherService(
			mlbClient,
			rangeSource(cfg.IDMapRange),
			cacheRepo,
			cfg.FuzzyMatchThreshold,
			cfg.FuzzySeason,
			logger,
		)
		players, err := combinedRepo.Load(ctx)
		if err != nil {
			return fmt.Errorf("load combined players: %w", err)
		}
		_, stats, err := matcher.BackfillMissing(ctx, upidDB, players, aliasMap, usecase.MatcherOptions{
			Limit:  limit,
			DryRun: dryRun,
		})
		if err != nil {
			return fmt.Errorf("backfill external ids: %w", err)
		}
		logger.InfoContext(ctx, "match stage complete",
			"processed", stats.Processed,
			"resolved", stats.Resolved,
			"ambiguous", stats.Ambiguous,
			"unresolved", stats.Unresolved,
			"skipped", stats.Skipped,
		)
	}

	if runMerge {
		yahooClient, err := yahoo.NewClient(ctx, yahoo.ClientConfig{
			ClientID:     cfg.YahooClientID,
			ClientSecret: cfg.YahooClientSecret,
			RefreshToken: cfg.YahooRefreshToken,
			LeagueKey:    cfg.YahooLeagueKey,
			BaseURL:      cfg.YahooBaseURL,
			Timeout:      cfg.APITimeout,
			Logger:       logger,
			Managers:     dir,
		})
		if err != nil {
			return fmt.Errorf("build yahoo client: %w", err)
		}
		roster, err := yahooClient.LeagueRosters(ctx)
		if err != nil {
			return fmt.Errorf("fetch yahoo rosters: %w", err)
		}
		sheetRows, err := rangeSource(cfg.PlayerDataRange).Rows(ctx)
		if err != nil {
			return fmt.Errorf("fetch player data sheet: %w", err)
		}

		mergeSvc := usecase.NewMergeService(combinedRepo, cacheRepo, logger)
		_, report, err := mergeSvc.Run(ctx, usecase.MergeInput{
			UPIDDB:    upidDB,
			AliasMap:  aliasMap,
			Roster:    roster,
			SheetRows: sheetRows,
			Managers:  dir,
		})
		if err != nil {
			return fmt.Errorf("merge players: %w", err)
		}
		logger.InfoContext(ctx, "merge stage complete",
			"total", report.Total,
			"created", report.Created,
			"ambiguous", report.AmbiguousUPID,
			"unowned", report.Unowned,
		)
	}

	return nil
}
