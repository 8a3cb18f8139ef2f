package usecase

import (
	"context"
	"fmt"

	"github.com/fbphub/playerdb/internal/domain/upid"
	"github.com/fbphub/playerdb/internal/platform/logging"
)

// PlayerUPID sheet column layout. Columns are addressed by position so
// header text changes in the sheet do not break the build.
const (
	upidColName          = 0 // A
	upidColTeam          = 1 // B
	upidColPosition      = 2 // C
	upidColUPID          = 3 // D
	upidColAlt1          = 4 // E
	upidColAlt2          = 5 // F
	upidColAlt3          = 6 // G (no accents)
	upidColApprovedDupes = 8 // I
)

// UPIDBuildStats summarizes one database build for the run report.
type UPIDBuildStats struct {
	Records    int
	IndexKeys  int
	Skipped    int
	Duplicates int
}

// UPIDService builds the UPID database from the source sheet and keeps a
// last-known-good copy on disk for runs where the sheet is unreachable.
type UPIDService struct {
	source RowSource
	repo   upid.Repository
	logger *logging.Logger
}

func NewUPIDService(source RowSource, repo upid.Repository, logger *logging.Logger) *UPIDService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UPIDService{source: source, repo: repo, logger: logger}
}

// Build reads the sheet and constructs a fresh database. Rows missing a
// UPID or a name are skipped and counted; short rows are padded, not
// errored. The first row is the header.
func (s *UPIDService) Build(ctx context.Context) (upid.Database, UPIDBuildStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UPIDService.Build")
	defer span.End()

	stats := UPIDBuildStats{}

	rows, err := s.source.Rows(ctx)
	if err != nil {
		return upid.Database{}, stats, fmt.Errorf("%w: read upid sheet: %v", ErrSourceUnavailable, err)
	}
	if len(rows) == 0 {
		return upid.Database{}, stats, fmt.Errorf("%w: upid sheet is empty", ErrSourceUnavailable)
	}

	db := upid.NewDatabase()
	for _, row := range rows[1:] {
		row = padRow(row, upidColApprovedDupes+1)

		rec := upid.Record{
			UPID:          cell(row, upidColUPID),
			Name:          cell(row, upidColName),
			Team:          cell(row, upidColTeam),
			Position:      cell(row, upidColPosition),
			ApprovedDupes: cell(row, upidColApprovedDupes),
		}
		for _, idx := range []int{upidColAlt1, upidColAlt2, upidColAlt3} {
			if alt := cell(row, idx); alt != "" {
				rec.AltNames = append(rec.AltNames, alt)
			}
		}

		// A UPID without a name has nothing to index by; a name without
		// a UPID is not part of the canonical set. Both are dropped.
		if err := rec.Validate(); err != nil {
			if rec.UPID != "" || rec.Name != "" {
				stats.Skipped++
			}
			continue
		}

		if _, exists := db.ByUPID[rec.UPID]; exists {
			stats.Duplicates++
			s.logger.WarnContext(ctx, "duplicate upid row, last one wins", "upid", rec.UPID, "name", rec.Name)
		}
		db.Add(rec)
	}

	stats.Records = db.Len()
	stats.IndexKeys = len(db.NameIndex)
	return db, stats, nil
}

// Refresh builds from source and persists the result. When the source is
// unavailable it falls back to the last-known-good database on disk so
// the merge can run with stale identity data instead of aborting.
func (s *UPIDService) Refresh(ctx context.Context) (upid.Database, UPIDBuildStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UPIDService.Refresh")
	defer span.End()

	db, stats, err := s.Build(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "upid sheet unavailable, falling back to cached database", "error", err)
		cached, loadErr := s.repo.Load(ctx)
		if loadErr != nil {
			return upid.Database{}, stats, fmt.Errorf("%w: no cached upid database either: %v", ErrSourceUnavailable, loadErr)
		}
		stats.Records = cached.Len()
		stats.IndexKeys = len(cached.NameIndex)
		return cached, stats, nil
	}

	if err := s.repo.Save(ctx, db); err != nil {
		return upid.Database{}, stats, fmt.Errorf("save upid database: %w", err)
	}

	s.logger.InfoContext(ctx, "upid database rebuilt",
		"records", stats.Records,
		"index_keys", stats.IndexKeys,
		"skipped_rows", stats.Skipped,
		"duplicate_upids", stats.Duplicates,
	)
	return db, stats, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return trimCell(row[idx])
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
