package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/platform/logging"
)

// ADMIN sheet team-mapper range: one canonical name followed by up to
// five alias cells per row.
const teamMapRowWidth = 6

// TeamMapService builds the MLB franchise alias map from its sheet range.
type TeamMapService struct {
	source RowSource
	repo   teams.Repository
	logger *logging.Logger
}

func NewTeamMapService(source RowSource, repo teams.Repository, logger *logging.Logger) *TeamMapService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamMapService{source: source, repo: repo, logger: logger}
}

// Build reads the range and constructs a fresh alias map. Blank cells and
// "-" placeholders are ignored; a leading header row is skipped when
// present.
func (s *TeamMapService) Build(ctx context.Context) (teams.AliasMap, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamMapService.Build")
	defer span.End()

	rows, err := s.source.Rows(ctx)
	if err != nil {
		return teams.AliasMap{}, fmt.Errorf("%w: read team map range: %v", ErrSourceUnavailable, err)
	}
	if len(rows) == 0 {
		return teams.AliasMap{}, fmt.Errorf("%w: team map range is empty", ErrSourceUnavailable)
	}

	if len(rows[0]) > 0 && strings.EqualFold(trimCell(rows[0][0]), "mlb official") {
		rows = rows[1:]
	}

	m := teams.NewAliasMap()
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		row = padRow(row, teamMapRowWidth)

		official := trimCell(row[0])
		if official == "" {
			continue
		}

		aliases := make([]string, 0, teamMapRowWidth-1)
		for _, c := range row[1:] {
			alias := trimCell(c)
			if alias == "" || alias == "-" {
				continue
			}
			aliases = append(aliases, alias)
		}
		m.Add(official, aliases...)
	}

	return m, nil
}

// Refresh builds from source and persists the result, falling back to
// the cached map when the source is unreachable. A missing map is not
// fatal downstream; the merge degrades to literal team comparison.
func (s *TeamMapService) Refresh(ctx context.Context) (teams.AliasMap, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamMapService.Refresh")
	defer span.End()

	m, err := s.Build(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "team map range unavailable, falling back to cached map", "error", err)
		cached, loadErr := s.repo.Load(ctx)
		if loadErr != nil {
			return teams.AliasMap{}, fmt.Errorf("%w: no cached team map either: %v", ErrSourceUnavailable, loadErr)
		}
		return cached, nil
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return teams.AliasMap{}, fmt.Errorf("save team map: %w", err)
	}

	s.logger.InfoContext(ctx, "team alias map rebuilt", "teams", m.Len(), "aliases", len(m.Aliases))
	return m, nil
}
