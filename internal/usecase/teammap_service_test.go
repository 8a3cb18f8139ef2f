package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fbphub/playerdb/internal/domain/teams"
	"github.com/fbphub/playerdb/internal/infrastructure/repository/memory"
	"github.com/fbphub/playerdb/internal/platform/logging"
)

func teamSheet() [][]string {
	return [][]string{
		{"MLB Official", "Alias 1", "Alias 2", "Alias 3", "Alias 4", "Alias 5"},
		{"Los Angeles Dodgers", "LAD", "Dodgers", "-", "-", "-"},
		{"Seattle Mariners", "SEA", "Mariners", "Seattle", "-", ""},
		{"", "ghost", "-"},
	}
}

func TestTeamMapService_Build(t *testing.T) {
	svc := NewTeamMapService(&fakeRowSource{rows: teamSheet()}, memory.NewTeamsRepository(), logging.NewNop())

	m, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if m.Len() != 2 {
		t.Fatalf("teams: got %d want 2", m.Len())
	}
	if got := m.Canonical("SEA"); got != "Seattle Mariners" {
		t.Fatalf("alias: got %q", got)
	}
	if got := m.Canonical("Los Angeles Dodgers"); got != "Los Angeles Dodgers" {
		t.Fatalf("self alias: got %q", got)
	}
	if m.Known("-") {
		t.Fatal("placeholder cells must not become aliases")
	}
	if m.Known("ghost") {
		t.Fatal("rows without an official name must be dropped")
	}
}

func TestTeamMapService_Build_NoHeader(t *testing.T) {
	rows := [][]string{{"Texas Rangers", "TEX"}}
	svc := NewTeamMapService(&fakeRowSource{rows: rows}, memory.NewTeamsRepository(), logging.NewNop())

	m, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := m.Canonical("TEX"); got != "Texas Rangers" {
		t.Fatalf("headerless range must still parse, got %q", got)
	}
}

func TestTeamMapService_Refresh_FallsBackToCached(t *testing.T) {
	repo := memory.NewTeamsRepository()
	cached := teams.NewAliasMap()
	cached.Add("Atlanta Braves", "ATL")
	if err := repo.Save(context.Background(), cached); err != nil {
		t.Fatalf("seed repo: %v", err)
	}

	svc := NewTeamMapService(&fakeRowSource{err: errors.New("range gone")}, repo, logging.NewNop())
	m, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh must fall back: %v", err)
	}
	if got := m.Canonical("ATL"); got != "Atlanta Braves" {
		t.Fatalf("cached map expected, got %q", got)
	}
}

func TestTeamMapService_Refresh_NoCacheIsFatal(t *testing.T) {
	svc := NewTeamMapService(&fakeRowSource{err: errors.New("range gone")}, memory.NewTeamsRepository(), logging.NewNop())
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
