package managers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "managers.json")
	raw := `{
  "wiz ": {"name": "Whiz Kids", "manager": "Pat", "yahoo_team_id": "3"},
  "B2J": {"name": "Back2Back Jacks", "yahoo_team_id": "7"}
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	dir, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, dir, 2)

	require.Equal(t, "Whiz Kids", dir.Name("WIZ"), "keys must be uppercased and trimmed")
	require.Equal(t, "Pat", dir["WIZ"].Manager)

	abbr, ok := dir.ByYahooTeamID("7")
	require.True(t, ok)
	require.Equal(t, "B2J", abbr)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}
