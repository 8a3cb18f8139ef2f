package combined

import "context"

// Repository persists combined_players.json. Load on a missing file
// returns an empty slice: the first merge run starts from nothing.
type Repository interface {
	Load(ctx context.Context) ([]Player, error)
	Save(ctx context.Context, players []Player) error
}
