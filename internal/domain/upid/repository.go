package upid

import "context"

// Repository persists the last-known-good database so a run can continue
// with stale identity data when the source sheet is unreachable.
type Repository interface {
	Load(ctx context.Context) (Database, error)
	Save(ctx context.Context, db Database) error
}
