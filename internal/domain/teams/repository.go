package teams

import "context"

type Repository interface {
	Load(ctx context.Context) (AliasMap, error)
	Save(ctx context.Context, m AliasMap) error
}
